package task

import (
	"github.com/blues/cls/internal/config"
	"github.com/blues/cls/internal/logger"
	"github.com/blues/cls/internal/logic"
	"github.com/blues/cls/internal/reward"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Job 定时任务接口
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler     gocron.Scheduler
	db            *gorm.DB
	campaignLogic *logic.CampaignLogic
	issuer        *reward.Issuer
	config        *config.Config
}

// NewManager 创建新的任务管理器
func NewManager(db *gorm.DB, campaignLogic *logic.CampaignLogic, issuer *reward.Issuer, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler:     s,
		db:            db,
		campaignLogic: campaignLogic,
		issuer:        issuer,
		config:        cfg,
	}
}

// Start 启动任务管理器
func Start(db *gorm.DB, campaignLogic *logic.CampaignLogic, issuer *reward.Issuer, cfg *config.Config) *Manager {
	manager := NewManager(db, campaignLogic, issuer, cfg)

	// 注册所有任务
	manager.RegisterJobs()

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	// 活动定局任务
	m.registerJob(NewCampaignFinalizeJob(m.db, m.config, m.campaignLogic))
	// 奖励铸造任务
	m.registerJob(NewRewardMintJob(m.db, m.config, m.issuer))
}

// registerJob 注册单个任务
func (m *Manager) registerJob(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
