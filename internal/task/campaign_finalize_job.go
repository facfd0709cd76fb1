package task

import (
	"errors"
	"time"

	"github.com/blues/cls/internal/config"
	"github.com/blues/cls/internal/logger"
	"github.com/blues/cls/internal/logic"
	"github.com/blues/cls/internal/model"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// CampaignFinalizeJob 活动定局任务。定局操作任何人都可以调用，
// 这里由调度器代为触发，保证到期活动及时定局。
type CampaignFinalizeJob struct {
	db            *gorm.DB
	config        *config.Config
	campaignLogic *logic.CampaignLogic
}

// NewCampaignFinalizeJob 创建活动定局任务
func NewCampaignFinalizeJob(db *gorm.DB, cfg *config.Config, campaignLogic *logic.CampaignLogic) *CampaignFinalizeJob {
	return &CampaignFinalizeJob{
		db:            db,
		config:        cfg,
		campaignLogic: campaignLogic,
	}
}

// GetName 获取任务名称
func (j *CampaignFinalizeJob) GetName() string {
	return "campaign_finalize"
}

// GetSchedule 获取调度配置
func (j *CampaignFinalizeJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *CampaignFinalizeJob) Execute() {
	logger.Info("Starting campaign finalize task")

	now := time.Now()

	// 查找需要定局的活动：进行中且已过截止时间
	var campaigns []model.CampaignModel
	err := j.db.Where("status = ? AND deadline <= ?",
		model.CampaignStatusActive, now).Find(&campaigns).Error
	if err != nil {
		logger.Error("Failed to fetch campaigns for finalizing: %v", err)
		return
	}

	finalizedCount := 0

	for _, campaign := range campaigns {
		if err := j.campaignLogic.Finalize(campaign.Id); err != nil {
			// 有人抢先定局不算失败
			if errors.Is(err, logic.ErrCampaignNotActive) {
				continue
			}
			logger.Error("Failed to finalize campaign %d: %v", campaign.Id, err)
			continue
		}

		logger.Info("Finalized campaign %d: raised %d against goal %d",
			campaign.Id, campaign.TotalRaised, campaign.Goal)
		finalizedCount++
	}

	logger.Info("Campaign finalize task completed. Finalized %d campaigns", finalizedCount)
}
