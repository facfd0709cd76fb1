package task

import (
	"sync"
	"time"

	"github.com/blues/cls/internal/config"
	"github.com/blues/cls/internal/logger"
	"github.com/blues/cls/internal/model"
	"github.com/blues/cls/internal/reward"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// RewardMintJob 奖励铸造任务。扫描累计贡献达到档位的账本条目，
// 以owner身份调用发行器铸造奖励代币。账本引擎不感知本任务，
// 铸造失败不影响账本正确性。
type RewardMintJob struct {
	db     *gorm.DB
	config *config.Config
	issuer *reward.Issuer
}

// NewRewardMintJob 创建奖励铸造任务
func NewRewardMintJob(db *gorm.DB, cfg *config.Config, issuer *reward.Issuer) *RewardMintJob {
	return &RewardMintJob{
		db:     db,
		config: cfg,
		issuer: issuer,
	}
}

// GetName 获取任务名称
func (j *RewardMintJob) GetName() string {
	return "reward_mint"
}

// GetSchedule 获取调度配置
func (j *RewardMintJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *RewardMintJob) Execute() {
	tiers := j.config.Reward.Tiers
	if len(tiers) == 0 {
		return
	}

	logger.Info("Starting reward mint task")

	// 最低档位以上的账本条目才可能需要铸造
	minTier := tiers[0]
	for _, tier := range tiers {
		if tier < minTier {
			minTier = tier
		}
	}

	var entries []model.LedgerEntryModel
	if err := j.db.Where("amount >= ?", minTier).Find(&entries).Error; err != nil {
		logger.Error("Failed to fetch ledger entries for minting: %v", err)
		return
	}

	poolSize := j.config.Reward.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		logger.Error("Failed to create mint pool: %v", err)
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, entry := range entries {
		entry := entry
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			j.mintForEntry(entry)
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit mint task: %v", err)
		}
	}
	wg.Wait()

	logger.Info("Reward mint task completed")
}

// mintForEntry 为单个账本条目铸造奖励
func (j *RewardMintJob) mintForEntry(entry model.LedgerEntryModel) {
	minted, err := j.issuer.HasMinted(entry.CampaignId, entry.Address)
	if err != nil {
		logger.Error("Failed to check minted state for campaign %d address %s: %v",
			entry.CampaignId, entry.Address, err)
		return
	}
	if minted {
		return
	}

	// 取已达到的最高档位
	tier := int64(0)
	for _, t := range j.config.Reward.Tiers {
		if entry.Amount >= t && t > tier {
			tier = t
		}
	}
	if tier == 0 {
		return
	}

	tokenId, err := j.issuer.MintReward(j.config.Reward.OwnerAddress,
		entry.CampaignId, entry.Address, tier)
	if err != nil {
		logger.Error("Failed to mint reward for campaign %d address %s: %v",
			entry.CampaignId, entry.Address, err)
		return
	}

	logger.Info("Minted reward token %d for campaign %d address %s at tier %d",
		tokenId, entry.CampaignId, entry.Address, tier)
}
