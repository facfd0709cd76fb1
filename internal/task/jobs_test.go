package task

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/blues/cls/internal/config"
	"github.com/blues/cls/internal/database"
	"github.com/blues/cls/internal/logic"
	"github.com/blues/cls/internal/model"
	"github.com/blues/cls/internal/reward"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type noopTransferor struct{}

func (noopTransferor) Transfer(ctx context.Context, to string, amount int64) (string, error) {
	return "0xabc", nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestCampaignFinalizeJobFinalizesExpired(t *testing.T) {
	db := newTestDB(t)
	campaignLogic := logic.NewCampaignLogic(db, noopTransferor{})
	cfg := &config.Config{Task: config.TaskConfig{Interval: 60}}
	job := NewCampaignFinalizeJob(db, cfg, campaignLogic)

	now := time.Now()

	// 已过期未达标的活动
	failed := model.CampaignModel{
		CreatorAddress: "0xCreator",
		Goal:           100,
		Deadline:       now.Add(-time.Hour),
		MetadataHash:   "hash1",
		TotalRaised:    40,
		Status:         model.CampaignStatusActive,
	}
	require.NoError(t, db.Create(&failed).Error)

	// 已过期达标的活动
	succeeded := model.CampaignModel{
		CreatorAddress: "0xCreator",
		Goal:           100,
		Deadline:       now.Add(-time.Hour),
		MetadataHash:   "hash2",
		TotalRaised:    100,
		Status:         model.CampaignStatusActive,
	}
	require.NoError(t, db.Create(&succeeded).Error)

	// 未过期的活动不受影响
	active := model.CampaignModel{
		CreatorAddress: "0xCreator",
		Goal:           100,
		Deadline:       now.Add(time.Hour),
		MetadataHash:   "hash3",
		TotalRaised:    100,
		Status:         model.CampaignStatusActive,
	}
	require.NoError(t, db.Create(&active).Error)

	job.Execute()

	var got model.CampaignModel
	require.NoError(t, db.First(&got, failed.Id).Error)
	assert.Equal(t, model.CampaignStatusFailed, got.Status)
	got = model.CampaignModel{}
	require.NoError(t, db.First(&got, succeeded.Id).Error)
	assert.Equal(t, model.CampaignStatusSuccessful, got.Status)
	got = model.CampaignModel{}
	require.NoError(t, db.First(&got, active.Id).Error)
	assert.Equal(t, model.CampaignStatusActive, got.Status)

	// 再次执行没有可定局的活动
	job.Execute()
	got = model.CampaignModel{}
	require.NoError(t, db.First(&got, failed.Id).Error)
	assert.Equal(t, model.CampaignStatusFailed, got.Status)
}

func TestRewardMintJobMintsOncePerContributor(t *testing.T) {
	db := newTestDB(t)
	issuer := reward.NewIssuer(db, "0xOwner", "https://rewards.example/")
	cfg := &config.Config{
		Reward: config.RewardConfig{
			OwnerAddress: "0xOwner",
			Tiers:        []int64{10, 100},
			PoolSize:     1,
		},
		Task: config.TaskConfig{Interval: 60},
	}
	job := NewRewardMintJob(db, cfg, issuer)

	entries := []model.LedgerEntryModel{
		{CampaignId: 1, Address: "0xA", Amount: 150}, // 达到高档位
		{CampaignId: 1, Address: "0xB", Amount: 10},  // 恰好达到低档位
		{CampaignId: 1, Address: "0xC", Amount: 9},   // 未达档位
	}
	for i := range entries {
		require.NoError(t, db.Create(&entries[i]).Error)
	}

	job.Execute()

	var tokens []model.RewardTokenModel
	require.NoError(t, db.Order("recipient_address ASC").Find(&tokens).Error)
	require.Len(t, tokens, 2)
	assert.Equal(t, "0xA", tokens[0].RecipientAddress)
	assert.Equal(t, int64(100), tokens[0].TierAmount)
	assert.Equal(t, "0xB", tokens[1].RecipientAddress)
	assert.Equal(t, int64(10), tokens[1].TierAmount)

	// 重复执行不重复铸造
	job.Execute()
	var count int64
	require.NoError(t, db.Model(&model.RewardTokenModel{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
