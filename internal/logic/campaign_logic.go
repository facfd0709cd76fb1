package logic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blues/cls/internal/model"
	"github.com/blues/cls/internal/payout"
	"gorm.io/gorm"
)

// CampaignLogic 活动账本引擎。五个状态变更操作（创建、贡献、定局、
// 提款、退款）都在单个数据库事务内完成，事务回滚即整体回滚。
type CampaignLogic struct {
	db         *gorm.DB
	transferor payout.Transferor

	// 重入保护：转账回调期间再次进入任一资金操作会被直接拒绝。
	// 锁是引擎级而非活动级的，所有资金操作串行执行，并发请求拿不到锁
	// 时直接返回 ErrReentrantCall 而不是排队等待。
	// TODO: 按活动粒度加锁，让不同活动的资金操作可以并行
	mu sync.Mutex

	// 时间源，测试中可替换
	now func() time.Time
}

// NewCampaignLogic 创建活动账本引擎
func NewCampaignLogic(db *gorm.DB, transferor payout.Transferor) *CampaignLogic {
	return &CampaignLogic{
		db:         db,
		transferor: transferor,
		now:        time.Now,
	}
}

// CreateCampaign 创建活动，返回活动ID
func (l *CampaignLogic) CreateCampaign(creator string, goal int64, deadline time.Time, metadataHash string) (int64, error) {
	// 验证活动数据
	if goal <= 0 {
		return 0, ErrInvalidGoal
	}
	if !deadline.After(l.now()) {
		return 0, ErrInvalidDeadline
	}

	campaign := model.CampaignModel{
		CreatorAddress: creator,
		Goal:           goal,
		Deadline:       deadline,
		MetadataHash:   metadataHash,
		TotalRaised:    0,
		Status:         model.CampaignStatusActive,
		Withdrawn:      false,
	}

	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&campaign).Error; err != nil {
			return fmt.Errorf("创建活动失败: %w", err)
		}
		return l.recordEvent(tx, campaign.Id, model.EventTypeCampaignCreated, creator, goal)
	})
	if err != nil {
		return 0, err
	}

	return campaign.Id, nil
}

// Contribute 向活动贡献资金，同一地址多次贡献累加
func (l *CampaignLogic) Contribute(campaignId int64, address string, amount int64) error {
	if !l.mu.TryLock() {
		return ErrReentrantCall
	}
	defer l.mu.Unlock()

	// 验证贡献数据
	if amount <= 0 {
		return ErrZeroContribution
	}

	return l.db.Transaction(func(tx *gorm.DB) error {
		campaign, err := l.findCampaign(tx, campaignId)
		if err != nil {
			return err
		}

		if campaign.Status != model.CampaignStatusActive {
			return ErrCampaignNotActive
		}
		if !l.now().Before(campaign.Deadline) {
			return ErrDeadlinePassed
		}

		// 更新贡献账本条目
		var entry model.LedgerEntryModel
		err = tx.Where("campaign_id = ? AND address = ?", campaignId, address).First(&entry).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			entry = model.LedgerEntryModel{
				CampaignId: campaignId,
				Address:    address,
				Amount:     amount,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("创建账本条目失败: %w", err)
			}
		case err != nil:
			return err
		default:
			if err := tx.Model(&entry).
				Update("amount", gorm.Expr("amount + ?", amount)).Error; err != nil {
				return fmt.Errorf("更新账本条目失败: %w", err)
			}
		}

		// 更新活动累计金额
		if err := tx.Model(&model.CampaignModel{}).Where("id = ?", campaignId).
			Update("total_raised", gorm.Expr("total_raised + ?", amount)).Error; err != nil {
			return fmt.Errorf("更新活动累计金额失败: %w", err)
		}

		return l.recordEvent(tx, campaignId, model.EventTypeContributionMade, address, amount)
	})
}

// Finalize 活动定局：截止后任何人可调用一次，达标成功，否则失败。
// 定局结果之后不可更改。
func (l *CampaignLogic) Finalize(campaignId int64) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		campaign, err := l.findCampaign(tx, campaignId)
		if err != nil {
			return err
		}

		if campaign.Status != model.CampaignStatusActive {
			return ErrCampaignNotActive
		}
		if l.now().Before(campaign.Deadline) {
			return ErrDeadlineNotReached
		}

		// 恰好达到目标视为成功
		newStatus := model.CampaignStatusFailed
		if campaign.TotalRaised >= campaign.Goal {
			newStatus = model.CampaignStatusSuccessful
		}

		if err := tx.Model(&model.CampaignModel{}).Where("id = ?", campaignId).
			Update("status", newStatus).Error; err != nil {
			return fmt.Errorf("更新活动状态失败: %w", err)
		}

		return l.recordEvent(tx, campaignId, model.EventTypeCampaignFinalized, "", campaign.TotalRaised)
	})
}

// WithdrawFunds 创建者提取全部募集资金，只能成功一次。
// 先落提款标记再转账，转账失败则整个事务回滚。
func (l *CampaignLogic) WithdrawFunds(ctx context.Context, campaignId int64, caller string) (string, error) {
	if !l.mu.TryLock() {
		return "", ErrReentrantCall
	}
	defer l.mu.Unlock()

	var txHash string
	err := l.db.Transaction(func(tx *gorm.DB) error {
		campaign, err := l.findCampaign(tx, campaignId)
		if err != nil {
			return err
		}

		if caller != campaign.CreatorAddress {
			return ErrNotCampaignCreator
		}
		if campaign.Withdrawn {
			return ErrAlreadyWithdrawn
		}
		if campaign.Status != model.CampaignStatusSuccessful {
			return ErrCampaignNotSuccessful
		}

		if err := tx.Model(&model.CampaignModel{}).Where("id = ?", campaignId).
			Updates(map[string]interface{}{
				"withdrawn": true,
				"status":    model.CampaignStatusClaimed,
			}).Error; err != nil {
			return fmt.Errorf("更新提款状态失败: %w", err)
		}

		if err := l.recordEvent(tx, campaignId, model.EventTypeFundsWithdrawn,
			campaign.CreatorAddress, campaign.TotalRaised); err != nil {
			return err
		}

		hash, err := l.transferor.Transfer(ctx, campaign.CreatorAddress, campaign.TotalRaised)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		txHash = hash

		payoutRecord := model.PayoutRecordModel{
			CampaignId: campaignId,
			Address:    campaign.CreatorAddress,
			Amount:     campaign.TotalRaised,
			TxHash:     hash,
			PayoutType: model.PayoutTypeWithdrawal,
		}
		if err := tx.Create(&payoutRecord).Error; err != nil {
			return fmt.Errorf("创建出账记录失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return txHash, nil
}

// ClaimRefund 活动失败后贡献者领取退款，每个贡献者只能领取一次。
// 各贡献者的领取互不影响。
func (l *CampaignLogic) ClaimRefund(ctx context.Context, campaignId int64, caller string) (string, error) {
	if !l.mu.TryLock() {
		return "", ErrReentrantCall
	}
	defer l.mu.Unlock()

	var txHash string
	err := l.db.Transaction(func(tx *gorm.DB) error {
		campaign, err := l.findCampaign(tx, campaignId)
		if err != nil {
			return err
		}

		if campaign.Status != model.CampaignStatusFailed {
			return ErrCampaignNotFailed
		}

		var entry model.LedgerEntryModel
		err = tx.Where("campaign_id = ? AND address = ?", campaignId, caller).First(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && entry.Amount <= 0) {
			return ErrNoContribution
		}
		if err != nil {
			return err
		}

		var claimed int64
		if err := tx.Model(&model.RefundClaimModel{}).
			Where("campaign_id = ? AND address = ?", campaignId, caller).
			Count(&claimed).Error; err != nil {
			return err
		}
		if claimed > 0 {
			return ErrAlreadyRefunded
		}

		// 先落领取标记再转账，转账失败则整个事务回滚
		claim := model.RefundClaimModel{
			CampaignId: campaignId,
			Address:    caller,
			Amount:     entry.Amount,
		}
		if err := tx.Create(&claim).Error; err != nil {
			return fmt.Errorf("创建退款记录失败: %w", err)
		}

		if err := l.recordEvent(tx, campaignId, model.EventTypeRefundClaimed, caller, entry.Amount); err != nil {
			return err
		}

		hash, err := l.transferor.Transfer(ctx, caller, entry.Amount)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		txHash = hash

		if err := tx.Model(&claim).Update("tx_hash", hash).Error; err != nil {
			return fmt.Errorf("更新退款记录失败: %w", err)
		}

		payoutRecord := model.PayoutRecordModel{
			CampaignId: campaignId,
			Address:    caller,
			Amount:     entry.Amount,
			TxHash:     hash,
			PayoutType: model.PayoutTypeRefund,
		}
		if err := tx.Create(&payoutRecord).Error; err != nil {
			return fmt.Errorf("创建出账记录失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return txHash, nil
}

// GetCampaign 获取活动详情
func (l *CampaignLogic) GetCampaign(campaignId int64) (*model.CampaignModel, error) {
	var campaign model.CampaignModel
	if err := l.db.First(&campaign, campaignId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("获取活动详情失败: %w", err)
	}
	return &campaign, nil
}

// GetCampaigns 获取活动列表
func (l *CampaignLogic) GetCampaigns(status string, page, pageSize int) ([]model.CampaignModel, int64, error) {
	var campaigns []model.CampaignModel
	var total int64

	query := l.db.Model(&model.CampaignModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取活动总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).
		Order("created_at DESC").
		Find(&campaigns).Error; err != nil {
		return nil, 0, fmt.Errorf("获取活动列表失败: %w", err)
	}

	return campaigns, total, nil
}

// GetContribution 获取某地址在某活动的累计贡献，没有记录返回0
func (l *CampaignLogic) GetContribution(campaignId int64, address string) (int64, error) {
	var entry model.LedgerEntryModel
	err := l.db.Where("campaign_id = ? AND address = ?", campaignId, address).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("获取贡献记录失败: %w", err)
	}
	return entry.Amount, nil
}

// HasClaimedRefund 查询某地址是否已领取某活动的退款
func (l *CampaignLogic) HasClaimedRefund(campaignId int64, address string) (bool, error) {
	var count int64
	if err := l.db.Model(&model.RefundClaimModel{}).
		Where("campaign_id = ? AND address = ?", campaignId, address).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("获取退款记录失败: %w", err)
	}
	return count > 0, nil
}

// GetLedgerEntries 获取活动账本条目
func (l *CampaignLogic) GetLedgerEntries(campaignId int64, page, pageSize int) ([]model.LedgerEntryModel, int64, error) {
	var entries []model.LedgerEntryModel
	var total int64

	query := l.db.Model(&model.LedgerEntryModel{}).Where("campaign_id = ?", campaignId)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取账本条目总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).
		Order("amount DESC").
		Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("获取账本条目失败: %w", err)
	}

	return entries, total, nil
}

// GetCampaignStats 获取活动统计信息
func (l *CampaignLogic) GetCampaignStats(campaignId int64) (map[string]interface{}, error) {
	campaign, err := l.GetCampaign(campaignId)
	if err != nil {
		return nil, err
	}

	var contributorCount int64
	if err := l.db.Model(&model.LedgerEntryModel{}).
		Where("campaign_id = ?", campaignId).
		Count(&contributorCount).Error; err != nil {
		return nil, fmt.Errorf("获取贡献者数量失败: %w", err)
	}

	var refundedCount int64
	if err := l.db.Model(&model.RefundClaimModel{}).
		Where("campaign_id = ?", campaignId).
		Count(&refundedCount).Error; err != nil {
		return nil, fmt.Errorf("获取退款数量失败: %w", err)
	}

	// 计算完成百分比
	completionPercentage := float64(0)
	if campaign.Goal > 0 {
		completionPercentage = float64(campaign.TotalRaised) / float64(campaign.Goal) * 100
	}

	// 计算剩余时间
	remainingTime := time.Duration(0)
	if campaign.Status == model.CampaignStatusActive && l.now().Before(campaign.Deadline) {
		remainingTime = campaign.Deadline.Sub(l.now())
	}

	return map[string]interface{}{
		"campaign_id":           campaign.Id,
		"total_raised":          campaign.TotalRaised,
		"goal":                  campaign.Goal,
		"completion_percentage": completionPercentage,
		"contributor_count":     contributorCount,
		"refunded_count":        refundedCount,
		"remaining_time":        remainingTime.String(),
		"status":                campaign.Status,
		"withdrawn":             campaign.Withdrawn,
	}, nil
}

// findCampaign 在事务内按主键读取活动
func (l *CampaignLogic) findCampaign(tx *gorm.DB, campaignId int64) (*model.CampaignModel, error) {
	var campaign model.CampaignModel
	if err := tx.First(&campaign, campaignId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("获取活动失败: %w", err)
	}
	return &campaign, nil
}

// recordEvent 在同一事务内追加审计事件，事务回滚时事件一并撤销
func (l *CampaignLogic) recordEvent(tx *gorm.DB, campaignId int64, eventType model.EventType, address string, amount int64) error {
	event := model.EventModel{
		CampaignId: campaignId,
		EventType:  eventType,
		Address:    address,
		Amount:     amount,
		OccurredAt: l.now(),
	}
	if err := tx.Create(&event).Error; err != nil {
		return fmt.Errorf("创建事件记录失败: %w", err)
	}
	return nil
}
