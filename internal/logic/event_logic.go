package logic

import (
	"fmt"

	"github.com/blues/cls/internal/model"
	"gorm.io/gorm"
)

// EventLogic 审计事件查询逻辑
type EventLogic struct {
	db *gorm.DB
}

// NewEventLogic 创建审计事件查询逻辑
func NewEventLogic(db *gorm.DB) *EventLogic {
	return &EventLogic{db: db}
}

// GetEvents 获取事件列表
func (e *EventLogic) GetEvents(campaignId int64, eventType string, page, pageSize int) ([]model.EventModel, int64, error) {
	var events []model.EventModel
	var total int64

	// 构建查询条件
	query := e.db.Model(&model.EventModel{})
	if campaignId > 0 {
		query = query.Where("campaign_id = ?", campaignId)
	}
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}

	// 获取总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件总数失败: %w", err)
	}

	// 获取数据
	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).
		Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件列表失败: %w", err)
	}

	return events, total, nil
}

// GetPayoutRecords 获取活动出账记录
func (e *EventLogic) GetPayoutRecords(campaignId int64, page, pageSize int) ([]model.PayoutRecordModel, int64, error) {
	var records []model.PayoutRecordModel
	var total int64

	query := e.db.Model(&model.PayoutRecordModel{}).Where("campaign_id = ?", campaignId)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取出账记录总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("获取出账记录失败: %w", err)
	}

	return records, total, nil
}
