package model

import (
	"time"
)

// CampaignModel 众筹活动模型
type CampaignModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息（创建后不可修改）
	CreatorAddress string    `json:"creator_address" gorm:"not null;index"`
	Goal           int64     `json:"goal" gorm:"not null" binding:"required,min=1"`
	Deadline       time.Time `json:"deadline" gorm:"not null"`
	MetadataHash   string    `json:"metadata_hash" gorm:"not null"`

	// 账本信息
	TotalRaised int64 `json:"total_raised" gorm:"default:0"`

	// 状态
	Status    CampaignStatus `json:"status" gorm:"default:'active';index"`
	Withdrawn bool           `json:"withdrawn" gorm:"default:false"`
}

// CampaignStatus 活动状态
type CampaignStatus string

const (
	CampaignStatusActive     CampaignStatus = "active"     // 进行中
	CampaignStatusSuccessful CampaignStatus = "successful" // 达标成功
	CampaignStatusFailed     CampaignStatus = "failed"     // 未达标
	CampaignStatusClaimed    CampaignStatus = "claimed"    // 已提款
)

// TableName 自定义表名
func (CampaignModel) TableName() string {
	return "campaign"
}
