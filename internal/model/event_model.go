package model

import (
	"time"
)

// EventModel 审计事件记录，只追加不修改
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId int64     `json:"campaign_id" gorm:"not null;index"`
	EventType  EventType `json:"event_type" gorm:"not null"`
	Address    string    `json:"address"`
	Amount     int64     `json:"amount"`
	OccurredAt time.Time `json:"occurred_at" gorm:"not null"`
}

// EventType 事件类型
type EventType string

const (
	EventTypeCampaignCreated   EventType = "campaign_created"   // 活动创建
	EventTypeContributionMade  EventType = "contribution_made"  // 贡献入账
	EventTypeCampaignFinalized EventType = "campaign_finalized" // 活动定局
	EventTypeFundsWithdrawn    EventType = "funds_withdrawn"    // 资金提取
	EventTypeRefundClaimed     EventType = "refund_claimed"     // 退款领取
)

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}
