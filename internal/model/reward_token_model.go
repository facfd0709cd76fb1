package model

import (
	"time"
)

// RewardTokenModel 奖励代币，token id 即主键，顺序分配不复用
type RewardTokenModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId       int64  `json:"campaign_id" gorm:"not null;index:idx_token_campaign_recipient"`
	RecipientAddress string `json:"recipient_address" gorm:"not null;index:idx_token_campaign_recipient"` // 铸造时的接收者，不随转移变化
	OwnerAddress     string `json:"owner_address" gorm:"not null;index"`
	Approved         string `json:"approved"` // 被授权转移该代币的地址
	TierAmount       int64  `json:"tier_amount" gorm:"not null"`
}

// TableName 自定义表名
func (RewardTokenModel) TableName() string {
	return "reward_token"
}
