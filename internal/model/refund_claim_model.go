package model

import (
	"time"
)

// RefundClaimModel 退款领取记录，存在即表示已领取
type RefundClaimModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId int64  `json:"campaign_id" gorm:"not null;uniqueIndex:idx_refund_campaign_address"`
	Address    string `json:"address" gorm:"not null;uniqueIndex:idx_refund_campaign_address"`
	Amount     int64  `json:"amount" gorm:"not null"`
	TxHash     string `json:"tx_hash"`
}

// TableName 自定义表名
func (RefundClaimModel) TableName() string {
	return "refund_claim"
}
