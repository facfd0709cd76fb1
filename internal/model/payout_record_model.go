package model

import (
	"time"
)

// PayoutRecordModel 出账记录，每次对外转账一条
type PayoutRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId int64      `json:"campaign_id" gorm:"not null;index"`
	Address    string     `json:"address" gorm:"not null"`
	Amount     int64      `json:"amount" gorm:"not null"`
	TxHash     string     `json:"tx_hash"`
	PayoutType PayoutType `json:"payout_type" gorm:"not null"`
}

// PayoutType 出账类型
type PayoutType string

const (
	PayoutTypeWithdrawal PayoutType = "withdrawal" // 创建者提款
	PayoutTypeRefund     PayoutType = "refund"     // 贡献者退款
)

// TableName 自定义表名
func (PayoutRecordModel) TableName() string {
	return "payout_record"
}
