package model

import (
	"time"
)

// LedgerEntryModel 贡献账本条目，按（活动, 贡献者）累计
type LedgerEntryModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId int64  `json:"campaign_id" gorm:"not null;uniqueIndex:idx_ledger_campaign_address"`
	Address    string `json:"address" gorm:"not null;uniqueIndex:idx_ledger_campaign_address"`
	Amount     int64  `json:"amount" gorm:"not null"` // 累计金额，只增不减
}

// TableName 自定义表名
func (LedgerEntryModel) TableName() string {
	return "ledger_entry"
}
