package reward

import (
	"errors"
	"fmt"
	"sync"

	"github.com/blues/cls/internal/model"
	"gorm.io/gorm"
)

var (
	ErrNotAuthorized = errors.New("没有铸造权限")
	ErrTokenNotFound = errors.New("代币不存在")
	ErrNotTokenOwner = errors.New("不是代币持有者或被授权地址")
)

// Issuer 奖励代币发行器。只有配置的owner地址可以铸造和修改baseURI，
// 账本引擎不依赖本组件，由外部调用方（定时任务）驱动。
type Issuer struct {
	db    *gorm.DB
	owner string

	mu      sync.RWMutex
	baseURI string
}

// NewIssuer 创建奖励代币发行器
func NewIssuer(db *gorm.DB, owner, baseURI string) *Issuer {
	return &Issuer{
		db:      db,
		owner:   owner,
		baseURI: baseURI,
	}
}

// MintReward 为达到档位的贡献者铸造奖励代币，返回代币ID。
// 代币ID顺序分配，不复用。
func (i *Issuer) MintReward(caller string, campaignId int64, recipient string, tierAmount int64) (int64, error) {
	if caller != i.owner {
		return 0, ErrNotAuthorized
	}

	token := model.RewardTokenModel{
		CampaignId:       campaignId,
		RecipientAddress: recipient,
		OwnerAddress:     recipient,
		TierAmount:       tierAmount,
	}
	if err := i.db.Create(&token).Error; err != nil {
		return 0, fmt.Errorf("铸造奖励代币失败: %w", err)
	}

	return token.Id, nil
}

// SetBaseURI 设置代币元数据地址模板，影响之后所有的TokenURI查询
func (i *Issuer) SetBaseURI(caller, uri string) error {
	if caller != i.owner {
		return ErrNotAuthorized
	}

	i.mu.Lock()
	i.baseURI = uri
	i.mu.Unlock()
	return nil
}

// TokenURI 获取代币元数据地址
func (i *Issuer) TokenURI(tokenId int64) (string, error) {
	if _, err := i.GetToken(tokenId); err != nil {
		return "", err
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	return fmt.Sprintf("%s%d", i.baseURI, tokenId), nil
}

// GetToken 获取代币详情
func (i *Issuer) GetToken(tokenId int64) (*model.RewardTokenModel, error) {
	var token model.RewardTokenModel
	if err := i.db.First(&token, tokenId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("获取代币失败: %w", err)
	}
	return &token, nil
}

// OwnerOf 获取代币持有者地址
func (i *Issuer) OwnerOf(tokenId int64) (string, error) {
	token, err := i.GetToken(tokenId)
	if err != nil {
		return "", err
	}
	return token.OwnerAddress, nil
}

// BalanceOf 获取某地址持有的代币数量
func (i *Issuer) BalanceOf(address string) (int64, error) {
	var count int64
	if err := i.db.Model(&model.RewardTokenModel{}).
		Where("owner_address = ?", address).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("获取代币数量失败: %w", err)
	}
	return count, nil
}

// GetTokensByOwner 获取某地址持有的代币列表
func (i *Issuer) GetTokensByOwner(address string) ([]model.RewardTokenModel, error) {
	var tokens []model.RewardTokenModel
	if err := i.db.Where("owner_address = ?", address).
		Order("id ASC").
		Find(&tokens).Error; err != nil {
		return nil, fmt.Errorf("获取代币列表失败: %w", err)
	}
	return tokens, nil
}

// Transfer 转移代币，调用者必须是持有者或被授权地址。
// 转移后清空授权。
func (i *Issuer) Transfer(caller string, tokenId int64, to string) error {
	token, err := i.GetToken(tokenId)
	if err != nil {
		return err
	}
	if caller != token.OwnerAddress && caller != token.Approved {
		return ErrNotTokenOwner
	}

	if err := i.db.Model(token).Updates(map[string]interface{}{
		"owner_address": to,
		"approved":      "",
	}).Error; err != nil {
		return fmt.Errorf("转移代币失败: %w", err)
	}
	return nil
}

// Approve 授权某地址转移代币，只有持有者可以授权
func (i *Issuer) Approve(caller string, tokenId int64, spender string) error {
	token, err := i.GetToken(tokenId)
	if err != nil {
		return err
	}
	if caller != token.OwnerAddress {
		return ErrNotTokenOwner
	}

	if err := i.db.Model(token).Update("approved", spender).Error; err != nil {
		return fmt.Errorf("授权代币失败: %w", err)
	}
	return nil
}

// HasMinted 查询某活动是否已为某接收者铸造过代币
func (i *Issuer) HasMinted(campaignId int64, recipient string) (bool, error) {
	var count int64
	if err := i.db.Model(&model.RewardTokenModel{}).
		Where("campaign_id = ? AND recipient_address = ?", campaignId, recipient).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("查询铸造记录失败: %w", err)
	}
	return count > 0, nil
}
