package handler

import (
	"time"

	"github.com/blues/cls/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// 活动相关请求模型

// CreateCampaignRequest 创建活动请求
type CreateCampaignRequest struct {
	CreatorAddress string    `json:"creator_address" binding:"required"`
	Goal           int64     `json:"goal" binding:"required"`
	Deadline       time.Time `json:"deadline" binding:"required"`
	MetadataHash   string    `json:"metadata_hash" binding:"required"`
}

// ContributeRequest 贡献请求
type ContributeRequest struct {
	Address string `json:"address" binding:"required"`
	Amount  int64  `json:"amount" binding:"required"`
}

// CallerRequest 提款/退款请求，只需要调用者地址
type CallerRequest struct {
	Address string `json:"address" binding:"required"`
}

// 活动相关响应模型

// CampaignResponse 活动响应模型
type CampaignResponse struct {
	Id             int64     `json:"id"`
	CreatorAddress string    `json:"creatorAddress"`
	Goal           int64     `json:"goal"`
	Deadline       time.Time `json:"deadline"`
	MetadataHash   string    `json:"metadataHash"`
	TotalRaised    int64     `json:"totalRaised"`
	Status         string    `json:"status"`
	Withdrawn      bool      `json:"withdrawn"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ToCampaignResponse 转换活动响应模型
func ToCampaignResponse(campaign *model.CampaignModel) CampaignResponse {
	return CampaignResponse{
		Id:             campaign.Id,
		CreatorAddress: campaign.CreatorAddress,
		Goal:           campaign.Goal,
		Deadline:       campaign.Deadline,
		MetadataHash:   campaign.MetadataHash,
		TotalRaised:    campaign.TotalRaised,
		Status:         string(campaign.Status),
		Withdrawn:      campaign.Withdrawn,
		CreatedAt:      campaign.CreatedAt,
		UpdatedAt:      campaign.UpdatedAt,
	}
}

// ToCampaignResponseList 转换活动响应模型列表
func ToCampaignResponseList(campaigns []model.CampaignModel) []CampaignResponse {
	responses := make([]CampaignResponse, 0, len(campaigns))
	for i := range campaigns {
		responses = append(responses, ToCampaignResponse(&campaigns[i]))
	}
	return responses
}

// GetCampaignsResponse 获取活动列表响应
type GetCampaignsResponse struct {
	Campaigns  []CampaignResponse `json:"campaigns"`
	Pagination Pagination         `json:"pagination"`
}

// 奖励代币相关请求模型

// MintRewardRequest 铸造奖励代币请求
type MintRewardRequest struct {
	Caller     string `json:"caller" binding:"required"`
	CampaignId int64  `json:"campaign_id" binding:"required"`
	Recipient  string `json:"recipient" binding:"required"`
	TierAmount int64  `json:"tier_amount" binding:"required"`
}

// SetBaseURIRequest 设置元数据地址模板请求
type SetBaseURIRequest struct {
	Caller  string `json:"caller" binding:"required"`
	BaseURI string `json:"base_uri" binding:"required"`
}

// TransferTokenRequest 转移代币请求
type TransferTokenRequest struct {
	Caller string `json:"caller" binding:"required"`
	To     string `json:"to" binding:"required"`
}

// ApproveTokenRequest 授权代币请求
type ApproveTokenRequest struct {
	Caller  string `json:"caller" binding:"required"`
	Spender string `json:"spender" binding:"required"`
}
