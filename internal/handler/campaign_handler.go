package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/cls/internal/logic"
	"github.com/gin-gonic/gin"
)

// CampaignHandler 活动处理器
type CampaignHandler struct {
	campaignLogic *logic.CampaignLogic
	eventLogic    *logic.EventLogic
}

// NewCampaignHandler 创建活动处理器
func NewCampaignHandler(campaignLogic *logic.CampaignLogic, eventLogic *logic.EventLogic) *CampaignHandler {
	return &CampaignHandler{
		campaignLogic: campaignLogic,
		eventLogic:    eventLogic,
	}
}

// CreateCampaign 创建活动
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	// 调用logic层创建活动
	campaignId, err := h.campaignLogic.CreateCampaign(req.CreatorAddress, req.Goal, req.Deadline, req.MetadataHash)
	if err != nil {
		ErrorResponse(c, statusForError(err), err.Error())
		return
	}

	SuccessResponse(c, http.StatusCreated, "活动创建成功", gin.H{
		"campaign_id": campaignId,
	})
}

// GetCampaigns 获取活动列表
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	status := c.Query("status")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	campaigns, total, err := h.campaignLogic.GetCampaigns(status, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取活动列表成功", GetCampaignsResponse{
		Campaigns:  ToCampaignResponseList(campaigns),
		Pagination: pagination,
	})
}

// GetCampaign 获取活动详情
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	campaignId, ok := h.parseCampaignId(c)
	if !ok {
		return
	}

	campaign, err := h.campaignLogic.GetCampaign(campaignId)
	if err != nil {
		ErrorResponse(c, statusForError(err), err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取活动详情成功", gin.H{
		"campaign": ToCampaignResponse(campaign),
	})
}

// GetCampaignStats 获取活动统计信息
func (h *CampaignHandler) GetCampaignStats(c *gin.Context) {
	campaignId, ok := h.parseCampaignId(c)
	if !ok {
		return
	}

	stats, err := h.campaignLogic.GetCampaignStats(campaignId)
	if err != nil {
		ErrorResponse(c, statusForError(err), err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取活动统计信息成功", stats)
}

// Contribute 向活动贡献资金
func (h *CampaignHandler) Contribute(c *gin.Context) {
	campaignId, ok := h.parseCampaignId(c)
	if !ok {
		return
	}

	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.campaignLogic.Contribute(campaignId, req.Address, req.Amount); err != nil {
		ErrorResponse(c, statusForError(err), err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "贡献成功", nil)
}

// GetContribution 获取某地址的累计贡献
func (h *CampaignHandler) GetContribution(c *gin.Context) {
	campaignId, ok := h.parseCampaignId(c)
	if !ok {
		return
	}
	address := c.Param("address")

	amount, err := h.campaignLogic.GetContribution(campaignId, address)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取贡献成功", gin.H{
		"campaign_id": campaignId,
		"address":     address,
		"amount":      amount,
	})
}

// Finalize 活动定局，任何人可调用
func (h *CampaignHandler) Finalize(c *gin.Context) {
	campaignId, ok := h.parseCampaignId(c)
	if !ok {
		return
	}

	if err := h.campaignLogic.Finalize(campaignId); err != nil {
		ErrorResponse(c, statusForError(err), err.Error())
		return
	}

	campaign, err := h.campaignLogic.GetCampaign(campaignId)
	if err != nil {
		ErrorResponse(c, statusForError(err), err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "活动定局成功", gin.H{
		"campaign_id": campaignId,
		"status":      campaign.Status,
	})
}

// WithdrawFunds 创建者提取募集资金
func (h *CampaignHandler) WithdrawFunds(c *gin.Context) {
	campaignId, ok := h.parseCampaignId(c)
	if !ok {
		return
	}

	var req CallerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	txHash, err := h.campaignLogic.WithdrawFunds(c.Request.Context(), campaignId, req.Address)
	if err != nil {
		ErrorResponse(c, statusForError(err), err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "提款成功", gin.H{
		"tx_hash": txHash,
	})
}

// ClaimRefund 贡献者领取退款
func (h *CampaignHandler) ClaimRefund(c *gin.Context) {
	campaignId, ok := h.parseCampaignId(c)
	if !ok {
		return
	}

	var req CallerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	txHash, err := h.campaignLogic.ClaimRefund(c.Request.Context(), campaignId, req.Address)
	if err != nil {
		ErrorResponse(c, statusForError(err), err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "退款领取成功", gin.H{
		"tx_hash": txHash,
	})
}

// HasClaimedRefund 查询某地址是否已领取退款
func (h *CampaignHandler) HasClaimedRefund(c *gin.Context) {
	campaignId, ok := h.parseCampaignId(c)
	if !ok {
		return
	}
	address := c.Param("address")

	claimed, err := h.campaignLogic.HasClaimedRefund(campaignId, address)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取退款状态成功", gin.H{
		"campaign_id": campaignId,
		"address":     address,
		"claimed":     claimed,
	})
}

// GetLedgerEntries 获取活动账本条目
func (h *CampaignHandler) GetLedgerEntries(c *gin.Context) {
	campaignId, ok := h.parseCampaignId(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	entries, total, err := h.campaignLogic.GetLedgerEntries(campaignId, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取账本条目成功", gin.H{
		"entries":    entries,
		"pagination": pagination,
	})
}

// GetCampaignEvents 获取活动审计事件
func (h *CampaignHandler) GetCampaignEvents(c *gin.Context) {
	campaignId, ok := h.parseCampaignId(c)
	if !ok {
		return
	}

	eventType := c.Query("event_type")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	events, total, err := h.eventLogic.GetEvents(campaignId, eventType, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取事件列表成功", gin.H{
		"events":     events,
		"pagination": pagination,
	})
}

// GetCampaignPayouts 获取活动出账记录
func (h *CampaignHandler) GetCampaignPayouts(c *gin.Context) {
	campaignId, ok := h.parseCampaignId(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	payouts, total, err := h.eventLogic.GetPayoutRecords(campaignId, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取出账记录成功", gin.H{
		"payouts":    payouts,
		"pagination": pagination,
	})
}

// parseCampaignId 解析路径中的活动ID
func (h *CampaignHandler) parseCampaignId(c *gin.Context) (int64, bool) {
	campaignId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || campaignId <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return 0, false
	}
	return campaignId, true
}
