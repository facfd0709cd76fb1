package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/cls/internal/reward"
	"github.com/gin-gonic/gin"
)

// RewardHandler 奖励代币处理器
type RewardHandler struct {
	issuer *reward.Issuer
}

// NewRewardHandler 创建奖励代币处理器
func NewRewardHandler(issuer *reward.Issuer) *RewardHandler {
	return &RewardHandler{issuer: issuer}
}

// MintReward 铸造奖励代币，只有owner地址可以调用
func (h *RewardHandler) MintReward(c *gin.Context) {
	var req MintRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	tokenId, err := h.issuer.MintReward(req.Caller, req.CampaignId, req.Recipient, req.TierAmount)
	if err != nil {
		ErrorResponse(c, statusForError(err), err.Error())
		return
	}

	SuccessResponse(c, http.StatusCreated, "铸造成功", gin.H{
		"token_id": tokenId,
	})
}

// SetBaseURI 设置代币元数据地址模板
func (h *RewardHandler) SetBaseURI(c *gin.Context) {
	var req SetBaseURIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.issuer.SetBaseURI(req.Caller, req.BaseURI); err != nil {
		ErrorResponse(c, statusForError(err), err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "设置成功", nil)
}

// GetToken 获取代币详情
func (h *RewardHandler) GetToken(c *gin.Context) {
	tokenId, ok := h.parseTokenId(c)
	if !ok {
		return
	}

	token, err := h.issuer.GetToken(tokenId)
	if err != nil {
		ErrorResponse(c, statusForError(err), err.Error())
		return
	}

	uri, err := h.issuer.TokenURI(tokenId)
	if err != nil {
		ErrorResponse(c, statusForError(err), err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取代币成功", gin.H{
		"token":     token,
		"token_uri": uri,
	})
}

// GetBalance 获取某地址持有的代币
func (h *RewardHandler) GetBalance(c *gin.Context) {
	address := c.Param("address")

	tokens, err := h.issuer.GetTokensByOwner(address)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取代币余额成功", gin.H{
		"address": address,
		"balance": len(tokens),
		"tokens":  tokens,
	})
}

// TransferToken 转移代币
func (h *RewardHandler) TransferToken(c *gin.Context) {
	tokenId, ok := h.parseTokenId(c)
	if !ok {
		return
	}

	var req TransferTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.issuer.Transfer(req.Caller, tokenId, req.To); err != nil {
		ErrorResponse(c, statusForError(err), err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "代币转移成功", nil)
}

// ApproveToken 授权代币转移
func (h *RewardHandler) ApproveToken(c *gin.Context) {
	tokenId, ok := h.parseTokenId(c)
	if !ok {
		return
	}

	var req ApproveTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.issuer.Approve(req.Caller, tokenId, req.Spender); err != nil {
		ErrorResponse(c, statusForError(err), err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "授权成功", nil)
}

// parseTokenId 解析路径中的代币ID
func (h *RewardHandler) parseTokenId(c *gin.Context) (int64, bool) {
	tokenId, err := strconv.ParseInt(c.Param("tokenId"), 10, 64)
	if err != nil || tokenId <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "无效的代币ID")
		return 0, false
	}
	return tokenId, true
}
