package handler

import (
	"errors"
	"net/http"

	"github.com/blues/cls/internal/logic"
	"github.com/blues/cls/internal/reward"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// statusForError 将业务错误映射为HTTP状态码
func statusForError(err error) int {
	switch {
	case errors.Is(err, logic.ErrInvalidGoal),
		errors.Is(err, logic.ErrInvalidDeadline),
		errors.Is(err, logic.ErrZeroContribution):
		return http.StatusBadRequest
	case errors.Is(err, logic.ErrCampaignNotFound),
		errors.Is(err, reward.ErrTokenNotFound):
		return http.StatusNotFound
	case errors.Is(err, logic.ErrNotCampaignCreator),
		errors.Is(err, reward.ErrNotAuthorized),
		errors.Is(err, reward.ErrNotTokenOwner):
		return http.StatusForbidden
	case errors.Is(err, logic.ErrCampaignNotActive),
		errors.Is(err, logic.ErrCampaignNotSuccessful),
		errors.Is(err, logic.ErrCampaignNotFailed),
		errors.Is(err, logic.ErrDeadlineNotReached),
		errors.Is(err, logic.ErrDeadlinePassed),
		errors.Is(err, logic.ErrNoContribution),
		errors.Is(err, logic.ErrAlreadyWithdrawn),
		errors.Is(err, logic.ErrAlreadyRefunded),
		errors.Is(err, logic.ErrReentrantCall):
		return http.StatusConflict
	case errors.Is(err, logic.ErrTransferFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
