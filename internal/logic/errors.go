package logic

import (
	"errors"
)

// 参数校验错误：在任何状态变更之前拒绝
var (
	ErrInvalidGoal      = errors.New("目标金额必须大于0")
	ErrInvalidDeadline  = errors.New("截止时间必须晚于当前时间")
	ErrZeroContribution = errors.New("贡献金额必须大于0")
)

// 状态前置条件错误：拒绝调用，账本保持不变
var (
	ErrCampaignNotFound      = errors.New("活动不存在")
	ErrCampaignNotActive     = errors.New("活动不在进行中")
	ErrCampaignNotSuccessful = errors.New("活动未达标成功，无法提款")
	ErrCampaignNotFailed     = errors.New("活动未失败，无法退款")
	ErrDeadlineNotReached    = errors.New("活动尚未到达截止时间")
	ErrDeadlinePassed        = errors.New("活动已过截止时间")
	ErrNoContribution        = errors.New("没有贡献记录，无法退款")
	ErrAlreadyWithdrawn      = errors.New("资金已提取")
	ErrAlreadyRefunded       = errors.New("退款已领取")
	ErrNotCampaignCreator    = errors.New("只有活动创建者可以提款")
)

// 转账与重入错误
var (
	ErrTransferFailed = errors.New("转账失败")
	ErrReentrantCall  = errors.New("检测到重入调用")
)
