package logic

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/blues/cls/internal/database"
	"github.com/blues/cls/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// fakeTransferor 记录所有转账，可配置失败或在转账中回调
type fakeTransferor struct {
	mu         sync.Mutex
	transfers  []fakeTransfer
	failNext   bool
	onTransfer func(to string, amount int64)
}

type fakeTransfer struct {
	to     string
	amount int64
}

func (f *fakeTransferor) Transfer(ctx context.Context, to string, amount int64) (string, error) {
	if f.onTransfer != nil {
		f.onTransfer(to, amount)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return "", errors.New("rpc unavailable")
	}
	f.transfers = append(f.transfers, fakeTransfer{to: to, amount: amount})
	return "0xabc", nil
}

func (f *fakeTransferor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transfers)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestLogic(t *testing.T) (*CampaignLogic, *fakeTransferor) {
	t.Helper()

	transferor := &fakeTransferor{}
	l := NewCampaignLogic(newTestDB(t), transferor)
	return l, transferor
}

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// setNow 固定引擎时间
func setNow(l *CampaignLogic, at time.Time) {
	l.now = func() time.Time { return at }
}

func TestCreateCampaignValidation(t *testing.T) {
	l, _ := newTestLogic(t)
	setNow(l, baseTime)

	_, err := l.CreateCampaign("0xCreator", 0, baseTime.Add(time.Hour), "hash")
	assert.ErrorIs(t, err, ErrInvalidGoal)

	_, err = l.CreateCampaign("0xCreator", -5, baseTime.Add(time.Hour), "hash")
	assert.ErrorIs(t, err, ErrInvalidGoal)

	_, err = l.CreateCampaign("0xCreator", 10, baseTime.Add(-time.Second), "hash")
	assert.ErrorIs(t, err, ErrInvalidDeadline)

	// 截止时间等于当前时间也不合法
	_, err = l.CreateCampaign("0xCreator", 10, baseTime, "hash")
	assert.ErrorIs(t, err, ErrInvalidDeadline)
}

func TestCreateCampaignAssignsSequentialIds(t *testing.T) {
	l, _ := newTestLogic(t)
	setNow(l, baseTime)

	first, err := l.CreateCampaign("0xCreator", 10, baseTime.Add(time.Hour), "hash1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)

	second, err := l.CreateCampaign("0xCreator", 20, baseTime.Add(time.Hour), "hash2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), second)

	campaign, err := l.GetCampaign(first)
	require.NoError(t, err)
	assert.Equal(t, "0xCreator", campaign.CreatorAddress)
	assert.Equal(t, int64(10), campaign.Goal)
	assert.Equal(t, model.CampaignStatusActive, campaign.Status)
	assert.Equal(t, int64(0), campaign.TotalRaised)
	assert.False(t, campaign.Withdrawn)
}

func TestContributeAccumulates(t *testing.T) {
	l, _ := newTestLogic(t)
	setNow(l, baseTime)

	id, err := l.CreateCampaign("0xCreator", 100, baseTime.Add(time.Hour), "hash")
	require.NoError(t, err)

	require.NoError(t, l.Contribute(id, "0xA", 5))
	require.NoError(t, l.Contribute(id, "0xB", 4))
	require.NoError(t, l.Contribute(id, "0xA", 5))

	// 同一地址累加
	amount, err := l.GetContribution(id, "0xA")
	require.NoError(t, err)
	assert.Equal(t, int64(10), amount)

	amount, err = l.GetContribution(id, "0xB")
	require.NoError(t, err)
	assert.Equal(t, int64(4), amount)

	// 没有记录返回0
	amount, err = l.GetContribution(id, "0xC")
	require.NoError(t, err)
	assert.Equal(t, int64(0), amount)

	// 累计金额等于账本条目之和
	campaign, err := l.GetCampaign(id)
	require.NoError(t, err)
	assert.Equal(t, int64(14), campaign.TotalRaised)

	entries, total, err := l.GetLedgerEntries(id, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	var sum int64
	for _, entry := range entries {
		sum += entry.Amount
	}
	assert.Equal(t, campaign.TotalRaised, sum)
}

func TestContributeRejections(t *testing.T) {
	l, _ := newTestLogic(t)
	setNow(l, baseTime)

	deadline := baseTime.Add(time.Hour)
	id, err := l.CreateCampaign("0xCreator", 100, deadline, "hash")
	require.NoError(t, err)

	assert.ErrorIs(t, l.Contribute(id, "0xA", 0), ErrZeroContribution)
	assert.ErrorIs(t, l.Contribute(id, "0xA", -1), ErrZeroContribution)
	assert.ErrorIs(t, l.Contribute(999, "0xA", 5), ErrCampaignNotFound)

	// 恰好到达截止时间即拒绝
	setNow(l, deadline)
	assert.ErrorIs(t, l.Contribute(id, "0xA", 5), ErrDeadlinePassed)

	setNow(l, deadline.Add(time.Nanosecond))
	assert.ErrorIs(t, l.Contribute(id, "0xA", 5), ErrDeadlinePassed)

	// 被拒绝的调用不留痕迹
	campaign, err := l.GetCampaign(id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), campaign.TotalRaised)
}

func TestFinalizeExactGoalIsSuccessful(t *testing.T) {
	l, _ := newTestLogic(t)
	setNow(l, baseTime)

	deadline := baseTime.Add(time.Hour)
	id, err := l.CreateCampaign("0xCreator", 10, deadline, "hash")
	require.NoError(t, err)
	require.NoError(t, l.Contribute(id, "0xA", 10))

	assert.ErrorIs(t, l.Finalize(id), ErrDeadlineNotReached)

	setNow(l, deadline)
	require.NoError(t, l.Finalize(id))

	campaign, err := l.GetCampaign(id)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusSuccessful, campaign.Status)
}

func TestFinalizeBelowGoalIsFailed(t *testing.T) {
	l, _ := newTestLogic(t)
	setNow(l, baseTime)

	deadline := baseTime.Add(time.Hour)
	id, err := l.CreateCampaign("0xCreator", 10, deadline, "hash")
	require.NoError(t, err)
	require.NoError(t, l.Contribute(id, "0xA", 9))

	setNow(l, deadline.Add(time.Minute))
	require.NoError(t, l.Finalize(id))

	campaign, err := l.GetCampaign(id)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusFailed, campaign.Status)

	// 第二次定局被拒绝，结果不变
	assert.ErrorIs(t, l.Finalize(id), ErrCampaignNotActive)
	campaign, err = l.GetCampaign(id)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusFailed, campaign.Status)
}

func TestWithdrawFundsPaysFullAmountOnce(t *testing.T) {
	l, transferor := newTestLogic(t)
	setNow(l, baseTime)
	ctx := context.Background()

	deadline := baseTime.Add(time.Hour)
	id, err := l.CreateCampaign("0xCreator", 10, deadline, "hash")
	require.NoError(t, err)

	// 超募：提款金额是全部募集额，不按目标封顶
	require.NoError(t, l.Contribute(id, "0xA", 15))
	setNow(l, deadline)
	require.NoError(t, l.Finalize(id))

	_, err = l.WithdrawFunds(ctx, id, "0xMallory")
	assert.ErrorIs(t, err, ErrNotCampaignCreator)

	txHash, err := l.WithdrawFunds(ctx, id, "0xCreator")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", txHash)

	require.Equal(t, 1, transferor.count())
	assert.Equal(t, "0xCreator", transferor.transfers[0].to)
	assert.Equal(t, int64(15), transferor.transfers[0].amount)

	campaign, err := l.GetCampaign(id)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusClaimed, campaign.Status)
	assert.True(t, campaign.Withdrawn)

	// 第二次提款被拒绝且没有第二次转账
	_, err = l.WithdrawFunds(ctx, id, "0xCreator")
	assert.ErrorIs(t, err, ErrAlreadyWithdrawn)
	assert.Equal(t, 1, transferor.count())

	// 出账记录可查询
	payouts, total, err := NewEventLogic(l.db).GetPayoutRecords(id, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, payouts, 1)
	assert.Equal(t, "0xCreator", payouts[0].Address)
	assert.Equal(t, int64(15), payouts[0].Amount)
	assert.Equal(t, "0xabc", payouts[0].TxHash)
}

func TestWithdrawFundsRequiresSuccess(t *testing.T) {
	l, transferor := newTestLogic(t)
	setNow(l, baseTime)
	ctx := context.Background()

	deadline := baseTime.Add(time.Hour)
	id, err := l.CreateCampaign("0xCreator", 10, deadline, "hash")
	require.NoError(t, err)
	require.NoError(t, l.Contribute(id, "0xA", 5))

	// 进行中不能提款
	_, err = l.WithdrawFunds(ctx, id, "0xCreator")
	assert.ErrorIs(t, err, ErrCampaignNotSuccessful)

	setNow(l, deadline)
	require.NoError(t, l.Finalize(id))

	// 失败的活动不能提款
	_, err = l.WithdrawFunds(ctx, id, "0xCreator")
	assert.ErrorIs(t, err, ErrCampaignNotSuccessful)
	assert.Equal(t, 0, transferor.count())
}

func TestWithdrawFundsTransferFailureRollsBack(t *testing.T) {
	l, transferor := newTestLogic(t)
	setNow(l, baseTime)
	ctx := context.Background()

	deadline := baseTime.Add(time.Hour)
	id, err := l.CreateCampaign("0xCreator", 10, deadline, "hash")
	require.NoError(t, err)
	require.NoError(t, l.Contribute(id, "0xA", 10))
	setNow(l, deadline)
	require.NoError(t, l.Finalize(id))

	transferor.failNext = true
	_, err = l.WithdrawFunds(ctx, id, "0xCreator")
	assert.ErrorIs(t, err, ErrTransferFailed)

	// 转账失败后状态完整回滚
	campaign, err := l.GetCampaign(id)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusSuccessful, campaign.Status)
	assert.False(t, campaign.Withdrawn)
	assertEventCount(t, l.db, id, model.EventTypeFundsWithdrawn, 0)

	// 重试成功
	_, err = l.WithdrawFunds(ctx, id, "0xCreator")
	require.NoError(t, err)
	assert.Equal(t, 1, transferor.count())
	assertEventCount(t, l.db, id, model.EventTypeFundsWithdrawn, 1)
}

func TestClaimRefundEndToEnd(t *testing.T) {
	l, transferor := newTestLogic(t)
	setNow(l, baseTime)
	ctx := context.Background()

	deadline := baseTime.Add(30 * 24 * time.Hour)
	id, err := l.CreateCampaign("0xCreator", 10, deadline, "hash")
	require.NoError(t, err)

	require.NoError(t, l.Contribute(id, "0xA", 5))
	require.NoError(t, l.Contribute(id, "0xB", 4))

	// 定局前不能退款
	_, err = l.ClaimRefund(ctx, id, "0xA")
	assert.ErrorIs(t, err, ErrCampaignNotFailed)

	setNow(l, baseTime.Add(31*24*time.Hour))
	require.NoError(t, l.Finalize(id))

	campaign, err := l.GetCampaign(id)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusFailed, campaign.Status)

	// 各自领取各自的退款
	_, err = l.ClaimRefund(ctx, id, "0xA")
	require.NoError(t, err)
	_, err = l.ClaimRefund(ctx, id, "0xB")
	require.NoError(t, err)

	require.Equal(t, 2, transferor.count())
	assert.Equal(t, fakeTransfer{to: "0xA", amount: 5}, transferor.transfers[0])
	assert.Equal(t, fakeTransfer{to: "0xB", amount: 4}, transferor.transfers[1])

	claimed, err := l.HasClaimedRefund(id, "0xA")
	require.NoError(t, err)
	assert.True(t, claimed)
	claimed, err = l.HasClaimedRefund(id, "0xB")
	require.NoError(t, err)
	assert.True(t, claimed)

	// 再次领取被拒绝且没有第二次转账
	_, err = l.ClaimRefund(ctx, id, "0xA")
	assert.ErrorIs(t, err, ErrAlreadyRefunded)
	assert.Equal(t, 2, transferor.count())

	// 没有贡献记录的地址不能退款
	_, err = l.ClaimRefund(ctx, id, "0xC")
	assert.ErrorIs(t, err, ErrNoContribution)
}

func TestClaimRefundTransferFailureRollsBack(t *testing.T) {
	l, transferor := newTestLogic(t)
	setNow(l, baseTime)
	ctx := context.Background()

	deadline := baseTime.Add(time.Hour)
	id, err := l.CreateCampaign("0xCreator", 10, deadline, "hash")
	require.NoError(t, err)
	require.NoError(t, l.Contribute(id, "0xA", 5))
	setNow(l, deadline)
	require.NoError(t, l.Finalize(id))

	transferor.failNext = true
	_, err = l.ClaimRefund(ctx, id, "0xA")
	assert.ErrorIs(t, err, ErrTransferFailed)

	// 领取标记随事务回滚
	claimed, err := l.HasClaimedRefund(id, "0xA")
	require.NoError(t, err)
	assert.False(t, claimed)
	assertEventCount(t, l.db, id, model.EventTypeRefundClaimed, 0)

	// 重试成功
	_, err = l.ClaimRefund(ctx, id, "0xA")
	require.NoError(t, err)
	assert.Equal(t, 1, transferor.count())
}

func TestReentrantCallRejected(t *testing.T) {
	l, transferor := newTestLogic(t)
	setNow(l, baseTime)
	ctx := context.Background()

	deadline := baseTime.Add(time.Hour)
	id, err := l.CreateCampaign("0xCreator", 10, deadline, "hash")
	require.NoError(t, err)
	require.NoError(t, l.Contribute(id, "0xA", 10))
	setNow(l, deadline)
	require.NoError(t, l.Finalize(id))

	// 转账回调中重入引擎必须被直接拒绝
	var nestedErr error
	transferor.onTransfer = func(to string, amount int64) {
		_, nestedErr = l.WithdrawFunds(ctx, id, "0xCreator")
	}

	_, err = l.WithdrawFunds(ctx, id, "0xCreator")
	require.NoError(t, err)
	assert.ErrorIs(t, nestedErr, ErrReentrantCall)
	assert.Equal(t, 1, transferor.count())
}

func TestEventsEmittedExactlyOncePerMutation(t *testing.T) {
	l, _ := newTestLogic(t)
	setNow(l, baseTime)
	ctx := context.Background()

	deadline := baseTime.Add(time.Hour)
	id, err := l.CreateCampaign("0xCreator", 10, deadline, "hash")
	require.NoError(t, err)
	require.NoError(t, l.Contribute(id, "0xA", 6))
	require.NoError(t, l.Contribute(id, "0xB", 6))
	setNow(l, deadline)
	require.NoError(t, l.Finalize(id))
	_, err = l.WithdrawFunds(ctx, id, "0xCreator")
	require.NoError(t, err)

	assertEventCount(t, l.db, id, model.EventTypeCampaignCreated, 1)
	assertEventCount(t, l.db, id, model.EventTypeContributionMade, 2)
	assertEventCount(t, l.db, id, model.EventTypeCampaignFinalized, 1)
	assertEventCount(t, l.db, id, model.EventTypeFundsWithdrawn, 1)

	// 被拒绝的调用不产生事件
	require.Error(t, l.Contribute(id, "0xA", 1))
	assertEventCount(t, l.db, id, model.EventTypeContributionMade, 2)
}

func TestGetCampaignStats(t *testing.T) {
	l, _ := newTestLogic(t)
	setNow(l, baseTime)

	id, err := l.CreateCampaign("0xCreator", 20, baseTime.Add(time.Hour), "hash")
	require.NoError(t, err)
	require.NoError(t, l.Contribute(id, "0xA", 5))
	require.NoError(t, l.Contribute(id, "0xB", 5))

	stats, err := l.GetCampaignStats(id)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats["total_raised"])
	assert.Equal(t, int64(20), stats["goal"])
	assert.Equal(t, float64(50), stats["completion_percentage"])
	assert.Equal(t, int64(2), stats["contributor_count"])

	_, err = l.GetCampaignStats(999)
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func assertEventCount(t *testing.T, db *gorm.DB, campaignId int64, eventType model.EventType, want int64) {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&model.EventModel{}).
		Where("campaign_id = ? AND event_type = ?", campaignId, eventType).
		Count(&count).Error)
	assert.Equal(t, want, count)
}
