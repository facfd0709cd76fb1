package payout

import (
	"context"
)

// Transferor 对外转账接口。账本引擎只依赖该接口，
// 具体实现由链上客户端提供。
type Transferor interface {
	// Transfer 向 to 转出 amount（最小单位），返回交易哈希。
	// 返回错误时必须保证没有发出任何转账，调用方据此回滚并可安全重试；
	// 正常返回则转账已不可逆地提交，实现不得在提交后再报失败。
	Transfer(ctx context.Context, to string, amount int64) (string, error)
}
