package ethereum

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/blues/cls/internal/config"
	"github.com/blues/cls/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// confirmationTimeout 后台观测确认的最长时间
const confirmationTimeout = 5 * time.Minute

// Client 出账客户端，从托管账户向外部地址转出原生代币
type Client struct {
	client        *ethclient.Client
	privateKey    *ecdsa.PrivateKey
	chainId       *big.Int
	confirmations uint64
	gasLimit      uint64
}

func Init(cfg config.ChainConfig) (*Client, error) {
	// 连接以太坊客户端
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum client: %w", err)
	}

	// 解析私钥
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &Client{
		client:        client,
		privateKey:    privateKey,
		chainId:       big.NewInt(cfg.ChainId),
		confirmations: uint64(cfg.Confirmations),
		gasLimit:      21000, // 原生转账固定gas
	}, nil
}

// Transfer 向 to 转出 amount，实现 payout.Transferor。
// 返回错误时交易一定没有广播，调用方可以安全重试；广播成功即视为
// 转账已不可逆地提交并返回交易哈希（之后不能因确认延迟再报失败，
// 否则调用方回滚重试会造成二次付款），链上确认在后台观测。
func (c *Client) Transfer(ctx context.Context, to string, amount int64) (string, error) {
	from := c.GetAccountAddress()

	// 获取nonce和gas价格
	nonce, err := c.client.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("failed to get pending nonce: %w", err)
	}
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}

	// 构造并签名交易
	tx := types.NewTransaction(nonce, common.HexToAddress(to),
		big.NewInt(amount), c.gasLimit, gasPrice, nil)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(c.chainId), c.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	// 广播成功是提交点
	txHash := signedTx.Hash()
	go c.reportConfirmation(txHash)

	return txHash.Hex(), nil
}

// reportConfirmation 后台轮询交易确认情况，超时或持续出错时告警。
// 确认结果只用于观测，不影响已提交的转账。
func (c *Client) reportConfirmation(txHash common.Hash) {
	ctx, cancel := context.WithTimeout(context.Background(), confirmationTimeout)
	defer cancel()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var lastErr error
	for {
		confirmed, err := c.IsTransactionConfirmed(ctx, txHash)
		if err != nil {
			lastErr = err
		} else if confirmed {
			logger.Info("Transaction %s confirmed", txHash.Hex())
			return
		}

		select {
		case <-ctx.Done():
			logger.Warn("Transaction %s not confirmed after %s, last error: %v",
				txHash.Hex(), confirmationTimeout, lastErr)
			return
		case <-ticker.C:
		}
	}
}

// GetLatestBlock 获取最新区块号
func (c *Client) GetLatestBlock(ctx context.Context) (uint64, error) {
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, err
	}
	return header.Number.Uint64(), nil
}

// IsTransactionConfirmed 检查交易是否已确认
func (c *Client) IsTransactionConfirmed(ctx context.Context, txHash common.Hash) (bool, error) {
	receipt, err := c.client.TransactionReceipt(ctx, txHash)
	if err != nil {
		return false, err
	}
	if receipt == nil || receipt.Status != types.ReceiptStatusSuccessful {
		return false, nil
	}

	latestBlock, err := c.GetLatestBlock(ctx)
	if err != nil {
		return false, err
	}

	return latestBlock >= receipt.BlockNumber.Uint64()+c.confirmations, nil
}

// GetAccountAddress 获取托管账户地址
func (c *Client) GetAccountAddress() common.Address {
	return crypto.PubkeyToAddress(c.privateKey.PublicKey)
}

// GetBalance 获取托管账户余额
func (c *Client) GetBalance(ctx context.Context) (*big.Int, error) {
	return c.client.BalanceAt(ctx, c.GetAccountAddress(), nil)
}
