package main

import (
	"context"
	"log"

	"github.com/blues/cls/internal/config"
	"github.com/blues/cls/internal/database"
	"github.com/blues/cls/internal/ethereum"
	"github.com/blues/cls/internal/logger"
	"github.com/blues/cls/internal/logic"
	"github.com/blues/cls/internal/reward"
	"github.com/blues/cls/internal/router"
	"github.com/blues/cls/internal/task"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	if cfg.Log.Output == "file" {
		l, err := logger.NewWithFileRotation(logger.ParseLogLevel(cfg.Log.Level), cfg.Log.File)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		logger.SetDefaultLogger(l)
	}

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 初始化出账客户端
	ethClient, err := ethereum.Init(cfg.Chain)
	if err != nil {
		log.Fatalf("Failed to initialize ethereum client: %v", err)
	}

	// 启动时检查托管账户余额，余额不足会导致提款和退款出账失败
	if balance, err := ethClient.GetBalance(context.Background()); err != nil {
		logger.Warn("Failed to get custodial account balance: %v", err)
	} else {
		logger.Info("Custodial account %s balance: %s wei",
			ethClient.GetAccountAddress().Hex(), balance.String())
	}

	// 初始化账本引擎和奖励发行器
	campaignLogic := logic.NewCampaignLogic(db, ethClient)
	issuer := reward.NewIssuer(db, cfg.Reward.OwnerAddress, cfg.Reward.BaseURI)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, campaignLogic, issuer)

	// 启动定时任务
	task.Start(db, campaignLogic, issuer, cfg)

	// 启动服务器
	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
