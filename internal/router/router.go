package router

import (
	"github.com/blues/cls/internal/handler"
	"github.com/blues/cls/internal/logic"
	"github.com/blues/cls/internal/reward"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, campaignLogic *logic.CampaignLogic, issuer *reward.Issuer) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "campaign-ledger-service",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 活动相关路由
		campaignHandler := handler.NewCampaignHandler(campaignLogic, logic.NewEventLogic(db))
		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("", campaignHandler.CreateCampaign)
			campaigns.GET("", campaignHandler.GetCampaigns)
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.GET("/:id/stats", campaignHandler.GetCampaignStats)
			campaigns.GET("/:id/ledger", campaignHandler.GetLedgerEntries)
			campaigns.GET("/:id/events", campaignHandler.GetCampaignEvents)
			campaigns.GET("/:id/payouts", campaignHandler.GetCampaignPayouts)
			campaigns.POST("/:id/contributions", campaignHandler.Contribute)
			campaigns.GET("/:id/contributions/:address", campaignHandler.GetContribution)
			campaigns.POST("/:id/finalize", campaignHandler.Finalize)
			campaigns.POST("/:id/withdrawals", campaignHandler.WithdrawFunds)
			campaigns.POST("/:id/refunds", campaignHandler.ClaimRefund)
			campaigns.GET("/:id/refunds/:address", campaignHandler.HasClaimedRefund)
		}

		// 奖励代币相关路由
		rewardHandler := handler.NewRewardHandler(issuer)
		rewards := v1.Group("/rewards")
		{
			rewards.POST("/mints", rewardHandler.MintReward)
			rewards.PUT("/base-uri", rewardHandler.SetBaseURI)
			rewards.GET("/tokens/:tokenId", rewardHandler.GetToken)
			rewards.GET("/balances/:address", rewardHandler.GetBalance)
			rewards.POST("/tokens/:tokenId/transfer", rewardHandler.TransferToken)
			rewards.POST("/tokens/:tokenId/approve", rewardHandler.ApproveToken)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
