package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/malagaclima/lluviabet/internal/api/handler"
	"github.com/malagaclima/lluviabet/internal/api/middleware"
	"github.com/malagaclima/lluviabet/internal/config"
	"github.com/malagaclima/lluviabet/internal/service"
	"github.com/malagaclima/lluviabet/internal/weather"
	"github.com/malagaclima/lluviabet/internal/ws"
)

// RouterDeps bundles every dependency needed to build the router.
// Populated once in main() and passed to SetupRouter.
type RouterDeps struct {
	BettingSvc *service.BettingService
	Engine     *service.SettlementEngine
	WalletSvc  *service.WalletService
	RewardSvc  *service.PlantRewardService
	Source     weather.Source
	Hub        *ws.Hub
	Cfg        *config.Config
}

// SetupRouter creates and configures the main Gin engine with all routes,
// middleware, CORS, and rate limiting rules.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// ── CORS ─────────────────────────────────────────────────────────────────
	r.Use(corsMiddleware(deps.Cfg))

	// ── Health check ─────────────────────────────────────────────────────────
	r.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok"}
		if om, ok := deps.Source.(*weather.OpenMeteoClient); ok {
			status["weather_healthy"] = om.Healthy()
		}
		c.JSON(http.StatusOK, status)
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	wagerH := handler.NewWagerHandler(deps.BettingSvc, deps.Engine)
	walletH := handler.NewWalletHandler(deps.WalletSvc)
	plantH := handler.NewPlantHandler(deps.RewardSvc)
	weatherH := handler.NewWeatherHandler(deps.Source)

	// ── Rate limiters ─────────────────────────────────────────────────────────
	wagerRL := middleware.RateLimitMiddleware(10) // 10 req/s per caller for wager writes
	readRL := middleware.RateLimitMiddleware(30)  // 30 req/s per caller for reads

	api := r.Group("/api")
	api.Use(middleware.IdentityMiddleware())
	{
		// ── Public reads ─────────────────────────────────────────────────────
		reads := api.Group("")
		reads.Use(readRL)
		{
			reads.GET("/odds/quote", wagerH.QuoteOdds)
			reads.GET("/weather/today", weatherH.GetToday)
			reads.GET("/wagers/my", wagerH.GetMyWagers)
			reads.GET("/wagers/:id", wagerH.GetWagerByID)
			reads.GET("/wallet/balance", walletH.GetBalance)
			reads.GET("/wallet/transactions", walletH.GetTransactions)
			reads.GET("/plant/water", plantH.GetWater)
		}

		// ── Wager writes (stricter rate limit) ───────────────────────────────
		writes := api.Group("")
		writes.Use(wagerRL)
		{
			writes.POST("/wagers", wagerH.PlaceWager)
			writes.POST("/wagers/:id/cancel", wagerH.CancelWager)
			writes.POST("/wagers/:id/verify", wagerH.VerifyWager)
			writes.POST("/wallet/daily-reward", walletH.ClaimDailyReward)
		}
	}

	// ── WebSocket ─────────────────────────────────────────────────────────────
	if deps.Hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			deps.Hub.ServeWs(c.Writer, c.Request)
		})
	}

	return r
}

// ── CORS helper ───────────────────────────────────────────────────────────────

// corsMiddleware returns a gin middleware that sets appropriate CORS headers.
// In development all origins are allowed; in production only the app's own.
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if !cfg.IsProd() {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			allowed := map[string]bool{
				"https://malagaclima.com":     true,
				"https://www.malagaclima.com": true,
			}
			if allowed[origin] {
				c.Header("Access-Control-Allow-Origin", origin)
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-User-ID, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
