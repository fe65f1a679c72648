package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"studiopass/internal/catalog"
	"studiopass/internal/config"
	"studiopass/internal/pass"
	"studiopass/internal/payment"
	"studiopass/internal/processor"
	"studiopass/internal/schedule"
)

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	db         *sqlx.DB
	config     *config.Config
}

func New(db *sqlx.DB, cfg *config.Config, client *processor.Client) *Server {
	router := gin.Default()
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())

	paymentRepo := payment.NewRepository(db)
	catalogRepo := catalog.NewRepository(db)
	passRepo := pass.NewRepository(db)
	scheduleRepo := schedule.NewRepository(db)

	paymentService := payment.NewService(
		paymentRepo, catalogRepo, passRepo, scheduleRepo, client,
		cfg.ReturnURL, cfg.StatusURL,
	)

	paymentHandler := payment.NewHandler(paymentService)
	catalogHandler := catalog.NewHandler(db)
	passHandler := pass.NewHandler(db)

	api := router.Group("/api")
	{
		// Purchase initiation is purchaser-driven and rate limited. The
		// webhook is processor-driven and must never be: throttling it only
		// delays settlement and multiplies retries.
		api.POST("/payments", RateLimitMiddleware(5, 10), paymentHandler.InitiatePayment)
		api.POST("/payments/:paymentID/register", RateLimitMiddleware(5, 10), paymentHandler.RetryPayment)
		api.POST("/payments/webhook", paymentHandler.Webhook)
		api.GET("/payments/:paymentID", paymentHandler.GetPayment)

		api.GET("/packages", catalogHandler.ListPackages)
		api.GET("/users/:userID/passes", passHandler.ListUserPasses)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())

	return &Server{
		router: router,
		db:     db,
		config: cfg,
	}
}

func (s *Server) Start(port string) error {
	s.httpServer = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
