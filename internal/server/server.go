// Package server exposes the HTTP surface of the directory: boost
// purchases, queue status, and the admin queue controls.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	boostdomain "github.com/listora/listora/internal/boost/domain"
	businessdomain "github.com/listora/listora/internal/business/domain"
	"github.com/listora/listora/internal/clock"
	"github.com/listora/listora/internal/config"
	"github.com/listora/listora/internal/observability/logger"
	subscriptiondomain "github.com/listora/listora/internal/subscription/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(logger.AccessLog(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	clock           clock.Clock
	boostSvc        boostdomain.Service
	projector       boostdomain.Projector
	businessRepo    businessdomain.Repository
	subscriptionSvc subscriptiondomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	Clock           clock.Clock
	BoostSvc        boostdomain.Service
	Projector       boostdomain.Projector
	BusinessRepo    businessdomain.Repository
	SubscriptionSvc subscriptiondomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		log:             p.Log.Named("server"),
		genID:           p.GenID,
		clock:           p.Clock,
		boostSvc:        p.BoostSvc,
		projector:       p.Projector,
		businessRepo:    p.BusinessRepo,
		subscriptionSvc: p.SubscriptionSvc,
	}
	svc.registerRoutes()
	return svc
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1")

	v1.POST("/businesses", s.CreateBusiness)
	v1.GET("/businesses/:id", s.GetBusiness)

	v1.POST("/boost/purchases", s.ConfirmBoostPurchase)
	v1.GET("/boost/purchases/:id", s.GetBoostPurchase)

	v1.GET("/boost/queues/:category", s.GetQueueStatus)
	v1.GET("/boost/queues/:category/businesses/:businessId", s.GetEntryStatus)
	v1.DELETE("/boost/queues/:category/entries/:businessId", s.CancelQueueEntry)

	admin := v1.Group("/admin/boost/queues/:category")
	admin.POST("/expire", s.AdminExpireCurrent)
	admin.POST("/promote", s.AdminPromoteNext)
	admin.POST("/resync", s.AdminResyncQueue)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
