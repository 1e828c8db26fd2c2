package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/schoolworks/feeledger/internal/auditcontext"
	"github.com/schoolworks/feeledger/internal/config"
	defaulterdomain "github.com/schoolworks/feeledger/internal/defaulter/domain"
	feecollectiondomain "github.com/schoolworks/feeledger/internal/feecollection/domain"
	feestructuredomain "github.com/schoolworks/feeledger/internal/feestructure/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)

type Params struct {
	fx.In

	Engine        *gin.Engine
	DB            *gorm.DB
	Log           *zap.Logger
	Cfg           config.Config
	FeeSvc        feecollectiondomain.Service
	DefaulterSvc  defaulterdomain.Service
	StructureRepo feestructuredomain.Repository
	Node          *snowflake.Node
}

type Server struct {
	engine        *gin.Engine
	db            *gorm.DB
	log           *zap.Logger
	cfg           config.Config
	feeSvc        feecollectiondomain.Service
	defaulterSvc  defaulterdomain.Service
	structureRepo feestructuredomain.Repository
	node          *snowflake.Node
	limiter       *rateLimiter
}

func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))
	return engine
}

func NewServer(p Params) *Server {
	return &Server{
		engine:        p.Engine,
		db:            p.DB,
		log:           p.Log.Named("server"),
		cfg:           p.Cfg,
		feeSvc:        p.FeeSvc,
		defaulterSvc:  p.DefaulterSvc,
		structureRepo: p.StructureRepo,
		node:          p.Node,
		limiter:       newRateLimiter(p.Cfg.RateLimitRequests, p.Cfg.RateLimitWindow),
	}
}

func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.rateLimit)
	api.Use(auditMiddleware)

	fees := api.Group("/fees")
	{
		fees.POST("/collect", s.CollectFee)
		fees.POST("/validate", s.ValidateFeeCollection)
		fees.POST("/one-time/collect", s.CollectOneTimeFee)
		fees.GET("/students/:id/status", s.GetStudentFeeStatus)
		fees.GET("/students", s.GetStudentsByGradeSection)
		fees.GET("/defaulters", s.GetDefaulters)
		fees.POST("/defaulters/sync", s.SyncDefaulters)
		fees.GET("/dashboard", s.GetAccountantDashboard)
		fees.GET("/reports", s.GetFinancialReports)
	}

	structures := api.Group("/fee-structures")
	{
		structures.POST("", s.CreateFeeStructure)
		structures.GET("", s.ListFeeStructures)
	}

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func (s *Server) rateLimit(c *gin.Context) {
	if !s.limiter.Allow(c.ClientIP()) {
		AbortWithError(c, ErrTooManyRequests)
		return
	}
	c.Next()
}

// auditMiddleware threads caller identity the transaction audit log
// wants through the request context.
func auditMiddleware(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)

	ctx := c.Request.Context()
	ctx = auditcontext.WithRequestID(ctx, requestID)
	ctx = auditcontext.WithIPAddress(ctx, c.ClientIP())
	ctx = auditcontext.WithDeviceInfo(ctx, c.Request.UserAgent())
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

func RunHTTP(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
