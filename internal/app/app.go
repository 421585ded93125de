package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/hackhub/server/cmd/server/docs" // swagger docs
	"github.com/hackhub/server/internal/module/hackathon"
	"github.com/hackhub/server/internal/module/notification"
	"github.com/hackhub/server/internal/module/push"
	"github.com/hackhub/server/internal/module/team"
	sharedcache "github.com/hackhub/server/internal/shared/cache"
	"github.com/hackhub/server/internal/shared/config"
	"github.com/hackhub/server/internal/shared/database"
	"github.com/hackhub/server/internal/shared/logger"
	sharedmiddleware "github.com/hackhub/server/internal/shared/middleware"
	"github.com/hackhub/server/internal/shared/metrics"
	"github.com/hackhub/server/internal/utils/middleware"
)

// App wires the hackathon, team, notification and push modules together.
type App struct {
	config    *config.Config
	db        *gorm.DB
	redis     redis.UniversalClient
	router    *gin.Engine
	logger    *logger.Logger
	zapLogger *zap.Logger
	metrics   *metrics.Metrics

	// Modules
	hackathonHandler    *hackathon.Handler
	teamHandler         *team.Handler
	notificationHandler *notification.Handler
	pushHandler         *push.Handler

	// Services
	hackathonService    *hackathon.Service
	teamService         *team.Service
	notificationService *notification.Service
	hub                 *push.Hub
	bridge              *push.Bridge

	bridgeCancel context.CancelFunc
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	zapLog, err := logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init zap logger: %w", err)
	}

	app := &App{
		config:    cfg,
		logger:    log,
		zapLogger: zapLog,
		metrics:   metrics.New("hackhub"),
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := database.Migrate(db,
		&hackathon.Hackathon{},
		&team.Team{},
		&team.TeamMember{},
		&team.JoinRequest{},
		&team.Participation{},
		&notification.Notification{},
	); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	app.db = db

	// Redis is optional; without it the push channel runs single-instance.
	if cfg.Redis.Address != "" {
		redisClient, err := sharedcache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Warn("redis connection failed, live push runs single-instance", logger.Err(err))
		} else {
			app.redis = redisClient
		}
	}

	app.router = app.setupRouter()

	if err := app.initModules(); err != nil {
		return nil, fmt.Errorf("init modules: %w", err)
	}

	app.registerRoutes()

	return app, nil
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(sharedmiddleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(sharedmiddleware.Metrics(a.metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	return r
}

// initModules builds all modules. The team registry and the notification
// dispatcher reference each other, so the notification side gets its
// responder attached after both exist.
func (a *App) initModules() error {
	// Push channel
	a.hub = push.NewHub(a.config.Push.SendBufferSize, a.metrics, a.zapLogger)
	a.pushHandler = push.NewHandler(a.hub, a.zapLogger)

	var channel notification.Pusher = a.hub
	if a.redis != nil {
		a.bridge = push.NewBridge(a.redis, a.hub, a.zapLogger)
		channel = a.bridge

		ctx, cancel := context.WithCancel(context.Background())
		a.bridgeCancel = cancel
		go a.bridge.Run(ctx)
	}

	// Notification dispatcher
	notificationRepo := notification.NewRepository(a.db)
	a.notificationService = notification.NewService(
		notificationRepo,
		channel,
		notification.Config{
			PublishTimeout:   a.config.Push.PublishTimeout,
			BreakerThreshold: a.config.Push.BreakerThreshold,
			BreakerTimeout:   a.config.Push.BreakerTimeout,
		},
		a.metrics,
		a.zapLogger,
	)
	a.notificationHandler = notification.NewHandler(a.notificationService)

	// Hackathon directory
	hackathonRepo := hackathon.NewRepository(a.db)
	a.hackathonService = hackathon.NewService(hackathonRepo, a.zapLogger)
	a.hackathonHandler = hackathon.NewHandler(a.hackathonService)

	// Team registry
	teamRepo := team.NewRepository(a.db)
	a.teamService = team.NewService(
		teamRepo,
		a.hackathonService,
		&notifierAdapter{service: a.notificationService},
		a.metrics,
		a.zapLogger,
	)
	a.teamHandler = team.NewHandler(a.teamService)

	// Close the loop: actionable notifications resolve through the registry.
	a.notificationService.SetResponder(a.teamService)

	return nil
}

// registerRoutes registers routes for all modules.
func (a *App) registerRoutes() {
	v1 := a.router.Group("/api/v1")

	verifier := middleware.NewJWTVerifier(a.config.Auth.JWTSecret)
	protected := v1.Group("")
	protected.Use(middleware.RequireAuth(verifier))

	a.hackathonHandler.RegisterRoutes(protected)
	a.teamHandler.RegisterRoutes(protected)
	a.notificationHandler.RegisterRoutes(protected)
	a.pushHandler.RegisterRoutes(protected)
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop stops the application and releases resources.
func (a *App) Stop() {
	if a.bridgeCancel != nil {
		a.bridgeCancel()
	}
	if a.zapLogger != nil {
		_ = a.zapLogger.Sync()
	}
	if a.redis != nil {
		_ = sharedcache.Close(a.redis)
	}
	if a.db != nil {
		_ = database.Close(a.db)
	}
}
