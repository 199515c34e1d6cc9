package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flagtest_backend/internal/config"
	"flagtest_backend/internal/controller"
	"flagtest_backend/internal/repository"
	"flagtest_backend/internal/service"
	"flagtest_backend/internal/survey"
	"flagtest_backend/pkg/database"
	"flagtest_backend/pkg/logger"
	"flagtest_backend/pkg/monitoring"
	"flagtest_backend/pkg/ratelimit"
	"flagtest_backend/pkg/security"
	"flagtest_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
}

type repositories struct {
	user           *repository.UserRepository
	evaluation     *repository.EvaluationRepository
	invite         *repository.InviteRepository
	roster         *repository.RosterRepository
	testDefinition *repository.TestDefinitionRepository
	camouflage     *repository.CamouflageRepository
	participant    *repository.ParticipantRepository
}

type services struct {
	auth            *service.AuthService
	storage         *service.StorageService
	evaluation      *service.EvaluationService
	testDefinition  *service.TestDefinitionService
	camouflageAdmin *service.CamouflageAdminService
	identity        *service.IdentityService
	session         *service.SessionService
	answer          *service.AnswerService
	progress        *service.ProgressService
	camouflage      *service.CamouflageService
}

type controllers struct {
	auth           *controller.AuthController
	evaluation     *controller.EvaluationController
	testDefinition *controller.TestDefinitionController
	camouflage     *controller.CamouflageController
	participant    *controller.ParticipantController
	session        *controller.SessionController
	health         *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:           repository.NewUserRepository(db),
		evaluation:     repository.NewEvaluationRepository(db),
		invite:         repository.NewInviteRepository(db),
		roster:         repository.NewRosterRepository(db),
		testDefinition: repository.NewTestDefinitionRepository(db),
		camouflage:     repository.NewCamouflageRepository(db),
		participant:    repository.NewParticipantRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	registry := survey.DefaultRegistry()
	tokenSecret := cfg.Auth.TokenSecret

	s := &services{}
	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.evaluation = service.NewEvaluationService(repos.evaluation, repos.invite, repos.roster, repos.testDefinition, tokenSecret)
	s.testDefinition = service.NewTestDefinitionService(repos.testDefinition, registry)
	s.camouflageAdmin = service.NewCamouflageAdminService(repos.camouflage, repos.testDefinition)

	s.identity = service.NewIdentityService(repos.participant, tokenSecret)
	s.session = service.NewSessionService(repos.participant, tokenSecret)
	s.answer = service.NewAnswerService(repos.participant, registry, tokenSecret)
	s.progress = service.NewProgressService(repos.participant)
	s.camouflage = service.NewCamouflageService(repos.participant, registry)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:           controller.NewAuthController(s.auth),
		evaluation:     controller.NewEvaluationController(s.evaluation, s.session),
		testDefinition: controller.NewTestDefinitionController(s.testDefinition),
		camouflage:     controller.NewCamouflageController(s.camouflageAdmin, s.storage),
		participant:    controller.NewParticipantController(s.identity, s.session, s.progress),
		session:        controller.NewSessionController(s.session, s.answer, s.camouflage),
		health:         controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(func(c *gin.Context) {
		c.Set("config", cfg)
		c.Next()
	})
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// participantLimiter picks the rate limit backend for the join/answer
// surface. Redis keeps the limit global across instances.
func (a *App) participantLimiter(cfg *config.Config) ratelimit.Limiter {
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 120
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}

	if cfg.RateLimit.Store == "redis" && a.Redis != nil {
		return ratelimit.NewRedisLimiter(a.Redis, maxRequests, window)
	}
	return ratelimit.NewLocalLimiter(maxRequests, window)
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg)
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("flagtest", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
