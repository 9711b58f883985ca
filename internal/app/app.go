package app

import (
	"context"
	"health_track_backend/internal/config"
	"health_track_backend/internal/controller"
	"health_track_backend/internal/repository"
	"health_track_backend/internal/service"
	"health_track_backend/pkg/configwatcher"
	"health_track_backend/pkg/database"
	"health_track_backend/pkg/logger"
	"health_track_backend/pkg/monitoring"
	"health_track_backend/pkg/security"
	"health_track_backend/pkg/tracing"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	rateLimiter     *security.RateLimiter
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user          *repository.UserRepository
	catalog       *repository.CatalogRepository
	enrollment    *repository.EnrollmentRepository
	assessment    *repository.AssessmentRepository
	visit         *repository.VisitRepository
	medication    *repository.MedicationRepository
	medicalRecord *repository.MedicalRecordRepository
}

type services struct {
	auth          *service.AuthService
	storage       *service.StorageService
	events        service.EventPublisher
	enrollment    *service.EnrollmentService
	catalog       *service.CatalogService
	visit         *service.VisitService
	medication    *service.MedicationService
	medicalRecord *service.MedicalRecordService
	report        *service.ReportService
}

type controllers struct {
	auth          *controller.AuthController
	program       *controller.ProgramController
	visit         *controller.VisitController
	medication    *controller.MedicationController
	medicalRecord *controller.MedicalRecordController
	health        *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ReloadConfig 配置文件变化时由 configwatcher 调用
func (a *App) ReloadConfig(cfg *config.Config) {
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:          repository.NewUserRepository(db),
		catalog:       repository.NewCatalogRepository(db),
		enrollment:    repository.NewEnrollmentRepository(db),
		assessment:    repository.NewAssessmentRepository(db),
		visit:         repository.NewVisitRepository(db),
		medication:    repository.NewMedicationRepository(db),
		medicalRecord: repository.NewMedicalRecordRepository(db),
	}
}

func (a *App) initServices(ctx context.Context, repos *repositories, cfg *config.Config, rdb *redis.Client) (*services, error) {
	s := &services{}

	storage, err := service.NewStorageService(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.storage = storage

	events, err := service.NewEventPublisher(ctx, &cfg.Events)
	if err != nil {
		return nil, err
	}
	s.events = events

	sessions := service.NewRedisSessionStore(rdb, cfg.Session.Prefix)
	s.auth = service.NewAuthService(repos.user, sessions, cfg)
	s.enrollment = service.NewEnrollmentService(repos.catalog, repos.enrollment, repos.assessment, s.events)

	// 报名服务同时负责功能解锁检查
	gate := s.enrollment
	s.catalog = service.NewCatalogService(repos.catalog, gate, s.storage, cfg)
	s.visit = service.NewVisitService(repos.visit, gate)
	s.medication = service.NewMedicationService(repos.medication, gate)
	s.medicalRecord = service.NewMedicalRecordService(repos.medicalRecord, s.storage, cfg)
	s.report = service.NewReportService(repos.visit, repos.medication, repos.catalog, repos.user, gate, s.storage, &cfg.Report)

	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:          controller.NewAuthController(s.auth),
		program:       controller.NewProgramController(s.enrollment, s.catalog),
		visit:         controller.NewVisitController(s.visit, s.report),
		medication:    controller.NewMedicationController(s.medication, s.report),
		medicalRecord: controller.NewMedicalRecordController(s.medicalRecord),
		health:        controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	a.rateLimiter = security.NewRateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
	router.Use(a.rateLimiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// registerReloaders 只有日志级别、限流和报告排版支持热更新
func (a *App) registerReloaders() {
	a.RegisterConfigCallback(func(cfg *config.Config) {
		logger.SetLevel(cfg)
	})
	a.RegisterConfigCallback(func(cfg *config.Config) {
		a.rateLimiter.Update(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
	})
	a.RegisterConfigCallback(func(cfg *config.Config) {
		a.services.report.Configure(&cfg.Report)
	})
}

func NewApp(ctx context.Context, cfg *config.Config, configDir string) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	gin.SetMode(cfg.Server.Mode)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		logger.Log.Error("Failed to initialize database", zap.Error(err))
		return nil, err
	}

	// release 模式下只有显式指定才迁移
	if cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode {
		if err := database.Migrate(db); err != nil {
			logger.Log.Error("Failed to migrate database", zap.Error(err))
			return nil, err
		}
	}

	rdb, err := database.InitRedis(ctx, &cfg.Redis)
	if err != nil {
		logger.Log.Error("Failed to initialize redis", zap.Error(err))
		return nil, err
	}

	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		DB:        db,
		Redis:     rdb,
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(ctx, repos, cfg, rdb)
	if err != nil {
		logger.Log.Error("Failed to initialize services", zap.Error(err))
		return nil, err
	}
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("health-track", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
			return nil, err
		}
		app.tracer = tp
	}

	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.registerReloaders()

	return app, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := configwatcher.Watch(ctx, a.ConfigDir, a.ReloadConfig); err != nil {
		logger.Log.Warn("Config watcher disabled", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
	}
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	a.close()
	if err != nil {
		return err
	}

	logger.Log.Info("Server exiting")
	return nil
}

func (a *App) close() {
	if a.rateLimiter != nil {
		a.rateLimiter.Stop()
	}
	if a.services != nil && a.services.events != nil {
		if err := a.services.events.Close(); err != nil {
			logger.Log.Error("Failed to close event publisher", zap.Error(err))
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
	_ = logger.Log.Sync()
}
