package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-practice-api/config"
	deliveryHttp "clinic-practice-api/internal/delivery/http"
	"clinic-practice-api/internal/delivery/http/handler"
	"clinic-practice-api/internal/delivery/http/middleware"
	"clinic-practice-api/internal/infrastructure/cache"
	"clinic-practice-api/internal/infrastructure/database"
	"clinic-practice-api/internal/infrastructure/messaging"
	"clinic-practice-api/internal/repository"
	"clinic-practice-api/internal/service"
	"clinic-practice-api/internal/usecase"
	"clinic-practice-api/pkg/jwt"
	"clinic-practice-api/pkg/metrics"
	"clinic-practice-api/pkg/tracer"
	"clinic-practice-api/pkg/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/gorm"
)

const metricsNamespace = "clinic"

// App holds all dependencies for the application
type App struct {
	Config         *config.Config
	Log            *logrus.Logger
	DB             *gorm.DB
	RedisClient    *redis.Client
	Publisher      service.EventPublisher
	TracerProvider *sdktrace.TracerProvider
	Server         *http.Server
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	log := newLogger(cfg.App)
	app.Log = log
	log.Info("Configuration loaded successfully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tp, err := tracer.Init(ctx, tracer.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.App.Name,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}
	app.TracerProvider = tp

	if cfg.Migrations.AutoMigrate {
		if err := database.RunMigrations(cfg.DB, database.MigrateUp, log); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	log.Info("Database connected successfully")

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	log.Info("Redis connected successfully")

	publisher, err := messaging.NewPublisher(cfg.Events, redisClient, log)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}
	app.Publisher = publisher
	log.Infof("Publishing appointment events via %s", cfg.Events.Driver)

	queue := service.NewWaitingQueueService(db, redisClient, log)
	if err := queue.SyncOnStartup(ctx, cfg.App.Location()); err != nil {
		// tickets still work, numbering may restart for today's clinics
		log.Warnf("Failed to sync waiting queue counters: %+v", err)
	}

	app.Server = initializeServer(cfg, log, db, redisClient, publisher, queue)

	return app, nil
}

// Migrate runs the embedded migrations in one direction and exits
func Migrate(direction database.MigrationDirection) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := newLogger(cfg.App)
	if err := database.RunMigrations(cfg.DB, direction, log); err != nil {
		return err
	}
	log.Infof("Migrations applied (%s)", direction)
	return nil
}

// newLogger configures the logrus logger
func newLogger(cfg config.AppConfig) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// initializeServer creates and configures the HTTP server
func initializeServer(
	cfg *config.Config,
	log *logrus.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
	publisher service.EventPublisher,
	queue service.QueueTicketer,
) *http.Server {
	loc := cfg.App.Location()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(metricsNamespace, registry)

	jwtService := jwt.NewJWTService(cfg.JWT)
	tokenStore := service.NewRedisTokenStore(redisClient)
	customValidator := validator.NewValidator()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	clinicRepo := repository.NewClinicRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	noteRepo := repository.NewConsultationNoteRepository(db)
	validationRepo := repository.NewIdentityValidationRepository(db)
	documentRepo := repository.NewPatientDocumentRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)

	auditService := service.NewAuditService(log, auditLogRepo, collector)

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(log, userRepo, roleRepo, jwtService, tokenStore, auditService)
	clinicUsecase := usecase.NewClinicUsecase(log, clinicRepo, availabilityRepo, userRepo, auditService)
	availabilityUsecase := usecase.NewAvailabilityUsecase(log, clinicRepo, availabilityRepo, appointmentRepo, loc)
	bookingUsecase := usecase.NewBookingUsecase(log, appointmentRepo, clinicRepo, userRepo, availabilityRepo, publisher, auditService, collector, loc)
	consultationUsecase := usecase.NewConsultationUsecase(log, appointmentRepo, noteRepo, clinicRepo, queue, publisher, auditService, collector, loc)
	identityUsecase := usecase.NewIdentityUsecase(log, appointmentRepo, validationRepo, documentRepo, clinicRepo, publisher, auditService, collector)
	noteUsecase := usecase.NewConsultationNoteUsecase(log, appointmentRepo, noteRepo, clinicRepo, auditService, loc)
	documentUsecase := usecase.NewPatientDocumentUsecase(log, documentRepo, userRepo, auditService)
	auditLogUsecase := usecase.NewAuditLogUsecase(log, auditLogRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authUsecase, customValidator)
	bookingHandler := handler.NewBookingHandler(bookingUsecase, customValidator)
	consultationHandler := handler.NewConsultationHandler(consultationUsecase, identityUsecase, noteUsecase, customValidator)
	clinicHandler := handler.NewClinicHandler(clinicUsecase, availabilityUsecase, customValidator)
	availabilityHandler := handler.NewAvailabilityHandler(clinicUsecase, customValidator)
	patientHandler := handler.NewPatientHandler(documentUsecase, customValidator)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(log, jwtService, tokenStore)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.CORS)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimit, collector)
	metricsMiddleware := middleware.NewMetricsMiddleware(collector)

	router := deliveryHttp.NewRouter(
		authHandler,
		bookingHandler,
		consultationHandler,
		clinicHandler,
		availabilityHandler,
		patientHandler,
		auditLogHandler,
		authMiddleware,
		corsMiddleware,
		rateLimitMiddleware,
		metricsMiddleware,
		metrics.Handler(registry),
	)

	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	// flush buffered spans before the process exits
	if app.TracerProvider != nil {
		if err := app.TracerProvider.Shutdown(ctx); err != nil {
			app.Log.Warnf("Failed to flush traces: %v", err)
		}
	}

	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close closes all connections (publisher, database, redis)
func (app *App) Close() {
	if app.Publisher != nil {
		if err := app.Publisher.Close(); err != nil {
			app.Log.Warnf("Failed to close event publisher: %v", err)
		}
	}

	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
