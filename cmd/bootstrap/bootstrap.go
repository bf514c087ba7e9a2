package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medledger/config"
	deliveryHttp "medledger/internal/delivery/http"
	"medledger/internal/delivery/http/handler"
	"medledger/internal/delivery/http/middleware"
	"medledger/internal/infrastructure/cache"
	"medledger/internal/infrastructure/database"
	"medledger/internal/jobs"
	"medledger/internal/repository"
	"medledger/internal/service"
	"medledger/internal/usecase"
	"medledger/pkg/jwt"
	"medledger/pkg/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	LedgerPool  *pgxpool.Pool
	RedisClient *redis.Client
	Server      *http.Server
	Scheduler   *jobs.Scheduler
}

// New creates a new App instance with all dependencies initialized
func New(ctx context.Context) (*App, error) {
	app, err := connect(ctx)
	if err != nil {
		return nil, err
	}

	if err := app.initializeServer(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// connect loads configuration and opens both databases and Redis.
func connect(ctx context.Context) (*App, error) {
	app := &App{}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg
	app.Log = setupLogger(cfg.App)
	app.Log.Info("Configuration loaded successfully")

	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.IsDevelopment())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	app.Log.Info("Database connected successfully")

	pool, err := database.NewLedgerPool(ctx, cfg.Ledger)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to ledger database: %w", err)
	}
	app.LedgerPool = pool

	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	app.Log.Info("Redis connected successfully")

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger(cfg config.AppConfig) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)
	if cfg.IsDevelopment() {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func (app *App) backupService() *service.BackupService {
	return service.NewBackupService(
		service.NewTelegramClient(app.Config.Telegram),
		app.Log,
		repository.NewLedgerDumper(app.LedgerPool),
		repository.NewPortalDumper(app.DB),
	)
}

// initializeServer wires every layer and creates the HTTP server
func (app *App) initializeServer(ctx context.Context) error {
	cfg, log, db, pool := app.Config, app.Log, app.DB, app.LedgerPool

	jwtService := jwt.NewJWTService(cfg.JWT)
	customValidator := validator.NewValidator()

	// Portal repositories
	userRepo := repository.NewUserRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	recordRepo := repository.NewMedicalRecordRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	insuranceRepo := repository.NewInsuranceRepository(db)
	cardRepo := repository.NewMedicalCardRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)

	// Ledger repositories
	ledgerUserRepo := repository.NewLedgerUserRepository()
	walletRepo := repository.NewWalletRepository()
	txRepo := repository.NewTransactionRepository()
	loanRepo := repository.NewLoanRepository()
	ledgerNotificationRepo := repository.NewLedgerNotificationRepository()

	// Services
	tokenStore := service.NewTokenStore(app.RedisClient, log)
	nonceStore := service.NewNonceStore(app.RedisClient, log)
	auditService := service.NewAuditService(log, auditLogRepo)
	hub := service.NewNotificationHub(log)
	currencyService := service.NewCurrencyService(cfg.Currency, app.RedisClient, log)
	limitService := service.NewTransferLimitService(pool, txRepo, app.RedisClient, log, cfg.Ledger.DailyTransferLimit)
	if err := limitService.SyncOnStartup(ctx); err != nil {
		log.Warnf("Failed to sync transfer limits: %+v", err)
	}

	chatModel, err := service.NewGeminiChatModel(ctx, cfg.AI, log)
	if err != nil {
		return err
	}

	var backupRunner usecase.BackupRunner
	if cfg.Telegram.Enabled() {
		backupRunner = app.backupService()
	}

	// Usecases
	authUsecase := usecase.NewAuthUsecase(log, userRepo, jwtService, tokenStore, auditService)
	doctorUsecase := usecase.NewDoctorUsecase(log, doctorRepo, auditService)
	recordUsecase := usecase.NewMedicalRecordUsecase(log, recordRepo, doctorRepo, auditService)
	appointmentUsecase := usecase.NewAppointmentUsecase(log, appointmentRepo, doctorRepo, notificationRepo, auditService)
	insuranceUsecase := usecase.NewInsuranceUsecase(log, insuranceRepo, auditService)
	cardUsecase := usecase.NewMedicalCardUsecase(log, cardRepo, userRepo, auditService)
	notificationUsecase := usecase.NewNotificationUsecase(log, notificationRepo)
	dashboardUsecase := usecase.NewDashboardUsecase(log, recordRepo, appointmentRepo, insuranceRepo, notificationRepo, cardRepo)
	auditLogUsecase := usecase.NewAuditLogUsecase(log, auditLogRepo)
	chatUsecase := usecase.NewChatUsecase(log, chatModel)
	currencyUsecase := usecase.NewCurrencyUsecase(log, currencyService, cfg.Ledger.DefaultCurrency)

	ledgerAuthUsecase := usecase.NewLedgerAuthUsecase(pool, log, ledgerUserRepo, walletRepo, jwtService, tokenStore, nonceStore, auditService, cfg.Ledger.DefaultCurrency)
	walletUsecase := usecase.NewWalletUsecase(pool, log, walletRepo, txRepo)
	transferUsecase := usecase.NewTransferUsecase(pool, log, ledgerUserRepo, walletRepo, txRepo, ledgerNotificationRepo,
		limitService, currencyService, hub, auditService, cfg.Ledger.IntlFeePercent)
	loanUsecase := usecase.NewLoanUsecase(pool, log, loanRepo, walletRepo, txRepo, ledgerNotificationRepo, hub, auditService, cfg.Ledger.LoanInterestRate)
	ledgerNotificationUsecase := usecase.NewLedgerNotificationUsecase(pool, log, ledgerNotificationRepo, hub)
	ledgerAdminUsecase := usecase.NewLedgerAdminUsecase(pool, log, ledgerUserRepo, walletRepo, txRepo, loanRepo, ledgerNotificationRepo,
		tokenStore, hub, backupRunner, auditService)

	// Handlers
	cookies := handler.SessionCookies{
		Domain:     cfg.App.CookieDomain,
		Secure:     cfg.App.SecureCookies,
		AccessTTL:  cfg.JWT.AccessExpiry,
		RefreshTTL: cfg.JWT.RefreshExpiry,
	}
	handlers := deliveryHttp.Handlers{
		Auth:               handler.NewAuthHandler(authUsecase, customValidator, cookies),
		Doctor:             handler.NewDoctorHandler(doctorUsecase, customValidator),
		MedicalRecord:      handler.NewMedicalRecordHandler(recordUsecase, customValidator),
		Appointment:        handler.NewAppointmentHandler(appointmentUsecase, customValidator),
		Insurance:          handler.NewInsuranceHandler(insuranceUsecase, customValidator),
		MedicalCard:        handler.NewMedicalCardHandler(cardUsecase, customValidator),
		Notification:       handler.NewNotificationHandler(notificationUsecase),
		Dashboard:          handler.NewDashboardHandler(dashboardUsecase),
		AuditLog:           handler.NewAuditLogHandler(auditLogUsecase),
		Chat:               handler.NewChatHandler(chatUsecase, customValidator),
		Currency:           handler.NewCurrencyHandler(currencyUsecase, customValidator),
		LedgerAuth:         handler.NewLedgerAuthHandler(ledgerAuthUsecase, customValidator, cookies),
		Wallet:             handler.NewWalletHandler(walletUsecase),
		Transfer:           handler.NewTransferHandler(transferUsecase, customValidator),
		Loan:               handler.NewLoanHandler(loanUsecase, customValidator),
		LedgerNotification: handler.NewLedgerNotificationHandler(ledgerNotificationUsecase, log),
		LedgerAdmin:        handler.NewLedgerAdminHandler(ledgerAdminUsecase, customValidator, log),
	}

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, tokenStore, log)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSOrigins)
	limiters := deliveryHttp.Limiters{
		Global: middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst),
		Auth:   middleware.PerMinute(cfg.RateLimit.AuthPerMinute),
		Chat:   middleware.PerMinute(cfg.RateLimit.ChatPerMinute),
	}

	proxies, err := middleware.NewProxyResolver(cfg.App.TrustedProxies)
	if err != nil {
		return fmt.Errorf("failed to parse APP_TRUSTED_PROXIES: %w", err)
	}

	router := deliveryHttp.NewRouter(handlers, limiters, authMiddleware, corsMiddleware, proxies, log)

	scheduler, err := jobs.NewScheduler(cfg.Jobs, backupRunner, appointmentUsecase, log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	app.Scheduler = scheduler

	// No write timeout: the notification stream stays open.
	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	app.Server.RegisterOnShutdown(hub.Close)
	return nil
}

// Run starts the HTTP server and the scheduler, then blocks until shutdown
func (app *App) Run() error {
	app.Scheduler.Start()

	serverErr := make(chan error, 1)
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
		app.Log.Info("Shutting down server...")
	case runErr = <-serverErr:
		app.Log.Errorf("Server failed: %v", runErr)
	}

	app.shutdown()
	return runErr
}

func (app *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	app.Scheduler.Stop()

	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	app.Close()
	app.Log.Info("Server shutdown complete")
}

// Migrate applies the portal ORM schema and the ledger SQL migrations.
func Migrate(ctx context.Context) error {
	app, err := connect(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := database.MigratePortal(app.DB); err != nil {
		return err
	}
	return database.MigrateLedger(app.Config.Ledger.DatabaseURL)
}

// Backup runs one backup and delivers it to Telegram.
func Backup(ctx context.Context) (*service.BackupResult, error) {
	app, err := connect(ctx)
	if err != nil {
		return nil, err
	}
	defer app.Close()

	return app.backupService().Run(ctx)
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	if app.DB != nil {
		if sqlDB, err := app.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}

	if app.LedgerPool != nil {
		app.LedgerPool.Close()
	}

	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
