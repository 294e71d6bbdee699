package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"ruserwation/core"
	"ruserwation/core/validation"
	"ruserwation/db"
	"ruserwation/logging"
	"ruserwation/refcheck"
	"ruserwation/reservation"
	"ruserwation/shutdown"
	"ruserwation/webui"
	"ruserwation/webui/auth"
)

// restaurantID is the single restaurant this process serves.
const restaurantID = 1

const (
	loginQueueSize      = 64
	maintenanceInterval = time.Hour
)

// errValidationFailed is returned by newApp when a startup check fails.
var errValidationFailed = errors.New("startup validation failed")

// app is the fully wired service.
type app struct {
	cfg    *core.Config
	logger *zap.Logger

	database *db.Database
	writer   *db.AsyncWriter
	auth     *auth.Middleware
	server   *webui.Server
	shutdown *shutdown.Manager
}

// run loads configuration, builds the service and serves until ctx is
// cancelled or a signal arrives. It returns the process exit code.
func run(ctx context.Context, out io.Writer) int {
	envFile, envErr := core.LoadEnvFile()

	cfg, err := core.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return core.ExitCodeConfig
	}

	level := logging.ParseLogLevelString(cfg.LogLevel, logging.DefaultLevel(cfg.DevMode))
	log, err := logging.NewLogger(cfg.DevMode, cfg.LogFile, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return core.ExitCodeError
	}
	log.Info("ruserwation starting",
		zap.String("version", core.Version),
		zap.String("commit", core.GitCommit),
		zap.String("env", cfg.Environment))
	if envErr != nil {
		log.Warn("environment file not loaded", zap.String("file", envFile), zap.Error(envErr))
	}

	a, err := newApp(ctx, cfg, log.Zap(), out)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		log.Sync()
		if _, ok := core.IsConfigError(err); ok || errors.Is(err, errValidationFailed) {
			return core.ExitCodeConfig
		}
		return core.ExitCodeError
	}
	return a.run()
}

// newApp validates the environment and wires every component. On error,
// whatever was opened is closed again.
func newApp(ctx context.Context, cfg *core.Config, logger *zap.Logger, out io.Writer) (a *app, err error) {
	var closers []func() error
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	generated, err := cfg.EnsureRefCheckSecret()
	if err != nil {
		return nil, err
	}

	sessions, pingSessions, closeSessions, err := webui.NewSessionStore(cfg, core.SystemClock)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	closers = append(closers, closeSessions)

	if err := runStartupValidation(ctx, cfg, generated, pingSessions, out, logger); err != nil {
		return nil, err
	}

	conn := db.DefaultConnectionConfig(cfg.SQLitePath())
	conn.MaxOpenConns = cfg.SQLiteMaxConn
	database, err := db.NewDatabase(db.DatabaseConfig{
		Path:             conn.Path,
		ConnectionConfig: &conn,
	}, logger.Named("db"))
	if err != nil {
		return nil, err
	}
	closers = append(closers, database.Close)
	if err := database.Migrate(); err != nil {
		return nil, err
	}

	restaurant := core.Restaurant{
		ID:          restaurantID,
		Name:        cfg.Restaurant.Name,
		Location:    cfg.Restaurant.Location,
		MaxCapacity: cfg.Restaurant.MaxCapacity,
		Active:      true,
	}
	if err := db.NewRestaurantRepository(database).Upsert(ctx, &restaurant); err != nil {
		return nil, err
	}
	logger.Info("restaurant loaded", zap.Object("restaurant", restaurant))

	admins := db.NewAdminRepository(database)
	if _, err := auth.EnsureRootAdmin(ctx, admins, cfg.Admin, out, logger.Named("auth")); err != nil {
		return nil, err
	}

	issuer, err := refcheck.NewIssuer(cfg.RefCheck.Secret, cfg.RefCheckWindow(), nil)
	if err != nil {
		return nil, err
	}

	writer := db.NewAsyncWriter(admins.AsyncWriteHandler(logger.Named("db")), loginQueueSize)
	manager := auth.NewSessionManager(
		auth.NewCredentialVerifier(admins, logger.Named("auth")),
		sessions,
		logger.Named("auth"),
		auth.WithSessionTTL(cfg.SessionTTL()),
		auth.WithLoginRecorder(func(admin *core.Admin, at time.Time) {
			if !writer.Write(db.LastLoginUpdate{AdminID: admin.ID, At: at}) {
				logger.Warn("last login update dropped", zap.Int64("admin_id", admin.ID))
			}
		}),
	)
	authCfg := auth.DefaultConfig()
	authCfg.SecureCookies = cfg.IsProduction()
	authMW := auth.NewMiddleware(manager, authCfg, logger.Named("auth"))

	shutdownMgr := shutdown.NewManager(logger.Named("shutdown"), shutdown.WithParent(ctx))

	reservations := db.NewReservationRepository(database)
	srvCfg := webui.DefaultServerConfig()
	srvCfg.Host = cfg.Host
	srvCfg.Port = cfg.Port
	srvCfg.StaticDir = cfg.StaticDir
	srvCfg.TrustProxyHeaders = cfg.TrustProxy
	srvCfg.Poster = cfg.Restaurant.Poster
	srvCfg.Restaurant = restaurant
	server, err := webui.NewServer(srvCfg, webui.Deps{
		Auth: authMW,
		Reservations: reservation.NewReconciler(reservations, issuer, logger.Named("reservations"),
			reservation.WithRestaurantID(restaurantID)),
		Tokens:      issuer,
		Upcoming:    reservations,
		Ping:        database.Ping,
		Middlewares: []func(next http.Handler) http.Handler{shutdownMgr.Middleware},
	}, logger.Named("web"))
	if err != nil {
		return nil, err
	}

	shutdownMgr.Register("http server", shutdown.PriorityHTTPServer, shutdown.HTTPServer(server))
	shutdownMgr.Register("last login writer", shutdown.PriorityWorkers, shutdown.DrainWriter(writer, 5*time.Second, logger))
	shutdownMgr.Register("session store", shutdown.PrioritySessions, func(ctx context.Context) error { return closeSessions() })
	shutdownMgr.Register("database", shutdown.PriorityDatabase, shutdown.Closer(database))
	shutdownMgr.Register("logger", shutdown.PriorityLogger, shutdown.SyncLogger(logger))

	writer.Start()

	return &app{
		cfg:      cfg,
		logger:   logger,
		database: database,
		writer:   writer,
		auth:     authMW,
		server:   server,
		shutdown: shutdownMgr,
	}, nil
}

// runStartupValidation prints the check results and fails on any failed
// check. Warnings are logged only.
func runStartupValidation(ctx context.Context, cfg *core.Config, secretGenerated bool, pingSessions func(context.Context) error, out io.Writer, logger *zap.Logger) error {
	suite := validation.NewSuite("Ruserwation startup checks").
		WithOutput(out).
		Add(
			validation.ConfigCheck(cfg),
			validation.DatabaseDirCheck(cfg.SQLitePath()),
			validation.DiskSpaceCheck(cfg.SQLitePath(), validation.MinDatabaseFreeSpace),
			validation.RefCheckSecretCheck(cfg.RefCheck.Secret, secretGenerated),
			validation.SessionStoreCheck(cfg.Session.Store, pingSessions),
			validation.StaticAssetsCheck(cfg.StaticDir, cfg.Restaurant.Poster),
		)

	result := suite.Run(ctx)
	for _, step := range result.Steps {
		switch step.Status {
		case validation.StepFailed:
			logger.Error("validation step failed", zap.String("step", step.Name), zap.Error(step.Error))
		case validation.StepWarning:
			logger.Warn("validation warning", zap.String("step", step.Name), zap.Error(step.Error))
		}
	}
	if !result.Success {
		return fmt.Errorf("%w: %d of %d checks failed", errValidationFailed, result.FailedSteps, result.TotalSteps)
	}

	logger.Info("startup validation passed",
		zap.Int("checks_passed", result.PassedSteps),
		zap.Int("warnings", result.Warnings),
		zap.Duration("duration", result.Duration))
	return nil
}

// run serves until shutdown begins, then drains and cleans up.
func (a *app) run() int {
	a.shutdown.Start()
	ctx := a.shutdown.Context()

	cleanupDone := a.database.StartCleanupScheduler(ctx, db.CleanupSchedulerConfig{
		RetentionDays: a.cfg.RetentionDays,
		Interval:      maintenanceInterval,
		OnCleanup: func(result db.CleanupResult, err error) {
			swept := a.auth.SweepRateLimits()
			if err != nil {
				a.logger.Warn("reservation cleanup failed", zap.Error(err))
				return
			}
			a.logger.Info("maintenance finished",
				zap.Int64("reservations_deleted", result.ReservationsDeleted),
				zap.Int("rate_limits_swept", swept),
				zap.Duration("duration", result.Duration))
		},
	})

	a.shutdown.Register("maintenance", shutdown.PriorityWorkers, func(ctx context.Context) error {
		select {
		case <-cleanupDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.server.Start()
	}()

	exitCode := core.ExitCodeSuccess
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			a.logger.Error("web server stopped unexpectedly", zap.Error(err))
			exitCode = core.ExitCodeError
		}
		a.shutdown.Trigger()
	}

	if err := a.shutdown.Shutdown(); err != nil && exitCode == core.ExitCodeSuccess {
		exitCode = core.ExitCodeError
	}

	if exitCode == core.ExitCodeSuccess {
		exitCode = a.shutdown.ExitCode()
	}
	a.logger.Info("goodbye", zap.String("exit", core.ExitCodeName(exitCode)))
	return exitCode
}
