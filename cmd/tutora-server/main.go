package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"tutora/backend/internal/auth"
	"tutora/backend/internal/config"
	"tutora/backend/internal/domain"
	"tutora/backend/internal/observability/metrics"
	"tutora/backend/internal/observability/tracing"
	"tutora/backend/internal/service/booking"
	"tutora/backend/internal/service/catalog"
	"tutora/backend/internal/service/ledger"
	"tutora/backend/internal/service/reminders"
	"tutora/backend/internal/store/postgres"
	"tutora/backend/internal/transport/admin"
	grpcTransport "tutora/backend/internal/transport/grpc"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "tutora-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "tutora-server"),
	)
	slog.SetDefault(log)

	log.Info("starting",
		slog.String("grpc_addr", cfg.GRPCAddr),
		slog.String("admin_addr", cfg.AdminAddr),
		slog.String("log_level", cfg.LogLevel),
		slog.String("time_zone", cfg.TimeZone.String()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Setup(ctx, tracing.Config{
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    true,
		ServiceName: cfg.TracingServiceName,
		SampleRatio: cfg.TracingSampleRatio,
	})
	if err != nil {
		log.Error("tracing setup failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracer shutdown failed", slog.Any("err", err))
		}
	}()

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		Logger:          log,
		SlowQuery:       cfg.DBSlowQuery,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Error("invalid redis url", slog.Any("err", err))
		os.Exit(1)
	}
	rdb := redis.NewClient(redisOpts)
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn("redis close failed", slog.Any("err", err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	notifyMetrics := metrics.NewNotifyMetrics(reg)

	mailer, err := newEmailSender(ctx, cfg, log, notifyMetrics)
	if err != nil {
		log.Error("email sender setup failed", slog.Any("err", err), slog.String("provider", cfg.EmailProvider))
		os.Exit(1)
	}
	sms := newSMSSender(cfg, log, notifyMetrics)

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		log.Error("token manager setup failed", slog.Any("err", err))
		os.Exit(1)
	}
	authProvider := auth.NewProvider(postgres.NewUserRepo(db), auth.NewRedisStore(rdb), tokens, mailer, auth.Config{
		SessionTTL:    cfg.SessionTTL,
		ResetTTL:      cfg.ResetTTL,
		BcryptCost:    cfg.BcryptCost,
		ResetTemplate: cfg.PasswordResetTemplate,
		Logger:        log,
	})
	unsubscribe := authProvider.OnSessionChange(func(sess *domain.Session) {
		if sess == nil {
			log.Debug("session ended")
			return
		}
		log.Debug("session started", slog.String("user_id", sess.UserID.String()))
	})
	defer unsubscribe()

	appts := postgres.NewAppointmentRepo(db)
	ledgerSvc := ledger.NewService(postgres.NewLedgerRepo(db), ledger.Config{Location: cfg.TimeZone, Logger: log})
	catalogSvc := catalog.NewService(
		postgres.NewCollection[domain.Client](db),
		postgres.NewCollection[domain.Service](db),
		log,
	)
	coordinator := booking.NewCoordinator(appts, ledgerSvc, booking.Config{
		Location: cfg.TimeZone,
		Logger:   log,
		Metrics:  metrics.NewBookingMetrics(reg),
	})
	remindersSvc := reminders.NewService(appts, mailer, reminders.Config{
		TemplateID: cfg.BalanceRecapTemplate,
		SMS:        sms,
		Location:   cfg.TimeZone,
		Logger:     log,
	})

	scheduler, err := reminders.NewScheduler(remindersSvc, reminders.SchedulerConfig{
		Schedule: cfg.ReminderSchedule,
		Timeout:  cfg.ReminderTimeout,
		ReplyTo:  cfg.EmailFrom,
		Location: cfg.TimeZone,
		Logger:   log,
	})
	if err != nil {
		log.Error("reminder scheduler setup failed", slog.Any("err", err))
		os.Exit(1)
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpcTransport.RecoveryInterceptor(log),
			grpcTransport.MetricsInterceptor(metrics.NewRPCMetrics(reg)),
			grpcTransport.RequestTimeoutInterceptor(cfg.GRPCRequestTimeout),
			grpcTransport.AuthInterceptor(authProvider, log),
		),
	)
	grpcTransport.RegisterTutoraServer(grpcServer, grpcTransport.NewServer(grpcTransport.Services{
		Auth:      authProvider,
		Catalog:   catalogSvc,
		Booking:   coordinator,
		Ledger:    ledgerSvc,
		Reminders: remindersSvc,
	}, log))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(grpcTransport.ServiceName, healthpb.HealthCheckResponse_SERVING)

	adminServer := &http.Server{
		Addr: cfg.AdminAddr,
		Handler: admin.NewRouter(admin.Config{
			Checks: map[string]admin.Check{
				"postgres": func(ctx context.Context) error { return db.PingContext(ctx) },
				"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			},
			Gatherer: reg,
			Logger:   log,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr))
		os.Exit(1)
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	scheduler.Start()

	log.Info("grpc server started", slog.String("grpc_addr", cfg.GRPCAddr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("server stopped with error", slog.Any("err", err))
		}
	}

	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("admin server shutdown failed", slog.Any("err", err))
	}
	shutdown(log, grpcServer, cfg.ShutdownTimeout)
}

func shutdown(log *slog.Logger, s *grpc.Server, timeout time.Duration) {
	log.Info("shutting down grpc server", slog.Duration("timeout", timeout))

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		log.Info("grpc server stopped")
	case <-timer.C:
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		s.Stop()
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
