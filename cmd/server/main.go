package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"caregate/internal/audit"
	"caregate/internal/audit/export"
	"caregate/internal/consent"
	"caregate/internal/guard"
	"caregate/internal/guard/store/window"
	"caregate/internal/identity"
	jwttoken "caregate/internal/jwt_token"
	"caregate/internal/lifecycle"
	"caregate/internal/platform/config"
	"caregate/internal/platform/httpserver"
	"caregate/internal/platform/logger"
	"caregate/internal/platform/metrics"
	redisplatform "caregate/internal/platform/redis"
	"caregate/internal/policy"
	httptransport "caregate/internal/transport/http"
	id "caregate/pkg/domain"
	dErrors "caregate/pkg/domain-errors"
	"caregate/pkg/platform/keyedlock"
	txcontext "caregate/pkg/platform/tx"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(logger.ParseLevel(cfg.LogLevel))

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Store selection: Postgres when a DSN is configured, in-memory otherwise.
	var (
		userStore      identity.Store
		consentStore   consent.Store
		auditSink      audit.AuditSink
		securitySink   audit.SecuritySink
		tombstoneStore lifecycle.TombstoneStore
		atomicRun      lifecycle.AtomicRunner
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			return err
		}
		userStore = identity.NewPostgres(db)
		consentStore = consent.NewPostgres(db)
		auditSink = audit.NewPostgresAuditSink(db)
		securitySink = audit.NewPostgresSecuritySink(db)
		tombstoneStore = lifecycle.NewPostgresTombstoneStore(db)
		atomicRun = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return txcontext.Run(ctx, db, fn)
		}
		log.Info("using postgres stores")
	} else {
		userStore = identity.NewInMemoryStore()
		consentStore = consent.NewInMemoryStore()
		auditSink = audit.NewInMemoryAuditSink()
		securitySink = audit.NewInMemorySecuritySink()
		tombstoneStore = lifecycle.NewInMemoryTombstoneStore()
		log.Info("using in-memory stores")
	}

	var windowStore window.Store = window.NewInMemoryStore()
	if cfg.RedisURL != "" {
		rc, err := redisplatform.New(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rc.Close()
		windowStore = window.NewRedisStore(rc.Client)
		log.Info("using redis denial window store")
	}

	// Optional compliance export of the audit stream to Kafka.
	var auditOpts []audit.Option
	auditOpts = append(auditOpts, audit.WithLogger(log), audit.WithMetrics(m))
	var exporter *export.KafkaExporter
	if len(cfg.KafkaBrokers) > 0 {
		var err error
		exporter, err = export.NewKafkaExporter(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			return err
		}
		defer exporter.Close()
		if err := exporter.EnsureTopic(ctx, 3); err != nil {
			return err
		}
		auditOpts = append(auditOpts, audit.WithAuditExport(exporter.Enqueue))
		log.Info("audit export enabled", "topic", cfg.KafkaTopic)
	}

	auditLog, err := audit.NewLog(auditSink, securitySink, auditOpts...)
	if err != nil {
		return err
	}

	registry, err := identity.NewRegistry(userStore)
	if err != nil {
		return err
	}
	ledger, err := consent.NewLedger(consentStore)
	if err != nil {
		return err
	}

	// The guard and the lifecycle manager share one lock set so erasure is
	// exclusive against concurrent checks and consent mutations.
	locks := keyedlock.New()

	g, err := guard.New(guard.Config{
		Roles:    registry,
		Table:    policy.DefaultTable(),
		Consents: ledger,
		Erasures: tombstoneStore,
		Windows:  windowStore,
		Escalation: guard.EscalationConfig{
			Window:            cfg.DenialWindow,
			WarningThreshold:  cfg.WarningThreshold,
			CriticalThreshold: cfg.CriticalThreshold,
		},
		Log:     auditLog,
		Locks:   locks,
		Logger:  log,
		Metrics: m,
	})
	if err != nil {
		return err
	}

	manager, err := lifecycle.NewManager(lifecycle.Config{
		Guard:      g,
		Tombstones: tombstoneStore,
		// The patient directory is a port onto the external record system;
		// no adapter for one exists yet, so even the postgres deployment
		// runs with the in-memory stand-in and anonymize/unlink targets do
		// not survive a restart.
		Directory: lifecycle.NewInMemoryDirectory(),
		Consents:  ledger,
		Log:       auditLog,
		Locks:     locks,
		Logger:    log,
		Metrics:   m,
		Atomic:    atomicRun,
	})
	if err != nil {
		return err
	}

	if cfg.SeedDemo {
		if err := seedDemoUsers(ctx, registry); err != nil {
			return err
		}
		log.Info("seeded demo users")
	}

	tokens := jwttoken.NewService(cfg.JWTSigningKey, "caregate")
	handler := httptransport.NewHandler(log, g, ledger, auditLog, manager)
	router := httptransport.NewRouter(handler, jwttoken.NewAdapter(tokens))
	srv := httpserver.New(cfg.Addr, router)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting caregate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if exporter != nil {
		group.Go(func() error {
			return exporter.Run(gctx)
		})
	}
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// seedDemoUsers registers one user per role for local development. Re-runs
// are fine; duplicates are skipped.
func seedDemoUsers(ctx context.Context, registry *identity.Registry) error {
	users := []identity.User{
		{ID: id.UserID("nurse-1"), Name: "Demo Nurse", Role: identity.RoleNurse},
		{ID: id.UserID("doctor-1"), Name: "Demo Doctor", Role: identity.RoleDoctor},
		{ID: id.UserID("patient-1"), Name: "Demo Patient", Role: identity.RolePatient},
		{ID: id.UserID("admin-1"), Name: "Demo Admin", Role: identity.RoleAdmin},
	}
	for _, u := range users {
		if err := registry.Register(ctx, u); err != nil && !dErrors.HasCode(err, dErrors.CodeDuplicateUser) {
			return err
		}
	}
	return nil
}
