// Command server runs the caregate API: the JWT auth gate, the fixed
// security-header envelope, and the durable audit trail in front of
// PHI-handling endpoints.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"caregate/internal/audit"
	"caregate/internal/audit/outbox/worker"
	"caregate/internal/identity"
	"caregate/internal/platform/config"
	"caregate/internal/platform/database"
	"caregate/internal/platform/health"
	"caregate/internal/platform/httpserver"
	"caregate/internal/platform/kafka/producer"
	"caregate/internal/platform/logger"
	"caregate/internal/platform/metrics"
	"caregate/internal/platform/middleware"
	"caregate/internal/platform/redis"
	"caregate/internal/platform/tracer"
	"caregate/internal/token"
	httptransport "caregate/internal/transport/http"
	"caregate/internal/user"
	"caregate/migrations"

	"golang.org/x/sync/errgroup"
)

const (
	demoUserEmail    = "demo@example.com"
	demoUserPassword = "demo-password-change-me"

	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing caregate",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"audit_mode", cfg.AuditMode,
		"resolver", cfg.Resolver,
	)

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	trc := tracer.NewOTel()

	// Storage. The server degrades to in-memory stores when no database is
	// configured, which is only acceptable for local development.
	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		return err
	}
	defer pool.Close() //nolint:errcheck // shutdown path

	var (
		userStore  user.Store
		auditStore audit.Store
		outboxWkr  *worker.Worker
		prod       *producer.Producer
	)

	if pool != nil {
		if err := migrations.Apply(ctx, pool.DB()); err != nil {
			return err
		}
		userStore = user.NewPostgres(pool.DB())
		pgAudit := audit.NewPostgres(pool.DB())
		auditStore = pgAudit

		if cfg.KafkaBrokers != "" {
			prod, err = producer.New(producer.Config{
				Brokers:         cfg.KafkaBrokers,
				Retries:         5,
				DeliveryTimeout: 10 * time.Second,
			}, log)
			if err != nil {
				return err
			}
			defer prod.Close()

			outboxWkr = worker.New(pgAudit.Outbox(), prod,
				worker.WithTopic(cfg.AuditTopic),
				worker.WithMetrics(m),
				worker.WithLogger(log),
			)
		} else {
			log.Warn("kafka brokers not configured, outbox publishing disabled")
		}
	} else {
		log.Warn("database not configured, using in-memory stores")
		userStore = user.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
	}

	if cfg.Environment != "production" {
		demo, err := user.SeedDemoUser(ctx, userStore, demoUserEmail, demoUserPassword)
		if err != nil {
			return err
		}
		log.Info("demo user available", "user_id", demo.ID)
	}

	// Identity resolution, optionally cached through Redis.
	var resolver identity.Resolver
	switch cfg.Resolver {
	case config.ResolverStatic:
		resolver = identity.NewStaticResolver()
	default:
		resolver = identity.NewStoreResolver(userStore)
	}

	rdb, err := redis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close() //nolint:errcheck // shutdown path
		resolver = identity.NewCachingResolver(resolver, rdb.Client, cfg.IdentityCacheTTL, log)
	}
	resolver = identity.NewTracingResolver(resolver, trc)

	recorder := audit.NewRecorder(auditStore,
		audit.WithMode(cfg.AuditMode),
		audit.WithQueueLength(cfg.AuditQueueLen),
		audit.WithRecorderLogger(log),
		audit.WithRecorderTracer(trc),
		audit.WithRecorderMetrics(m),
	)

	tokens := token.NewService(cfg.JWTSigningKey, "caregate")
	auth := middleware.NewAuthenticator(tokens, resolver, log,
		middleware.WithAuthMetrics(m),
		middleware.WithAuthAudit(recorder),
	)

	hc := health.New(cfg.Environment)
	if pool != nil {
		hc.RegisterCheck("database", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
	}
	if rdb != nil {
		hc.RegisterCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return rdb.Health(ctx)
		})
	}
	if prod != nil {
		hc.RegisterCheck("kafka", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return prod.Health(ctx)
		})
	}

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Logger:  log,
		Metrics: m,
		Auth:    auth,
		API:     httptransport.NewAPIHandler(userStore, recorder, audit.NewTracedReader(auditStore, trc)),
		Health:  hc,
	})

	srv := httpserver.New(cfg.Addr, router)

	recorder.Start()
	if outboxWkr != nil {
		outboxWkr.Start()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http server shutdown failed", "error", err)
		}
		if err := recorder.Stop(shutdownCtx); err != nil {
			log.Error("audit recorder drain failed", "error", err)
		}
		if outboxWkr != nil {
			if err := outboxWkr.Stop(shutdownCtx); err != nil {
				log.Error("outbox worker drain failed", "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
