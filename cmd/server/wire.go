package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"swiftpolicy/internal/customer"
	customerstore "swiftpolicy/internal/customer/store"
	documentmetrics "swiftpolicy/internal/document/metrics"
	documentservice "swiftpolicy/internal/document/service"
	"swiftpolicy/internal/document/signer"
	documentstore "swiftpolicy/internal/document/store"
	"swiftpolicy/internal/platform/config"
	"swiftpolicy/internal/platform/kafka"
	platformmetrics "swiftpolicy/internal/platform/metrics"
	"swiftpolicy/internal/platform/postgres"
	"swiftpolicy/internal/platform/redis"
	"swiftpolicy/internal/policy"
	"swiftpolicy/internal/policy/adapters"
	policymetrics "swiftpolicy/internal/policy/metrics"
	policyservice "swiftpolicy/internal/policy/service"
	policystore "swiftpolicy/internal/policy/store"
	"swiftpolicy/internal/premium"
	"swiftpolicy/internal/registry"
	"swiftpolicy/internal/registry/gateway"
	"swiftpolicy/internal/registry/lock"
	registrymetrics "swiftpolicy/internal/registry/metrics"
	registrymodels "swiftpolicy/internal/registry/models"
	registryservice "swiftpolicy/internal/registry/service"
	registrystore "swiftpolicy/internal/registry/store"
	"swiftpolicy/internal/registry/worker"
	httptransport "swiftpolicy/internal/transport/http"
	"swiftpolicy/pkg/domain"
	audit "swiftpolicy/pkg/platform/audit"
	"swiftpolicy/pkg/platform/audit/publisher"
	kafkaaudit "swiftpolicy/pkg/platform/audit/store/kafka"
	auditmemory "swiftpolicy/pkg/platform/audit/store/memory"
	auditpostgres "swiftpolicy/pkg/platform/audit/store/postgres"
	"swiftpolicy/pkg/platform/circuit"
)

const auditBufferSize = 4096

// app is the wired process. Policies, Certificates and Customers are the
// in-process API used by whichever front end embeds the engine.
type app struct {
	Policies     *policy.Service
	Certificates *documentservice.Service
	Customers    *customer.Directory
	Registry     *registry.Service

	worker      *worker.Worker
	router      http.Handler
	gatewayName string
	closers     []func() error
	log         *slog.Logger
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("shutdown step failed", "error", err)
		}
	}
}

type stores struct {
	policies    policyservice.Store
	submissions registryservice.Store
	documents   documentservice.Store
	customers   customer.Store
	audit       audit.Store
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{log: log}
	procMetrics := platformmetrics.New(version)
	var checks []httptransport.Option

	db, st, err := openStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if db != nil {
		a.closers = append(a.closers, db.Close)
		checks = append(checks, httptransport.WithCheck("postgres", procMetrics.Probe("postgres", db.PingContext)))
	}

	auditStore := st.audit
	kc, err := kafka.New(cfg.Kafka)
	if err != nil {
		a.close()
		return nil, err
	}
	if kc != nil {
		a.closers = append(a.closers, func() error { kc.Close(); return nil })
		if err := kafka.EnsureTopic(ctx, kc, cfg.Kafka.AuditTopic, cfg.Kafka.Partitions); err != nil {
			log.WarnContext(ctx, "audit topic not ensured, relying on broker auto-create", "error", err)
		}
		sink := kafkaaudit.New(kc, cfg.Kafka.AuditTopic,
			kafkaaudit.WithBreaker(circuit.New("kafka-audit", circuit.WithCooldown(30*time.Second))))
		auditStore = audit.Tee{st.audit, sink}
		checks = append(checks, httptransport.WithCheck("kafka", procMetrics.Probe("kafka", func(ctx context.Context) error {
			return kafka.Ping(ctx, kc)
		})))
	}
	auditor := publisher.NewPublisher(auditStore,
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics()),
		publisher.WithAsyncBuffer(auditBufferSize),
	)
	// Registered after the sinks so buffered events flush before they close.
	a.closers = append(a.closers, auditor.Close)

	var locks registryservice.Locker = lock.NewLocal()
	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		a.close()
		return nil, err
	}
	if rc != nil {
		a.closers = append(a.closers, rc.Close)
		locks = lock.NewRedis(rc.Client, lock.WithTTL(cfg.Redis.LockTTL))
		checks = append(checks, httptransport.WithCheck("redis", procMetrics.Probe("redis", rc.Health)))
	}

	gw, name := newGateway(cfg.Gateway)
	a.gatewayName = name

	sgn, err := signer.New(cfg.Certificate.SigningKey)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("certificate signer: %w", err)
	}

	a.Customers = customer.NewDirectory(st.customers, domain.SystemClock)
	a.Certificates = documentservice.New(st.policies, st.documents, sgn,
		documentservice.WithLogger(log),
		documentservice.WithAuditPublisher(auditor),
		documentservice.WithMetrics(documentmetrics.New()),
	)

	a.Registry, a.worker = registry.New(st.submissions, gw, locks,
		[]worker.Option{
			worker.WithLogger(log),
			worker.WithInterval(cfg.Worker.TickInterval),
			worker.WithKickDelay(cfg.Worker.KickDelay),
		},
		registryservice.WithLogger(log),
		registryservice.WithAuditPublisher(auditor),
		registryservice.WithMetrics(registrymetrics.New()),
		registryservice.WithPolicyMirror(adapters.NewMIDMirror(st.policies, domain.SystemClock)),
		registryservice.WithItemTimeout(cfg.Gateway.Timeout),
		registryservice.WithRetryPolicy(registrymodels.RetryPolicy{
			Backoff:    cfg.Worker.RetryBackoff,
			MaxBackoff: cfg.Worker.MaxBackoff,
			MaxRetries: cfg.Worker.MaxRetries,
		}),
	)

	a.Policies = policy.NewService(st.policies, premium.NewEngine(), a.Registry, a.Certificates, a.Customers,
		policyservice.WithLogger(log),
		policyservice.WithAuditPublisher(auditor),
		policyservice.WithMetrics(policymetrics.New()),
	)

	handler := httptransport.NewHandler(a.Registry, log,
		append(checks, httptransport.WithAdminToken(cfg.OpsToken))...)
	a.router = httptransport.NewRouter(handler)
	return a, nil
}

// openStores picks Postgres when DATABASE_URL is set and in-memory stores
// otherwise.
func openStores(ctx context.Context, cfg config.Config, log *slog.Logger) (*sql.DB, stores, error) {
	if cfg.DatabaseURL == "" {
		log.WarnContext(ctx, "DATABASE_URL not set, using in-memory stores")
		return nil, stores{
			policies:    policystore.NewInMemory(),
			submissions: registrystore.NewInMemory(),
			documents:   documentstore.NewInMemory(),
			customers:   customerstore.NewInMemory(),
			audit:       auditmemory.NewInMemoryStore(),
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, stores{}, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, stores{}, err
	}
	return db, stores{
		policies:    policystore.NewPostgres(db),
		submissions: registrystore.NewPostgres(db),
		documents:   documentstore.NewPostgres(db),
		customers:   customerstore.NewPostgres(db),
		audit:       auditpostgres.New(db),
	}, nil
}

func newGateway(cfg config.GatewayConfig) (registryservice.Gateway, string) {
	if cfg.URL == "" {
		return gateway.NewSimulated(0), "simulated"
	}
	return gateway.NewHTTP(cfg.URL, cfg.APIKey, cfg.Timeout,
		gateway.WithBreaker(circuit.New("mid-gateway"))), "http"
}
