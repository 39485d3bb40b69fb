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

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"coopreg/internal/attachment"
	"coopreg/internal/blobstore"
	cooperativeHandler "coopreg/internal/cooperative/handler"
	cooperativeMetrics "coopreg/internal/cooperative/metrics"
	cooperativeService "coopreg/internal/cooperative/service"
	cooperativeStore "coopreg/internal/cooperative/store"
	memberHandler "coopreg/internal/member/handler"
	memberMetrics "coopreg/internal/member/metrics"
	memberService "coopreg/internal/member/service"
	memberStore "coopreg/internal/member/store"
	"coopreg/internal/platform/config"
	"coopreg/internal/platform/httpserver"
	"coopreg/internal/platform/logger"
	"coopreg/internal/platform/metrics"
	"coopreg/internal/platform/postgres"
	"coopreg/internal/platform/redis"
	"coopreg/internal/platform/tracing"
	registrationAdapters "coopreg/internal/registration/adapters"
	registrationHandler "coopreg/internal/registration/handler"
	registrationMetrics "coopreg/internal/registration/metrics"
	registrationService "coopreg/internal/registration/service"
	registrationStore "coopreg/internal/registration/store"
	audit "coopreg/pkg/platform/audit"
	auditpublisher "coopreg/pkg/platform/audit/publisher"
	auditkafka "coopreg/pkg/platform/audit/store/kafka"
	auditmemory "coopreg/pkg/platform/audit/store/memory"
	auditpostgres "coopreg/pkg/platform/audit/store/postgres"
	"coopreg/pkg/platform/httputil"
	"coopreg/pkg/platform/middleware/admin"
	"coopreg/pkg/platform/middleware/metadata"
	"coopreg/pkg/platform/middleware/request"
	"coopreg/pkg/platform/middleware/requesttime"
)

const auditBuffer = 256

type infra struct {
	cfg       config.Server
	log       *slog.Logger
	db        *sql.DB
	redis     *redis.Client
	blobs     blobStore
	audit     *auditpublisher.Publisher
	metrics   *metrics.Metrics
	closeHook []func()
}

// blobStore is what the upload routes and the attachment manager need.
type blobStore interface {
	blobstore.Store
	attachment.BlobStore
}

// main wires the stores, services and routes, and runs the server until
// SIGINT or SIGTERM.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTLPEndpoint, "coopreg", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	inf, err := buildInfra(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize infrastructure", "error", err)
		os.Exit(1)
	}
	defer inf.close()

	router := buildRouter(inf)
	srv := httpserver.New(cfg.Addr, otelhttp.NewHandler(router, "coopreg"))

	go func() {
		log.Info("starting coopreg", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracer shutdown failed", "error", err)
	}
}

func buildInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	inf := &infra{cfg: cfg, log: log, metrics: metrics.New()}

	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		inf.closeHook = append(inf.closeHook, func() { _ = db.Close() })
		if err := postgres.Migrate(ctx, db); err != nil {
			inf.close()
			return nil, err
		}
		inf.db = db
		log.Info("using postgres stores")
	} else {
		log.Info("using in-memory stores: DATABASE_URL not set")
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		inf.close()
		return nil, err
	}
	if rc != nil {
		inf.redis = rc
		inf.closeHook = append(inf.closeHook, func() { _ = rc.Close() })
		inf.blobs = blobstore.NewRedis(rc.Client, cfg.Blob.PublicBaseURL)
		log.Info("using redis blob store")
	} else {
		inf.blobs = blobstore.NewInMemory(cfg.Blob.PublicBaseURL)
	}

	sinks := audit.Fanout{}
	if inf.db != nil {
		sinks = append(sinks, auditpostgres.New(inf.db))
	} else {
		sinks = append(sinks, auditmemory.NewInMemoryStore())
	}
	if len(cfg.Audit.KafkaBrokers) > 0 {
		sink, err := auditkafka.New(cfg.Audit.KafkaBrokers, cfg.Audit.Topic)
		if err != nil {
			inf.close()
			return nil, err
		}
		if err := sink.EnsureTopic(ctx, 3, 1); err != nil {
			log.Warn("could not ensure audit topic", "topic", cfg.Audit.Topic, "error", err)
		}
		inf.closeHook = append(inf.closeHook, sink.Close)
		sinks = append(sinks, sink)
		log.Info("publishing audit events to kafka", "topic", cfg.Audit.Topic)
	}
	inf.audit = auditpublisher.NewPublisher(sinks,
		auditpublisher.WithAsyncBuffer(auditBuffer),
		auditpublisher.WithLogger(log),
	)
	// The publisher drains before the sinks behind it close.
	inf.closeHook = append([]func(){func() { _ = inf.audit.Close() }}, inf.closeHook...)
	return inf, nil
}

func (inf *infra) close() {
	for _, fn := range inf.closeHook {
		fn()
	}
	inf.closeHook = nil
}

// txRunner returns the shared SQL transaction runner, or nil so each
// service falls back to its own lock runner over the in-memory stores.
func (inf *infra) txRunner() *postgres.TxRunner {
	if inf.db == nil {
		return nil
	}
	return postgres.NewTxRunner(inf.db)
}

func buildRouter(inf *infra) http.Handler {
	cfg, log := inf.cfg, inf.log

	attachments := attachment.New(inf.blobs,
		attachment.WithLogger(log),
		attachment.WithResolveTimeout(cfg.Blob.ResolveTimeout),
	)

	var (
		coopStore  cooperativeService.Store  = cooperativeStore.NewInMemory()
		memberSt   memberService.Store       = memberStore.NewInMemory()
		regStore   registrationService.Store = registrationStore.NewInMemory()
		coopOpts   []cooperativeService.Option
		memberOpts []memberService.Option
		regOpts    []registrationService.Option
	)
	if tx := inf.txRunner(); tx != nil {
		coopStore = cooperativeStore.NewPostgres(inf.db)
		memberSt = memberStore.NewPostgres(inf.db)
		regStore = registrationStore.NewPostgres(inf.db)
		coopOpts = append(coopOpts, cooperativeService.WithTx(tx))
		memberOpts = append(memberOpts, memberService.WithTx(tx))
		regOpts = append(regOpts, registrationService.WithTx(tx))
	}

	cooperatives := cooperativeService.New(coopStore, attachments, append(coopOpts,
		cooperativeService.WithLogger(log),
		cooperativeService.WithAuditPublisher(inf.audit),
		cooperativeService.WithMetrics(cooperativeMetrics.New()),
	)...)
	members := memberService.New(memberSt, append(memberOpts,
		memberService.WithLogger(log),
		memberService.WithAuditPublisher(inf.audit),
		memberService.WithMetrics(memberMetrics.New()),
		memberService.WithCountCeiling(cfg.MemberCountCeiling),
	)...)
	registrations := registrationService.New(regStore, attachments, registrationAdapters.NewMemberDirectory(members), append(regOpts,
		registrationService.WithLogger(log),
		registrationService.WithAuditPublisher(inf.audit),
		registrationService.WithMetrics(registrationMetrics.New()),
	)...)

	coopH := cooperativeHandler.New(cooperatives, log)
	memberH := memberHandler.New(members, log)
	regH := registrationHandler.New(registrations, log)
	blobH := blobstore.NewHandler(inf.blobs, log, cfg.Blob.MaxBytes)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Actor)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(log))
	r.Use(request.Recovery(log))
	r.Use(inf.metrics.Middleware)

	r.Get("/healthz", inf.health)
	r.Handle("/metrics", inf.metrics.Handler())

	coopH.RegisterPublic(r)
	regH.RegisterPublic(r)
	blobH.Register(r)

	r.Group(func(admr chi.Router) {
		admr.Use(admin.RequireAdminToken(cfg.AdminToken, log))
		coopH.RegisterAdmin(admr)
		memberH.RegisterAdmin(admr)
		regH.RegisterAdmin(admr)
	})
	return r
}

type healthResponse struct {
	Status   string            `json:"status"`
	Backends map[string]string `json:"backends"`
}

func (inf *infra) health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := healthResponse{Status: "ok", Backends: map[string]string{}}
	status := http.StatusOK
	check := func(name string, err error) {
		if err != nil {
			inf.log.WarnContext(ctx, "health check failed", "backend", name, "error", err)
			resp.Backends[name] = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			return
		}
		resp.Backends[name] = "up"
	}
	if inf.db != nil {
		check("postgres", inf.db.PingContext(ctx))
	}
	if inf.redis != nil {
		check("redis", inf.redis.Health(ctx))
	}
	httputil.WriteJSON(w, status, resp)
}
