package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	cooperativemetrics "coopreg/internal/cooperative/metrics"
	"coopreg/internal/cooperative/models"
	id "coopreg/pkg/domain"
	dErrors "coopreg/pkg/domain-errors"
	audit "coopreg/pkg/platform/audit"
	"coopreg/pkg/platform/sentinel"
	txrunner "coopreg/pkg/platform/tx"
)

//go:generate mockgen -source=service.go -destination=../mocks/mocks.go -package=mocks

// Store persists cooperatives. Create and Execute report name or email
// collisions as *sentinel.UniqueViolation.
type Store interface {
	Create(ctx context.Context, c *models.Cooperative) error
	FindByID(ctx context.Context, cooperativeID id.CooperativeID) (*models.Cooperative, error)
	List(ctx context.Context) ([]*models.Cooperative, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Cooperative, error)
	Execute(ctx context.Context, cooperativeID id.CooperativeID, validate func(*models.Cooperative) error, mutate func(*models.Cooperative)) (*models.Cooperative, error)
	// Delete runs beforeDelete against the locked record; an error from it
	// aborts the delete.
	Delete(ctx context.Context, cooperativeID id.CooperativeID, beforeDelete func(*models.Cooperative) error) error
}

// Attachments validates, resolves and releases evidence references.
type Attachments interface {
	Validate(field, raw string) (string, error)
	ResolveMany(ctx context.Context, refs []string) []*string
	Release(ctx context.Context, refs ...string) error
}

// StoreTx runs fn inside a transaction boundary.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher audit.Publisher
	metrics        *cooperativemetrics.Metrics
	tx             StoreTx
}

type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(c *serviceConfig) {
		c.auditPublisher = publisher
	}
}

func WithMetrics(m *cooperativemetrics.Metrics) Option {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

func WithTx(tx StoreTx) Option {
	return func(c *serviceConfig) {
		c.tx = tx
	}
}

// Service owns the cooperative lifecycle: creation, partial updates, the
// guarded self-service activation, the administrative status override and
// deletion.
type Service struct {
	store       Store
	attachments Attachments
	logger      *slog.Logger
	audit       *audit.Emitter
	metrics     *cooperativemetrics.Metrics
	tx          StoreTx
	tracer      trace.Tracer
}

func New(store Store, attachments Attachments, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	tx := cfg.tx
	if tx == nil {
		tx = txrunner.NewLockRunner()
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       store,
		attachments: attachments,
		logger:      logger,
		audit:       audit.NewEmitter("cooperative", logger, cfg.auditPublisher),
		metrics:     cfg.metrics,
		tx:          tx,
		tracer:      otel.Tracer("coopreg/cooperative"),
	}
}

// wrapStoreErr maps store sentinels onto the domain taxonomy.
func wrapStoreErr(err error, op string) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		if de.Code == dErrors.CodeInvariantViolation {
			return dErrors.New(dErrors.CodeValidation, de.Message)
		}
		return err
	}
	var uv *sentinel.UniqueViolation
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "cooperative not found")
	case errors.As(err, &uv):
		return dErrors.Newf(dErrors.CodeConflict, "a cooperative with this %s already exists", uv.Field)
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "cooperative already exists")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+op)
}
