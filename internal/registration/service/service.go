package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	registrationmetrics "coopreg/internal/registration/metrics"
	"coopreg/internal/registration/models"
	id "coopreg/pkg/domain"
	dErrors "coopreg/pkg/domain-errors"
	audit "coopreg/pkg/platform/audit"
	"coopreg/pkg/platform/sentinel"
	txrunner "coopreg/pkg/platform/tx"
)

//go:generate mockgen -source=service.go -destination=../mocks/mocks.go -package=mocks

// Store persists registrations. Create and Execute report email collisions
// as *sentinel.UniqueViolation.
type Store interface {
	Create(ctx context.Context, r *models.Registration) error
	FindByID(ctx context.Context, registrationID id.RegistrationID) (*models.Registration, error)
	List(ctx context.Context) ([]*models.Registration, error)
	Execute(ctx context.Context, registrationID id.RegistrationID, validate func(*models.Registration) error, mutate func(*models.Registration)) (*models.Registration, error)
	// Delete runs beforeDelete against the locked record; an error from it
	// aborts the delete.
	Delete(ctx context.Context, registrationID id.RegistrationID, beforeDelete func(*models.Registration) error) error
}

// Attachments validates, resolves and releases evidence references.
type Attachments interface {
	Validate(field, raw string) (string, error)
	ResolveMany(ctx context.Context, refs []string) []*string
	Release(ctx context.Context, refs ...string) error
}

// MemberDirectory is the slice of the member registry that approval needs.
// Both calls join a transaction already carried by ctx.
type MemberDirectory interface {
	MatchByEmail(ctx context.Context, email string) ([]id.MemberID, error)
	SetMemberStatus(ctx context.Context, memberID id.MemberID, active bool) error
}

type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher audit.Publisher
	metrics        *registrationmetrics.Metrics
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

func WithMetrics(m *registrationmetrics.Metrics) Option {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

func WithTx(tx StoreTx) Option {
	return func(c *serviceConfig) {
		c.tx = tx
	}
}

// Service runs the registration workflow: self-service submission, admin
// approval with member promotion, and deletion.
type Service struct {
	store       Store
	attachments Attachments
	members     MemberDirectory
	logger      *slog.Logger
	audit       *audit.Emitter
	metrics     *registrationmetrics.Metrics
	tx          StoreTx
	tracer      trace.Tracer
}

func New(store Store, attachments Attachments, members MemberDirectory, opts ...Option) *Service {
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
		members:     members,
		logger:      logger,
		audit:       audit.NewEmitter("registration", logger, cfg.auditPublisher),
		metrics:     cfg.metrics,
		tx:          tx,
		tracer:      otel.Tracer("coopreg/registration"),
	}
}

func wrapStoreErr(err error, op string) error {
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
		return dErrors.New(dErrors.CodeNotFound, "registration not found")
	case errors.As(err, &uv):
		return dErrors.Newf(dErrors.CodeConflict, "a registration with this %s already exists", uv.Field)
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "registration already exists")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+op)
}
