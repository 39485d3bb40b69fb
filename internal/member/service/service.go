package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	membermetrics "coopreg/internal/member/metrics"
	"coopreg/internal/member/models"
	id "coopreg/pkg/domain"
	dErrors "coopreg/pkg/domain-errors"
	audit "coopreg/pkg/platform/audit"
	"coopreg/pkg/platform/sentinel"
	txrunner "coopreg/pkg/platform/tx"
	"coopreg/pkg/platform/validation"
	"coopreg/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=../mocks/mocks.go -package=mocks

// Store persists members. Create and Execute report email collisions as
// *sentinel.UniqueViolation.
type Store interface {
	Create(ctx context.Context, m *models.Member) error
	FindByID(ctx context.Context, memberID id.MemberID) (*models.Member, error)
	FindByEmail(ctx context.Context, email string) ([]*models.Member, error)
	List(ctx context.Context) ([]*models.Member, error)
	Execute(ctx context.Context, memberID id.MemberID, validate func(*models.Member) error, mutate func(*models.Member)) (*models.Member, error)
	Delete(ctx context.Context, memberID id.MemberID) error
}

type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher audit.Publisher
	metrics        *membermetrics.Metrics
	tx             StoreTx
	countCeiling   int
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

func WithMetrics(m *membermetrics.Metrics) Option {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

func WithTx(tx StoreTx) Option {
	return func(c *serviceConfig) {
		c.tx = tx
	}
}

// WithCountCeiling overrides the number_of_members upper bound.
func WithCountCeiling(n int) Option {
	return func(c *serviceConfig) {
		if n > 0 {
			c.countCeiling = n
		}
	}
}

// Service is the member registry.
type Service struct {
	store        Store
	audit        *audit.Emitter
	metrics      *membermetrics.Metrics
	tx           StoreTx
	countCeiling int
}

func New(store Store, opts ...Option) *Service {
	cfg := &serviceConfig{countCeiling: validation.MaxMemberCount}
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
		store:        store,
		audit:        audit.NewEmitter("member", logger, cfg.auditPublisher),
		metrics:      cfg.metrics,
		tx:           tx,
		countCeiling: cfg.countCeiling,
	}
}

// Create validates every required field and registers the member. Status
// defaults to active.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*models.Member, error) {
	defer s.observe("create", time.Now())
	fields, err := s.fields(ctx, cmd)
	if err != nil {
		return nil, err
	}

	var created *models.Member
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		m, err := models.NewMember(id.NewMemberID(), fields, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		if err := s.store.Create(txCtx, m); err != nil {
			return err
		}
		created = m
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr(err, "create member")
	}

	s.audit.Emit(ctx, audit.EventMemberCreated, audit.Record{EntityID: created.ID.String(), Email: created.Email})
	if s.metrics != nil {
		s.metrics.IncrementCreated()
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, memberID id.MemberID) (*models.Member, error) {
	m, err := s.store.FindByID(ctx, memberID)
	if err != nil {
		return nil, wrapStoreErr(err, "load member")
	}
	return m, nil
}

// ListAll returns every member sorted by name. Filtering by status is left
// to the caller.
func (s *Service) ListAll(ctx context.Context) ([]*models.Member, error) {
	defer s.observe("list", time.Now())
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, wrapStoreErr(err, "list members")
	}
	return list, nil
}

// FindByEmail returns every member registered under email after
// sanitization. More than one result only occurs with data that predates
// the uniqueness constraint.
func (s *Service) FindByEmail(ctx context.Context, email string) ([]*models.Member, error) {
	clean, err := validation.Email("email", email)
	if err != nil {
		return nil, err
	}
	list, err := s.store.FindByEmail(ctx, clean)
	if err != nil {
		return nil, wrapStoreErr(err, "find members by email")
	}
	return list, nil
}

// Update patches the supplied fields only, after validating all of them.
func (s *Service) Update(ctx context.Context, memberID id.MemberID, cmd UpdateCommand) (*models.Member, error) {
	defer s.observe("update", time.Now())
	p, err := s.patch(ctx, cmd)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var updated *models.Member
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		m, err := s.store.Execute(txCtx, memberID,
			func(*models.Member) error { return nil },
			func(m *models.Member) { m.ApplyPatch(p, now) },
		)
		updated = m
		return err
	})
	if err != nil {
		return nil, wrapStoreErr(err, "update member")
	}

	s.audit.Emit(ctx, audit.EventMemberUpdated, audit.Record{EntityID: updated.ID.String(), Email: updated.Email})
	if p.Status != nil && s.metrics != nil {
		s.metrics.IncrementStatusChange(*p.Status)
	}
	return updated, nil
}

// SetStatus sets the active flag. It joins a transaction already on ctx.
func (s *Service) SetStatus(ctx context.Context, memberID id.MemberID, active bool) (*models.Member, error) {
	now := requestcontext.Now(ctx)
	var updated *models.Member
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		m, err := s.store.Execute(txCtx, memberID,
			func(*models.Member) error { return nil },
			func(m *models.Member) { m.ApplyStatus(active, now) },
		)
		updated = m
		return err
	})
	if err != nil {
		return nil, wrapStoreErr(err, "set member status")
	}
	if s.metrics != nil {
		s.metrics.IncrementStatusChange(active)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, memberID id.MemberID) error {
	defer s.observe("delete", time.Now())
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return s.store.Delete(txCtx, memberID)
	})
	if err != nil {
		return wrapStoreErr(err, "delete member")
	}
	s.audit.Emit(ctx, audit.EventMemberDeleted, audit.Record{EntityID: memberID.String()})
	if s.metrics != nil {
		s.metrics.IncrementDeleted()
	}
	return nil
}

func (s *Service) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, start)
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
		return dErrors.New(dErrors.CodeNotFound, "member not found")
	case errors.As(err, &uv):
		return dErrors.Newf(dErrors.CodeConflict, "a member with this %s already exists", uv.Field)
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "member already exists")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+op)
}
