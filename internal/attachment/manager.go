// Package attachment tracks the opaque evidence references owned by entity
// fields. It validates references on the way in, resolves them to URLs on
// read, and releases them from the blob store when they are replaced or their
// owner is deleted.
package attachment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	dErrors "coopreg/pkg/domain-errors"
	"coopreg/pkg/platform/circuit"
	"coopreg/pkg/platform/sentinel"
	strutil "coopreg/pkg/platform/strings"
	"coopreg/pkg/platform/validation"
	"coopreg/pkg/requestcontext"
)

//go:generate mockgen -source=manager.go -destination=mocks/mocks.go -package=mocks

// BlobStore is the external collaborator holding evidence files.
type BlobStore interface {
	Resolve(ctx context.Context, ref string) (string, error)
	Delete(ctx context.Context, ref string) error
}

const (
	defaultResolveTimeout = 2 * time.Second
	resolveConcurrency    = 8
)

// Manager is safe for concurrent use.
type Manager struct {
	blobs          BlobStore
	breaker        *circuit.Breaker
	logger         *slog.Logger
	resolveTimeout time.Duration
	tracer         trace.Tracer
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(m *Manager) {
		m.breaker = b
	}
}

func WithResolveTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.resolveTimeout = d
		}
	}
}

func New(blobs BlobStore, opts ...Option) *Manager {
	m := &Manager{
		blobs:          blobs,
		resolveTimeout: defaultResolveTimeout,
		tracer:         otel.Tracer("coopreg/attachment"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.breaker == nil {
		m.breaker = circuit.New("blobstore")
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Validate sanitizes and checks a reference supplied by a caller.
func (m *Manager) Validate(field, raw string) (string, error) {
	return validation.Reference(field, raw)
}

// Resolve returns the retrievable URL for ref, or nil when ref is empty or
// cannot be resolved. It never fails.
func (m *Manager) Resolve(ctx context.Context, ref string) *string {
	if ref == "" {
		return nil
	}
	if !m.breaker.Allow() {
		return nil
	}

	callerCtx := ctx
	ctx, cancel := context.WithTimeout(ctx, m.resolveTimeout)
	defer cancel()

	url, err := m.blobs.Resolve(ctx, ref)
	if err != nil {
		m.logger.WarnContext(ctx, "evidence reference did not resolve",
			"reference", ref,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		// A dangling reference or an abandoned request says nothing about
		// the blob store's health.
		if errors.Is(err, sentinel.ErrNotFound) || callerCtx.Err() != nil {
			return nil
		}
		if _, change := m.breaker.RecordFailure(); change.Opened {
			m.logger.WarnContext(ctx, "blob store circuit opened", "breaker", m.breaker.Name())
		}
		return nil
	}
	if _, change := m.breaker.RecordSuccess(); change.Closed {
		m.logger.InfoContext(ctx, "blob store circuit closed", "breaker", m.breaker.Name())
	}
	return &url
}

// ResolveMany resolves refs concurrently. The result is index-aligned with
// refs.
func (m *Manager) ResolveMany(ctx context.Context, refs []string) []*string {
	ctx, span := m.tracer.Start(ctx, "attachment.ResolveMany",
		trace.WithAttributes(attribute.Int("attachment.count", len(refs))))
	defer span.End()

	out := make([]*string, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i, ref := range refs {
		if ref == "" {
			continue
		}
		g.Go(func() error {
			out[i] = m.Resolve(gctx, ref)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Release deletes every non-empty reference from the blob store. References
// the store no longer knows are treated as already released.
func (m *Manager) Release(ctx context.Context, refs ...string) error {
	ctx, span := m.tracer.Start(ctx, "attachment.Release")
	defer span.End()

	var errs []error
	for _, ref := range strutil.DedupeAndTrim(refs) {
		if err := m.blobs.Delete(ctx, ref); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			m.logger.ErrorContext(ctx, "failed to release evidence reference",
				"reference", ref,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			errs = append(errs, err)
			continue
		}
		m.logger.InfoContext(ctx, "evidence_released",
			"event", "evidence_released",
			"log_type", "audit",
			"reference", ref,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if len(errs) > 0 {
		span.RecordError(errors.Join(errs...))
		return dErrors.Wrap(errors.Join(errs...), dErrors.CodeDependency, "failed to release evidence from blob store")
	}
	return nil
}

// Superseded returns the references in before that are no longer held
// after an update, in order.
func Superseded(before, after []string) []string {
	kept := make(map[string]struct{}, len(after))
	for _, ref := range after {
		kept[ref] = struct{}{}
	}
	var stale []string
	for _, ref := range before {
		if ref == "" {
			continue
		}
		if _, ok := kept[ref]; !ok {
			stale = append(stale, ref)
		}
	}
	return stale
}
