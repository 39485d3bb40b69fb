package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"coopreg/internal/attachment"
	"coopreg/internal/cooperative/models"
	id "coopreg/pkg/domain"
	dErrors "coopreg/pkg/domain-errors"
	audit "coopreg/pkg/platform/audit"
	"coopreg/pkg/platform/validation"
	"coopreg/pkg/requestcontext"
)

// Create registers a cooperative by name. It starts inactive with every
// other field unset.
func (s *Service) Create(ctx context.Context, name string) (*models.Cooperative, error) {
	defer s.observe("create", time.Now())
	ctx, span := s.tracer.Start(ctx, "cooperative.Create")
	defer span.End()

	clean, err := validation.Text("name", name, validation.MinCooperativeNameAtCreation, validation.MaxNameLength)
	if err != nil {
		return nil, err
	}

	var created *models.Cooperative
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := models.NewCooperative(id.NewCooperativeID(), clean, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		if err := s.store.Create(txCtx, c); err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr(err, "create cooperative")
	}

	span.SetAttributes(attribute.String("cooperative.id", created.ID.String()))
	s.audit.Emit(ctx, audit.EventCooperativeCreated, audit.Record{EntityID: created.ID.String()})
	if s.metrics != nil {
		s.metrics.IncrementCreated()
	}
	return created, nil
}

// Get returns one cooperative with evidence URLs resolved.
func (s *Service) Get(ctx context.Context, cooperativeID id.CooperativeID) (*models.CooperativeView, error) {
	c, err := s.store.FindByID(ctx, cooperativeID)
	if err != nil {
		return nil, wrapStoreErr(err, "load cooperative")
	}
	return s.views(ctx, []*models.Cooperative{c})[0], nil
}

// ListAll returns every cooperative sorted by name.
func (s *Service) ListAll(ctx context.Context) ([]*models.CooperativeView, error) {
	defer s.observe("list", time.Now())
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, wrapStoreErr(err, "list cooperatives")
	}
	return s.views(ctx, list), nil
}

// ListByStatus returns cooperatives in status sorted by name.
func (s *Service) ListByStatus(ctx context.Context, status models.Status) ([]*models.CooperativeView, error) {
	defer s.observe("list", time.Now())
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "status must be one of inactive, processing, active")
	}
	list, err := s.store.ListByStatus(ctx, status)
	if err != nil {
		return nil, wrapStoreErr(err, "list cooperatives")
	}
	return s.views(ctx, list), nil
}

// Update patches the supplied fields only. Every field is validated before
// the store is touched, so an update applies fully or not at all. Evidence
// references replaced by the update are released after commit.
func (s *Service) Update(ctx context.Context, cooperativeID id.CooperativeID, cmd UpdateCommand) (*models.CooperativeView, error) {
	defer s.observe("update", time.Now())
	ctx, span := s.tracer.Start(ctx, "cooperative.Update", trace.WithAttributes(
		attribute.String("cooperative.id", cooperativeID.String())))
	defer span.End()

	p, err := s.patch(cmd)
	if err != nil {
		return nil, err
	}

	var before []string
	now := requestcontext.Now(ctx)
	var updated *models.Cooperative
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.store.Execute(txCtx, cooperativeID,
			func(c *models.Cooperative) error {
				before = c.EvidenceRefs()
				return c.CanApply(p)
			},
			func(c *models.Cooperative) {
				c.ApplyPatch(p, now)
			},
		)
		updated = c
		return err
	})
	if err != nil {
		return nil, wrapStoreErr(err, "update cooperative")
	}

	s.audit.Emit(ctx, audit.EventCooperativeUpdated, audit.Record{EntityID: updated.ID.String(), Email: updated.Email})
	if err := s.releaseSuperseded(ctx, before, updated); err != nil {
		return nil, err
	}
	return s.views(ctx, []*models.Cooperative{updated})[0], nil
}

// Activate is the guarded inactive to processing transition. All seven
// fields must validate and the cooperative must be inactive; otherwise the
// stored record is left untouched.
func (s *Service) Activate(ctx context.Context, cooperativeID id.CooperativeID, cmd ActivateCommand) (*models.CooperativeView, error) {
	defer s.observe("activate", time.Now())
	ctx, span := s.tracer.Start(ctx, "cooperative.Activate", trace.WithAttributes(
		attribute.String("cooperative.id", cooperativeID.String())))
	defer span.End()

	a, err := s.activation(cmd)
	if err != nil {
		return nil, err
	}

	var before []string
	now := requestcontext.Now(ctx)
	var activated *models.Cooperative
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.store.Execute(txCtx, cooperativeID,
			func(c *models.Cooperative) error {
				before = c.EvidenceRefs()
				if err := c.CanActivate(); err != nil {
					return dErrors.New(dErrors.CodeConflict, dErrors.Message(err))
				}
				return nil
			},
			func(c *models.Cooperative) {
				c.ApplyActivation(a, now)
			},
		)
		activated = c
		return err
	})
	if err != nil {
		return nil, wrapStoreErr(err, "activate cooperative")
	}

	s.audit.Emit(ctx, audit.EventCooperativeActivated, audit.Record{
		EntityID: activated.ID.String(),
		Email:    activated.Email,
		Decision: string(activated.Status),
	})
	if s.metrics != nil {
		s.metrics.IncrementActivated()
	}
	if err := s.releaseSuperseded(ctx, before, activated); err != nil {
		return nil, err
	}
	return s.views(ctx, []*models.Cooperative{activated})[0], nil
}

// SetStatus is the administrative override. Any of the three states may be
// set regardless of field completeness.
func (s *Service) SetStatus(ctx context.Context, cooperativeID id.CooperativeID, status models.Status) (*models.CooperativeView, error) {
	defer s.observe("set_status", time.Now())
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "status must be one of inactive, processing, active")
	}

	now := requestcontext.Now(ctx)
	var previous models.Status
	var updated *models.Cooperative
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.store.Execute(txCtx, cooperativeID,
			func(c *models.Cooperative) error {
				previous = c.Status
				return nil
			},
			func(c *models.Cooperative) {
				c.ApplyStatus(status, now)
			},
		)
		updated = c
		return err
	})
	if err != nil {
		return nil, wrapStoreErr(err, "set cooperative status")
	}

	s.audit.Emit(ctx, audit.EventCooperativeStatusChanged, audit.Record{
		EntityID: updated.ID.String(),
		Decision: string(status),
		Reason:   "from " + string(previous),
	})
	if s.metrics != nil {
		s.metrics.IncrementStatusChange(string(status))
	}
	return s.views(ctx, []*models.Cooperative{updated})[0], nil
}

// Delete releases the cooperative's evidence and removes the record while
// the record is locked, so a concurrent update cannot swap in a reference
// that is never released. A release failure aborts the delete.
func (s *Service) Delete(ctx context.Context, cooperativeID id.CooperativeID) error {
	defer s.observe("delete", time.Now())
	ctx, span := s.tracer.Start(ctx, "cooperative.Delete", trace.WithAttributes(
		attribute.String("cooperative.id", cooperativeID.String())))
	defer span.End()

	var c *models.Cooperative
	if err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return s.store.Delete(txCtx, cooperativeID, func(current *models.Cooperative) error {
			c = current
			return s.attachments.Release(txCtx, current.EvidenceRefs()...)
		})
	}); err != nil {
		return wrapStoreErr(err, "delete cooperative")
	}

	s.audit.Emit(ctx, audit.EventCooperativeDeleted, audit.Record{EntityID: c.ID.String(), Email: c.Email})
	if s.metrics != nil {
		s.metrics.IncrementDeleted()
	}
	return nil
}

func (s *Service) releaseSuperseded(ctx context.Context, before []string, after *models.Cooperative) error {
	stale := attachment.Superseded(before, after.EvidenceRefs())
	if len(stale) == 0 {
		return nil
	}
	if err := s.attachments.Release(ctx, stale...); err != nil {
		s.logger.ErrorContext(ctx, "cooperative saved but replaced evidence was not released",
			"cooperative_id", after.ID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return err
	}
	return nil
}

// views resolves every evidence reference across list in one batch.
func (s *Service) views(ctx context.Context, list []*models.Cooperative) []*models.CooperativeView {
	refs := make([]string, 0, 2*len(list))
	for _, c := range list {
		refs = append(refs, c.EvidenceRefs()...)
	}
	urls := s.attachments.ResolveMany(ctx, refs)
	out := make([]*models.CooperativeView, len(list))
	for i, c := range list {
		out[i] = &models.CooperativeView{
			Cooperative:       c,
			CertificateURL:    urls[2*i],
			PaymentReceiptURL: urls[2*i+1],
		}
	}
	return out
}

func (s *Service) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, start)
	}
}
