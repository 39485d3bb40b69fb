package service

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"coopreg/internal/registration/models"
	id "coopreg/pkg/domain"
	dErrors "coopreg/pkg/domain-errors"
	audit "coopreg/pkg/platform/audit"
	"coopreg/pkg/requestcontext"
)

// Submit records a pending registration after validating every field and
// both evidence references.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (*models.RegistrationView, error) {
	defer s.observe("submit", time.Now())
	f, err := s.fields(cmd)
	if err != nil {
		return nil, err
	}

	var created *models.Registration
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := models.NewRegistration(id.NewRegistrationID(), f, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		if err := s.store.Create(txCtx, r); err != nil {
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr(err, "submit registration")
	}

	s.audit.Emit(ctx, audit.EventRegistrationSubmitted, audit.Record{EntityID: created.ID.String(), Email: created.Email})
	if s.metrics != nil {
		s.metrics.IncrementSubmitted()
	}
	return s.views(ctx, []*models.Registration{created})[0], nil
}

func (s *Service) Get(ctx context.Context, registrationID id.RegistrationID) (*models.RegistrationView, error) {
	r, err := s.store.FindByID(ctx, registrationID)
	if err != nil {
		return nil, wrapStoreErr(err, "load registration")
	}
	return s.views(ctx, []*models.Registration{r})[0], nil
}

// ListAll returns every registration sorted by name.
func (s *Service) ListAll(ctx context.Context) ([]*models.RegistrationView, error) {
	defer s.observe("list", time.Now())
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, wrapStoreErr(err, "list registrations")
	}
	return s.views(ctx, list), nil
}

// SetStatus flips the approval flag and mirrors it onto the member whose
// email matches the registration's. No match leaves members untouched. More
// than one match fails with a conflict before anything is written.
func (s *Service) SetStatus(ctx context.Context, registrationID id.RegistrationID, approved bool) (*models.StatusChange, error) {
	defer s.observe("set_status", time.Now())
	ctx, span := s.tracer.Start(ctx, "registration.SetStatus", trace.WithAttributes(
		attribute.String("registration.id", registrationID.String()),
		attribute.Bool("registration.approved", approved)))
	defer span.End()

	now := requestcontext.Now(ctx)
	var (
		previous bool
		updated  *models.Registration
		promoted *id.MemberID
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.store.FindByID(txCtx, registrationID)
		if err != nil {
			return err
		}
		matches, err := s.members.MatchByEmail(txCtx, current.Email)
		if err != nil {
			return err
		}
		if len(matches) > 1 {
			return dErrors.Newf(dErrors.CodeConflict,
				"%d members share the email %s; approval needs exactly one match", len(matches), current.Email)
		}

		// The member goes first: a failure there leaves the registration
		// untouched even where the tx runner cannot roll back.
		if len(matches) == 1 {
			if err := s.members.SetMemberStatus(txCtx, matches[0], approved); err != nil {
				return err
			}
			promoted = &matches[0]
		}

		r, err := s.store.Execute(txCtx, registrationID,
			func(r *models.Registration) error {
				previous = r.Status
				return nil
			},
			func(r *models.Registration) { r.ApplyStatus(approved, now) },
		)
		if err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr(err, "set registration status")
	}

	span.SetAttributes(attribute.Bool("registration.member_updated", promoted != nil))
	s.audit.Emit(ctx, audit.EventRegistrationStatusChanged, audit.Record{
		EntityID: updated.ID.String(),
		Email:    updated.Email,
		Decision: strconv.FormatBool(approved),
		Reason:   "from " + strconv.FormatBool(previous),
	})
	if s.metrics != nil {
		s.metrics.IncrementStatusChange(approved)
	}
	if promoted != nil {
		s.audit.Emit(ctx, audit.EventMemberPromoted, audit.Record{
			EntityID: updated.ID.String(),
			Email:    updated.Email,
			Decision: strconv.FormatBool(approved),
			Reason:   "member " + promoted.String(),
		})
		if s.metrics != nil {
			s.metrics.IncrementMembersPromoted()
		}
	}
	return &models.StatusChange{
		Registration:  s.views(ctx, []*models.Registration{updated})[0],
		MemberUpdated: promoted != nil,
	}, nil
}

// Delete releases both evidence references and removes the record while
// the record is locked. A release failure aborts the delete.
func (s *Service) Delete(ctx context.Context, registrationID id.RegistrationID) error {
	defer s.observe("delete", time.Now())
	var r *models.Registration
	if err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return s.store.Delete(txCtx, registrationID, func(current *models.Registration) error {
			r = current
			return s.attachments.Release(txCtx, current.EvidenceRefs()...)
		})
	}); err != nil {
		return wrapStoreErr(err, "delete registration")
	}

	s.audit.Emit(ctx, audit.EventRegistrationDeleted, audit.Record{EntityID: r.ID.String(), Email: r.Email})
	if s.metrics != nil {
		s.metrics.IncrementDeleted()
	}
	return nil
}

func (s *Service) views(ctx context.Context, list []*models.Registration) []*models.RegistrationView {
	refs := make([]string, 0, 2*len(list))
	for _, r := range list {
		refs = append(refs, r.EvidenceRefs()...)
	}
	urls := s.attachments.ResolveMany(ctx, refs)
	out := make([]*models.RegistrationView, len(list))
	for i, r := range list {
		out[i] = &models.RegistrationView{
			Registration:               r,
			RegistrationCertificateURL: urls[2*i],
			PaymentReceiptURL:          urls[2*i+1],
		}
	}
	return out
}

func (s *Service) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, start)
	}
}
