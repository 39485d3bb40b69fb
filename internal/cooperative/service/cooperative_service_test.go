package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"coopreg/internal/attachment"
	"coopreg/internal/blobstore"
	"coopreg/internal/cooperative/mocks"
	"coopreg/internal/cooperative/models"
	"coopreg/internal/cooperative/store"
	id "coopreg/pkg/domain"
	dErrors "coopreg/pkg/domain-errors"
	"coopreg/pkg/platform/audit/publisher"
	"coopreg/pkg/platform/audit/store/memory"
	"coopreg/pkg/platform/sentinel"
	"coopreg/pkg/requestcontext"
)

type CooperativeServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.InMemory
	blobs   *blobstore.InMemory
	audit   *memory.InMemoryStore
	service *Service
}

func TestCooperativeServiceSuite(t *testing.T) {
	suite.Run(t, new(CooperativeServiceSuite))
}

func (s *CooperativeServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC))
	s.store = store.NewInMemory()
	s.blobs = blobstore.NewInMemory("https://files.test")
	s.audit = memory.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = New(s.store, attachment.New(s.blobs, attachment.WithLogger(logger)),
		WithLogger(logger),
		WithAuditPublisher(publisher.NewPublisher(s.audit)),
	)
}

func (s *CooperativeServiceSuite) upload() string {
	ref, err := s.blobs.Upload(s.ctx, []byte("%PDF-1.7"), "application/pdf")
	s.Require().NoError(err)
	return ref
}

func (s *CooperativeServiceSuite) create(name string) *models.Cooperative {
	c, err := s.service.Create(s.ctx, name)
	s.Require().NoError(err)
	return c
}

func (s *CooperativeServiceSuite) validActivation() ActivateCommand {
	return ActivateCommand{
		Name:           "Federal Ministry Staff Cooperative Society",
		Email:          "Info@FMSCS.org ",
		PhoneNumber:    "+234 (801) 234-5678",
		WebsiteURL:     "fmscs.org",
		Address:        "12 Marina Road, Lagos",
		Certificate:    s.upload(),
		PaymentReceipt: s.upload(),
	}
}

func (s *CooperativeServiceSuite) TestCreate() {
	s.Run("valid name starts inactive", func() {
		c := s.create("Federal Ministry Staff Cooperative Society")
		s.Equal(models.StatusInactive, c.Status)
		s.Empty(c.Email)

		events, err := s.audit.ListByEntity(s.ctx, c.ID.String())
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal("cooperative_created", events[0].Action)
	})

	s.Run("short name cites the minimum length", func() {
		_, err := s.service.Create(s.ctx, "ShortOrg")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "10")
	})

	s.Run("name is sanitized before the length check", func() {
		_, err := s.service.Create(s.ctx, "<b>Short</b>   ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("duplicate sanitized name conflicts", func() {
		s.create("Kaduna Farmers Cooperative")
		_, err := s.service.Create(s.ctx, "  KADUNA   farmers <i>Cooperative</i>")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		list, err := s.service.ListAll(s.ctx)
		s.Require().NoError(err)
		count := 0
		for _, c := range list {
			if c.Name == "Kaduna Farmers Cooperative" {
				count++
			}
		}
		s.Equal(1, count)
	})
}

func (s *CooperativeServiceSuite) TestActivate() {
	s.Run("all fields valid moves to processing", func() {
		c := s.create("Abuja Civil Servants Cooperative")
		cmd := s.validActivation()
		cmd.Name = "Abuja Civil Servants Cooperative"

		view, err := s.service.Activate(s.ctx, c.ID, cmd)
		s.Require().NoError(err)
		s.Equal(models.StatusProcessing, view.Status)
		s.Equal("info@fmscs.org", view.Email)
		s.Equal("+2348012345678", view.PhoneNumber)
		s.Equal("https://fmscs.org", view.WebsiteURL)
		s.Require().NotNil(view.CertificateURL)
		s.Equal("https://files.test/blobs/"+cmd.Certificate, *view.CertificateURL)
		s.NotNil(view.PaymentReceiptURL)
	})

	s.Run("bad email leaves the cooperative inactive", func() {
		c := s.create("Enugu Market Women Cooperative")
		_, err := s.service.Activate(s.ctx, c.ID, ActivateCommand{
			Name:           "Enugu Market Women Cooperative",
			Email:          "bad-email",
			PhoneNumber:    "12345",
			WebsiteURL:     "",
			Address:        "123 Long Street",
			Certificate:    s.upload(),
			PaymentReceipt: s.upload(),
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		stored, err := s.service.Get(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusInactive, stored.Status)
		s.Empty(stored.Email)
	})

	s.Run("any single missing field is rejected", func() {
		c := s.create("Ibadan Transport Cooperative")
		blank := []func(*ActivateCommand){
			func(a *ActivateCommand) { a.Name = "" },
			func(a *ActivateCommand) { a.Email = "" },
			func(a *ActivateCommand) { a.PhoneNumber = "" },
			func(a *ActivateCommand) { a.WebsiteURL = "" },
			func(a *ActivateCommand) { a.Address = "" },
			func(a *ActivateCommand) { a.Certificate = "" },
			func(a *ActivateCommand) { a.PaymentReceipt = "" },
		}
		for _, clear := range blank {
			cmd := s.validActivation()
			cmd.Name = "Ibadan Transport Cooperative"
			clear(&cmd)
			_, err := s.service.Activate(s.ctx, c.ID, cmd)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		}
		stored, err := s.service.Get(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusInactive, stored.Status)
	})

	s.Run("only inactive cooperatives can activate", func() {
		c := s.create("Jos Miners Cooperative Society")
		_, err := s.service.SetStatus(s.ctx, c.ID, models.StatusActive)
		s.Require().NoError(err)

		cmd := s.validActivation()
		cmd.Name = "Jos Miners Cooperative Society"
		cmd.Email = "jos@miners.org"
		_, err = s.service.Activate(s.ctx, c.ID, cmd)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("email taken by another cooperative conflicts", func() {
		first := s.create("First Email Cooperative")
		cmd := s.validActivation()
		cmd.Name = "First Email Cooperative"
		cmd.Email = "shared@coop.org"
		_, err := s.service.Activate(s.ctx, first.ID, cmd)
		s.Require().NoError(err)

		second := s.create("Second Email Cooperative")
		cmd = s.validActivation()
		cmd.Name = "Second Email Cooperative"
		cmd.Email = "SHARED@coop.org"
		_, err = s.service.Activate(s.ctx, second.ID, cmd)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown id is not found", func() {
		_, err := s.service.Activate(s.ctx, id.NewCooperativeID(), s.validActivation())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CooperativeServiceSuite) TestSetStatusIsUnguarded() {
	c := s.create("Ogun Cocoa Growers Cooperative")
	for _, status := range []models.Status{models.StatusActive, models.StatusProcessing, models.StatusInactive, models.StatusActive} {
		view, err := s.service.SetStatus(s.ctx, c.ID, status)
		s.Require().NoError(err)
		s.Equal(status, view.Status)
	}

	_, err := s.service.SetStatus(s.ctx, c.ID, models.Status("archived"))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.SetStatus(s.ctx, id.NewCooperativeID(), models.StatusActive)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *CooperativeServiceSuite) TestUpdate() {
	c := s.create("Kano Leather Workers Cooperative")
	cmd := s.validActivation()
	cmd.Name = "Kano Leather Workers Cooperative"
	cmd.Email = "kano@leather.org"
	before, err := s.service.Activate(s.ctx, c.ID, cmd)
	s.Require().NoError(err)

	s.Run("clearing website leaves other fields untouched", func() {
		empty := ""
		after, err := s.service.Update(s.ctx, c.ID, UpdateCommand{WebsiteURL: &empty})
		s.Require().NoError(err)
		s.Empty(after.WebsiteURL)
		s.Equal(before.Name, after.Name)
		s.Equal(before.Email, after.Email)
		s.Equal(before.PhoneNumber, after.PhoneNumber)
		s.Equal(before.Address, after.Address)
		s.Equal(before.Certificate, after.Certificate)
		s.Equal(before.PaymentReceipt, after.PaymentReceipt)
		s.Equal(before.Status, after.Status)
	})

	s.Run("required fields cannot be emptied", func() {
		empty := " "
		for _, cmd := range []UpdateCommand{{Name: &empty}, {Email: &empty}, {PhoneNumber: &empty}} {
			_, err := s.service.Update(s.ctx, c.ID, cmd)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		}
	})

	s.Run("address cannot be cleared past inactive", func() {
		empty := ""
		_, err := s.service.Update(s.ctx, c.ID, UpdateCommand{Address: &empty})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("invalid field rejects the whole update", func() {
		name := "Renamed Leather Cooperative"
		bad := "not a url with spaces"
		_, err := s.service.Update(s.ctx, c.ID, UpdateCommand{Name: &name, WebsiteURL: &bad})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		stored, err := s.service.Get(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal("Kano Leather Workers Cooperative", stored.Name)
	})

	s.Run("replacing evidence releases the old reference", func() {
		oldRef := before.Certificate
		newRef := s.upload()
		after, err := s.service.Update(s.ctx, c.ID, UpdateCommand{Certificate: &newRef})
		s.Require().NoError(err)
		s.Equal(newRef, after.Certificate)

		_, err = s.blobs.Resolve(s.ctx, oldRef)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("empty update is rejected", func() {
		_, err := s.service.Update(s.ctx, c.ID, UpdateCommand{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown id is not found", func() {
		name := "Some Valid Name"
		_, err := s.service.Update(s.ctx, id.NewCooperativeID(), UpdateCommand{Name: &name})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CooperativeServiceSuite) TestListing() {
	s.create("Zaria Weavers Cooperative")
	b := s.create("Benin Bronze Casters Cooperative")
	s.create("aba Traders Cooperative")
	_, err := s.service.SetStatus(s.ctx, b.ID, models.StatusActive)
	s.Require().NoError(err)

	all, err := s.service.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal("aba Traders Cooperative", all[0].Name)
	s.Equal("Benin Bronze Casters Cooperative", all[1].Name)
	s.Equal("Zaria Weavers Cooperative", all[2].Name)
	s.Nil(all[0].CertificateURL)

	active, err := s.service.ListByStatus(s.ctx, models.StatusActive)
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal(b.ID, active[0].ID)
}

func (s *CooperativeServiceSuite) TestBrokenReferenceDoesNotFailReads() {
	c := s.create("Owerri Palm Oil Cooperative")
	cmd := s.validActivation()
	cmd.Name = "Owerri Palm Oil Cooperative"
	cmd.Email = "owerri@palm.org"
	view, err := s.service.Activate(s.ctx, c.ID, cmd)
	s.Require().NoError(err)

	s.Require().NoError(s.blobs.Delete(s.ctx, view.Certificate))

	got, err := s.service.Get(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Nil(got.CertificateURL)
	s.NotNil(got.PaymentReceiptURL)
}

func (s *CooperativeServiceSuite) TestDanglingReferencesDoNotHideHealthyEvidence() {
	healthy := s.create("Ilorin Healthy Evidence Cooperative")
	cert := s.upload()
	_, err := s.service.Update(s.ctx, healthy.ID, UpdateCommand{Certificate: &cert})
	s.Require().NoError(err)

	for i := range 6 {
		c := s.create(fmt.Sprintf("Dangling Reference Cooperative %d", i))
		ref := fmt.Sprintf("missing-ref-%d", i)
		_, err := s.service.Update(s.ctx, c.ID, UpdateCommand{Certificate: &ref})
		s.Require().NoError(err)
	}

	list, err := s.service.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 7)

	got, err := s.service.Get(s.ctx, healthy.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.CertificateURL)
	s.Contains(*got.CertificateURL, cert)
}

func (s *CooperativeServiceSuite) TestDeleteReleasesEvidence() {
	c := s.create("Calabar Fishermen Cooperative")
	cmd := s.validActivation()
	cmd.Name = "Calabar Fishermen Cooperative"
	cmd.Email = "calabar@fish.org"
	_, err := s.service.Activate(s.ctx, c.ID, cmd)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Delete(s.ctx, c.ID))

	_, err = s.blobs.Resolve(s.ctx, cmd.Certificate)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.blobs.Resolve(s.ctx, cmd.PaymentReceipt)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.service.Get(s.ctx, c.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	err = s.service.Delete(s.ctx, c.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestDeleteAbortsWhenReleaseFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	att := mocks.NewMockAttachments(ctrl)
	svc := New(st, att)

	c := &models.Cooperative{ID: id.NewCooperativeID(), Name: "Broken Blob Cooperative", Certificate: "cert", PaymentReceipt: "receipt"}
	st.EXPECT().Delete(gomock.Any(), c.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ id.CooperativeID, beforeDelete func(*models.Cooperative) error) error {
			return beforeDelete(c)
		})
	att.EXPECT().Release(gomock.Any(), "cert", "receipt").
		Return(dErrors.Wrap(errors.New("timeout"), dErrors.CodeDependency, "failed to release evidence from blob store"))

	err := svc.Delete(context.Background(), c.ID)
	if !dErrors.HasCode(err, dErrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestDeleteReleasesReferencesOfLockedRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	att := mocks.NewMockAttachments(ctrl)
	svc := New(st, att)

	// the record as seen under the store lock, after a concurrent update
	// replaced the certificate
	locked := &models.Cooperative{ID: id.NewCooperativeID(), Name: "Replaced Evidence Cooperative", Certificate: "cert-v2", PaymentReceipt: "receipt"}
	st.EXPECT().FindByID(gomock.Any(), gomock.Any()).Times(0)
	st.EXPECT().Delete(gomock.Any(), locked.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ id.CooperativeID, beforeDelete func(*models.Cooperative) error) error {
			return beforeDelete(locked)
		})
	att.EXPECT().Release(gomock.Any(), "cert-v2", "receipt").Return(nil)

	if err := svc.Delete(context.Background(), locked.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestCreateRunsInsideTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	tx := mocks.NewMockStoreTx(ctrl)
	svc := New(st, mocks.NewMockAttachments(ctrl), WithTx(tx))

	tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) })
	st.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.AlreadyUsed("name"))

	_, err := svc.Create(context.Background(), "Duplicate Cooperative Name")
	if !dErrors.HasCode(err, dErrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAuditLinesFallBackToDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	blobs := blobstore.NewInMemory("https://files.test")
	c, err := New(store.NewInMemory(), attachment.New(blobs)).Create(context.Background(), "Default Logger Cooperative")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"event":"cooperative_created"`)) ||
		!bytes.Contains(buf.Bytes(), []byte(c.ID.String())) {
		t.Fatalf("expected a cooperative_created audit line, got %q", buf.String())
	}
}
