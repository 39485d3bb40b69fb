package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "coopreg/pkg/domain"
	dErrors "coopreg/pkg/domain-errors"
)

func validFields() Fields {
	return Fields{
		Name:                    "Oyo Farmers Union",
		RegistrationCertificate: "blob/cert-1",
		PaymentReceipt:          "blob/receipt-1",
		Email:                   "oyo@farmers.ng",
		PhoneNumber:             "08031234567",
		Address:                 "9 Ring Road, Ibadan",
	}
}

func TestNewRegistration(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("starts pending", func(t *testing.T) {
		r, err := NewRegistration(id.NewRegistrationID(), validFields(), now)
		require.NoError(t, err)
		assert.False(t, r.Status)
		assert.Equal(t, []string{"blob/cert-1", "blob/receipt-1"}, r.EvidenceRefs())
		assert.Equal(t, now, r.CreatedAt)
	})

	t.Run("both evidence references are mandatory", func(t *testing.T) {
		f := validFields()
		f.PaymentReceipt = ""
		_, err := NewRegistration(id.NewRegistrationID(), f, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("contact fields are mandatory", func(t *testing.T) {
		f := validFields()
		f.Address = ""
		_, err := NewRegistration(id.NewRegistrationID(), f, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestApplyStatus(t *testing.T) {
	r, err := NewRegistration(id.NewRegistrationID(), validFields(), time.Unix(0, 0))
	require.NoError(t, err)

	later := time.Unix(100, 0)
	r.ApplyStatus(true, later)
	assert.True(t, r.Status)
	assert.Equal(t, later, r.UpdatedAt)
}
