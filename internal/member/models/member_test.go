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
		Name:            "Lagos Credit Union",
		Established:     "1998-04",
		Email:           "hello@lcu.org",
		PhoneNumber:     "+2348012345678",
		Address:         "14 Broad Street, Lagos",
		NumberOfMembers: 250,
		Status:          true,
	}
}

func TestNewMember(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m, err := NewMember(id.NewMemberID(), validFields(), now)
	require.NoError(t, err)
	assert.True(t, m.Status)
	assert.Equal(t, now, m.CreatedAt)

	f := validFields()
	f.NumberOfMembers = 0
	_, err = NewMember(id.NewMemberID(), f, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	f = validFields()
	f.Email = ""
	_, err = NewMember(id.NewMemberID(), f, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestApplyPatchTouchesOnlySuppliedFields(t *testing.T) {
	m, err := NewMember(id.NewMemberID(), validFields(), time.Now())
	require.NoError(t, err)
	before := *m

	count := 300
	later := before.UpdatedAt.Add(time.Minute)
	m.ApplyPatch(Patch{NumberOfMembers: &count}, later)

	assert.Equal(t, 300, m.NumberOfMembers)
	assert.Equal(t, before.Name, m.Name)
	assert.Equal(t, before.Email, m.Email)
	assert.Equal(t, before.Established, m.Established)
	assert.Equal(t, before.Status, m.Status)
	assert.Equal(t, later, m.UpdatedAt)
	assert.True(t, Patch{}.IsEmpty())
}
