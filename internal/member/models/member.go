package models

import (
	"time"

	id "coopreg/pkg/domain"
	dErrors "coopreg/pkg/domain-errors"
)

// Member is a member organization.
//
// Invariants:
//   - Email is unique among members (case-insensitive)
//   - NumberOfMembers is positive
//   - Status true means active
type Member struct {
	ID              id.MemberID `json:"id"`
	Name            string      `json:"name"`
	Established     string      `json:"established"`
	Email           string      `json:"email"`
	PhoneNumber     string      `json:"phone_number"`
	WebsiteURL      string      `json:"website_url,omitempty"`
	Address         string      `json:"address"`
	NumberOfMembers int         `json:"number_of_members"`
	Status          bool        `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Fields holds sanitized values for a new member.
type Fields struct {
	Name            string
	Established     string
	Email           string
	PhoneNumber     string
	WebsiteURL      string
	Address         string
	NumberOfMembers int
	Status          bool
}

func NewMember(memberID id.MemberID, f Fields, now time.Time) (*Member, error) {
	if f.Name == "" || f.Email == "" || f.PhoneNumber == "" || f.Address == "" || f.Established == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "member is missing a required field")
	}
	if f.NumberOfMembers < 1 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "number_of_members must be positive")
	}
	return &Member{
		ID:              memberID,
		Name:            f.Name,
		Established:     f.Established,
		Email:           f.Email,
		PhoneNumber:     f.PhoneNumber,
		WebsiteURL:      f.WebsiteURL,
		Address:         f.Address,
		NumberOfMembers: f.NumberOfMembers,
		Status:          f.Status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Patch carries sanitized values for a partial update.
type Patch struct {
	Name            *string
	Established     *string
	Email           *string
	PhoneNumber     *string
	WebsiteURL      *string
	Address         *string
	NumberOfMembers *int
	Status          *bool
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Established == nil && p.Email == nil && p.PhoneNumber == nil &&
		p.WebsiteURL == nil && p.Address == nil && p.NumberOfMembers == nil && p.Status == nil
}

func (m *Member) ApplyPatch(p Patch, now time.Time) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Established != nil {
		m.Established = *p.Established
	}
	if p.Email != nil {
		m.Email = *p.Email
	}
	if p.PhoneNumber != nil {
		m.PhoneNumber = *p.PhoneNumber
	}
	if p.WebsiteURL != nil {
		m.WebsiteURL = *p.WebsiteURL
	}
	if p.Address != nil {
		m.Address = *p.Address
	}
	if p.NumberOfMembers != nil {
		m.NumberOfMembers = *p.NumberOfMembers
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	m.UpdatedAt = now
}

func (m *Member) ApplyStatus(active bool, now time.Time) {
	m.Status = active
	m.UpdatedAt = now
}
