package models

import (
	"time"

	id "coopreg/pkg/domain"
	dErrors "coopreg/pkg/domain-errors"
	"coopreg/pkg/platform/validation"
)

// Status is the cooperative lifecycle state.
type Status string

const (
	StatusInactive   Status = "inactive"
	StatusProcessing Status = "processing"
	StatusActive     Status = "active"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusInactive, StatusProcessing, StatusActive:
		return true
	}
	return false
}

// ParseStatus accepts exactly the three lifecycle values.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "status must be one of inactive, processing, active")
	}
	return status, nil
}

// Cooperative is the aggregate root for a cooperative society.
//
// Invariants:
//   - Name is sanitized, unique (case-insensitive) and 2 to 200 characters
//   - Email is unique among cooperatives when set
//   - Status is processing or active only with email, phone and address set,
//     except when an administrator forces a status through ApplyStatus
//   - Certificate and PaymentReceipt are blob references or empty
type Cooperative struct {
	ID             id.CooperativeID `json:"id"`
	Name           string           `json:"name"`
	Email          string           `json:"email,omitempty"`
	PhoneNumber    string           `json:"phone_number,omitempty"`
	WebsiteURL     string           `json:"website_url,omitempty"`
	Address        string           `json:"address,omitempty"`
	Certificate    string           `json:"certificate,omitempty"`
	PaymentReceipt string           `json:"payment_receipt,omitempty"`
	Status         Status           `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// NewCooperative builds an inactive cooperative holding only its name.
// name must already be sanitized.
func NewCooperative(cooperativeID id.CooperativeID, name string, now time.Time) (*Cooperative, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "cooperative name cannot be empty")
	}
	if n := len([]rune(name)); n < validation.MinCooperativeNameAtCreation || n > validation.MaxNameLength {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation,
			"cooperative name must be between %d and %d characters",
			validation.MinCooperativeNameAtCreation, validation.MaxNameLength)
	}
	return &Cooperative{
		ID:        cooperativeID,
		Name:      name,
		Status:    StatusInactive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (c *Cooperative) IsActive() bool {
	return c.Status == StatusActive
}

// HasContact reports whether every contact field the processing and active
// states depend on is set.
func (c *Cooperative) HasContact() bool {
	return c.Email != "" && c.PhoneNumber != "" && c.Address != ""
}

// EvidenceRefs lists the blob references owned by this cooperative in field
// order: certificate, payment receipt.
func (c *Cooperative) EvidenceRefs() []string {
	return []string{c.Certificate, c.PaymentReceipt}
}

// CanActivate checks the self-service activation edge is open.
func (c *Cooperative) CanActivate() error {
	if c.Status != StatusInactive {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cooperative is already %s", c.Status)
	}
	return nil
}

// ApplyActivation records the full contact set and evidence and moves the
// cooperative to processing. Call CanActivate first.
func (c *Cooperative) ApplyActivation(a Activation, now time.Time) {
	c.Name = a.Name
	c.Email = a.Email
	c.PhoneNumber = a.PhoneNumber
	c.WebsiteURL = a.WebsiteURL
	c.Address = a.Address
	c.Certificate = a.Certificate
	c.PaymentReceipt = a.PaymentReceipt
	c.Status = StatusProcessing
	c.UpdatedAt = now
}

// CanApply rejects patches that would strip contact details from a
// cooperative past the inactive state.
func (c *Cooperative) CanApply(p Patch) error {
	if c.Status == StatusInactive {
		return nil
	}
	if p.Address != nil && *p.Address == "" {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "address cannot be cleared while cooperative is %s", c.Status)
	}
	return nil
}

// ApplyPatch sets only the fields present in p. Status is never touched.
func (c *Cooperative) ApplyPatch(p Patch, now time.Time) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&c.Name, p.Name)
	set(&c.Email, p.Email)
	set(&c.PhoneNumber, p.PhoneNumber)
	set(&c.WebsiteURL, p.WebsiteURL)
	set(&c.Address, p.Address)
	set(&c.Certificate, p.Certificate)
	set(&c.PaymentReceipt, p.PaymentReceipt)
	c.UpdatedAt = now
}

// ApplyStatus is the administrative override: any state, no preconditions.
func (c *Cooperative) ApplyStatus(status Status, now time.Time) {
	c.Status = status
	c.UpdatedAt = now
}

// Patch carries sanitized values for a partial update. A nil field is left
// untouched; a pointer to "" clears an optional field.
type Patch struct {
	Name           *string
	Email          *string
	PhoneNumber    *string
	WebsiteURL     *string
	Address        *string
	Certificate    *string
	PaymentReceipt *string
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.PhoneNumber == nil && p.WebsiteURL == nil &&
		p.Address == nil && p.Certificate == nil && p.PaymentReceipt == nil
}

// Activation carries the sanitized field set for the guarded transition.
type Activation struct {
	Name           string
	Email          string
	PhoneNumber    string
	WebsiteURL     string
	Address        string
	Certificate    string
	PaymentReceipt string
}

// CooperativeView is a cooperative with evidence references resolved to
// retrievable URLs. A reference that cannot be resolved renders as null.
type CooperativeView struct {
	*Cooperative
	CertificateURL    *string `json:"certificate_url"`
	PaymentReceiptURL *string `json:"payment_receipt_url"`
}
