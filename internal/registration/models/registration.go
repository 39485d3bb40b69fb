package models

import (
	"time"

	id "coopreg/pkg/domain"
	dErrors "coopreg/pkg/domain-errors"
)

// Registration is an applicant's submission. Status false means pending,
// true means approved.
//
// Invariants:
//   - Email is unique among registrations (case-insensitive)
//   - Both evidence references are always set
type Registration struct {
	ID                      id.RegistrationID `json:"id"`
	Name                    string            `json:"name"`
	RegistrationCertificate string            `json:"registration_certificate"`
	PaymentReceipt          string            `json:"payment_receipt"`
	Email                   string            `json:"email"`
	PhoneNumber             string            `json:"phone_number"`
	WebsiteURL              string            `json:"website_url,omitempty"`
	Address                 string            `json:"address"`
	Status                  bool              `json:"status"`
	CreatedAt               time.Time         `json:"created_at"`
	UpdatedAt               time.Time         `json:"updated_at"`
}

// Fields holds sanitized values for a new submission.
type Fields struct {
	Name                    string
	RegistrationCertificate string
	PaymentReceipt          string
	Email                   string
	PhoneNumber             string
	WebsiteURL              string
	Address                 string
}

// NewRegistration builds a pending registration.
func NewRegistration(registrationID id.RegistrationID, f Fields, now time.Time) (*Registration, error) {
	if f.Name == "" || f.Email == "" || f.PhoneNumber == "" || f.Address == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "registration is missing a required field")
	}
	if f.RegistrationCertificate == "" || f.PaymentReceipt == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "registration requires both evidence references")
	}
	return &Registration{
		ID:                      registrationID,
		Name:                    f.Name,
		RegistrationCertificate: f.RegistrationCertificate,
		PaymentReceipt:          f.PaymentReceipt,
		Email:                   f.Email,
		PhoneNumber:             f.PhoneNumber,
		WebsiteURL:              f.WebsiteURL,
		Address:                 f.Address,
		CreatedAt:               now,
		UpdatedAt:               now,
	}, nil
}

// EvidenceRefs returns the certificate and receipt references, in that order.
func (r *Registration) EvidenceRefs() []string {
	return []string{r.RegistrationCertificate, r.PaymentReceipt}
}

func (r *Registration) ApplyStatus(approved bool, now time.Time) {
	r.Status = approved
	r.UpdatedAt = now
}

// RegistrationView is a registration with its evidence resolved to URLs.
// A nil URL means the reference could not be resolved.
type RegistrationView struct {
	*Registration
	RegistrationCertificateURL *string `json:"registration_certificate_url"`
	PaymentReceiptURL          *string `json:"payment_receipt_url"`
}

// StatusChange is the outcome of an approval toggle.
type StatusChange struct {
	Registration  *RegistrationView `json:"registration"`
	MemberUpdated bool              `json:"member_updated"`
}
