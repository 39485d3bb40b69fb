package handler

import (
	"coopreg/internal/registration/service"
	dErrors "coopreg/pkg/domain-errors"
)

const maxRawField = 4096

type SubmitRegistrationRequest struct {
	Name                    string `json:"name"`
	RegistrationCertificate string `json:"registration_certificate"`
	PaymentReceipt          string `json:"payment_receipt"`
	Email                   string `json:"email"`
	PhoneNumber             string `json:"phone_number"`
	WebsiteURL              string `json:"website_url"`
	Address                 string `json:"address"`
}

func (r *SubmitRegistrationRequest) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"name", r.Name},
		{"registration_certificate", r.RegistrationCertificate},
		{"payment_receipt", r.PaymentReceipt},
		{"email", r.Email},
		{"phone_number", r.PhoneNumber},
		{"website_url", r.WebsiteURL},
		{"address", r.Address},
	} {
		if len(f.value) > maxRawField {
			return dErrors.Newf(dErrors.CodeValidation, "%s is too long", f.name)
		}
	}
	return nil
}

func (r *SubmitRegistrationRequest) Command() service.SubmitCommand {
	return service.SubmitCommand{
		Name:                    r.Name,
		RegistrationCertificate: r.RegistrationCertificate,
		PaymentReceipt:          r.PaymentReceipt,
		Email:                   r.Email,
		PhoneNumber:             r.PhoneNumber,
		WebsiteURL:              r.WebsiteURL,
		Address:                 r.Address,
	}
}

// SetStatusRequest requires approved to be present so a missing key is not
// read as a rejection.
type SetStatusRequest struct {
	Approved *bool `json:"approved"`
}

func (r *SetStatusRequest) Validate() error {
	if r.Approved == nil {
		return dErrors.New(dErrors.CodeValidation, "approved is required")
	}
	return nil
}
