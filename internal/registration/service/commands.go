package service

import (
	"coopreg/internal/registration/models"
	"coopreg/pkg/platform/validation"
)

// SubmitCommand carries raw applicant input. Both evidence references are
// required.
type SubmitCommand struct {
	Name                    string
	RegistrationCertificate string
	PaymentReceipt          string
	Email                   string
	PhoneNumber             string
	WebsiteURL              string
	Address                 string
}

func (s *Service) fields(cmd SubmitCommand) (models.Fields, error) {
	var f models.Fields
	var err error
	if f.Name, err = validation.Text("name", cmd.Name, validation.MinPersonName, validation.MaxNameLength); err != nil {
		return f, err
	}
	if f.Email, err = validation.Email("email", cmd.Email); err != nil {
		return f, err
	}
	if f.PhoneNumber, err = validation.Phone("phone_number", cmd.PhoneNumber); err != nil {
		return f, err
	}
	if f.WebsiteURL, err = validation.OptionalURL("website_url", cmd.WebsiteURL); err != nil {
		return f, err
	}
	if f.Address, err = validation.Text("address", cmd.Address, validation.MinAddress, validation.MaxAddressLength); err != nil {
		return f, err
	}
	if f.RegistrationCertificate, err = s.attachments.Validate("registration_certificate", cmd.RegistrationCertificate); err != nil {
		return f, err
	}
	if f.PaymentReceipt, err = s.attachments.Validate("payment_receipt", cmd.PaymentReceipt); err != nil {
		return f, err
	}
	return f, nil
}
