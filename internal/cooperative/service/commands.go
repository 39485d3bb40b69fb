package service

import (
	"coopreg/internal/cooperative/models"
	dErrors "coopreg/pkg/domain-errors"
	"coopreg/pkg/platform/validation"
)

// UpdateCommand carries raw caller input for a partial update. Nil fields are
// not part of the update.
type UpdateCommand struct {
	Name           *string
	Email          *string
	PhoneNumber    *string
	WebsiteURL     *string
	Address        *string
	Certificate    *string
	PaymentReceipt *string
}

// ActivateCommand carries raw caller input for the self-service activation.
type ActivateCommand struct {
	Name           string
	Email          string
	PhoneNumber    string
	WebsiteURL     string
	Address        string
	Certificate    string
	PaymentReceipt string
}

// patch validates every supplied field before anything is written. Name,
// email and phone may not be emptied; website, address and evidence are
// cleared by an empty value.
func (s *Service) patch(cmd UpdateCommand) (models.Patch, error) {
	var p models.Patch
	var err error
	if cmd.Name != nil {
		if p.Name, err = required(validation.Text("name", *cmd.Name, validation.MinCooperativeName, validation.MaxNameLength)); err != nil {
			return p, err
		}
	}
	if cmd.Email != nil {
		if p.Email, err = required(validation.Email("email", *cmd.Email)); err != nil {
			return p, err
		}
	}
	if cmd.PhoneNumber != nil {
		if p.PhoneNumber, err = required(validation.Phone("phone_number", *cmd.PhoneNumber)); err != nil {
			return p, err
		}
	}
	if cmd.WebsiteURL != nil {
		if p.WebsiteURL, err = required(validation.OptionalURL("website_url", *cmd.WebsiteURL)); err != nil {
			return p, err
		}
	}
	if cmd.Address != nil {
		if p.Address, err = optional(*cmd.Address, func(raw string) (string, error) {
			return validation.Text("address", raw, validation.MinCooperativeAddress, validation.MaxAddressLength)
		}); err != nil {
			return p, err
		}
	}
	if cmd.Certificate != nil {
		if p.Certificate, err = optional(*cmd.Certificate, func(raw string) (string, error) {
			return s.attachments.Validate("certificate", raw)
		}); err != nil {
			return p, err
		}
	}
	if cmd.PaymentReceipt != nil {
		if p.PaymentReceipt, err = optional(*cmd.PaymentReceipt, func(raw string) (string, error) {
			return s.attachments.Validate("payment_receipt", raw)
		}); err != nil {
			return p, err
		}
	}
	if p.IsEmpty() {
		return p, dErrors.New(dErrors.CodeValidation, "at least one field must be supplied")
	}
	return p, nil
}

// activation validates all seven activation fields; every one is required.
func (s *Service) activation(cmd ActivateCommand) (models.Activation, error) {
	var a models.Activation
	var err error
	if a.Name, err = validation.Text("name", cmd.Name, validation.MinCooperativeName, validation.MaxNameLength); err != nil {
		return a, err
	}
	if a.Email, err = validation.Email("email", cmd.Email); err != nil {
		return a, err
	}
	if a.PhoneNumber, err = validation.Phone("phone_number", cmd.PhoneNumber); err != nil {
		return a, err
	}
	if a.WebsiteURL, err = validation.URL("website_url", cmd.WebsiteURL); err != nil {
		return a, err
	}
	if a.Address, err = validation.Text("address", cmd.Address, validation.MinCooperativeAddress, validation.MaxAddressLength); err != nil {
		return a, err
	}
	if a.Certificate, err = s.attachments.Validate("certificate", cmd.Certificate); err != nil {
		return a, err
	}
	if a.PaymentReceipt, err = s.attachments.Validate("payment_receipt", cmd.PaymentReceipt); err != nil {
		return a, err
	}
	return a, nil
}

func required(v string, err error) (*string, error) {
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// optional maps blank input to a clearing value and validates the rest.
func optional(raw string, check func(string) (string, error)) (*string, error) {
	if validation.SanitizeText(raw) == "" {
		empty := ""
		return &empty, nil
	}
	return required(check(raw))
}
