package handler

import (
	"strings"

	"coopreg/internal/cooperative/models"
	"coopreg/internal/cooperative/service"
	dErrors "coopreg/pkg/domain-errors"
)

// maxRawField bounds any single raw string before it reaches the kernel.
const maxRawField = 4096

type CreateCooperativeRequest struct {
	Name string `json:"name"`
}

func (r *CreateCooperativeRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *CreateCooperativeRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return checkRaw("name", r.Name)
}

// UpdateCooperativeRequest is a partial update: absent JSON keys stay nil.
type UpdateCooperativeRequest struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	PhoneNumber    *string `json:"phone_number"`
	WebsiteURL     *string `json:"website_url"`
	Address        *string `json:"address"`
	Certificate    *string `json:"certificate"`
	PaymentReceipt *string `json:"payment_receipt"`
}

func (r *UpdateCooperativeRequest) Validate() error {
	fields := map[string]*string{
		"name":            r.Name,
		"email":           r.Email,
		"phone_number":    r.PhoneNumber,
		"website_url":     r.WebsiteURL,
		"address":         r.Address,
		"certificate":     r.Certificate,
		"payment_receipt": r.PaymentReceipt,
	}
	present := 0
	for field, v := range fields {
		if v == nil {
			continue
		}
		present++
		if err := checkRaw(field, *v); err != nil {
			return err
		}
	}
	if present == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one field must be supplied")
	}
	return nil
}

func (r *UpdateCooperativeRequest) Command() service.UpdateCommand {
	return service.UpdateCommand{
		Name:           r.Name,
		Email:          r.Email,
		PhoneNumber:    r.PhoneNumber,
		WebsiteURL:     r.WebsiteURL,
		Address:        r.Address,
		Certificate:    r.Certificate,
		PaymentReceipt: r.PaymentReceipt,
	}
}

type ActivateCooperativeRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phone_number"`
	WebsiteURL     string `json:"website_url"`
	Address        string `json:"address"`
	Certificate    string `json:"certificate"`
	PaymentReceipt string `json:"payment_receipt"`
}

func (r *ActivateCooperativeRequest) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"name", r.Name},
		{"email", r.Email},
		{"phone_number", r.PhoneNumber},
		{"website_url", r.WebsiteURL},
		{"address", r.Address},
		{"certificate", r.Certificate},
		{"payment_receipt", r.PaymentReceipt},
	} {
		if err := checkRaw(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

func (r *ActivateCooperativeRequest) Command() service.ActivateCommand {
	return service.ActivateCommand{
		Name:           r.Name,
		Email:          r.Email,
		PhoneNumber:    r.PhoneNumber,
		WebsiteURL:     r.WebsiteURL,
		Address:        r.Address,
		Certificate:    r.Certificate,
		PaymentReceipt: r.PaymentReceipt,
	}
}

type SetStatusRequest struct {
	Status string `json:"status"`
	status models.Status
}

func (r *SetStatusRequest) Normalize() {
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
}

func (r *SetStatusRequest) Validate() error {
	status, err := models.ParseStatus(r.Status)
	if err != nil {
		return err
	}
	r.status = status
	return nil
}

func checkRaw(field, v string) error {
	if len(v) > maxRawField {
		return dErrors.Newf(dErrors.CodeValidation, "%s is too long", field)
	}
	return nil
}
