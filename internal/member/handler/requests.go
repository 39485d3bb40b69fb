package handler

import (
	"coopreg/internal/member/service"
	dErrors "coopreg/pkg/domain-errors"
)

const maxRawField = 4096

type CreateMemberRequest struct {
	Name            string `json:"name"`
	Established     string `json:"established"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phone_number"`
	WebsiteURL      string `json:"website_url"`
	Address         string `json:"address"`
	NumberOfMembers int    `json:"number_of_members"`
	Status          *bool  `json:"status"`
}

func (r *CreateMemberRequest) Validate() error {
	return checkRaw(map[string]*string{
		"name":         &r.Name,
		"established":  &r.Established,
		"email":        &r.Email,
		"phone_number": &r.PhoneNumber,
		"website_url":  &r.WebsiteURL,
		"address":      &r.Address,
	})
}

func (r *CreateMemberRequest) Command() service.CreateCommand {
	return service.CreateCommand{
		Name:            r.Name,
		Established:     r.Established,
		Email:           r.Email,
		PhoneNumber:     r.PhoneNumber,
		WebsiteURL:      r.WebsiteURL,
		Address:         r.Address,
		NumberOfMembers: r.NumberOfMembers,
		Status:          r.Status,
	}
}

// UpdateMemberRequest is a partial update: absent JSON keys stay nil.
type UpdateMemberRequest struct {
	Name            *string `json:"name"`
	Established     *string `json:"established"`
	Email           *string `json:"email"`
	PhoneNumber     *string `json:"phone_number"`
	WebsiteURL      *string `json:"website_url"`
	Address         *string `json:"address"`
	NumberOfMembers *int    `json:"number_of_members"`
	Status          *bool   `json:"status"`
}

func (r *UpdateMemberRequest) Validate() error {
	if r.Name == nil && r.Established == nil && r.Email == nil && r.PhoneNumber == nil &&
		r.WebsiteURL == nil && r.Address == nil && r.NumberOfMembers == nil && r.Status == nil {
		return dErrors.New(dErrors.CodeValidation, "at least one field must be supplied")
	}
	return checkRaw(map[string]*string{
		"name":         r.Name,
		"established":  r.Established,
		"email":        r.Email,
		"phone_number": r.PhoneNumber,
		"website_url":  r.WebsiteURL,
		"address":      r.Address,
	})
}

func (r *UpdateMemberRequest) Command() service.UpdateCommand {
	return service.UpdateCommand{
		Name:            r.Name,
		Established:     r.Established,
		Email:           r.Email,
		PhoneNumber:     r.PhoneNumber,
		WebsiteURL:      r.WebsiteURL,
		Address:         r.Address,
		NumberOfMembers: r.NumberOfMembers,
		Status:          r.Status,
	}
}

func checkRaw(fields map[string]*string) error {
	for field, v := range fields {
		if v != nil && len(*v) > maxRawField {
			return dErrors.Newf(dErrors.CodeValidation, "%s is too long", field)
		}
	}
	return nil
}
