package service

import (
	"context"

	"coopreg/internal/member/models"
	dErrors "coopreg/pkg/domain-errors"
	"coopreg/pkg/platform/validation"
	"coopreg/pkg/requestcontext"
)

// CreateCommand carries raw caller input for a new member. A nil Status
// defaults to active.
type CreateCommand struct {
	Name            string
	Established     string
	Email           string
	PhoneNumber     string
	WebsiteURL      string
	Address         string
	NumberOfMembers int
	Status          *bool
}

// UpdateCommand carries raw caller input for a partial update.
type UpdateCommand struct {
	Name            *string
	Established     *string
	Email           *string
	PhoneNumber     *string
	WebsiteURL      *string
	Address         *string
	NumberOfMembers *int
	Status          *bool
}

func (s *Service) fields(ctx context.Context, cmd CreateCommand) (models.Fields, error) {
	var f models.Fields
	var err error
	if f.Name, err = validation.Text("name", cmd.Name, validation.MinPersonName, validation.MaxNameLength); err != nil {
		return f, err
	}
	f.Established = validation.SanitizeText(cmd.Established)
	if err = validation.ValidateEstablishedDate("established", f.Established, requestcontext.Now(ctx)); err != nil {
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
	if err = validation.ValidateCount("number_of_members", cmd.NumberOfMembers, s.countCeiling); err != nil {
		return f, err
	}
	f.NumberOfMembers = cmd.NumberOfMembers
	f.Status = true
	if cmd.Status != nil {
		f.Status = *cmd.Status
	}
	return f, nil
}

// patch validates every supplied field. Only website_url may be cleared.
func (s *Service) patch(ctx context.Context, cmd UpdateCommand) (models.Patch, error) {
	var p models.Patch
	if cmd.Name != nil {
		v, err := validation.Text("name", *cmd.Name, validation.MinPersonName, validation.MaxNameLength)
		if err != nil {
			return p, err
		}
		p.Name = &v
	}
	if cmd.Established != nil {
		v := validation.SanitizeText(*cmd.Established)
		if err := validation.ValidateEstablishedDate("established", v, requestcontext.Now(ctx)); err != nil {
			return p, err
		}
		p.Established = &v
	}
	if cmd.Email != nil {
		v, err := validation.Email("email", *cmd.Email)
		if err != nil {
			return p, err
		}
		p.Email = &v
	}
	if cmd.PhoneNumber != nil {
		v, err := validation.Phone("phone_number", *cmd.PhoneNumber)
		if err != nil {
			return p, err
		}
		p.PhoneNumber = &v
	}
	if cmd.WebsiteURL != nil {
		v, err := validation.OptionalURL("website_url", *cmd.WebsiteURL)
		if err != nil {
			return p, err
		}
		p.WebsiteURL = &v
	}
	if cmd.Address != nil {
		v, err := validation.Text("address", *cmd.Address, validation.MinAddress, validation.MaxAddressLength)
		if err != nil {
			return p, err
		}
		p.Address = &v
	}
	if cmd.NumberOfMembers != nil {
		if err := validation.ValidateCount("number_of_members", *cmd.NumberOfMembers, s.countCeiling); err != nil {
			return p, err
		}
		p.NumberOfMembers = cmd.NumberOfMembers
	}
	p.Status = cmd.Status
	if p.IsEmpty() {
		return p, dErrors.New(dErrors.CodeValidation, "at least one field must be supplied")
	}
	return p, nil
}
