package adapters

import (
	"context"

	memberModels "coopreg/internal/member/models"
	id "coopreg/pkg/domain"
)

// memberRegistry is the part of the member service the registration
// workflow reaches into. Defined here so registration does not import the
// member service package.
type memberRegistry interface {
	FindByEmail(ctx context.Context, email string) ([]*memberModels.Member, error)
	SetStatus(ctx context.Context, memberID id.MemberID, active bool) (*memberModels.Member, error)
}

// MemberDirectory adapts the member registry to the registration
// service's MemberDirectory port.
type MemberDirectory struct {
	members memberRegistry
}

func NewMemberDirectory(svc memberRegistry) *MemberDirectory {
	return &MemberDirectory{members: svc}
}

// MatchByEmail returns the ids of every member registered under email.
func (a *MemberDirectory) MatchByEmail(ctx context.Context, email string) ([]id.MemberID, error) {
	list, err := a.members.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	ids := make([]id.MemberID, len(list))
	for i, m := range list {
		ids[i] = m.ID
	}
	return ids, nil
}

func (a *MemberDirectory) SetMemberStatus(ctx context.Context, memberID id.MemberID, active bool) error {
	_, err := a.members.SetStatus(ctx, memberID, active)
	return err
}
