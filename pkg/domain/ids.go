package domain

import (
	"github.com/google/uuid"

	dErrors "coopreg/pkg/domain-errors"
)

// Typed identifiers keep cooperative, member and registration IDs from being
// passed where another entity's ID is expected. Construct them from external
// input only through the Parse functions below.
type (
	CooperativeID  uuid.UUID
	MemberID       uuid.UUID
	RegistrationID uuid.UUID
)

func (id CooperativeID) String() string  { return uuid.UUID(id).String() }
func (id MemberID) String() string       { return uuid.UUID(id).String() }
func (id RegistrationID) String() string { return uuid.UUID(id).String() }

func (id CooperativeID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id MemberID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id RegistrationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id CooperativeID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id MemberID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id RegistrationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *CooperativeID) UnmarshalText(b []byte) error {
	parsed, err := ParseCooperativeID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *MemberID) UnmarshalText(b []byte) error {
	parsed, err := ParseMemberID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *RegistrationID) UnmarshalText(b []byte) error {
	parsed, err := ParseRegistrationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewCooperativeID, NewMemberID and NewRegistrationID mint fresh random IDs.
func NewCooperativeID() CooperativeID   { return CooperativeID(uuid.New()) }
func NewMemberID() MemberID             { return MemberID(uuid.New()) }
func NewRegistrationID() RegistrationID { return RegistrationID(uuid.New()) }

// ParseCooperativeID parses external input into a CooperativeID.
// Returns CodeInvalidInput for empty, malformed or nil UUIDs.
func ParseCooperativeID(s string) (CooperativeID, error) {
	u, err := parseUUID(s, "cooperative")
	return CooperativeID(u), err
}

// ParseMemberID parses external input into a MemberID.
func ParseMemberID(s string) (MemberID, error) {
	u, err := parseUUID(s, "member")
	return MemberID(u), err
}

// ParseRegistrationID parses external input into a RegistrationID.
func ParseRegistrationID(s string) (RegistrationID, error) {
	u, err := parseUUID(s, "registration")
	return RegistrationID(u), err
}

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" ID required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" ID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" ID cannot be nil")
	}
	return u, nil
}
