package validation

// Field limits shared by the cooperative, member and registration modules.
// Lengths are counted in runes after sanitization.
const (
	MaxNameLength    = 200
	MaxAddressLength = 500
	MaxEmailLength   = 254
	MaxURLLength     = 2048
	MaxRefLength     = 512

	MinCooperativeNameAtCreation = 10
	MinCooperativeName           = 2
	MinCooperativeAddress        = 5
	MinPersonName                = 3
	MinAddress                   = 10

	MinPhoneDigits = 7
	MaxPhoneDigits = 15

	MinEstablishedYear = 1900

	// MaxMemberCount is the ceiling for numberOfMembers.
	MaxMemberCount = 1_000_000
)
