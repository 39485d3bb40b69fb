package validation

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"

	dErrors "coopreg/pkg/domain-errors"
)

var (
	emailShape      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneShape      = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	establishedDate = regexp.MustCompile(`^([0-9]{4})-([0-9]{2})$`)
	referenceShape  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:/=+-]*$`)
)

func invalid(format string, args ...any) error {
	return dErrors.Newf(dErrors.CodeValidation, format, args...)
}

// Required rejects an empty (already sanitized) value.
func Required(field, s string) error {
	if s == "" {
		return invalid("%s is required", field)
	}
	return nil
}

// Length enforces a rune-count range on an already sanitized value.
func Length(field, s string, min, max int) error {
	n := utf8.RuneCountInString(s)
	if n < min {
		if min == 1 {
			return invalid("%s is required", field)
		}
		return invalid("%s must be at least %d characters", field, min)
	}
	if n > max {
		return invalid("%s must be at most %d characters", field, max)
	}
	return nil
}

// ValidateEmail requires the shape local@domain.tld.
func ValidateEmail(field, s string) error {
	if s == "" {
		return invalid("%s is required", field)
	}
	if len(s) > MaxEmailLength {
		return invalid("%s must be at most %d characters", field, MaxEmailLength)
	}
	if !emailShape.MatchString(s) || !govalidator.IsEmail(s) {
		return invalid("%s must be a valid email address", field)
	}
	return nil
}

// ValidatePhone requires an optional leading + followed by 7-15 digits.
func ValidatePhone(field, s string) error {
	if s == "" {
		return invalid("%s is required", field)
	}
	if !phoneShape.MatchString(s) {
		return invalid("%s must be %d-%d digits with an optional leading +", field, MinPhoneDigits, MaxPhoneDigits)
	}
	return nil
}

// ValidateURL requires an absolute http or https URL with a host.
func ValidateURL(field, s string) error {
	if s == "" {
		return invalid("%s is required", field)
	}
	if len(s) > MaxURLLength {
		return invalid("%s must be at most %d characters", field, MaxURLLength)
	}
	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		return invalid("%s must be a valid URL", field)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalid("%s must use http or https", field)
	}
	if !govalidator.IsURL(s) {
		return invalid("%s must be a valid URL", field)
	}
	return nil
}

// ValidateEstablishedDate requires YYYY-MM with month 01-12 and a year
// between 1900 and the current calendar year.
func ValidateEstablishedDate(field, s string, now time.Time) error {
	m := establishedDate.FindStringSubmatch(s)
	if m == nil {
		return invalid("%s must be in YYYY-MM format", field)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return invalid("%s month must be between 01 and 12", field)
	}
	if year < MinEstablishedYear || year > now.Year() {
		return invalid("%s year must be between %d and %d", field, MinEstablishedYear, now.Year())
	}
	return nil
}

// ValidateCount requires a positive integer no greater than ceiling.
func ValidateCount(field string, n, ceiling int) error {
	if n < 1 {
		return invalid("%s must be a positive integer", field)
	}
	if n > ceiling {
		return invalid("%s must be at most %d", field, ceiling)
	}
	return nil
}

// ValidateReference checks an opaque evidence reference is non-empty and
// free of script or markup characters.
func ValidateReference(field, s string) error {
	if s == "" {
		return invalid("%s is required", field)
	}
	if len(s) > MaxRefLength {
		return invalid("%s must be at most %d characters", field, MaxRefLength)
	}
	if strings.ContainsAny(s, `<>"'`+"`") || !referenceShape.MatchString(s) {
		return invalid("%s is not a valid file reference", field)
	}
	return nil
}

// Text sanitizes a free-text field and enforces its length range.
func Text(field, raw string, min, max int) (string, error) {
	s := SanitizeText(raw)
	if err := Length(field, s, min, max); err != nil {
		return "", err
	}
	return s, nil
}

// Email sanitizes and validates an email field.
func Email(field, raw string) (string, error) {
	s := SanitizeEmail(raw)
	if err := ValidateEmail(field, s); err != nil {
		return "", err
	}
	return s, nil
}

// Phone sanitizes and validates a phone number field.
func Phone(field, raw string) (string, error) {
	s := SanitizePhone(raw)
	if err := ValidatePhone(field, s); err != nil {
		return "", err
	}
	return s, nil
}

// URL sanitizes and validates a required URL field.
func URL(field, raw string) (string, error) {
	s := SanitizeURL(raw)
	if err := ValidateURL(field, s); err != nil {
		return "", err
	}
	return s, nil
}

// OptionalURL is URL that maps blank input to "".
func OptionalURL(field, raw string) (string, error) {
	s := SanitizeURL(raw)
	if s == "" {
		return "", nil
	}
	if err := ValidateURL(field, s); err != nil {
		return "", err
	}
	return s, nil
}

// Reference sanitizes and validates an evidence reference.
func Reference(field, raw string) (string, error) {
	s := SanitizeReference(raw)
	if err := ValidateReference(field, s); err != nil {
		return "", err
	}
	return s, nil
}
