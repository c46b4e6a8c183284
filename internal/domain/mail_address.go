package domain

import (
	"errors"
	"regexp"
)

// ErrInvalidMailAddress is returned when a string is not a mail address.
var ErrInvalidMailAddress = errors.New("invalid mail address")

var mailAddressPattern = regexp.MustCompile(`^[a-zA-Z0-9_+-]+(.[a-zA-Z0-9_+-]+)*@([a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9]*\.)+[a-zA-Z]{2,}$`)

// MailAddress uniquely identifies a user. The zero value is not a valid address.
type MailAddress struct {
	value string
}

// ParseMailAddress validates s and wraps it.
func ParseMailAddress(s string) (MailAddress, error) {
	if !mailAddressPattern.MatchString(s) {
		return MailAddress{}, ErrInvalidMailAddress
	}
	return MailAddress{value: s}, nil
}

// String returns the address as given.
func (m MailAddress) String() string {
	return m.value
}

// IsZero reports whether m was never parsed.
func (m MailAddress) IsZero() bool {
	return m.value == ""
}

// MarshalText implements encoding.TextMarshaler.
func (m MailAddress) MarshalText() ([]byte, error) {
	return []byte(m.value), nil
}
