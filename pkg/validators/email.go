// Package validators checks client input before it reaches the services
package validators

import (
	"errors"
	"net/mail"
	"strings"
)

var (
	ErrEmailEmpty   = errors.New("no email address provided")
	ErrEmailInvalid = errors.New("invalid email address provided")
)

// EmailValidator accepts a bare address only. Grants are matched on it, so
// "Bob <bob@example.com>" is rejected.
func EmailValidator(e string) error {
	e = strings.TrimSpace(e)
	if e == "" {
		return ErrEmailEmpty
	}

	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Name != "" || addr.Address != e {
		return ErrEmailInvalid
	}

	return nil
}
