package handler

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"github.com/sakif/bookmark-api/internal/apperror"
	"github.com/sakif/bookmark-api/internal/auth"
)

// Boundary validation. Services trust what reaches them, so every field a
// client controls is checked here first.

func requireNonEmpty(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperror.ValidationFailed(field, field+" should not be empty")
	}
	return value, nil
}

// optionalNonEmpty validates a PATCH field: absent is fine, present must
// not be blank.
func optionalNonEmpty(field string, value *string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	v, err := requireNonEmpty(field, *value)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func validateEmail(value string) (string, error) {
	email, err := requireNonEmpty("email", value)
	if err != nil {
		return "", err
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.ValidationFailed("email", "email must be an email")
	}
	return email, nil
}

// validatePassword rejects empty passwords and anything bcrypt would
// refuse to hash. Passwords are never trimmed.
func validatePassword(value string) error {
	if value == "" {
		return apperror.ValidationFailed("password", "password should not be empty")
	}
	if len(value) > auth.MaxPasswordBytes {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes))
	}
	return nil
}

// parseID parses a positive decimal id from a path segment.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", "id must be a positive integer")
	}
	return id, nil
}
