package auth

import (
	"fmt"
	"unicode/utf8"

	errs "feed-lab/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type CredentialsRequest struct {
	Username string `validate:"required,min=3,max=32"`
	Password string `validate:"required,min=8,max=72"`
}

// ValidateRegister checks the rules new accounts must satisfy before any
// network call is spent on them.
func ValidateRegister(req CredentialsRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInvalidInput, err)
	}
	return nil
}

// ValidateLogin only requires both fields to be present; complexity rules
// would leak which accounts predate them.
func ValidateLogin(req CredentialsRequest) error {
	if req.Username == "" || req.Password == "" {
		return fmt.Errorf("%w: username and password are required", errs.ErrInvalidInput)
	}
	return nil
}

// ValidateMessageText enforces the text bounds declared by the active
// contract revision. The limit is a parameter, never a constant here.
func ValidateMessageText(text string, maxLength int) error {
	if err := validate.Var(text, fmt.Sprintf("required,max=%d", maxLength)); err != nil {
		return fmt.Errorf("%w: message must be 1..%d characters, got %d",
			errs.ErrInvalidInput, maxLength, utf8.RuneCountInString(text))
	}
	return nil
}
