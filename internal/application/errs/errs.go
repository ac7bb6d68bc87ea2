package errs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDomainFormat      = errors.New("invalid domain format")
	ErrDomainOwnedByAnotherUser = errors.New("domain is owned by another user")
	ErrDomainNotFound           = errors.New("domain not found")
	ErrDomainExists             = errors.New("domain already exists")
	ErrIdentityNotFound         = errors.New("identity not found")
	ErrRegistrarDisabled        = errors.New("dns registrar is not configured")
)

type PermissionsError struct {
	Err error
}

func (t PermissionsError) Error() string {
	return fmt.Sprintf("error in permissions: %v", t.Err)
}

func (t PermissionsError) Unwrap() error {
	return t.Err
}

type RetryableError struct {
	Err error
}

func (t RetryableError) Error() string {
	return fmt.Sprintf("retryable error: %v", t.Err)
}

func (t RetryableError) Unwrap() error {
	return t.Err
}

// ProviderError wraps a failed call to an external provider (SES, DNS registrar).
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (p *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", p.Provider, p.Op, p.Err)
}

func (p *ProviderError) Unwrap() error {
	return p.Err
}

func NewProviderError(provider, op string, err error) error {
	return &ProviderError{Provider: provider, Op: op, Err: err}
}
