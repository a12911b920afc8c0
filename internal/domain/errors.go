package domain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors for validator composition
var (
	// ErrConfiguration is returned when the manager or a validator is configured inconsistently
	ErrConfiguration = errors.New("configuration error")

	// ErrAuthenticationFailed is returned when a remote ceremony step is not verified
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrUnsupportedOperation is returned for raw transaction signing on a contract account
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrEnableSignatureMissing is returned when an enable envelope has no authorization
	ErrEnableSignatureMissing = errors.New("enable signature missing")

	// ErrInvalidOwnerMismatch is returned when a deployed account records a different owner
	ErrInvalidOwnerMismatch = errors.New("account owner mismatch")

	ErrMissingSudoValidator    = fmt.Errorf("%w: sudo validator not configured", ErrConfiguration)
	ErrMissingRegularValidator = fmt.Errorf("%w: regular validator not configured", ErrConfiguration)
	ErrMissingAction           = fmt.Errorf("%w: executor data absent", ErrConfiguration)
)

// ValidatorError carries which validator, account and step failed
type ValidatorError struct {
	Validator string
	Account   common.Address
	Step      string
	Err       error
}

func (e *ValidatorError) Error() string {
	if e.Account == (common.Address{}) {
		return fmt.Sprintf("%s validator: %s: %v", e.Validator, e.Step, e.Err)
	}
	return fmt.Sprintf("%s validator: %s for account %s: %v", e.Validator, e.Step, e.Account.Hex(), e.Err)
}

func (e *ValidatorError) Unwrap() error {
	return e.Err
}

// AuthenticationError is returned when a relay verify step reports false
type AuthenticationError struct {
	Validator string
	Step      string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s validator: %s step was not verified by the relay", e.Validator, e.Step)
}

func (e *AuthenticationError) Unwrap() error {
	return ErrAuthenticationFailed
}

// OwnerMismatchError is returned when an existing account is owned by another signer
type OwnerMismatchError struct {
	Account  common.Address
	Recorded common.Address
	Supplied common.Address
}

func (e *OwnerMismatchError) Error() string {
	return fmt.Sprintf("account %s is owned by %s, not by signer %s",
		e.Account.Hex(), e.Recorded.Hex(), e.Supplied.Hex())
}

func (e *OwnerMismatchError) Unwrap() error {
	return ErrInvalidOwnerMismatch
}
