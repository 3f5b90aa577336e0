package util

import "fmt"

type AppError struct {
	Status int
	Msg    string
	Err    []any
}

func NewAppError(status int, errMsg string, err ...any) *AppError {
	return &AppError{
		Status: status,
		Msg:    errMsg,
		Err:    err,
	}
}

func (e *AppError) Error() string {
	return e.Msg
}

// AuthExchangeError means the authorization code was rejected by the
// provider. Codes are single-use, so the link flow must be restarted.
type AuthExchangeError struct {
	Status int
	Err    error
}

func (e *AuthExchangeError) Error() string {
	return fmt.Sprintf("authorization code exchange failed (status %d)", e.Status)
}

func (e *AuthExchangeError) Unwrap() error { return e.Err }

// RefreshError means the refresh token itself is dead. Credentials have
// already been cleared; the user must re-link their account.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return "refresh token rejected by provider"
}

func (e *RefreshError) Unwrap() error { return e.Err }

// FetchError carries the provider's non-2xx response for a data call.
type FetchError struct {
	Status int
	Body   string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("provider data call failed with status %d", e.Status)
}

// PersistenceError means the credential store is unreachable. Fatal to the
// current request, no partial writes.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("credential store %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
