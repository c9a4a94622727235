package oauth

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when an access token is required but none
// has been fetched yet.
var ErrNotAuthenticated = errors.New("oauth: no access token present, request one using FetchAccessToken")

// ErrNoRenewToken is returned when a renewal is attempted without a renew token.
var ErrNoRenewToken = errors.New("oauth: no renew token present")

// AuthorizationError indicates the authorization server rejected the code
// exchange or token renewal.
type AuthorizationError struct {
	// StatusCode is the HTTP status of the token endpoint response, or 0 when
	// the error was reported through the callback URL.
	StatusCode int

	// Code is the OAuth error code, e.g. "invalid_grant", when the server
	// provided one.
	Code string

	Description string
}

func (e *AuthorizationError) Error() string {
	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("oauth: authorization failed: %s: %s", e.Code, e.Description)
	case e.Code != "":
		return fmt.Sprintf("oauth: authorization failed: %s", e.Code)
	case e.StatusCode != 0:
		return fmt.Sprintf("oauth: authorization failed with status %d: %s", e.StatusCode, e.Description)
	default:
		return fmt.Sprintf("oauth: authorization failed: %s", e.Description)
	}
}

// ConnectionError indicates the token endpoint could not be reached.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("oauth: connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
