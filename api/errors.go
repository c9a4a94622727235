package api

import "fmt"

// Error codes reported by the remote API.
const (
	codeNotLoggedIn   = 403
	codeUnknownDevice = 406
	codeSignupFailed  = 412
)

// NotLoggedInError indicates the given token was rejected as invalid or
// expired.
type NotLoggedInError struct {
	Message string
}

func (e *NotLoggedInError) Error() string {
	if e.Message == "" {
		return "api: not logged in"
	}
	return "api: not logged in: " + e.Message
}

// UnknownDeviceError indicates the given device id was rejected.
type UnknownDeviceError struct {
	Message string
}

func (e *UnknownDeviceError) Error() string {
	return "api: unknown device: " + e.Message
}

// SignupError indicates the user could not be signed up for the activity.
type SignupError struct {
	Message string
}

func (e *SignupError) Error() string {
	return "api: signup failed: " + e.Message
}

// RemoteError indicates an unexpected server-side failure.
type RemoteError struct {
	// Code is the remote error code, or the HTTP status when the failure
	// happened below the RPC layer.
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("api: remote error %d: %s", e.Code, e.Message)
}

// ConnectionError indicates the API could not be reached.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("api: connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// errorFromCode maps a remote error code to the appropriate error type.
func errorFromCode(code int, message string) error {
	switch code {
	case codeNotLoggedIn:
		return &NotLoggedInError{Message: message}
	case codeUnknownDevice:
		return &UnknownDeviceError{Message: message}
	case codeSignupFailed:
		return &SignupError{Message: message}
	default:
		return &RemoteError{Code: code, Message: message}
	}
}
