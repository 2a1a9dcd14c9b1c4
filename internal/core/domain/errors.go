package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountExists     = errors.New("account already exists")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrProfileConflict   = errors.New("profile already exists")
	ErrRouteNotFound     = errors.New("route not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("access forbidden")
	ErrUnauthenticated   = errors.New("not authenticated")

	ErrCheckoutNotFound         = errors.New("checkout not found or expired")
	ErrCheckoutAlreadyConfirmed = errors.New("checkout already confirmed")
	ErrPaymentCancelled         = errors.New("payment was cancelled")
)

// AuthErrorCode classifies failures reported by the identity store.
type AuthErrorCode string

const (
	AuthAlreadyRegistered  AuthErrorCode = "already_registered"
	AuthWeakPassword       AuthErrorCode = "weak_password"
	AuthInvalidEmail       AuthErrorCode = "invalid_email"
	AuthServiceDisabled    AuthErrorCode = "service_disabled"
	AuthInvalidCredentials AuthErrorCode = "invalid_credentials"
	AuthEmailUnconfirmed   AuthErrorCode = "email_unconfirmed"
	AuthInvalidToken       AuthErrorCode = "invalid_token"
	AuthUnavailable        AuthErrorCode = "unavailable"
)

var friendlyAuthMessages = map[AuthErrorCode]string{
	AuthAlreadyRegistered:  "An account with this email already exists",
	AuthWeakPassword:       "Password must be at least 6 characters long",
	AuthInvalidEmail:       "Please enter a valid email address",
	AuthServiceDisabled:    "Sign ups are currently disabled",
	AuthInvalidCredentials: "Invalid email or password",
	AuthEmailUnconfirmed:   "Please check your email and confirm your account",
	AuthInvalidToken:       "Your session is invalid or has expired",
	AuthUnavailable:        "Authentication service is unavailable, please try again",
}

// AuthError is a failure from the identity store. Message is safe to show to the user.
type AuthError struct {
	Code    AuthErrorCode
	Message string
	Err     error
}

// NewAuthError builds an AuthError carrying the friendly message for code.
func NewAuthError(code AuthErrorCode, cause error) *AuthError {
	msg, ok := friendlyAuthMessages[code]
	if !ok {
		msg = "Authentication failed"
	}
	return &AuthError{Code: code, Message: msg, Err: cause}
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth %s: %v", e.Code, e.Err)
	}
	return "auth " + string(e.Code)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsAuthCode reports whether err is an AuthError with the given code.
func IsAuthCode(err error, code AuthErrorCode) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Code == code
}

// ValidationError lists the fields of a request that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a problem with field. The first message per field wins.
func (e *ValidationError) Add(field, msg string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

// OrNil returns e when it holds at least one field error.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, k+" "+e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}
