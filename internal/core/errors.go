package core

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindInvalidFormat       ErrorKind = "invalid_format"
	KindUnauthorized        ErrorKind = "unauthorized"
	KindConfigurationError  ErrorKind = "configuration_error"
	KindCredentialRevoked   ErrorKind = "credential_revoked"
	KindRemoteUnavailable   ErrorKind = "remote_unavailable"
	KindConnectionFailed    ErrorKind = "connection_failed"
	KindNoCompatibleVersion ErrorKind = "no_compatible_version"
	KindUnknownCheckType    ErrorKind = "unknown_check_type"
	KindNotFound            ErrorKind = "not_found"
	KindValidation          ErrorKind = "validation_error"
	KindInternal            ErrorKind = "internal_error"
)

// Error carries a machine-readable kind plus a remediation hint for the
// caller. Raw remote error text never goes into Message.
type Error struct {
	Kind    ErrorKind
	Message string
	Hint    string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches by kind so errors.Is works against the sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindInvalidFormat, KindValidation, KindUnknownCheckType:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindCredentialRevoked:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRemoteUnavailable, KindConnectionFailed, KindNoCompatibleVersion:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func NewError(kind ErrorKind, message, hint string) *Error {
	return &Error{Kind: kind, Message: message, Hint: hint}
}

func WrapError(kind ErrorKind, message, hint string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Hint: hint, cause: cause}
}

var (
	ErrInvalidFormat = NewError(KindInvalidFormat,
		"malformed bearer token",
		"pass the API key as 'Authorization: Bearer fw_...'")
	ErrUnauthorized = NewError(KindUnauthorized,
		"invalid or inactive API key",
		"verify the key or create a new one from the dashboard")
	ErrConfigurationError = NewError(KindConfigurationError,
		"stored credential could not be decrypted",
		"the service encryption key changed; reconnect the org")
	ErrCredentialRevoked = NewError(KindCredentialRevoked,
		"the org has revoked this connection",
		"reconnect the Salesforce org to issue a new refresh token")
	ErrRemoteUnavailable = NewError(KindRemoteUnavailable,
		"Salesforce did not respond",
		"transient outage; retry shortly")
	ErrConnectionFailed = NewError(KindConnectionFailed,
		"could not obtain a Salesforce session",
		"retries exhausted; check Salesforce trust status and retry")
	ErrNoCompatibleVersion = NewError(KindNoCompatibleVersion,
		"no supported API version is reachable for this org",
		"the org may be on an unsupported release; contact support")
	ErrUnknownCheckType = NewError(KindUnknownCheckType,
		"unknown check type requested",
		"list valid check types via GET /api/v1/mcp/tools")
)

func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
