package model

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable classification every relay failure carries.
type ErrorKind string

const (
	KindStateMismatch       ErrorKind = "state_mismatch"
	KindExchangeFailed      ErrorKind = "exchange_failed"
	KindProviderUnavailable ErrorKind = "provider_unavailable"
	KindNotAuthenticated    ErrorKind = "not_authenticated"
	KindMediaUploadFailed   ErrorKind = "media_upload_failed"
	KindPublishFailed       ErrorKind = "publish_failed"
	KindInvalidRequest      ErrorKind = "invalid_request"
	KindUnknownProvider     ErrorKind = "unknown_provider"
	KindInternal            ErrorKind = "internal"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrMediaRequired   = errors.New("provider requires a media attachment")
	ErrMediaTooLarge   = errors.New("media exceeds the configured size limit")
	ErrMediaKind       = errors.New("media kind not supported by provider")

	// ErrAuthorizationDenied marks a callback where the provider reported that the user declined.
	ErrAuthorizationDenied = errors.New("authorization was not granted")
)

// RelayError is a classified failure. Detail holds upstream diagnostics meant for logs only.
type RelayError struct {
	Kind     ErrorKind
	Provider string
	Detail   string
	Err      error
}

func NewRelayError(kind ErrorKind, provider, detail string, err error) *RelayError {
	return &RelayError{Kind: kind, Provider: provider, Detail: detail, Err: err}
}

func (e *RelayError) Error() string {
	msg := string(e.Kind)
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RelayError) Unwrap() error { return e.Err }

// Upstream reports whether the provider answered with an error response, as opposed to a transport failure.
func (e *RelayError) Upstream() bool {
	var ue *UpstreamError
	return errors.As(e.Err, &ue)
}

// KindOf returns the classification of err, or KindInternal for unclassified errors.
func KindOf(err error) ErrorKind {
	var re *RelayError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindInternal
}

// Classify keeps an existing RelayError and otherwise wraps err with kind.
func Classify(err error, kind ErrorKind, provider string) *RelayError {
	if err == nil {
		return nil
	}
	var re *RelayError
	if errors.As(err, &re) {
		return re
	}
	detail := ""
	var ue *UpstreamError
	if errors.As(err, &ue) {
		detail = ue.Body
	}
	return NewRelayError(kind, provider, detail, err)
}

// UpstreamError is a non-2xx answer from a provider API.
type UpstreamError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream status %d", e.Operation, e.StatusCode)
}
