package http

import (
	"errors"
	"net/http"

	"social-relay/domain/model"
	"social-relay/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

var errorMessages = map[model.ErrorKind]string{
	model.KindStateMismatch:       "Invalid or expired authorization state",
	model.KindExchangeFailed:      "Authentication failed",
	model.KindProviderUnavailable: "Provider unavailable",
	model.KindNotAuthenticated:    "Not authenticated",
	model.KindMediaUploadFailed:   "Media upload failed",
	model.KindPublishFailed:       "Failed to publish post",
	model.KindInvalidRequest:      "Invalid request",
	model.KindUnknownProvider:     "Unknown provider",
	model.KindInternal:            "Internal server error",
}

// statusFor maps an error kind to its HTTP status. OAuth1 handshakes answer 400/401 where OAuth2 answers 403/500.
// A user declining at the provider is 401 for both.
func statusFor(err error, protocol model.AuthProtocol) int {
	switch model.KindOf(err) {
	case model.KindStateMismatch:
		if protocol == model.ProtocolOAuth1 {
			return http.StatusBadRequest
		}
		return http.StatusForbidden
	case model.KindExchangeFailed:
		if protocol == model.ProtocolOAuth1 || errors.Is(err, model.ErrAuthorizationDenied) {
			return http.StatusUnauthorized
		}
		return http.StatusInternalServerError
	case model.KindNotAuthenticated:
		return http.StatusUnauthorized
	case model.KindPublishFailed:
		var re *model.RelayError
		if errors.As(err, &re) && re.Upstream() {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	case model.KindInvalidRequest:
		return http.StatusBadRequest
	case model.KindUnknownProvider:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the full error and answers with a generic body. Upstream payloads stay in the log.
func respondError(ctx *gin.Context, protocol model.AuthProtocol, err error) {
	kind := model.KindOf(err)
	status := statusFor(err, protocol)

	entry := logger.GetLogger().
		WithField("request_id", ctx.GetString("request_id")).
		WithField("kind", kind).
		WithField("status", status).
		WithField("error", err.Error())
	var re *model.RelayError
	if errors.As(err, &re) {
		entry = entry.WithField("provider", re.Provider)
		if re.Detail != "" {
			entry = entry.WithField("detail", re.Detail)
		}
	}
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	ctx.AbortWithStatusJSON(status, gin.H{"error": errorMessages[kind]})
}
