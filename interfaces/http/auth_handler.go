package http

import (
	"net/http"

	"social-relay/domain/model"
	"social-relay/usecase"

	"github.com/gin-gonic/gin"
)

type IAuthHandler interface {
	Begin(provider string) gin.HandlerFunc
	Callback(provider string) gin.HandlerFunc
	Me(provider string) gin.HandlerFunc
	Logout(provider string) gin.HandlerFunc
	Providers(ctx *gin.Context)
}

type AuthHandler struct {
	authUsecase usecase.IAuthUsecase
	registry    *usecase.ProviderRegistry
	frontendURL string
}

func NewAuthHandler(authUsecase usecase.IAuthUsecase, registry *usecase.ProviderRegistry, frontendURL string) IAuthHandler {
	return &AuthHandler{authUsecase: authUsecase, registry: registry, frontendURL: frontendURL}
}

// Begin handles GET /auth/{provider}
func (h *AuthHandler) Begin(provider string) gin.HandlerFunc {
	protocol := h.registry.Protocol(provider)
	return func(ctx *gin.Context) {
		url, err := h.authUsecase.Begin(ctx.Request.Context(), sessionID(ctx), provider)
		if err != nil {
			respondError(ctx, protocol, err)
			return
		}
		ctx.Redirect(http.StatusFound, url)
	}
}

// Callback handles GET /auth/{provider}/callback. The session is written before the redirect goes out.
func (h *AuthHandler) Callback(provider string) gin.HandlerFunc {
	protocol := h.registry.Protocol(provider)
	return func(ctx *gin.Context) {
		cb := model.Callback{
			Code:             ctx.Query("code"),
			State:            ctx.Query("state"),
			OAuthToken:       ctx.Query("oauth_token"),
			Verifier:         ctx.Query("oauth_verifier"),
			Denied:           ctx.Query("denied"),
			Error:            ctx.Query("error"),
			ErrorDescription: ctx.Query("error_description"),
		}
		if err := h.authUsecase.Complete(ctx.Request.Context(), sessionID(ctx), provider, cb); err != nil {
			respondError(ctx, protocol, err)
			return
		}
		ctx.Redirect(http.StatusFound, h.frontendURL)
	}
}

// Me handles GET /auth/{provider}/me
func (h *AuthHandler) Me(provider string) gin.HandlerFunc {
	protocol := h.registry.Protocol(provider)
	return func(ctx *gin.Context) {
		profile, err := h.authUsecase.Me(ctx.Request.Context(), sessionID(ctx), provider)
		if err != nil {
			respondError(ctx, protocol, err)
			return
		}
		ctx.JSON(http.StatusOK, profile)
	}
}

// Logout handles POST /auth/{provider}/logout
func (h *AuthHandler) Logout(provider string) gin.HandlerFunc {
	protocol := h.registry.Protocol(provider)
	return func(ctx *gin.Context) {
		if err := h.authUsecase.Disconnect(ctx.Request.Context(), sessionID(ctx), provider); err != nil {
			respondError(ctx, protocol, err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// Providers handles GET /providers
func (h *AuthHandler) Providers(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"providers": h.authUsecase.Status(ctx.Request.Context(), sessionID(ctx))})
}

func sessionID(ctx *gin.Context) string {
	return ctx.GetString("session_id")
}
