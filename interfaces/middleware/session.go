package middleware

import (
	"crypto/rand"
	"net/http"

	"social-relay/domain/repository"
	"social-relay/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const (
	SessionCookieName = "relay_session"
	SessionIDKey      = "session_id"

	sessionIDValue = "sid"
	sessionMaxAge  = 7 * 24 * 60 * 60
)

type SessionOptions struct {
	Secret string
	Secure bool
}

// NewCookieStore signs the cookie with secret. An empty secret gets a random per-process key,
// which invalidates every session on restart.
func NewCookieStore(opts SessionOptions) *sessions.CookieStore {
	key := []byte(opts.Secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(err)
		}
		logger.GetLogger().Warn("SESSION_SECRET is not set, using a random key; sessions will not survive a restart")
	}
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Session attaches an opaque session id to every request, minting one when the cookie is missing or invalid.
// The cookie holds the id only; session state stays in the store.
func Session(cookies sessions.Store, store repository.ISessionStore) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		sess, err := cookies.Get(ctx.Request, SessionCookieName)
		if err != nil {
			logger.GetLogger().WithField("error", err).Debug("Discarding invalid session cookie")
		}

		id, _ := sess.Values[sessionIDValue].(string)
		if id == "" {
			id = store.NewID()
			sess.Values[sessionIDValue] = id
			if err := sess.Save(ctx.Request, ctx.Writer); err != nil {
				logger.GetLogger().WithField("error", err).Error("Failed to write session cookie")
				ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
		}

		ctx.Set(SessionIDKey, id)
		ctx.Next()
	}
}
