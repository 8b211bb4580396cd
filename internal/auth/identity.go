package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	SessionHeader = "X-Session-ID"
	guestPrefix   = "guest:"
	maxSessionID  = 128
)

// Identity is who a request acts for: a signed-in user or a guest session.
type Identity struct {
	UserID string
	Email  string
	Guest  bool
	Token  string
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.UserID != ""
}

// Middleware resolves the request identity. A bearer token must be valid when
// present; otherwise the X-Session-ID header yields a guest identity. Requests
// with neither are rejected with 401.
func Middleware(provider Provider, log logrus.FieldLogger) func(http.Handler) http.Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok {
				if provider == nil {
					unauthorized(w, "authentication is not enabled")
					return
				}
				user, err := provider.Verify(r.Context(), token)
				if err != nil {
					log.WithError(err).Debug("bearer token rejected")
					unauthorized(w, "invalid or expired token")
					return
				}
				id := Identity{UserID: user.UID, Email: user.Email, Token: token}
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
				return
			}

			sessionID := strings.TrimSpace(r.Header.Get(SessionHeader))
			if sessionID == "" || len(sessionID) > maxSessionID {
				unauthorized(w, "missing bearer token or "+SessionHeader+" header")
				return
			}
			id := Identity{UserID: guestPrefix + sessionID, Guest: true}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"code":  "unauthorized",
	})
}
