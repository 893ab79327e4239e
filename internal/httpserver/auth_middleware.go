package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"skillswap/internal/domain"
	"skillswap/internal/security"
	"skillswap/internal/service"
)

type contextKey string

const sessionContextKey contextKey = "session"

type sessionRef struct {
	id      string
	session *service.Session
}

func withSession(ctx context.Context, sid string, sess *service.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sessionRef{id: sid, session: sess})
}

// CurrentSession returns the identity session of an authenticated request.
func CurrentSession(r *http.Request) (string, *service.Session) {
	ref, _ := r.Context().Value(sessionContextKey).(sessionRef)
	return ref.id, ref.session
}

// CurrentUser extracts the current user from context, if any.
func CurrentUser(r *http.Request) *domain.User {
	u, _ := domain.ViewerFrom(r.Context())
	return u
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[len("Bearer "):])
}

// AuthMiddleware validates the Bearer token, resolves its session and
// attaches the session's user to the context as the viewer.
func AuthMiddleware(tokens *security.TokenService, sessions *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				writeJSON(w, http.StatusUnauthorized, errorBody("missing or invalid Authorization header"))
				return
			}

			sid, sess, err := sessions.Authenticate(r.Context(), tokens, tokenStr)
			if err != nil {
				if !errors.Is(err, domain.ErrNotAuthenticated) {
					loggerFrom(r).Error("resolve session", zap.Error(err))
				}
				writeJSON(w, http.StatusUnauthorized, errorBody("invalid or expired session"))
				return
			}

			ctx := withSession(sess.Context(r.Context()), sid, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
