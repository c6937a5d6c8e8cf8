package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minefield/internal/config"
)

type CtxKey int

const (
	CtxPlayerClaims CtxKey = iota
)

// Token extracts the player token from the Authorization header, the
// token query parameter or the auth cookies, in that order.
func Token(r *http.Request, cookies *config.Cookies) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		token, found := strings.CutPrefix(h, "Bearer ")
		return strings.TrimSpace(token), found
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, true
	}
	if cookies != nil {
		if token, err := cookies.Token(r); err == nil {
			return token, true
		}
	}
	return "", false
}

// Auth stores the claims of a valid token in the request context. Requests
// without one pass through unauthenticated.
func Auth(logger *logrus.Logger, j *config.JWT, cookies *config.Cookies) Middleware {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := Token(r, cookies)
			if !ok {
				h.ServeHTTP(w, r)
				return
			}
			claims, err := j.ParsePlayerClaims(token)
			if err != nil {
				logger.WithError(err).Debug("rejected player token")
				if cookies != nil {
					cookies.Clear(w)
				}
				h.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), CtxPlayerClaims, claims)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Claims returns the claims stored by Auth.
func Claims(ctx context.Context) (*config.PlayerClaims, bool) {
	claims, ok := ctx.Value(CtxPlayerClaims).(*config.PlayerClaims)
	return claims, ok
}

// RequireAuth rejects requests that Auth did not authenticate.
func RequireAuth(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := Claims(r.Context()); !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		h.ServeHTTP(w, r)
	})
}
