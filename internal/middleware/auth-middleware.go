package middleware

import (
	"context"
	"net/http"

	"github.com/itsDrac/e-auc-live/internal/handlers"
	"github.com/itsDrac/e-auc-live/pkg/config"
)

// TokenValidator resolves a bearer token to the caller's claims.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*config.UserClaims, error)
}

// AuthMiddleware fails closed: a request without a valid token is answered
// with 401 and never reaches the handler.
func AuthMiddleware(s TokenValidator) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accessTokenString, ok := handlers.BearerToken(r)
			if !ok {
				handlers.RespondErrorJSON(w, r, http.StatusUnauthorized, handlers.ErrMissingToken.Error(), "Missing token in the Authorization header", nil)
				return
			}

			claims, err := s.ValidateAccessToken(accessTokenString)
			if err != nil {
				handlers.RespondErrorJSON(w, r, http.StatusUnauthorized, handlers.ErrToken.Error(), "Token is either revoked or invalid.", nil)
				return
			}

			ctx := context.WithValue(r.Context(), config.UserClaimKey, claims)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
