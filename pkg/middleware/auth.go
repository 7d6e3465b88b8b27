package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/foodbridge/foodbridge/internal/models"
	"github.com/foodbridge/foodbridge/pkg/httpapi"
	jwtutil "github.com/foodbridge/foodbridge/pkg/jwt"
	"github.com/sirupsen/logrus"
)

type contextKey string

const userContextKey contextKey = "user"

// IdentityResolver maps a token's user id to a persisted identity.
// UserService satisfies it.
type IdentityResolver interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// AuthMiddleware extracts the access token from the accessToken cookie or
// the Authorization header, verifies it and resolves the embedded user id
// against the store. A valid token whose identity no longer exists is
// rejected, so deleted accounts cannot keep acting until token expiry.
func AuthMiddleware(secret string, resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				logrus.Warn("Missing access token")
				httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
				return
			}

			claims, err := jwtutil.ParseAccessToken(tokenString, secret)
			if err != nil {
				logrus.WithError(err).Warn("Invalid access token")
				httpapi.Err(w, httpapi.Unauthorized("Invalid or expired access token"))
				return
			}

			if _, err := resolver.GetUser(r.Context(), claims.UserID); err != nil {
				logrus.WithField("userID", claims.UserID).Warn("Access token for unknown user")
				httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated callers whose role does not match.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r.Context())
			if claims == nil {
				httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
				return
			}
			if claims.Role != role {
				logrus.WithFields(logrus.Fields{
					"userID": claims.UserID,
					"role":   claims.Role,
				}).Warn("Forbidden: wrong role")
				httpapi.Err(w, httpapi.Forbidden("Forbidden: requires "+role+" role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext returns the authenticated claims, or nil when the
// request did not pass AuthMiddleware.
func GetUserFromContext(ctx context.Context) *jwtutil.AccessClaims {
	claims, _ := ctx.Value(userContextKey).(*jwtutil.AccessClaims)
	return claims
}

func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
