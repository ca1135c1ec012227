package auth

import (
	"context"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/olatoyosi/prolink/internal/httpx/response"
)

// context key type for storing auth claims in request contexts
type claimsContextKey struct{}

// ClaimsFromContext extracts auth claims from the context, if present.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	v := ctx.Value(claimsContextKey{})
	if v == nil {
		return nil, false
	}
	c, ok := v.(*Claims)
	return c, ok
}

// UserIDFromContext returns the authenticated caller's id as an ObjectID.
func UserIDFromContext(ctx context.Context) (bson.ObjectID, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return bson.ObjectID{}, false
	}
	id, err := bson.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return bson.ObjectID{}, false
	}
	return id, true
}

// Middleware returns HTTP middleware that enforces a valid bearer token and
// attaches the caller's claims to the request context.
func Middleware(m *JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				response.Unauthorized(w, "missing authorization header")
				return
			}

			// Only the Bearer scheme is accepted; anything else must not
			// fall through as a raw token.
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				response.Unauthorized(w, "invalid authorization header")
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
			if token == "" {
				response.Unauthorized(w, "invalid token")
				return
			}

			claims, err := m.VerifyToken(token)
			if err != nil {
				response.Unauthorized(w, "unauthenticated")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
