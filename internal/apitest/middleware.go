package apitest

import (
	"context"
	"net/http"
	"strings"
)

// contextKey keeps the user id out of reach of other packages' context keys.
type contextKey string

const userIDKey contextKey = "userID"

// requireAuth rejects requests without a valid "Authorization: Bearer" token
// and stores the caller's user id in the request context.
func requireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorResponse{
					Error:   "unauthorized",
					Message: "valid authentication required",
				})
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errMissingBearer
	}
	return tokens.Validate(token)
}
