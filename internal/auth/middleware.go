package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// contextKey is unexported so no other package can read or shadow the
// values stored under it.
type contextKey string

const userIDKey contextKey = "userID"

// Messages returned with 401 responses.
const (
	MsgTokenMissing = "Authentication token missing"
	MsgTokenInvalid = "Invalid or expired token"
)

// RequireAuth enforces a valid bearer token on the wrapped routes.
//
// It reads "Authorization: Bearer <jwt>", validates it and stores the user ID
// in the request context. A missing or malformed header and an invalid or
// expired token both stop the chain with 401.
//
// MIDDLEWARE PATTERN IN GO:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... before ...
//	        next.ServeHTTP(w, r)
//	        // ... after ...
//	    })
//	}
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(w, MsgTokenMissing)
				return
			}

			userID, err := tokens.Validate(raw)
			if err != nil {
				unauthorized(w, MsgTokenInvalid)
				return
			}

			ctx := WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID.
// Returns ("", false) when RequireAuth did not run for this request.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// WithUserID returns a copy of ctx carrying userID. Handler tests use it to
// skip token minting.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// bearerToken extracts the token from the Authorization header. The scheme
// is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// unauthorized writes the same body shape as the handler package's error
// responses. auth cannot import handler (handler imports auth).
func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"code":    "unauthorized",
		"message": message,
	})
}
