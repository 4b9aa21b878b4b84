package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

type Config struct {
	// APIKey is the shared service token expected from the upstream
	// gateway. Empty disables the token check (for development).
	APIKey string
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// Middleware validates the service bearer token and resolves the caller
// identity from the headers set by the upstream authentication layer. The
// identity is stored on the request context; requests without a subject
// never reach the handlers.
func Middleware(config *Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.APIKey != "" && !tokenValid(r, config.APIKey) {
				writeUnauthorized(w, "Invalid or missing API key",
					"Provide the service key via Authorization: Bearer <key> or X-API-Key: <key>")
				return
			}

			identity := Identity{
				Subject:     strings.TrimSpace(r.Header.Get("X-User-Sub")),
				DisplayName: strings.TrimSpace(r.Header.Get("X-User-Name")),
			}
			if identity.Subject == "" {
				writeUnauthorized(w, "Missing caller identity",
					"Upstream auth must set X-User-Sub")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func tokenValid(r *http.Request, apiKey string) bool {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		if strings.TrimPrefix(authHeader, "Bearer ") == apiKey {
			return true
		}
	}
	return r.Header.Get("X-API-Key") == apiKey
}

func writeUnauthorized(w http.ResponseWriter, message, hint string) {
	errorResp := ErrorResponse{
		Code:    "unauthorized",
		Message: message,
		Hint:    hint,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(errorResp)
}
