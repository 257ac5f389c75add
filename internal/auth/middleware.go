package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// Middleware rejects requests without a valid credential and stores the
// verified identity in the request context.
func Middleware(v Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// CORS preflight carries no credentials.
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token := TokenFromRequest(r)
			if _, static := v.(StaticVerifier); !static && token == "" {
				unauthorized(w, ErrMissingToken)
				return
			}

			id, err := v.Verify(r.Context(), token)
			if err != nil || id.UID == "" {
				logger.WarnContext(r.Context(), "Authentication failed",
					"path", r.URL.Path, "error", err)
				if err == nil {
					err = ErrInvalidToken
				}
				unauthorized(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func unauthorized(w http.ResponseWriter, err error) {
	msg := "unauthorized"
	if errors.Is(err, ErrMissingToken) {
		msg = "missing bearer token"
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
