package api

import (
	"log/slog"
	"net/http"

	"github.com/atmx/yield-farm/internal/auth"
	"github.com/atmx/yield-farm/internal/model"
)

// Verifier resolves a bearer credential to the address it was issued for.
type Verifier interface {
	Verify(raw string) (model.Address, error)
}

// Authenticate rejects requests without a valid bearer credential and puts
// the authenticated caller on the request context.
func Authenticate(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				writeError(w, err.Error(), http.StatusUnauthorized)
				return
			}
			caller, err := v.Verify(raw)
			if err != nil {
				slog.Warn("rejected credential", "path", r.URL.Path, "err", err)
				writeError(w, auth.ErrInvalidCredential.Error(), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithCaller(r.Context(), caller)))
		})
	}
}

// callerOf returns the authenticated caller. A body that names a different
// caller is rejected with 403.
func callerOf(w http.ResponseWriter, r *http.Request, claimed model.Address) (model.Address, bool) {
	caller, ok := auth.CallerFrom(r.Context())
	if !ok {
		writeError(w, auth.ErrMissingCredential.Error(), http.StatusUnauthorized)
		return "", false
	}
	if claimed != "" && claimed != caller {
		writeError(w, "caller does not match credential", http.StatusForbidden)
		return "", false
	}
	return caller, true
}
