package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/felixgeelhaar/jobtrack/internal/identity/infrastructure/clerk"
	"github.com/felixgeelhaar/jobtrack/pkg/observability"
)

type ownerCtxKey struct{}

// requireOwner rejects requests without a valid session. API calls get a
// 401 body; browser navigations are redirected to signInURL.
func requireOwner(auth Authenticator, signInURL string, logger *slog.Logger) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				unauthenticated(w, r, signInURL)
				return
			}
			claims, err := auth.Authenticate(r)
			if err != nil {
				if !errors.Is(err, clerk.ErrMissingToken) {
					logger.DebugContext(r.Context(), "rejected session token", "error", err)
				}
				unauthenticated(w, r, signInURL)
				return
			}

			ctx := context.WithValue(r.Context(), ownerCtxKey{}, claims.Subject)
			ctx = observability.WithOwnerID(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthenticated(w http.ResponseWriter, r *http.Request, signInURL string) {
	if wantsHTML(r) {
		http.Redirect(w, r, signInURL, http.StatusFound)
		return
	}
	writeError(w, http.StatusUnauthorized, "Not authenticated")
}

// wantsHTML reports whether r is a browser navigation rather than a fetch.
func wantsHTML(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// ownerID returns the authenticated owner set by requireOwner.
func ownerID(ctx context.Context) string {
	id, _ := ctx.Value(ownerCtxKey{}).(string)
	return id
}
