package httppresentation

import (
	"context"
	"net/http"
)

// Identity is supplied by an external collaborator: the deployment's auth
// proxy verifies the caller and forwards a stable actor id in X-Owner-ID.
// The core only ever sees that id; requests without one never reach it.
const headerOwnerID = "X-Owner-ID"

type ownerKey struct{}

func contextWithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

func ownerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

// requireOwner rejects unauthenticated requests before the handler runs.
func (h *Handler) requireOwner(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := r.Header.Get(headerOwnerID)
		if owner == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing owner identity"})
			return
		}
		next(w, r.WithContext(contextWithOwner(r.Context(), owner)))
	}
}
