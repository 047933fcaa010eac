package httpapi

import (
	"net/http"

	"hiddenplaces/internal/domain"
	"hiddenplaces/internal/reqctx"
)

// requireAuth answers 401 JSON for requests without a resolved session.
func (a *api) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !reqctx.From(r.Context()).LoggedIn() {
			WriteDomainError(w, domain.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	}
}
