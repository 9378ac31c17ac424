package httpx

import (
	"context"
	"net/http"

	"github.com/freelanceflow/api/internal/domain"
)

type authContextKey string

const contextKeyAuth authContextKey = "freelanceflow-session"

type contextSetter interface {
	SetContext(context.Context)
}

// requireAuth ensures the request carries a valid session cookie before
// invoking the handler. API routes authorize themselves this way; the page
// gate never reaches here.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, _, ok := r.ensureAuth(w, req)
		if !ok {
			return
		}
		if setter, ok := w.(contextSetter); ok {
			setter.SetContext(ctx)
		}
		next(w, req.WithContext(ctx))
	}
}

// ensureAuth resolves the session cookie authoritatively and enriches the
// context with the verified identity.
func (r *Router) ensureAuth(w http.ResponseWriter, req *http.Request) (context.Context, *domain.Session, bool) {
	session, err := r.auth.Resolve(req.Context(), r.sessionToken(req), true)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return req.Context(), nil, false
	}
	ctx := context.WithValue(req.Context(), contextKeyAuth, session)
	return ctx, session, true
}

// sessionFromContext extracts the resolved session from context.
func sessionFromContext(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(contextKeyAuth).(*domain.Session)
	if !ok || session == nil {
		return nil, false
	}
	return session, true
}
