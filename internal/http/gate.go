package httpx

import (
	"net/http"
	"strings"
)

type gateRequirement int

const (
	// needAuth redirects unauthenticated visitors to the login page.
	needAuth gateRequirement = iota
	// needGuest redirects authenticated visitors to the dashboard.
	needGuest
)

type gateRule struct {
	prefix      string
	requirement gateRequirement
}

// Kept as data so gating stays a table lookup, not branching logic.
var gateRules = []gateRule{
	{prefix: "/dashboard", requirement: needAuth},
	{prefix: "/login", requirement: needGuest},
	{prefix: "/register", requirement: needGuest},
	{prefix: "/forgot-password", requirement: needGuest},
	{prefix: "/reset-password", requirement: needGuest},
}

// Static assets and API routes bypass the gate; API routes self-authorize.
var gateExclusions = []string{
	"/_next/static",
	"/_next/image",
	"/favicon.ico",
	"/public",
	"/api",
}

const (
	gateLoginPath     = "/login"
	gateDashboardPath = "/dashboard"
)

// gate enforces path-level authentication requirements on page navigation.
// It trusts the token claims as-is (no store round-trip per request); the
// data-access boundary re-checks authoritatively.
func (r *Router) gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Path
		for _, prefix := range gateExclusions {
			if strings.HasPrefix(path, prefix) {
				next.ServeHTTP(w, req)
				return
			}
		}
		_, err := r.auth.Resolve(req.Context(), r.sessionToken(req), false)
		authenticated := err == nil
		for _, rule := range gateRules {
			if !strings.HasPrefix(path, rule.prefix) {
				continue
			}
			switch rule.requirement {
			case needGuest:
				if authenticated {
					http.Redirect(w, req, gateDashboardPath, http.StatusTemporaryRedirect)
					return
				}
			case needAuth:
				if !authenticated {
					http.Redirect(w, req, gateLoginPath, http.StatusTemporaryRedirect)
					return
				}
			}
			break
		}
		next.ServeHTTP(w, req)
	})
}
