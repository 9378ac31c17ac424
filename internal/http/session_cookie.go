package httpx

import (
	"net/http"
	"time"
)

// sessionCookie wraps the signed token for transport. Max-Age tracks the
// token lifetime so both expire together.
func (r *Router) sessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     r.cfg.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(r.cfg.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   r.cfg.CookieSecure(),
		SameSite: http.SameSiteLaxMode,
	}
}

// expiredSessionCookie clears the session on the client.
func (r *Router) expiredSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     r.cfg.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.cfg.CookieSecure(),
		SameSite: http.SameSiteLaxMode,
	}
}

// sessionToken extracts the raw token from the request cookie, empty when absent.
func (r *Router) sessionToken(req *http.Request) string {
	cookie, err := req.Cookie(r.cfg.SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
