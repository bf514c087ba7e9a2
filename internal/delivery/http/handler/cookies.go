package handler

import (
	"net/http"
	"time"

	"medledger/internal/delivery/dto"
	"medledger/internal/delivery/http/middleware"
)

// SessionCookies writes the HttpOnly token cookies of both realms.
type SessionCookies struct {
	Domain     string
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (c SessionCookies) set(w http.ResponseWriter, realm string, tokens *dto.TokenResponse) {
	http.SetCookie(w, c.cookie(middleware.AccessCookieName(realm), tokens.AccessToken, c.AccessTTL))
	http.SetCookie(w, c.cookie(middleware.RefreshCookieName(realm), tokens.RefreshToken, c.RefreshTTL))
}

func (c SessionCookies) clear(w http.ResponseWriter, realm string) {
	for _, name := range []string{middleware.AccessCookieName(realm), middleware.RefreshCookieName(realm)} {
		cookie := c.cookie(name, "", 0)
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		http.SetCookie(w, cookie)
	}
}

func (c SessionCookies) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// refreshTokenFrom prefers the body and falls back to the realm's cookie.
func refreshTokenFrom(r *http.Request, realm string, body string) string {
	if body != "" {
		return body
	}
	if cookie, err := r.Cookie(middleware.RefreshCookieName(realm)); err == nil {
		return cookie.Value
	}
	return ""
}
