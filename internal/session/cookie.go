package session

import (
	"net/http"
	"time"

	"github.com/mkalinins/dashvault/internal/common"
)

// NewCookie builds the session cookie for a freshly signed token.
func NewCookie(token string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
		Secure:   secure,
	}
}

// ExpiredCookie re-issues the session cookie with an empty value and
// Max-Age=0, which is how logout is implemented.
func ExpiredCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Secure:   secure,
	}
}
