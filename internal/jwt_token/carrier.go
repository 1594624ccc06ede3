package jwttoken

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	id "grace/pkg/domain"
)

const (
	KindBearer = "bearer"
	KindCookie = "cookie"

	CookieID    = "id"
	CookieToken = "token"

	bearerScheme = "bearer"
)

// Carrier is the transport location of a session token. A deployment
// configures exactly one.
type Carrier interface {
	// Extract returns the token on r, or "" when none is present.
	Extract(r *http.Request) string
	// Attach places a freshly issued token on the response.
	Attach(w http.ResponseWriter, principalID id.PrincipalID, token string)
	// Clear removes any token from the response side of the carrier.
	Clear(w http.ResponseWriter)
}

// NewCarrier builds the carrier named by kind.
func NewCarrier(kind string, secureCookies bool, ttl time.Duration) (Carrier, error) {
	switch kind {
	case KindBearer:
		return BearerCarrier{}, nil
	case KindCookie:
		return CookieCarrier{Secure: secureCookies, MaxAge: ttl}, nil
	default:
		return nil, fmt.Errorf("unknown token carrier %q", kind)
	}
}

// BearerCarrier reads "Authorization: Bearer <token>". Clients hold the token
// themselves, so Attach and Clear leave the response alone.
type BearerCarrier struct{}

func (BearerCarrier) Extract(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, rest, _ := strings.Cut(header, " ")
	if strings.EqualFold(scheme, bearerScheme) {
		return strings.TrimSpace(rest)
	}
	return header
}

func (BearerCarrier) Attach(http.ResponseWriter, id.PrincipalID, string) {}

func (BearerCarrier) Clear(http.ResponseWriter) {}

// CookieCarrier keeps the token in the "token" cookie and the principal id in "id".
type CookieCarrier struct {
	Secure bool
	MaxAge time.Duration
}

func (c CookieCarrier) Extract(r *http.Request) string {
	cookie, err := r.Cookie(CookieToken)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func (c CookieCarrier) Attach(w http.ResponseWriter, principalID id.PrincipalID, token string) {
	maxAge := int(c.MaxAge.Seconds())
	http.SetCookie(w, c.cookie(CookieID, principalID.String(), maxAge))
	http.SetCookie(w, c.cookie(CookieToken, token, maxAge))
}

func (c CookieCarrier) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(CookieID, "", -1))
	http.SetCookie(w, c.cookie(CookieToken, "", -1))
}

func (c CookieCarrier) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
