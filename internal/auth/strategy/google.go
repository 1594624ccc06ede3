package strategy

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"grace/internal/auth/models"
	"grace/pkg/platform/middleware/requesttime"
	"grace/pkg/platform/sentinel"
	strutil "grace/pkg/string"
)

const (
	// StateCookie holds the anti-forgery state between redirect and reroute.
	StateCookie = "oauth_state"

	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	stateTTL          = 10 * time.Minute
	maxUserInfoBody   = 1 << 20
)

// FederatedPrincipals finds or creates principals keyed by provider subject.
type FederatedPrincipals interface {
	FindOrCreateByExternalID(ctx context.Context, principal *models.Principal) (*models.Principal, error)
}

// googleUserInfo is the subset of the OpenID userinfo response we keep.
type googleUserInfo struct {
	Subject    string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// Google authenticates through Google's OAuth consent flow.
type Google struct {
	oauth        *oauth2.Config
	userInfoURL  string
	principals   FederatedPrincipals
	secureCookie bool
	rejector
}

// GoogleConfig names the client registration.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	SecureCookie bool

	// Endpoint and UserInfoURL default to Google's.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

func NewGoogle(cfg GoogleConfig, principals FederatedPrincipals, opts ...Option) *Google {
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = googleUserInfoURL
	}
	return &Google{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL:  userInfoURL,
		principals:   principals,
		secureCookie: cfg.SecureCookie,
		rejector:     newRejector("google", opts),
	}
}

// ConsentURL stores a fresh state in a short-lived cookie and returns the
// provider URL to redirect the caller to.
func (g *Google) ConsentURL(w http.ResponseWriter) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	http.SetCookie(w, g.stateCookie(state, int(stateTTL.Seconds())))
	return g.oauth.AuthCodeURL(state), nil
}

// ClearState expires the state cookie. A state is good for one reroute.
func (g *Google) ClearState(w http.ResponseWriter) {
	http.SetCookie(w, g.stateCookie("", -1))
}

func (g *Google) stateCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     StateCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   g.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// Authenticate completes the reroute leg: it checks state, exchanges the
// code and maps the provider identity onto a principal.
func (g *Google) Authenticate(ctx context.Context, r *http.Request) (*models.Principal, error) {
	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		return nil, g.reject(ctx, "provider_error", "provider_error", providerErr)
	}

	cookie, err := r.Cookie(StateCookie)
	state := query.Get("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		return nil, g.reject(ctx, "state_mismatch")
	}

	code := query.Get("code")
	if code == "" {
		return nil, g.reject(ctx, "missing_code")
	}

	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, g.reject(ctx, "code_exchange_failed", "error", err)
	}

	info, err := g.fetchUserInfo(ctx, tok)
	if err != nil {
		return nil, g.reject(ctx, "userinfo_failed", "error", err)
	}
	if info.Subject == "" {
		return nil, g.reject(ctx, "userinfo_without_subject")
	}

	candidate := models.NewPrincipal(strutil.NormalizeEmail(info.Email), "", info.GivenName, info.FamilyName, requesttime.Now(ctx))
	candidate.ExternalID = info.Subject

	principal, err := g.principals.FindOrCreateByExternalID(ctx, candidate)
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		return nil, g.reject(ctx, "email_held_by_other_principal")
	}
	if err != nil {
		return nil, g.internal(ctx, "failed to find or create federated principal", err)
	}
	return principal, nil
}

func (g *Google) fetchUserInfo(ctx context.Context, tok *oauth2.Token) (*googleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}
	var info googleUserInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserInfoBody)).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return &info, nil
}
