package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "grace/internal/auth/middleware"
	"grace/internal/auth/models"
	"grace/internal/auth/strategy"
	dErrors "grace/pkg/domain-errors"
	"grace/pkg/platform/httputil"
	"grace/pkg/requestcontext"
)

const (
	MsgSignedOut      = "Signed out."
	MsgProfileUpdated = "Your profile has been updated."
	MsgUserUpdated    = "The user has been updated."
)

// Service is the slice of the auth service the HTTP surface drives.
type Service interface {
	PreventExistingAuthentication(ctx context.Context, w http.ResponseWriter, r *http.Request) error
	CommitAuthentication(ctx context.Context, w http.ResponseWriter, r *http.Request, principal *models.Principal) (string, error)
	RevokeAuthentication(ctx context.Context, w http.ResponseWriter, r *http.Request, principal *models.Principal) error
	RequireAdministrator(ctx context.Context, principal *models.Principal) error
	CreatePrincipal(ctx context.Context, req *models.SignupRequest) (*models.Principal, error)
	ListPrincipals(ctx context.Context) ([]models.PrincipalView, error)
	UpdateOwn(ctx context.Context, current *models.Principal, req *models.UpdateRequest) (*models.Principal, error)
	AdminUpdate(ctx context.Context, req *models.UpdateRequest) (*models.Principal, error)
}

// Federated is a consent-based strategy such as Google.
type Federated interface {
	strategy.Authenticator
	ConsentURL(w http.ResponseWriter) (string, error)
	ClearState(w http.ResponseWriter)
}

// SessionResponse is returned whenever a new session is committed.
type SessionResponse struct {
	Profile *models.Profile `json:"profile"`
	Token   string          `json:"token"`
}

type ProfileResponse struct {
	Profile *models.Profile `json:"profile"`
}

type CreatedResponse struct {
	ID string `json:"id"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UsersResponse struct {
	Users []models.PrincipalView `json:"users"`
}

// Handler serves the sign-up, sign-in, session and administration routes.
type Handler struct {
	auth     Service
	password strategy.Authenticator
	token    strategy.Authenticator
	google   Federated
	logger   *slog.Logger
}

type Option func(*Handler)

// WithGoogle enables the federated sign-in routes.
func WithGoogle(google Federated) Option {
	return func(h *Handler) {
		h.google = google
	}
}

func New(auth Service, password, token strategy.Authenticator, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		auth:     auth,
		password: password,
		token:    token,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the routes on r. Each group carries its own gate: login
// routes refuse callers with a live session, the rest require one.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(authmw.PreventAuth(h.auth, h.logger))
		r.Post("/signup", h.HandleSignup)
		r.Post("/signin", h.HandleSignin)
		if h.google != nil {
			r.Get("/signin/google", h.HandleGoogleConsent)
			r.Get("/signin/google/reroute", h.HandleGoogleReroute)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(authmw.Authenticate(h.token, h.logger))
		r.Post("/signout", h.HandleSignout)
		r.Post("/pulse", h.HandleProfile)
		r.Get("/profile", h.HandleProfile)
		r.Post("/update", h.HandleUpdate)

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireAdministrator(h.auth, h.logger))
			r.Get("/administration/user", h.HandleListUsers)
			r.Post("/administration/update", h.HandleAdminUpdate)
		})
	})
}

// HandleSignup implements POST /signup.
//
// Input: { "email", "password", "firstName", "lastName" }
// Output: 201 { "id": "..." }
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[models.SignupRequest](w, r, h.logger)
	if !ok {
		return
	}

	principal, err := h.auth.CreatePrincipal(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "signup failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, CreatedResponse{ID: principal.ID.String()})
}

// HandleSignin implements POST /signin with email and password.
func (h *Handler) HandleSignin(w http.ResponseWriter, r *http.Request) {
	h.signin(w, r, h.password)
}

// HandleGoogleConsent redirects to the provider's consent screen.
func (h *Handler) HandleGoogleConsent(w http.ResponseWriter, r *http.Request) {
	url, err := h.google.ConsentURL(w)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to build consent url", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to start federated sign-in"))
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// HandleGoogleReroute completes federated sign-in. The state cookie is
// expired whatever the outcome.
func (h *Handler) HandleGoogleReroute(w http.ResponseWriter, r *http.Request) {
	h.google.ClearState(w)
	h.signin(w, r, h.google)
}

func (h *Handler) signin(w http.ResponseWriter, r *http.Request, authenticator strategy.Authenticator) {
	ctx := r.Context()

	principal, err := authenticator.Authenticate(ctx, r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, err := h.auth.CommitAuthentication(ctx, w, r, principal)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	profile, ok := h.project(ctx, principal)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "principal is not resolved"))
		return
	}

	h.logger.InfoContext(ctx, "signin successful",
		"principal_id", principal.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, SessionResponse{Profile: profile, Token: token})
}

// HandleSignout implements POST /signout.
func (h *Handler) HandleSignout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.auth.RevokeAuthentication(ctx, w, r, authmw.PrincipalFrom(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: MsgSignedOut})
}

// HandleProfile serves both POST /pulse and GET /profile.
func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, ok := h.project(ctx, authmw.PrincipalFrom(ctx))
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "principal is not resolved"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ProfileResponse{Profile: profile})
}

// HandleUpdate implements POST /update for the caller's own profile.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[models.UpdateRequest](w, r, h.logger)
	if !ok {
		return
	}

	if _, err := h.auth.UpdateOwn(ctx, authmw.PrincipalFrom(ctx), req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: MsgProfileUpdated})
}

// HandleListUsers implements GET /administration/user.
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListPrincipals(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, UsersResponse{Users: users})
}

// HandleAdminUpdate implements POST /administration/update.
func (h *Handler) HandleAdminUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[models.UpdateRequest](w, r, h.logger)
	if !ok {
		return
	}

	updated, err := h.auth.AdminUpdate(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actor := authmw.PrincipalFrom(ctx)
	h.logger.InfoContext(ctx, "administrator updated principal",
		"actor_id", actor.ID.String(),
		"principal_id", updated.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: MsgUserUpdated})
}

func (h *Handler) project(ctx context.Context, principal *models.Principal) (*models.Profile, bool) {
	profile, ok := models.Project(principal)
	if !ok {
		h.logger.ErrorContext(ctx, "request carries an unresolved principal",
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return profile, ok
}
