package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/bookmark-api/internal/auth"
)

// AuthService is what AuthHandler needs from the service layer.
type AuthService interface {
	Signup(ctx context.Context, email, password string) (string, error)
	Signin(ctx context.Context, email, password string) (string, error)
	LoginWithGitHub(ctx context.Context, ghUser *auth.GitHubUser) (string, error)
}

// OAuthProvider is the GitHub side of the login flow; *auth.GitHubProvider
// satisfies it.
type OAuthProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

const oauthStateCookie = "oauth_state"

// AuthHandler serves the public /auth routes.
//
// HANDLER RESPONSIBILITIES:
//   - HandleSignup         → create an account, return an access token
//   - HandleSignin         → check credentials, return an access token
//   - HandleGitHubLogin    → redirect the browser to GitHub
//   - HandleGitHubCallback → exchange the code, return an access token
//
// Tokens are returned in the body as {"access_token": "..."}; clients send
// them back in the Authorization header.
type AuthHandler struct {
	auth   AuthService
	github OAuthProvider // nil when GitHub login is not configured
	logger *slog.Logger
}

func NewAuthHandler(authSvc AuthService, github OAuthProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   authSvc,
		github: github,
		logger: logger,
	}
}

// GitHubEnabled reports whether the GitHub routes should be mounted.
func (h *AuthHandler) GitHubEnabled() bool { return h.github != nil }

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is the body of every successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// HandleSignup registers a new account.
//
// HTTP: POST /auth/signup
// REQUEST BODY: {"email": "...", "password": "..."}
// 201 {"access_token": "..."}; 400 on a bad body; 403 when the email is taken.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	email, password, err := h.readCredentials(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.auth.Signup(r.Context(), email, password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, TokenResponse{AccessToken: token})
}

// HandleSignin exchanges credentials for a token.
//
// HTTP: POST /auth/signin
// 200 {"access_token": "..."}; 400 on a bad body; 403 on bad credentials.
func (h *AuthHandler) HandleSignin(w http.ResponseWriter, r *http.Request) {
	email, password, err := h.readCredentials(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.auth.Signin(r.Context(), email, password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token})
}

func (h *AuthHandler) readCredentials(w http.ResponseWriter, r *http.Request) (string, string, error) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return "", "", err
	}
	email, err := validateEmail(req.Email)
	if err != nil {
		return "", "", err
	}
	if err := validatePassword(req.Password); err != nil {
		return "", "", err
	}
	return email, req.Password, nil
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// A random state goes into a short-lived HttpOnly cookie and into the
// authorization URL. The callback only proceeds when both match, which
// proves this server started the flow.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub user profile
//  3. Find or create the matching account and issue a token
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid OAuth state"})
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid OAuth state"})
		return
	}

	// The state is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "GitHub authorization was denied"})
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "missing OAuth code"})
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "authentication failed"})
		return
	}

	token, err := h.auth.LoginWithGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token})
}
