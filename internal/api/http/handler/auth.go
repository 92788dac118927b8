package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ndanilin/linkpage-server/internal/logger"
	"github.com/ndanilin/linkpage-server/internal/model"
	"github.com/ndanilin/linkpage-server/internal/service"
)

// AuthService is the auth surface consumed by the handler.
type AuthService interface {
	SignUp(ctx context.Context, params service.SignUpParams) (model.User, service.TokenPair, error)
	SignIn(ctx context.Context, username, password string) (model.User, service.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (service.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Auth handles signup, login, token refresh and logout.
type Auth struct {
	service AuthService
	logger  *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(service AuthService, logger *logger.Logger) *Auth {
	return &Auth{service: service, logger: logger}
}

type credentialsRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	DisplayName  string `json:"displayName"`
	PortfolioURL string `json:"portfolioUrl"`
}

type tokenResponse struct {
	Username     string `json:"username"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SignUp registers an account; the starter profile is persisted before the
// response is written, so the public page exists immediately.
func (h *Auth) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewValidationError("", "invalid request body"))
		return
	}

	user, pair, err := h.service.SignUp(r.Context(), service.SignUpParams{
		Username:     req.Username,
		Password:     req.Password,
		DisplayName:  req.DisplayName,
		PortfolioURL: req.PortfolioURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{
		Username:     user.Username,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// SignIn exchanges credentials for a token pair.
func (h *Auth) SignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewValidationError("", "invalid request body"))
		return
	}

	user, pair, err := h.service.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		Username:     user.Username,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh rotates a refresh token.
func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewValidationError("", "invalid request body"))
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout revokes a refresh token.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewValidationError("", "invalid request body"))
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
