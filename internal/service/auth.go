package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ndanilin/linkpage-server/internal/logger"
	"github.com/ndanilin/linkpage-server/internal/model"
)

const minPasswordLength = 4

// Auth handles signup, login and session token issuance. Signup also seeds
// the new user's starter profile so the public page exists before the first
// explicit save.
type Auth struct {
	userStore    model.UserStore
	profileStore model.ProfileStore
	tokenService *TokenService
	logger       *logger.Logger
}

func NewAuth(
	userStore model.UserStore,
	profileStore model.ProfileStore,
	refreshTokenStore model.RefreshTokenStore,
	tokenManager model.TokenManager,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		userStore:    userStore,
		profileStore: profileStore,
		tokenService: NewTokenService(tokenManager, refreshTokenStore, logger),
		logger:       logger,
	}
}

// SignUpParams are the inputs for account creation.
type SignUpParams struct {
	Username     string
	Password     string
	DisplayName  string
	PortfolioURL string
}

// SignUp registers a new account, persists its starter profile and returns
// a token pair (auto-login).
func (a *Auth) SignUp(ctx context.Context, params SignUpParams) (model.User, TokenPair, error) {
	username := model.NormalizeUsername(params.Username)
	if err := model.ValidateUsername(username); err != nil {
		return model.User{}, TokenPair{}, err
	}
	if len(params.Password) < minPasswordLength {
		return model.User{}, TokenPair{}, model.NewValidationError("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, TokenPair{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := a.userStore.Create(ctx, model.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, model.ErrUsernameTaken) {
			return model.User{}, TokenPair{}, model.ErrUsernameTaken
		}
		return model.User{}, TokenPair{}, fmt.Errorf("failed to create user: %w", err)
	}

	starter := model.StarterRecord(username, params.DisplayName, params.PortfolioURL, uuid.NewString)
	if err := a.profileStore.Save(ctx, username, starter); err != nil {
		// The account exists either way; the editor synthesizes a default
		// record on first load.
		a.logger.Error("failed to persist starter profile",
			"username", username,
			"error", err.Error())
	}

	pair, err := a.tokenService.Issue(ctx, user)
	if err != nil {
		return model.User{}, TokenPair{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	a.logger.Info("user signed up", "username", username)

	return user, pair, nil
}

// SignIn verifies credentials and returns a token pair. Unknown usernames
// and wrong passwords are indistinguishable to the caller.
func (a *Auth) SignIn(ctx context.Context, username, password string) (model.User, TokenPair, error) {
	username = model.NormalizeUsername(username)

	user, err := a.userStore.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, TokenPair{}, model.ErrInvalidCredentials
		}
		return model.User{}, TokenPair{}, fmt.Errorf("failed to get user by username: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return model.User{}, TokenPair{}, model.ErrInvalidCredentials
	}

	pair, err := a.tokenService.Issue(ctx, user)
	if err != nil {
		return model.User{}, TokenPair{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	a.logger.Info("user signed in", "username", username)

	return user, pair, nil
}

// Refresh rotates a refresh token and returns a fresh pair.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	return a.tokenService.Refresh(ctx, refreshToken)
}

// Logout revokes a refresh token.
func (a *Auth) Logout(ctx context.Context, refreshToken string) error {
	return a.tokenService.RevokeByToken(ctx, refreshToken)
}

// TokenService exposes the composed token service for middleware wiring.
func (a *Auth) TokenService() *TokenService {
	return a.tokenService
}
