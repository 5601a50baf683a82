package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/config"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/dto"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/identity"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/models"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/oauth"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrAccountNotFound    = errors.New("account not found")
)

type AccountRepository interface {
	identity.AccountStore
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, role models.Role, status models.Status, limit, offset int) ([]models.Account, int64, error)
}

type TokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindActive(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) error
	RevokeAllForAccount(ctx context.Context, accountID uuid.UUID) error
}

type AuthService struct {
	cfg      *config.Config
	resolver *identity.Resolver
	adapters oauth.Registry
	states   oauth.StateStore
	accounts AccountRepository
	tokens   TokenRepository
	now      func() time.Time
}

func NewAuthService(cfg *config.Config, adapters oauth.Registry, states oauth.StateStore, accounts AccountRepository, tokens TokenRepository) *AuthService {
	return &AuthService{
		cfg:      cfg,
		resolver: identity.NewResolver(adapters, accounts),
		adapters: adapters,
		states:   states,
		accounts: accounts,
		tokens:   tokens,
		now:      time.Now,
	}
}

func invalidInput(msg string) *identity.Error {
	return &identity.Error{Kind: identity.KindInvalidInput, Message: msg}
}

// OAuthStart issues a state token and returns the provider consent URL.
func (s *AuthService) OAuthStart(ctx context.Context, provider oauth.Provider, role models.Role, redirectURI string) (*dto.OAuthStartResponse, error) {
	if role != models.RoleReviewer {
		return nil, invalidInput("invalid role: only reviewer accounts can sign in with a provider")
	}
	adapter, ok := s.adapters.Get(provider)
	if !ok {
		return nil, invalidInput("unsupported provider: " + string(provider))
	}

	state, err := s.states.Issue(ctx, provider, role)
	if err != nil {
		return nil, &identity.Error{Kind: identity.KindStoreFailure, Message: "failed to start sign-in", Retryable: true, Err: err}
	}

	return &dto.OAuthStartResponse{
		Provider: string(provider),
		URL:      adapter.AuthCodeURL(state, redirectURI),
		State:    state,
	}, nil
}

// OAuthSignIn checks the state token, resolves the identity, and issues a
// session. Failures are *identity.Error values.
func (s *AuthService) OAuthSignIn(ctx context.Context, provider oauth.Provider, req *dto.OAuthSignInRequest) (*dto.AuthResponse, error) {
	role := models.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if req.State == "" {
		return nil, invalidInput("state is required")
	}

	entry, err := s.states.Consume(ctx, req.State)
	if err != nil {
		if errors.Is(err, oauth.ErrStateNotFound) {
			return nil, invalidInput("sign-in session expired, please start again")
		}
		return nil, &identity.Error{Kind: identity.KindStoreFailure, Message: "failed to verify sign-in state", Retryable: true, Err: err}
	}
	if entry.Provider != provider || entry.Role != role {
		return nil, invalidInput("state does not match this sign-in request")
	}

	result, err := s.resolver.Authenticate(ctx, provider, req.Code, role, req.RedirectURI)
	if err != nil {
		return nil, err
	}

	resp, err := s.generateTokenPair(ctx, result.User)
	if err != nil {
		if result.IsNewUser {
			s.discardProvisioned(ctx, result.User)
		}
		return nil, &identity.Error{Kind: identity.KindStoreFailure, Message: "failed to create session", Retryable: true, Err: err}
	}
	resp.IsNewUser = result.IsNewUser

	slog.Info("oauth sign-in", "account_id", result.User.ID.String(), "provider", string(provider), "new_user", result.IsNewUser)
	return resp, nil
}

// discardProvisioned removes an account that was created for a sign-in that
// then failed to get a session, so a retry provisions it again.
func (s *AuthService) discardProvisioned(ctx context.Context, account *models.Account) {
	if err := s.accounts.DeleteAccount(context.WithoutCancel(ctx), account.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		slog.Error("failed to discard provisioned account", "account_id", account.ID.String(), "action", "oauth_sign_in", "error", err.Error())
	}
}

// AdminLogin is the password path for admin accounts; OAuth never signs
// admins in.
func (s *AuthService) AdminLogin(ctx context.Context, req *dto.AdminLoginRequest) (*dto.AuthResponse, error) {
	email := oauth.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.accounts.FindByEmailAndRole(ctx, email, models.RoleAdmin)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}
	if account.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, ErrAccountDisabled
	}

	updated, err := s.accounts.UpdateAccount(ctx, account.ID, map[string]any{"last_login_at": s.now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	return s.generateTokenPair(ctx, updated)
}

func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	if req.RefreshToken == "" {
		return nil, ErrInvalidToken
	}
	tokenHash := hashToken(req.RefreshToken)

	stored, err := s.tokens.FindActive(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	if err := s.tokens.Revoke(ctx, tokenHash); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	if s.now().After(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	account, err := s.accounts.FindByID(ctx, stored.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if !account.IsActive || account.Status == models.StatusRejected {
		return nil, ErrAccountDisabled
	}

	return s.generateTokenPair(ctx, account)
}

func (s *AuthService) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	if req.RefreshToken == "" {
		return nil
	}
	return s.tokens.Revoke(ctx, hashToken(req.RefreshToken))
}

func (s *AuthService) generateTokenPair(ctx context.Context, account *models.Account) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(account)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, account)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		Success:      true,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         dto.NewAccountResponse(account),
	}, nil
}

func (s *AuthService) generateAccessToken(account *models.Account) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":    account.ID.String(),
		"email":  account.Email,
		"role":   string(account.Role),
		"status": string(account.Status),
		"iat":    now.Unix(),
		"exp":    now.Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, account *models.Account) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)

	record := models.RefreshToken{
		ID:        uuid.New(),
		AccountID: account.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: s.now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.tokens.Create(ctx, &record); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
