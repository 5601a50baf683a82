// Package identity resolves an OAuth sign-in into an account: it trades the
// provider code for an email, then either signs the matching account in or
// provisions a pending reviewer.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/models"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/oauth"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/repository"
	"github.com/google/uuid"
)

type AccountStore interface {
	FindByEmailAndRole(ctx context.Context, email string, role models.Role) (*models.Account, error)
	CreateAccount(ctx context.Context, account *models.Account) error
	UpdateAccount(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Account, error)
}

type Result struct {
	User      *models.Account
	IsNewUser bool
}

type Resolver struct {
	adapters oauth.Registry
	store    AccountStore
	gates    []Gate
	now      func() time.Time
}

func NewResolver(adapters oauth.Registry, store AccountStore) *Resolver {
	return &Resolver{
		adapters: adapters,
		store:    store,
		gates:    SignInGates,
		now:      time.Now,
	}
}

// Authenticate runs the full sign-in for one provider code. Every failure is
// an *Error.
func (r *Resolver) Authenticate(ctx context.Context, provider oauth.Provider, code string, role models.Role, redirectURI string) (*Result, error) {
	if strings.TrimSpace(code) == "" {
		return nil, newError(KindInvalidInput, "authorization code is required")
	}
	if role != models.RoleReviewer {
		return nil, newError(KindInvalidInput, "invalid role: only reviewer accounts can sign in with a provider")
	}
	adapter, ok := r.adapters.Get(provider)
	if !ok {
		return nil, newError(KindInvalidInput, "unsupported provider: "+string(provider))
	}

	token, err := adapter.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return nil, providerFailure("failed to exchange authorization code", provider, err)
	}

	profile, err := adapter.FetchProfile(ctx, token)
	if err != nil {
		return nil, providerFailure("failed to fetch provider profile", provider, err)
	}

	email := oauth.NormalizeEmail(profile.Email)
	if email == "" {
		entries, err := adapter.FetchEmails(ctx, token)
		if err != nil {
			return nil, providerFailure("failed to fetch provider emails", provider, err)
		}
		email = oauth.NormalizeEmail(oauth.SelectEmail(entries))
	}
	if email == "" {
		return nil, newError(KindNoEmailAvailable, "no email address is available from "+string(provider))
	}

	existing, err := r.store.FindByEmailAndRole(ctx, email, role)
	switch {
	case err == nil:
		return r.signIn(ctx, existing)
	case errors.Is(err, repository.ErrNotFound):
		return r.provision(ctx, provider, email, role, profile)
	default:
		return nil, storeError("failed to look up account", err)
	}
}

func (r *Resolver) signIn(ctx context.Context, account *models.Account) (*Result, error) {
	if gate := CheckGates(r.gates, account); gate != nil {
		slog.Info("oauth sign-in refused", "account_id", account.ID.String(), "gate", gate.Name)
		return nil, newError(gate.Kind, gate.Message)
	}

	updated, err := r.store.UpdateAccount(ctx, account.ID, map[string]any{
		"last_login_at": r.now().UTC(),
	})
	if err != nil {
		return nil, storeError("failed to record login", err)
	}
	return &Result{User: updated, IsNewUser: false}, nil
}

func (r *Resolver) provision(ctx context.Context, provider oauth.Provider, email string, role models.Role, profile *oauth.Profile) (*Result, error) {
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = strings.Split(email, "@")[0]
	}

	account := &models.Account{
		ID:              uuid.New(),
		Email:           email,
		Role:            role,
		Status:          models.StatusPending,
		IsActive:        true,
		ProfileComplete: false,
		Password:        "",
		AuthProvider:    string(provider),
		ProviderUserID:  profile.ProviderUserID,
		Name:            &name,
	}
	if err := r.store.CreateAccount(ctx, account); err != nil {
		return nil, storeError("failed to create account", err)
	}

	slog.Info("reviewer account provisioned", "account_id", account.ID.String(), "provider", string(provider))
	return &Result{User: account, IsNewUser: true}, nil
}

func providerFailure(msg string, provider oauth.Provider, err error) *Error {
	e := &Error{Kind: KindProviderExchangeFailed, Message: msg, Err: err, Retryable: true}

	var perr *oauth.ProviderError
	if errors.As(err, &perr) {
		e.Detail = perr.RawPayload()
		e.Retryable = perr.Transient()
	}
	slog.Warn("oauth provider call failed", "provider", string(provider), "error", err.Error(), "retryable", e.Retryable)
	return e
}
