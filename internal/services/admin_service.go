package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/dto"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/models"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/oauth"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotReviewer    = errors.New("account is not a reviewer")
	ErrInvalidStatus  = errors.New("status must be active or rejected")
	ErrInvalidFilter  = errors.New("invalid role or status filter")
	ErrWeakPassword   = errors.New("password must be at least 12 characters")
	ErrSelfDeactivate = errors.New("cannot deactivate your own account")
)

type AdminService struct {
	accounts AccountRepository
	tokens   TokenRepository
	notifier *NotificationService
}

func NewAdminService(accounts AccountRepository, tokens TokenRepository, notifier *NotificationService) *AdminService {
	return &AdminService{accounts: accounts, tokens: tokens, notifier: notifier}
}

func (s *AdminService) ListAccounts(ctx context.Context, role, status string, page, limit int) (*dto.AccountListResponse, error) {
	r, st := models.Role(role), models.Status(status)
	if (r != "" && !r.Valid()) || (st != "" && !st.Valid()) {
		return nil, ErrInvalidFilter
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}

	accounts, total, err := s.accounts.List(ctx, r, st, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	resp := &dto.AccountListResponse{
		Accounts: make([]dto.AccountResponse, 0, len(accounts)),
		Total:    total,
		Page:     page,
		Limit:    limit,
	}
	for i := range accounts {
		resp.Accounts = append(resp.Accounts, dto.NewAccountResponse(&accounts[i]))
	}
	return resp, nil
}

// SetReviewerStatus approves or rejects a reviewer application and emails
// the reviewer. A failed email does not undo the status change.
func (s *AdminService) SetReviewerStatus(ctx context.Context, id uuid.UUID, status string) (*models.Account, error) {
	st := models.Status(status)
	if st != models.StatusActive && st != models.StatusRejected {
		return nil, ErrInvalidStatus
	}

	account, err := s.findAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.Role != models.RoleReviewer {
		return nil, ErrNotReviewer
	}
	if account.Status == st {
		return account, nil
	}

	updated, err := s.accounts.UpdateAccount(ctx, id, map[string]any{"status": st})
	if err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	if st == models.StatusRejected {
		if err := s.tokens.RevokeAllForAccount(ctx, id); err != nil {
			slog.Error("failed to revoke sessions", "account_id", id.String(), "error", err.Error())
		}
	}

	slog.Info("reviewer status changed", "account_id", id.String(), "from", string(account.Status), "to", string(st))
	if s.notifier != nil {
		if err := s.notifier.StatusChanged(ctx, updated); err != nil {
			slog.Error("status notification failed", "account_id", id.String(), "error", err.Error())
		}
	}
	return updated, nil
}

func (s *AdminService) SetActive(ctx context.Context, actorID, id uuid.UUID, active bool) (*models.Account, error) {
	if !active && actorID == id {
		return nil, ErrSelfDeactivate
	}
	if _, err := s.findAccount(ctx, id); err != nil {
		return nil, err
	}

	updated, err := s.accounts.UpdateAccount(ctx, id, map[string]any{"is_active": active})
	if err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	if !active {
		if err := s.tokens.RevokeAllForAccount(ctx, id); err != nil {
			slog.Error("failed to revoke sessions", "account_id", id.String(), "error", err.Error())
		}
	}
	return updated, nil
}

// EnsureAdmin creates the admin account for email if it does not exist yet.
func (s *AdminService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = oauth.NormalizeEmail(email)
	if len(password) < 12 {
		return false, ErrWeakPassword
	}

	_, err := s.accounts.FindByEmailAndRole(ctx, email, models.RoleAdmin)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		ID:              uuid.New(),
		Email:           email,
		Role:            models.RoleAdmin,
		Status:          models.StatusActive,
		IsActive:        true,
		ProfileComplete: true,
		Password:        string(hash),
		AuthProvider:    "password",
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create admin: %w", err)
	}
	return true, nil
}

func (s *AdminService) findAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return account, nil
}
