package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/models"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingMailer struct {
	sent []Message
	err  error
}

func (m *recordingMailer) Name() string { return "recording" }

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func pendingReviewer() *models.Account {
	name := "Ada"
	return &models.Account{
		ID:       uuid.New(),
		Email:    "ada@example.com",
		Role:     models.RoleReviewer,
		Status:   models.StatusPending,
		IsActive: true,
		Name:     &name,
	}
}

func TestSetReviewerStatus_ApproveNotifies(t *testing.T) {
	reviewer := pendingReviewer()
	mailer := &recordingMailer{}
	svc := NewAdminService(newMemAccounts(reviewer), newMemTokens(), NewNotificationService(mailer))

	updated, err := svc.SetReviewerStatus(context.Background(), reviewer.ID, "active")
	require.NoError(t, err)

	assert.Equal(t, models.StatusActive, updated.Status)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ada@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Body, "Hi Ada")
}

func TestSetReviewerStatus_RejectRevokesSessions(t *testing.T) {
	ctx := context.Background()
	reviewer := pendingReviewer()
	tokens := newMemTokens()
	require.NoError(t, tokens.Create(ctx, &models.RefreshToken{ID: uuid.New(), AccountID: reviewer.ID, TokenHash: "h1"}))
	svc := NewAdminService(newMemAccounts(reviewer), tokens, NewNotificationService(LogMailer{}))

	updated, err := svc.SetReviewerStatus(ctx, reviewer.ID, "rejected")
	require.NoError(t, err)

	assert.Equal(t, models.StatusRejected, updated.Status)
	assert.Equal(t, 0, tokens.activeFor(reviewer.ID))
}

func TestSetReviewerStatus_NotificationFailureKeepsChange(t *testing.T) {
	reviewer := pendingReviewer()
	accounts := newMemAccounts(reviewer)
	svc := NewAdminService(accounts, newMemTokens(), NewNotificationService(&recordingMailer{err: errors.New("smtp down")}))

	_, err := svc.SetReviewerStatus(context.Background(), reviewer.ID, "active")
	require.NoError(t, err)

	stored, err := accounts.FindByID(context.Background(), reviewer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, stored.Status)
}

func TestSetReviewerStatus_Validation(t *testing.T) {
	ctx := context.Background()
	reviewer := pendingReviewer()
	admin := &models.Account{ID: uuid.New(), Email: "admin@example.com", Role: models.RoleAdmin, Status: models.StatusActive, IsActive: true}
	svc := NewAdminService(newMemAccounts(reviewer, admin), newMemTokens(), nil)

	_, err := svc.SetReviewerStatus(ctx, reviewer.ID, "pending")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.SetReviewerStatus(ctx, admin.ID, "rejected")
	assert.ErrorIs(t, err, ErrNotReviewer)

	_, err = svc.SetReviewerStatus(ctx, uuid.New(), "active")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSetReviewerStatus_UnchangedSkipsNotification(t *testing.T) {
	reviewer := pendingReviewer()
	reviewer.Status = models.StatusActive
	mailer := &recordingMailer{}
	svc := NewAdminService(newMemAccounts(reviewer), newMemTokens(), NewNotificationService(mailer))

	_, err := svc.SetReviewerStatus(context.Background(), reviewer.ID, "active")
	require.NoError(t, err)
	assert.Empty(t, mailer.sent)
}

func TestSetActive(t *testing.T) {
	ctx := context.Background()
	reviewer := pendingReviewer()
	actor := uuid.New()
	tokens := newMemTokens()
	require.NoError(t, tokens.Create(ctx, &models.RefreshToken{ID: uuid.New(), AccountID: reviewer.ID, TokenHash: "h1"}))
	svc := NewAdminService(newMemAccounts(reviewer), tokens, nil)

	updated, err := svc.SetActive(ctx, actor, reviewer.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, 0, tokens.activeFor(reviewer.ID))

	updated, err = svc.SetActive(ctx, actor, reviewer.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.IsActive)

	_, err = svc.SetActive(ctx, actor, actor, false)
	assert.ErrorIs(t, err, ErrSelfDeactivate)
}

func TestListAccounts(t *testing.T) {
	a := pendingReviewer()
	b := pendingReviewer()
	b.ID, b.Email, b.Status = uuid.New(), "bob@example.com", models.StatusActive
	svc := NewAdminService(newMemAccounts(a, b), newMemTokens(), nil)
	ctx := context.Background()

	resp, err := svc.ListAccounts(ctx, "reviewer", "pending", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.Limit)
	require.Len(t, resp.Accounts, 1)
	assert.Equal(t, "ada@example.com", resp.Accounts[0].Email)

	resp, err = svc.ListAccounts(ctx, "", "", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
	require.Len(t, resp.Accounts, 1)
	assert.Equal(t, "bob@example.com", resp.Accounts[0].Email)

	_, err = svc.ListAccounts(ctx, "superuser", "", 1, 10)
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestEnsureAdmin(t *testing.T) {
	accounts := newMemAccounts()
	svc := NewAdminService(accounts, newMemTokens(), nil)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "Root@Example.com", "a-long-enough-password")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdmin(ctx, "root@example.com", "a-long-enough-password")
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := accounts.FindByEmailAndRole(ctx, "root@example.com", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, admin.Status)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("a-long-enough-password")))

	_, err = accounts.FindByEmailAndRole(ctx, "root@example.com", models.RoleReviewer)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.EnsureAdmin(ctx, "other@example.com", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}
