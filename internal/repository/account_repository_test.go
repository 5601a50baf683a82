package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

var accountColumns = []string{"id", "email", "role", "status", "is_active", "profile_complete", "password", "created_at", "updated_at"}

func TestFindByEmailAndRole(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE .*email = \$1 AND role = \$2`).
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow(id.String(), "x@y.com", "reviewer", "active", true, false, "", now, now))

	a, err := repo.FindByEmailAndRole(context.Background(), "x@y.com", models.RoleReviewer)
	require.NoError(t, err)
	assert.Equal(t, id, a.ID)
	assert.Equal(t, models.StatusActive, a.Status)
	assert.True(t, a.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmailAndRoleNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "accounts"`).
		WillReturnRows(sqlmock.NewRows(accountColumns))

	_, err := repo.FindByEmailAndRole(context.Background(), "nobody@y.com", models.RoleReviewer)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccountUniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)

	mock.ExpectExec(`INSERT INTO "accounts"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_accounts_email_role"})

	err := repo.CreateAccount(context.Background(), &models.Account{
		Email:  "x@y.com",
		Role:   models.RoleReviewer,
		Status: models.StatusPending,
	})
	assert.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAccountMissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "accounts" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.UpdateAccount(context.Background(), uuid.New(), map[string]any{"last_login_at": time.Now()})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAccountRemovesRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM "accounts" WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "accounts"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteAccount(context.Background(), id))
	assert.ErrorIs(t, repo.DeleteAccount(context.Background(), uuid.New()), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, translate(gorm.ErrDuplicatedKey), ErrDuplicate)
	assert.ErrorIs(t, translate(&pgconn.PgError{Code: "23505"}), ErrDuplicate)

	other := &pgconn.PgError{Code: "40001"}
	assert.Equal(t, other, translate(other))
}
