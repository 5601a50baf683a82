package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

const pgUniqueViolation = "23505"

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) FindByEmailAndRole(ctx context.Context, email string, role models.Role) (*models.Account, error) {
	var a models.Account
	err := r.db.WithContext(ctx).Where("email = ? AND role = ?", email, role).First(&a).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var a models.Account
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// CreateAccount inserts a new row. Losing a race on (email, role) yields
// ErrDuplicate.
func (r *AccountRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *AccountRepository) UpdateAccount(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Account, error) {
	var updated models.Account
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Account{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.First(&updated, "id = ?", id).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &updated, nil
}

// DeleteAccount removes the row for good.
func (r *AccountRepository) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Account{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns accounts filtered by role and status; empty filters match all.
func (r *AccountRepository) List(ctx context.Context, role models.Role, status models.Status, limit, offset int) ([]models.Account, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Account{})
	if role != "" {
		q = q.Where("role = ?", role)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count accounts: %w", err)
	}

	var accounts []models.Account
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&accounts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, total, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
