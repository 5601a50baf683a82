package repository

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(token).Error)
}

func (r *TokenRepository) FindActive(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token_hash = ? AND revoked = false", tokenHash).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *TokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}

func (r *TokenRepository) RevokeAllForAccount(ctx context.Context, accountID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("account_id = ? AND revoked = false", accountID).
		Update("revoked", true).Error
}

// DeleteExpired removes tokens that expired before cutoff.
func (r *TokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", cutoff).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
