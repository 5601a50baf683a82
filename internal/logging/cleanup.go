package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/models"
	"gorm.io/gorm"
)

// ExpiredTokenDeleter is satisfied by repository.TokenRepository.
type ExpiredTokenDeleter interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type Cleanup struct {
	db            *gorm.DB
	tokens        ExpiredTokenDeleter
	retentionDays int
}

func NewCleanup(db *gorm.DB, tokens ExpiredTokenDeleter, retentionDays int) *Cleanup {
	return &Cleanup{db: db, tokens: tokens, retentionDays: retentionDays}
}

// RunOnce deletes system_logs past retention and refresh tokens that have
// expired.
func (c *Cleanup) RunOnce(ctx context.Context, now time.Time) {
	cutoff := now.AddDate(0, 0, -c.retentionDays)
	result := c.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		slog.Error("log cleanup failed", "action", "log_cleanup", "error", result.Error.Error())
	} else if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "action", "log_cleanup", "deleted", result.RowsAffected)
	}

	if c.tokens == nil {
		return
	}
	deleted, err := c.tokens.DeleteExpired(ctx, now)
	if err != nil {
		slog.Error("token cleanup failed", "action", "token_cleanup", "error", err.Error())
	} else if deleted > 0 {
		slog.Info("expired refresh tokens deleted", "action", "token_cleanup", "deleted", deleted)
	}
}

// Start runs RunOnce daily until done is closed.
func (c *Cleanup) Start(done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.RunOnce(context.Background(), time.Now())
			case <-done:
				return
			}
		}
	}()
}
