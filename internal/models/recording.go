package models

import (
	"time"

	"github.com/google/uuid"
)

type RecordingStatus string

const (
	RecordingPending  RecordingStatus = "pending"
	RecordingApproved RecordingStatus = "approved"
	RecordingRejected RecordingStatus = "rejected"
)

// Recording is one imported voice clip awaiting or past review.
type Recording struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Sentence    string          `gorm:"type:text;not null" json:"sentence"`
	Locale      string          `gorm:"size:20;not null" json:"locale"`
	AudioURL    string          `gorm:"type:text;not null" json:"audio_url"`
	SpeakerRef  string          `gorm:"size:255" json:"speaker_ref"`
	ContentHash string          `gorm:"size:64;not null;index" json:"-"`
	Status      RecordingStatus `gorm:"size:20;not null;index" json:"status"`
	ReviewedBy  *uuid.UUID      `gorm:"type:uuid" json:"reviewed_by"`
	ReviewedAt  *time.Time      `json:"reviewed_at"`
	UploadedAt  *time.Time      `gorm:"index" json:"uploaded_at"`
	BucketKey   string          `gorm:"size:512" json:"bucket_key"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
