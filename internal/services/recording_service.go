package services

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/dto"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrRecordingNotFound    = errors.New("recording not found")
	ErrAlreadyReviewed      = errors.New("recording has already been reviewed")
	ErrInvalidDecision      = errors.New("decision must be approve or reject")
	ErrMissingColumns       = errors.New("csv must have sentence and audio_url columns")
	ErrUploadNotConfigured  = errors.New("common voice bucket is not configured")
	ErrNoRecordingAvailable = errors.New("no recordings awaiting review")
)

const (
	defaultLocale = "en"
	maxAudioBytes = 20 << 20
)

// Uploader stores one object and returns its key.
type Uploader interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

type RecordingService struct {
	db         *gorm.DB
	uploader   Uploader
	httpClient *http.Client
	now        func() time.Time
}

func NewRecordingService(db *gorm.DB, uploader Uploader) *RecordingService {
	return &RecordingService{
		db:         db,
		uploader:   uploader,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

// CSVRecord is one parsed import row.
type CSVRecord struct {
	Line       int
	Sentence   string
	AudioURL   string
	Locale     string
	SpeakerRef string
}

func (r CSVRecord) ContentHash() string {
	return contentHash(r.Sentence, r.AudioURL)
}

func contentHash(sentence, audioURL string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(sentence) + "\x00" + strings.TrimSpace(audioURL)))
	return hex.EncodeToString(h[:])
}

// ParseRecordingsCSV reads a header row followed by recordings. Bad rows are
// reported with their 1-based line number and do not stop the parse.
func ParseRecordingsCSV(r io.Reader) ([]CSVRecord, []dto.RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, ErrMissingColumns
		}
		return nil, nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := cols["sentence"]; !ok {
		return nil, nil, ErrMissingColumns
	}
	if _, ok := cols["audio_url"]; !ok {
		return nil, nil, ErrMissingColumns
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var (
		records []CSVRecord
		rowErrs []dto.RowError
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				rowErrs = append(rowErrs, dto.RowError{Line: perr.Line, Message: perr.Err.Error()})
				continue
			}
			return nil, nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if isBlank(row) {
			continue
		}

		rec := CSVRecord{
			Line:       line,
			Sentence:   field(row, "sentence"),
			AudioURL:   field(row, "audio_url"),
			Locale:     field(row, "locale"),
			SpeakerRef: field(row, "speaker_ref"),
		}
		if rec.Sentence == "" {
			rowErrs = append(rowErrs, dto.RowError{Line: line, Message: "sentence is empty"})
			continue
		}
		if u, err := url.Parse(rec.AudioURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			rowErrs = append(rowErrs, dto.RowError{Line: line, Message: "audio_url must be an http(s) URL"})
			continue
		}
		if rec.Locale == "" {
			rec.Locale = defaultLocale
		}
		records = append(records, rec)
	}
	return records, rowErrs, nil
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// ImportCSV inserts parsed rows, skipping any whose content hash already
// exists in the table or earlier in the same file.
func (s *RecordingService) ImportCSV(ctx context.Context, r io.Reader) (*dto.ImportResult, error) {
	records, rowErrs, err := ParseRecordingsCSV(r)
	if err != nil {
		return nil, err
	}
	result := &dto.ImportResult{Errors: rowErrs}
	if result.Errors == nil {
		result.Errors = []dto.RowError{}
	}
	if len(records) == 0 {
		return result, nil
	}

	hashes := make([]string, 0, len(records))
	for _, rec := range records {
		hashes = append(hashes, rec.ContentHash())
	}

	var existing []string
	if err := s.db.WithContext(ctx).Model(&models.Recording{}).
		Where("content_hash IN ?", hashes).
		Pluck("content_hash", &existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing recordings: %w", err)
	}
	seen := make(map[string]bool, len(existing)+len(records))
	for _, h := range existing {
		seen[h] = true
	}

	rows := make([]models.Recording, 0, len(records))
	for i, rec := range records {
		if seen[hashes[i]] {
			result.Skipped++
			continue
		}
		seen[hashes[i]] = true
		rows = append(rows, models.Recording{
			ID:          uuid.New(),
			Sentence:    rec.Sentence,
			Locale:      rec.Locale,
			AudioURL:    rec.AudioURL,
			SpeakerRef:  rec.SpeakerRef,
			ContentHash: hashes[i],
			Status:      models.RecordingPending,
		})
	}

	if len(rows) > 0 {
		if err := s.db.WithContext(ctx).CreateInBatches(rows, 100).Error; err != nil {
			return nil, fmt.Errorf("failed to import recordings: %w", err)
		}
	}
	result.Imported = len(rows)

	slog.Info("recordings imported", "action", "csv_import", "imported", result.Imported, "skipped", result.Skipped, "row_errors", len(result.Errors))
	return result, nil
}

// CleanupDuplicates keeps the oldest recording per content hash and deletes
// the rest.
func (s *RecordingService) CleanupDuplicates(ctx context.Context) (int64, error) {
	var hashes []string
	if err := s.db.WithContext(ctx).Model(&models.Recording{}).
		Select("content_hash").
		Group("content_hash").
		Having("COUNT(*) > 1").
		Pluck("content_hash", &hashes).Error; err != nil {
		return 0, fmt.Errorf("failed to find duplicates: %w", err)
	}

	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, h := range hashes {
			var ids []uuid.UUID
			if err := tx.Model(&models.Recording{}).
				Where("content_hash = ?", h).
				Order("created_at ASC, id ASC").
				Pluck("id", &ids).Error; err != nil {
				return err
			}
			if len(ids) < 2 {
				continue
			}
			res := tx.Where("id IN ?", ids[1:]).Delete(&models.Recording{})
			if res.Error != nil {
				return res.Error
			}
			deleted += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete duplicates: %w", err)
	}

	slog.Info("duplicate recordings removed", "action", "dedupe", "deleted", deleted, "groups", len(hashes))
	return deleted, nil
}

func (s *RecordingService) NextForReview(ctx context.Context) (*models.Recording, error) {
	var rec models.Recording
	err := s.db.WithContext(ctx).
		Where("status = ?", models.RecordingPending).
		Order("created_at ASC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoRecordingAvailable
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recording: %w", err)
	}
	return &rec, nil
}

func ParseDecision(decision string) (models.RecordingStatus, error) {
	switch strings.ToLower(strings.TrimSpace(decision)) {
	case "approve", "approved":
		return models.RecordingApproved, nil
	case "reject", "rejected":
		return models.RecordingRejected, nil
	}
	return "", ErrInvalidDecision
}

// Review records a decision on a pending recording. Only the first decision
// sticks.
func (s *RecordingService) Review(ctx context.Context, id, reviewerID uuid.UUID, decision string) (*models.Recording, error) {
	status, err := ParseDecision(decision)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	res := s.db.WithContext(ctx).Model(&models.Recording{}).
		Where("id = ? AND status = ?", id, models.RecordingPending).
		Updates(map[string]any{
			"status":      status,
			"reviewed_by": reviewerID,
			"reviewed_at": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to record review: %w", res.Error)
	}

	var rec models.Recording
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordingNotFound
		}
		return nil, fmt.Errorf("failed to load recording: %w", err)
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyReviewed
	}
	return &rec, nil
}

type clipMetadata struct {
	ID         string    `json:"id"`
	Sentence   string    `json:"sentence"`
	Locale     string    `json:"locale"`
	SpeakerRef string    `json:"speaker_ref,omitempty"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// UploadApproved pushes approved, not yet uploaded clips to the bucket one at
// a time. A failing clip is reported and the batch moves on.
func (s *RecordingService) UploadApproved(ctx context.Context, limit int) (*dto.UploadResult, error) {
	if s.uploader == nil {
		return nil, ErrUploadNotConfigured
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	var pending []models.Recording
	if err := s.db.WithContext(ctx).
		Where("status = ? AND uploaded_at IS NULL", models.RecordingApproved).
		Order("reviewed_at ASC").
		Limit(limit).
		Find(&pending).Error; err != nil {
		return nil, fmt.Errorf("failed to load approved recordings: %w", err)
	}

	result := &dto.UploadResult{Failed: []dto.UploadFailure{}}
	for i := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rec := &pending[i]
		key, err := s.uploadOne(ctx, rec)
		if err != nil {
			slog.Error("clip upload failed", "action", "bucket_upload", "recording_id", rec.ID.String(), "error", err.Error())
			result.Failed = append(result.Failed, dto.UploadFailure{RecordingID: rec.ID.String(), Error: err.Error()})
			continue
		}
		if err := s.db.WithContext(ctx).Model(&models.Recording{}).
			Where("id = ?", rec.ID).
			Updates(map[string]any{"uploaded_at": s.now().UTC(), "bucket_key": key}).Error; err != nil {
			result.Failed = append(result.Failed, dto.UploadFailure{RecordingID: rec.ID.String(), Error: "uploaded but not marked: " + err.Error()})
			continue
		}
		result.Uploaded++
	}
	return result, nil
}

func (s *RecordingService) uploadOne(ctx context.Context, rec *models.Recording) (string, error) {
	audio, contentType, err := s.fetchAudio(ctx, rec.AudioURL)
	if err != nil {
		return "", err
	}

	name := rec.Locale + "/" + rec.ID.String() + audioExt(rec.AudioURL, contentType)
	key, err := s.uploader.Put(ctx, name, audio, contentType)
	if err != nil {
		return "", err
	}

	meta := clipMetadata{ID: rec.ID.String(), Sentence: rec.Sentence, Locale: rec.Locale, SpeakerRef: rec.SpeakerRef}
	if rec.ReviewedAt != nil {
		meta.ReviewedAt = *rec.ReviewedAt
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	if _, err := s.uploader.Put(ctx, rec.Locale+"/"+rec.ID.String()+".json", b, "application/json"); err != nil {
		return "", err
	}
	return key, nil
}

func (s *RecordingService) fetchAudio(ctx context.Context, audioURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("audio download returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read audio: %w", err)
	}
	if len(data) > maxAudioBytes {
		return nil, "", errors.New("audio exceeds size limit")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

func audioExt(audioURL, contentType string) string {
	if u, err := url.Parse(audioURL); err == nil {
		if ext := path.Ext(u.Path); ext != "" {
			return strings.ToLower(ext)
		}
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	case "audio/webm":
		return ".webm"
	}
	return ".bin"
}
