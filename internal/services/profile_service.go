package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/dto"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/models"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var ErrInvalidProfile = errors.New("invalid profile")

type ProfileService struct {
	accounts AccountRepository
}

func NewProfileService(accounts AccountRepository) *ProfileService {
	return &ProfileService{accounts: accounts}
}

func (s *ProfileService) Me(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return account, nil
}

// CompleteProfile stores the onboarding demographics and marks the profile
// complete. Optional fields left blank are stored as null.
func (s *ProfileService) CompleteProfile(ctx context.Context, id uuid.UUID, req *dto.CompleteProfileRequest) (*models.Account, error) {
	fields, err := profileFields(req)
	if err != nil {
		return nil, err
	}

	updated, err := s.accounts.UpdateAccount(ctx, id, fields)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return updated, nil
}

func profileFields(req *dto.CompleteProfileRequest) (map[string]any, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if req.Age < 13 || req.Age > 120 {
		return nil, fmt.Errorf("%w: age must be between 13 and 120", ErrInvalidProfile)
	}
	gender := strings.TrimSpace(req.Gender)
	if gender == "" {
		return nil, fmt.Errorf("%w: gender is required", ErrInvalidProfile)
	}

	langs := make([]string, 0, len(req.Languages))
	seen := make(map[string]bool)
	for _, l := range req.Languages {
		l = strings.TrimSpace(l)
		if l == "" || seen[strings.ToLower(l)] {
			continue
		}
		seen[strings.ToLower(l)] = true
		langs = append(langs, l)
	}
	if len(langs) == 0 {
		return nil, fmt.Errorf("%w: at least one language is required", ErrInvalidProfile)
	}
	langJSON, err := json.Marshal(langs)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"name":             name,
		"age":              req.Age,
		"gender":           gender,
		"languages":        datatypes.JSON(langJSON),
		"native_language":  optional(req.NativeLanguage),
		"accent":           optional(req.Accent),
		"location":         optional(req.Location),
		"profile_complete": true,
	}, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
