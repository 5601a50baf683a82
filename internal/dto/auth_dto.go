package dto

import (
	"encoding/json"
	"time"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/models"
	"github.com/google/uuid"
)

type OAuthStartResponse struct {
	Provider string `json:"provider"`
	URL      string `json:"url"`
	State    string `json:"state"`
}

type OAuthSignInRequest struct {
	Code        string `json:"code"`
	State       string `json:"state"`
	Role        string `json:"role"`
	RedirectURI string `json:"redirect_uri,omitempty"`
}

type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	Success      bool            `json:"success"`
	IsNewUser    bool            `json:"is_new_user"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	User         AccountResponse `json:"user"`
}

type AccountResponse struct {
	ID              uuid.UUID       `json:"id"`
	Email           string          `json:"email"`
	Role            models.Role     `json:"role"`
	Status          models.Status   `json:"status"`
	IsActive        bool            `json:"is_active"`
	ProfileComplete bool            `json:"profile_complete"`
	Name            *string         `json:"name"`
	Age             *int            `json:"age"`
	Gender          *string         `json:"gender"`
	Languages       json.RawMessage `json:"languages"`
	NativeLanguage  *string         `json:"native_language"`
	Accent          *string         `json:"accent"`
	Location        *string         `json:"location"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	LastLoginAt     *time.Time      `json:"last_login_at"`
}

func NewAccountResponse(a *models.Account) AccountResponse {
	resp := AccountResponse{
		ID:              a.ID,
		Email:           a.Email,
		Role:            a.Role,
		Status:          a.Status,
		IsActive:        a.IsActive,
		ProfileComplete: a.ProfileComplete,
		Name:            a.Name,
		Age:             a.Age,
		Gender:          a.Gender,
		NativeLanguage:  a.NativeLanguage,
		Accent:          a.Accent,
		Location:        a.Location,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		LastLoginAt:     a.LastLoginAt,
	}
	if len(a.Languages) > 0 {
		resp.Languages = json.RawMessage(a.Languages)
	} else {
		resp.Languages = json.RawMessage("null")
	}
	return resp
}

type ErrorResponse struct {
	Error     bool   `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	Detail    any    `json:"detail,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
