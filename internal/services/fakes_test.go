package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/models"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/oauth"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type memAccounts struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*models.Account
}

func newMemAccounts(accounts ...*models.Account) *memAccounts {
	m := &memAccounts{byID: make(map[uuid.UUID]*models.Account)}
	for _, a := range accounts {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		m.byID[a.ID] = a
	}
	return m
}

func (m *memAccounts) FindByEmailAndRole(_ context.Context, email string, role models.Role) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Email == email && a.Role == role {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memAccounts) FindByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) CreateAccount(_ context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byID {
		if e.Email == a.Email && e.Role == a.Role {
			return repository.ErrDuplicate
		}
	}
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memAccounts) UpdateAccount(_ context.Context, id uuid.UUID, fields map[string]any) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "last_login_at":
			t := v.(time.Time)
			a.LastLoginAt = &t
		case "status":
			a.Status = v.(models.Status)
		case "is_active":
			a.IsActive = v.(bool)
		case "profile_complete":
			a.ProfileComplete = v.(bool)
		case "name":
			s := v.(string)
			a.Name = &s
		case "age":
			n := v.(int)
			a.Age = &n
		case "gender":
			s := v.(string)
			a.Gender = &s
		case "languages":
			a.Languages = v.(datatypes.JSON)
		case "native_language":
			a.NativeLanguage = v.(*string)
		case "accent":
			a.Accent = v.(*string)
		case "location":
			a.Location = v.(*string)
		}
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) DeleteAccount(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memAccounts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

func (m *memAccounts) List(_ context.Context, role models.Role, status models.Status, limit, offset int) ([]models.Account, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Account
	for _, a := range m.byID {
		if (role == "" || a.Role == role) && (status == "" || a.Status == status) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

type memTokens struct {
	mu        sync.Mutex
	byHash    map[string]*models.RefreshToken
	createErr error
}

func newMemTokens() *memTokens {
	return &memTokens{byHash: make(map[string]*models.RefreshToken)}
}

func (m *memTokens) Create(_ context.Context, t *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *t
	m.byHash[t.TokenHash] = &cp
	return nil
}

func (m *memTokens) FindActive(_ context.Context, hash string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byHash[hash]
	if !ok || t.Revoked {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTokens) Revoke(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.byHash[hash]; ok {
		t.Revoked = true
	}
	return nil
}

func (m *memTokens) RevokeAllForAccount(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byHash {
		if t.AccountID == id {
			t.Revoked = true
		}
	}
	return nil
}

func (m *memTokens) failCreate(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createErr = err
}

func (m *memTokens) activeFor(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.byHash {
		if t.AccountID == id && !t.Revoked {
			n++
		}
	}
	return n
}

type stubAdapter struct {
	provider oauth.Provider
	profile  oauth.Profile
}

func (s *stubAdapter) Provider() oauth.Provider { return s.provider }

func (s *stubAdapter) AuthCodeURL(state, _ string) string {
	return "https://provider.test/auth?state=" + state
}

func (s *stubAdapter) ExchangeCode(_ context.Context, code, _ string) (*oauth.Token, error) {
	if code == "bad" {
		return nil, &oauth.ProviderError{Provider: s.provider, Op: "exchange", StatusCode: 400, Payload: `{"error":"invalid_grant"}`}
	}
	return &oauth.Token{AccessToken: "at"}, nil
}

func (s *stubAdapter) FetchProfile(_ context.Context, _ *oauth.Token) (*oauth.Profile, error) {
	p := s.profile
	return &p, nil
}

func (s *stubAdapter) FetchEmails(_ context.Context, _ *oauth.Token) ([]oauth.EmailEntry, error) {
	return nil, nil
}
