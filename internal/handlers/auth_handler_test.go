package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/config"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/models"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/oauth"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/repository"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accountStore struct {
	mu        sync.Mutex
	accounts  map[uuid.UUID]*models.Account
	lookupErr error
}

func (s *accountStore) FindByEmailAndRole(_ context.Context, email string, role models.Role) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	for _, a := range s.accounts {
		if a.Email == email && a.Role == role {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *accountStore) FindByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (s *accountStore) CreateAccount(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.accounts[a.ID] = &cp
	return nil
}

func (s *accountStore) UpdateAccount(_ context.Context, id uuid.UUID, fields map[string]any) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if t, ok := fields["last_login_at"].(time.Time); ok {
		a.LastLoginAt = &t
	}
	cp := *a
	return &cp, nil
}

func (s *accountStore) DeleteAccount(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, id)
	return nil
}

func (s *accountStore) List(context.Context, models.Role, models.Status, int, int) ([]models.Account, int64, error) {
	return nil, 0, nil
}

type tokenStore struct{}

func (tokenStore) Create(context.Context, *models.RefreshToken) error { return nil }
func (tokenStore) FindActive(context.Context, string) (*models.RefreshToken, error) {
	return nil, repository.ErrNotFound
}
func (tokenStore) Revoke(context.Context, string) error                 { return nil }
func (tokenStore) RevokeAllForAccount(context.Context, uuid.UUID) error { return nil }

func newGitHubServer(t *testing.T, tokenStatus int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/login/oauth/access_token":
			if tokenStatus != http.StatusOK {
				w.WriteHeader(tokenStatus)
				_, _ = io.WriteString(w, `{"error":"bad_verification_code"}`)
				return
			}
			_, _ = io.WriteString(w, `{"access_token":"gho_test","token_type":"bearer"}`)
		case "/user":
			_, _ = io.WriteString(w, `{"id":7,"login":"octo","name":"Octo Cat","email":"Octo@Example.com"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, store *accountStore, tokenStatus int) *fiber.App {
	t.Helper()
	srv := newGitHubServer(t, tokenStatus)
	gh := oauth.NewGitHubAdapter(oauth.GitHubConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		AuthURL:      srv.URL + "/login/oauth/authorize",
		TokenURL:     srv.URL + "/login/oauth/access_token",
		UserURL:      srv.URL + "/user",
		EmailsURL:    srv.URL + "/user/emails",
	})
	cfg := &config.Config{JWTSecret: "handler-test-secret", JWTAccessExpiry: time.Minute, JWTRefreshExpiry: time.Hour}
	svc := services.NewAuthService(cfg, oauth.NewRegistry(gh), oauth.NewMemoryStateStore(time.Minute), store, tokenStore{})
	h := NewAuthHandler(svc)

	app := fiber.New()
	app.Get("/api/auth/oauth/:provider/start", h.OAuthStart)
	app.Post("/api/auth/oauth/:provider", h.OAuthSignIn)
	app.Post("/api/auth/admin/login", h.AdminLogin)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func startState(t *testing.T, app *fiber.App) string {
	t.Helper()
	status, body := doJSON(t, app, http.MethodGet, "/api/auth/oauth/github/start?role=reviewer", "")
	require.Equal(t, http.StatusOK, status)
	return body["state"].(string)
}

func TestOAuthStart_UnknownProvider(t *testing.T) {
	app := newTestApp(t, &accountStore{accounts: map[uuid.UUID]*models.Account{}}, http.StatusOK)

	status, body := doJSON(t, app, http.MethodGet, "/api/auth/oauth/facebook/start", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "InvalidInput", body["kind"])
}

func TestOAuthStart_ReturnsConsentURL(t *testing.T) {
	app := newTestApp(t, &accountStore{accounts: map[uuid.UUID]*models.Account{}}, http.StatusOK)

	status, body := doJSON(t, app, http.MethodGet, "/api/auth/oauth/github/start", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "github", body["provider"])
	assert.Contains(t, body["url"], "state="+body["state"].(string))
}

func TestOAuthSignIn_ProvisionsThenRefusesPending(t *testing.T) {
	app := newTestApp(t, &accountStore{accounts: map[uuid.UUID]*models.Account{}}, http.StatusOK)

	state := startState(t, app)
	status, body := doJSON(t, app, http.MethodPost, "/api/auth/oauth/github",
		`{"code":"abc","state":"`+state+`","role":"reviewer"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, body["is_new_user"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "octo@example.com", user["email"])
	assert.Equal(t, "pending", user["status"])
	assert.NotEmpty(t, body["access_token"])

	state = startState(t, app)
	status, body = doJSON(t, app, http.MethodPost, "/api/auth/oauth/github",
		`{"code":"abc","state":"`+state+`","role":"reviewer"}`)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "PendingApproval", body["kind"])
	assert.Equal(t, false, body["retryable"])
}

func TestOAuthSignIn_ProviderRejectionCarriesPayload(t *testing.T) {
	app := newTestApp(t, &accountStore{accounts: map[uuid.UUID]*models.Account{}}, http.StatusBadRequest)

	state := startState(t, app)
	status, body := doJSON(t, app, http.MethodPost, "/api/auth/oauth/github",
		`{"code":"abc","state":"`+state+`","role":"reviewer"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ProviderExchangeFailed", body["kind"])
	assert.Equal(t, false, body["retryable"])
	detail := body["detail"].(map[string]any)
	assert.Equal(t, "bad_verification_code", detail["error"])
}

func TestOAuthSignIn_StoreFailureIsRetryable(t *testing.T) {
	store := &accountStore{accounts: map[uuid.UUID]*models.Account{}, lookupErr: errors.New("connection reset")}
	app := newTestApp(t, store, http.StatusOK)

	state := startState(t, app)
	status, body := doJSON(t, app, http.MethodPost, "/api/auth/oauth/github",
		`{"code":"abc","state":"`+state+`","role":"reviewer"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "StoreFailure", body["kind"])
	assert.Equal(t, true, body["retryable"])
	assert.NotContains(t, body["message"], "connection reset")
}

func TestOAuthSignIn_AdminRoleRejected(t *testing.T) {
	app := newTestApp(t, &accountStore{accounts: map[uuid.UUID]*models.Account{}}, http.StatusOK)

	state := startState(t, app)
	status, body := doJSON(t, app, http.MethodPost, "/api/auth/oauth/github",
		`{"code":"abc","state":"`+state+`","role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "InvalidInput", body["kind"])
}

func TestAdminLogin_BadCredentials(t *testing.T) {
	app := newTestApp(t, &accountStore{accounts: map[uuid.UUID]*models.Account{}}, http.StatusOK)

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/admin/login", `{"email":"a@b.c","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, services.ErrInvalidCredentials.Error(), body["message"])
}

func TestAdminLogin_BadBody(t *testing.T) {
	app := newTestApp(t, &accountStore{accounts: map[uuid.UUID]*models.Account{}}, http.StatusOK)

	status, _ := doJSON(t, app, http.MethodPost, "/api/auth/admin/login", `{`)
	assert.Equal(t, http.StatusBadRequest, status)
}
