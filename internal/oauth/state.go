package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/models"
	"github.com/redis/go-redis/v9"
)

var ErrStateNotFound = errors.New("oauth state not found or expired")

type StateEntry struct {
	Provider  Provider    `json:"provider"`
	Role      models.Role `json:"role"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// StateStore hands out single-use state tokens for the consent redirect.
type StateStore interface {
	Issue(ctx context.Context, provider Provider, role models.Role) (string, error)
	Consume(ctx context.Context, state string) (*StateEntry, error)
}

func newState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

type MemoryStateStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]StateEntry
}

func NewMemoryStateStore(ttl time.Duration) *MemoryStateStore {
	return &MemoryStateStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]StateEntry),
	}
}

func (m *MemoryStateStore) Issue(_ context.Context, provider Provider, role models.Role) (string, error) {
	state, err := newState()
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, e := range m.entries {
		if now.After(e.ExpiresAt) {
			delete(m.entries, k)
		}
	}
	m.entries[state] = StateEntry{Provider: provider, Role: role, ExpiresAt: now.Add(m.ttl)}
	return state, nil
}

func (m *MemoryStateStore) Consume(_ context.Context, state string) (*StateEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[state]
	if !ok {
		return nil, ErrStateNotFound
	}
	delete(m.entries, state)
	if m.now().After(e.ExpiresAt) {
		return nil, ErrStateNotFound
	}
	return &e, nil
}

const redisStatePrefix = "oauth_state:"

type RedisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStateStore parses a redis:// URL and connects lazily.
func NewRedisStateStore(redisURL string, ttl time.Duration) (*RedisStateStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return &RedisStateStore{client: redis.NewClient(opts), ttl: ttl}, nil
}

func (s *RedisStateStore) Issue(ctx context.Context, provider Provider, role models.Role) (string, error) {
	state, err := newState()
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(StateEntry{Provider: provider, Role: role, ExpiresAt: time.Now().Add(s.ttl)})
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, redisStatePrefix+state, b, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}
	return state, nil
}

func (s *RedisStateStore) Consume(ctx context.Context, state string) (*StateEntry, error) {
	raw, err := s.client.GetDel(ctx, redisStatePrefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth state: %w", err)
	}
	var e StateEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("corrupt oauth state: %w", err)
	}
	return &e, nil
}

func (s *RedisStateStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStateStore) Close() error {
	return s.client.Close()
}
