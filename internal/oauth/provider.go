// Package oauth holds the provider adapters used by the identity resolver.
// Each adapter hides one provider's token exchange and profile endpoints
// behind the same three calls.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

var ErrUnknownProvider = errors.New("unknown oauth provider")

// ParseProvider maps a route parameter onto a known provider tag.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderGoogle, ProviderGitHub:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
}

type Token struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	Scope       string `json:"scope,omitempty"`
}

// Profile is the provider's view of the user. Email may be empty when the
// provider keeps it private.
type Profile struct {
	ProviderUserID string
	Email          string
	Name           string
}

type EmailEntry struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

type Adapter interface {
	Provider() Provider
	AuthCodeURL(state, redirectURI string) string
	ExchangeCode(ctx context.Context, code, redirectURI string) (*Token, error)
	FetchProfile(ctx context.Context, token *Token) (*Profile, error)
	FetchEmails(ctx context.Context, token *Token) ([]EmailEntry, error)
}

// Registry selects an adapter by provider tag.
type Registry map[Provider]Adapter

func NewRegistry(adapters ...Adapter) Registry {
	r := make(Registry, len(adapters))
	for _, a := range adapters {
		r[a.Provider()] = a
	}
	return r
}

func (r Registry) Get(p Provider) (Adapter, bool) {
	a, ok := r[p]
	return a, ok
}

// ProviderError reports a failed call to a provider endpoint. StatusCode is
// zero when the request never got a response.
type ProviderError struct {
	Provider   Provider
	Op         string
	StatusCode int
	Payload    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: status %d", e.Provider, e.Op, e.StatusCode)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Transient is true for network failures and provider 5xx responses.
func (e *ProviderError) Transient() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}

// RawPayload returns the provider body as JSON when it is JSON, or as a
// plain string otherwise.
func (e *ProviderError) RawPayload() any {
	if e.Payload == "" {
		return nil
	}
	if json.Valid([]byte(e.Payload)) {
		return json.RawMessage(e.Payload)
	}
	return e.Payload
}
