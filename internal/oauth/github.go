package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	githubAuthURL   = "https://github.com/login/oauth/authorize"
	githubTokenURL  = "https://github.com/login/oauth/access_token"
	githubUserURL   = "https://api.github.com/user"
	githubEmailsURL = "https://api.github.com/user/emails"
)

type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Timeout      time.Duration

	AuthURL   string
	TokenURL  string
	UserURL   string
	EmailsURL string
}

type GitHubAdapter struct {
	cfg    GitHubConfig
	client *client
}

func NewGitHubAdapter(cfg GitHubConfig) *GitHubAdapter {
	if cfg.AuthURL == "" {
		cfg.AuthURL = githubAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = githubTokenURL
	}
	if cfg.UserURL == "" {
		cfg.UserURL = githubUserURL
	}
	if cfg.EmailsURL == "" {
		cfg.EmailsURL = githubEmailsURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &GitHubAdapter{
		cfg: cfg,
		client: &client{
			provider:   ProviderGitHub,
			httpClient: &http.Client{Timeout: cfg.Timeout},
		},
	}
}

func (g *GitHubAdapter) Provider() Provider { return ProviderGitHub }

func (g *GitHubAdapter) AuthCodeURL(state, redirectURI string) string {
	q := url.Values{}
	q.Set("client_id", g.cfg.ClientID)
	q.Set("redirect_uri", g.redirect(redirectURI))
	q.Set("scope", "read:user user:email")
	q.Set("state", state)
	q.Set("allow_signup", "true")
	return withQuery(g.cfg.AuthURL, q)
}

type githubTokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ExchangeCode treats a 200 response carrying an "error" field as a
// rejection, since that is how GitHub reports bad or expired codes.
func (g *GitHubAdapter) ExchangeCode(ctx context.Context, code, redirectURI string) (*Token, error) {
	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", g.cfg.ClientID)
	form.Set("client_secret", g.cfg.ClientSecret)
	form.Set("redirect_uri", g.redirect(redirectURI))

	var resp githubTokenResponse
	if err := g.client.postForm(ctx, "exchange", g.cfg.TokenURL, form, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" || resp.AccessToken == "" {
		payload, _ := json.Marshal(resp)
		msg := resp.ErrorDescription
		if msg == "" {
			msg = "response has no access_token"
		}
		return nil, &ProviderError{
			Provider:   ProviderGitHub,
			Op:         "exchange",
			StatusCode: http.StatusOK,
			Payload:    string(payload),
			Err:        errors.New(msg),
		}
	}
	return &Token{AccessToken: resp.AccessToken, TokenType: resp.TokenType, Scope: resp.Scope}, nil
}

type githubUser struct {
	ID    int64   `json:"id"`
	Login string  `json:"login"`
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

func (g *GitHubAdapter) FetchProfile(ctx context.Context, token *Token) (*Profile, error) {
	var u githubUser
	if err := g.client.getJSON(ctx, "profile", g.cfg.UserURL, token.AccessToken, &u); err != nil {
		return nil, err
	}
	p := &Profile{ProviderUserID: strconv.FormatInt(u.ID, 10)}
	if u.Email != nil {
		p.Email = *u.Email
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	return p, nil
}

func (g *GitHubAdapter) FetchEmails(ctx context.Context, token *Token) ([]EmailEntry, error) {
	var entries []EmailEntry
	if err := g.client.getJSON(ctx, "emails", g.cfg.EmailsURL, token.AccessToken, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (g *GitHubAdapter) redirect(redirectURI string) string {
	if redirectURI != "" {
		return redirectURI
	}
	return g.cfg.RedirectURL
}
