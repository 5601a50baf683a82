package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxBodyBytes = 1 << 20

type client struct {
	provider   Provider
	httpClient *http.Client
}

func (c *client) postForm(ctx context.Context, op, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return &ProviderError{Provider: c.provider, Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return c.do(req, op, out)
}

func (c *client) getJSON(ctx context.Context, op, endpoint, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &ProviderError{Provider: c.provider, Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	return c.do(req, op, out)
}

func (c *client) do(req *http.Request, op string, out any) error {
	// GitHub rejects API calls without a User-Agent.
	req.Header.Set("User-Agent", "voicebank")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ProviderError{Provider: c.provider, Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &ProviderError{Provider: c.provider, Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ProviderError{Provider: c.provider, Op: op, StatusCode: resp.StatusCode, Payload: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ProviderError{
			Provider:   c.provider,
			Op:         op,
			StatusCode: resp.StatusCode,
			Payload:    string(body),
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

func withQuery(base string, q url.Values) string {
	if strings.Contains(base, "?") {
		return base + "&" + q.Encode()
	}
	return base + "?" + q.Encode()
}
