// Package identity talks to the external identity provider's admin API.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrNoServiceCredentials means no service-role key is configured, so admin calls are impossible.
	ErrNoServiceCredentials = errors.New("identity provider service credentials not configured")
	// ErrAccountNotFound is returned when the provider has no such account.
	ErrAccountNotFound = errors.New("identity account not found")
)

const defaultPageSize = 200

// Account is the provider's view of a user.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminClient calls a GoTrue-compatible /admin/users API with the service-role key.
type AdminClient struct {
	baseURL    string
	serviceKey string
	pageSize   int
	httpClient *http.Client
}

// NewAdminClient constructs an AdminClient. An empty serviceKey yields a client whose
// calls all return ErrNoServiceCredentials.
func NewAdminClient(baseURL, serviceKey string, timeout time.Duration) *AdminClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AdminClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		pageSize:   defaultPageSize,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether admin calls can be made.
func (c *AdminClient) Configured() bool {
	return c.baseURL != "" && c.serviceKey != ""
}

// DeleteAccount removes the account. A missing account yields ErrAccountNotFound.
func (c *AdminClient) DeleteAccount(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// GetAccount fetches one account.
func (c *AdminClient) GetAccount(ctx context.Context, id string) (*Account, error) {
	resp, err := c.do(ctx, http.MethodGet, "/admin/users/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var account Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &account, nil
}

// ListAccounts pages through every account.
func (c *AdminClient) ListAccounts(ctx context.Context) ([]Account, error) {
	var all []Account
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("page", fmt.Sprint(page))
		query.Set("per_page", fmt.Sprint(c.pageSize))

		resp, err := c.do(ctx, http.MethodGet, "/admin/users", query)
		if err != nil {
			return nil, err
		}
		var payload struct {
			Users []Account `json:"users"`
		}
		err = checkStatus(resp)
		if err == nil {
			err = json.NewDecoder(resp.Body).Decode(&payload)
		}
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("list accounts page %d: %w", page, err)
		}

		all = append(all, payload.Users...)
		if len(payload.Users) < c.pageSize {
			return all, nil
		}
	}
}

func (c *AdminClient) do(ctx context.Context, method, path string, query url.Values) (*http.Response, error) {
	if !c.Configured() {
		return nil, ErrNoServiceCredentials
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrAccountNotFound
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &ProviderError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return nil
}

// ProviderError represents a non-successful admin API response.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("identity provider returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("identity provider returned %d: %s", e.Status, e.Body)
}
