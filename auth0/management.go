// Package auth0 is a thin client for the Auth0 Management API, used for
// server-side user profile lookups. Tokens come from the machine-to-machine
// client-credentials grant and are refreshed automatically.
package auth0

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// User is the subset of the Management API user profile the service reads.
type User struct {
	UserID      string     `json:"user_id"`
	Email       string     `json:"email"`
	Name        string     `json:"name,omitempty"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	LoginsCount int64      `json:"logins_count"`
}

// ManagementClient calls the tenant's /api/v2 endpoints.
type ManagementClient struct {
	base string
	http *http.Client
}

// NewManagementClient builds a client for the tenant using the
// client-credentials grant. The returned client caches and renews its access
// token transparently.
func NewManagementClient(ctx context.Context, domain, clientID, clientSecret string) *ManagementClient {
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     "https://" + domain + "/oauth/token",
		EndpointParams: url.Values{
			"audience": {"https://" + domain + "/api/v2/"},
		},
	}
	client := cfg.Client(ctx)
	client.Timeout = 10 * time.Second
	return &ManagementClient{
		base: "https://" + domain + "/api/v2",
		http: client,
	}
}

// GetUser fetches one user profile by Auth0 user id (e.g. "auth0|abc123").
func (c *ManagementClient) GetUser(ctx context.Context, userID string) (*User, error) {
	endpoint := c.base + "/users/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth0: get user: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("auth0: user %q not found", userID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth0: get user: status %d", resp.StatusCode)
	}
	var u User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("auth0: decode user: %w", err)
	}
	return &u, nil
}
