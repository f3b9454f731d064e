package clerk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/felixgeelhaar/jobtrack/internal/identity/domain"
	"github.com/felixgeelhaar/jobtrack/pkg/observability"
)

const tracerName = "jobtrack/identity/clerk"

// DefaultAPIURL is the Clerk backend API.
const DefaultAPIURL = "https://api.clerk.com"

// Client reads users from the Clerk backend API.
type Client struct {
	secretKey string
	baseURL   string
	http      *http.Client
}

// NewClient creates a backend API client.
func NewClient(secretKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		secretKey: secretKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: timeout},
	}
}

type userResponse struct {
	ID                    string `json:"id"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	ImageURL              string `json:"image_url"`
	PrimaryEmailAddressID string `json:"primary_email_address_id"`
	EmailAddresses        []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	UpdatedAt int64 `json:"updated_at"`
}

// GetProfile fetches a user. An unknown user yields domain.ErrUserNotFound.
func (c *Client) GetProfile(ctx context.Context, id string) (p *domain.Profile, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "Client.GetProfile")
	defer func() { observability.EndSpan(span, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/users/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("clerk: get user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("clerk: get user: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var u userResponse
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("clerk: decode user: %w", err)
	}

	profile := domain.Profile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		ImageURL:  u.ImageURL,
	}
	for _, e := range u.EmailAddresses {
		if e.ID == u.PrimaryEmailAddressID || profile.Email == "" {
			profile.Email = e.EmailAddress
		}
	}
	if u.UpdatedAt > 0 {
		profile.UpdatedAt = time.UnixMilli(u.UpdatedAt).UTC()
	}
	profile, err = profile.Normalize()
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
