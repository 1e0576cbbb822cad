package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Profile holds the attributes the identity provider exposes for a user.
// Providers may leave any field empty.
type Profile struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ProfileClient fetches user profiles from the identity provider's user API.
type ProfileClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewProfileClient creates a client for GET {baseURL}/users/{id}.
func NewProfileClient(baseURL, apiKey string) *ProfileClient {
	return &ProfileClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchProfile returns the provider profile for the given external id.
func (p *ProfileClient) FetchProfile(ctx context.Context, externalID string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/users/"+externalID, nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s/users/%s: %w", p.baseURL, externalID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decoding profile response: %w", err)
	}
	return &profile, nil
}
