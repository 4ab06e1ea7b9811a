package provisioning

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// AccessChecker asks the external AI service whether a user already has
// valid API access.
type AccessChecker interface {
	HasValidAccess(ctx context.Context, userID string) (bool, error)
}

// AccessClient is the HTTP AccessChecker against the AI access service.
type AccessClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAccessClient creates a client for the access service at baseURL.
func NewAccessClient(baseURL string, timeout time.Duration) *AccessClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AccessClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type accessResponse struct {
	Valid bool `json:"valid"`
}

// HasValidAccess calls GET /v1/access/{userID}. A 404 means no access; any
// other non-200 is an error for the caller to log and fall back on.
func (c *AccessClient) HasValidAccess(ctx context.Context, userID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/v1/access/%s", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("provisioning: build access request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("provisioning: access check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("provisioning: access check returned status %d", resp.StatusCode)
	}

	var body accessResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("provisioning: decode access response: %w", err)
	}
	return body.Valid, nil
}
