package rental

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"bikebooker/models"
)

// NetworkError is returned for any rental network response outside the
// success range [200, 400).
type NetworkError struct {
	StatusCode int
	Body       string
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("rental network request failed (code %d): %s", e.StatusCode, e.Body)
}

// Client defines the operations the fulfillment engine needs from the rental
// network. All operations are single request/response calls; retry policy
// belongs to the caller.
type Client interface {
	// ListNearby fetches the 10 closest bikes to the provided coordinates.
	ListNearby(ctx context.Context, latitude, longitude float64) ([]models.BikeCandidate, error)
	// Reserve books one bike. On success the network marks it unavailable.
	Reserve(ctx context.Context, bikeID int) error
	// CancelActiveRental cancels the caller's current active rental.
	CancelActiveRental(ctx context.Context) error
}

// HTTPClient implements Client against the rental network HTTP API.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a rental network client for the given base URL and
// bearer token.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type listBikesResponse struct {
	Items []models.BikeCandidate `json:"items"`
}

func (c *HTTPClient) ListNearby(ctx context.Context, latitude, longitude float64) ([]models.BikeCandidate, error) {
	query := url.Values{}
	query.Set("per_page", "10")
	query.Set("sort", "distance_asc")
	query.Set("latitude", fmt.Sprintf("%f", latitude))
	query.Set("longitude", fmt.Sprintf("%f", longitude))

	body, err := c.do(ctx, http.MethodGet, "/bikes.json?"+query.Encode())
	if err != nil {
		return nil, err
	}

	var parsed listBikesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode bike list: %w", err)
	}
	return parsed.Items, nil
}

func (c *HTTPClient) Reserve(ctx context.Context, bikeID int) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/bikes/%d/book_bike.json", bikeID))
	return err
}

func (c *HTTPClient) CancelActiveRental(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/rentals/cancel.json")
	return err
}

// do issues one request and classifies any status outside [200, 400) as a
// NetworkError carrying status and body.
func (c *HTTPClient) do(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rental network request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rental network request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rental network response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, &NetworkError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
