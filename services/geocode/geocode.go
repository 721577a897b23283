package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Resolution errors. ErrOverQuota is terminal for a booking; it must be marked
// failed before the fulfillment engine ever starts.
var (
	ErrOverQuota = errors.New("geocode: query quota exceeded")
	ErrNotFound  = errors.New("geocode: no results for address")
)

// Location is a resolved address with its coordinates.
type Location struct {
	FormattedAddress string
	Latitude         float64
	Longitude        float64
}

// Resolver turns a free-text address into a Location.
type Resolver interface {
	Resolve(ctx context.Context, query string) (*Location, error)
}

// GoogleResolver resolves addresses through the Google Geocoding API.
type GoogleResolver struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewGoogleResolver(apiKey string) *GoogleResolver {
	return &GoogleResolver{
		apiKey:   apiKey,
		endpoint: geocodeEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

const geocodeEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

func (r *GoogleResolver) Resolve(ctx context.Context, query string) (*Location, error) {
	reqURL := fmt.Sprintf("%s?address=%s&key=%s", r.endpoint, url.QueryEscape(query), r.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	switch parsed.Status {
	case "OK":
	case "OVER_QUERY_LIMIT":
		return nil, ErrOverQuota
	case "ZERO_RESULTS":
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("geocode request rejected with status %q", parsed.Status)
	}

	if len(parsed.Results) == 0 {
		return nil, ErrNotFound
	}

	best := parsed.Results[0]
	return &Location{
		FormattedAddress: best.FormattedAddress,
		Latitude:         best.Geometry.Location.Lat,
		Longitude:        best.Geometry.Location.Lng,
	}, nil
}
