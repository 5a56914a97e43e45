package service

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

	"github.com/mesalibre/mesalibre/internal/model"
)

// DiscoveredVenue is one entry of the merged discovery listing: either a
// locally registered approved venue or an external place found through the
// Places Nearby API.
type DiscoveredVenue struct {
	VenueID   uint64  `json:"VenueId,omitempty"` // 0 for external places
	Name      string  `json:"Name"`
	Address   string  `json:"Address"`
	Latitude  float64 `json:"Latitude"`
	Longitude float64 `json:"Longitude"`
	Rating    float64 `json:"Rating,omitempty"`
	External  bool    `json:"External"`
}

// PlacesClient queries the Google Places Nearby Search REST endpoint.
type PlacesClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewPlacesClient builds a client. An empty API key disables external
// discovery: Nearby returns an empty slice.
func NewPlacesClient(apiKey string) *PlacesClient {
	return &PlacesClient{
		apiKey:  apiKey,
		baseURL: "https://maps.googleapis.com/maps/api/place/nearbysearch/json",
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type nearbyResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Name     string  `json:"name"`
		Vicinity string  `json:"vicinity"`
		Rating   float64 `json:"rating"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// ParseNearbyResponse decodes a Nearby Search payload into discovery
// entries. ZERO_RESULTS is an empty slice, not an error.
func ParseNearbyResponse(body io.Reader) ([]DiscoveredVenue, error) {
	var resp nearbyResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	switch resp.Status {
	case "OK", "ZERO_RESULTS":
	default:
		return nil, errors.New("places api status " + resp.Status)
	}
	out := make([]DiscoveredVenue, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, DiscoveredVenue{
			Name:      r.Name,
			Address:   r.Vicinity,
			Latitude:  r.Geometry.Location.Lat,
			Longitude: r.Geometry.Location.Lng,
			Rating:    r.Rating,
			External:  true,
		})
	}
	return out, nil
}

// Nearby fetches bars and restaurants around a coordinate.
func (c *PlacesClient) Nearby(ctx context.Context, lat, lng float64, radiusMeters int) ([]DiscoveredVenue, error) {
	if c.apiKey == "" {
		return nil, nil
	}
	if radiusMeters <= 0 {
		radiusMeters = 1500
	}
	q := url.Values{}
	q.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	q.Set("radius", fmt.Sprintf("%d", radiusMeters))
	q.Set("type", "bar")
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places api returned status %d", resp.StatusCode)
	}
	return ParseNearbyResponse(resp.Body)
}

// MergeDiscovery combines locally registered venues with external places.
// Local venues come first and win name collisions, so a registered venue
// never shows up twice just because Google also knows about it.
func MergeDiscovery(local []model.Venue, external []DiscoveredVenue) []DiscoveredVenue {
	out := make([]DiscoveredVenue, 0, len(local)+len(external))
	seen := make(map[string]struct{}, len(local))
	for _, v := range local {
		key := strings.ToLower(strings.TrimSpace(v.Name))
		seen[key] = struct{}{}
		out = append(out, DiscoveredVenue{
			VenueID:   v.ID,
			Name:      v.Name,
			Address:   v.Address,
			Latitude:  v.Latitude,
			Longitude: v.Longitude,
			External:  false,
		})
	}
	for _, e := range external {
		if _, dup := seen[strings.ToLower(strings.TrimSpace(e.Name))]; dup {
			continue
		}
		out = append(out, e)
	}
	return out
}
