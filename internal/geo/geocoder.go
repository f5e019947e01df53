package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tbourn/go-leads-backend/internal/domain"
)

// Geocoder performs one external free-text lookup. ok is false when the
// provider has no match.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (pt domain.Coordinates, ok bool, err error)
}

// NominatimClient queries a Nominatim-compatible search endpoint restricted
// to one country.
type NominatimClient struct {
	BaseURL   string
	Country   string
	UserAgent string
	HTTP      *http.Client
}

// NewNominatimClient returns a client using its own http.Client. Deadlines
// come from the caller's context.
func NewNominatimClient(baseURL, country, userAgent string) *NominatimClient {
	return &NominatimClient{
		BaseURL:   baseURL,
		Country:   country,
		UserAgent: userAgent,
		HTTP:      &http.Client{},
	}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode sends a single request; it never retries.
func (c *NominatimClient) Geocode(ctx context.Context, query string) (domain.Coordinates, bool, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", "1")
	if c.Country != "" {
		q.Set("countrycodes", strings.ToLower(c.Country))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return domain.Coordinates{}, false, err
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return domain.Coordinates{}, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return domain.Coordinates{}, false, fmt.Errorf("geocoder: unexpected status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&results); err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("geocoder: decode: %w", err)
	}
	if len(results) == 0 {
		return domain.Coordinates{}, false, nil
	}
	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("geocoder: lat: %w", err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("geocoder: lon: %w", err)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return domain.Coordinates{}, false, fmt.Errorf("geocoder: point out of range (%f, %f)", lat, lng)
	}
	return domain.Coordinates{Latitude: lat, Longitude: lng}, true, nil
}
