// Package geo resolves an approximate location from the caller's public IP
// and picks a regional calculation method for it.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/muezzin/muezzin/internal/schedule"
)

// DefaultEndpoint is the ipgeolocation.io lookup URL.
const DefaultEndpoint = "https://api.ipgeolocation.io/ipgeo"

const (
	userAgent      = "Muezzin"
	defaultTimeout = 10 * time.Second
	maxBody        = 1 << 20
)

// ErrNoAPIKey is returned by Lookup when the client has no key.
var ErrNoAPIKey = errors.New("geolocation api key not configured")

// NetworkError reports a failed lookup.
type NetworkError struct {
	URL    string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("geolocation %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("geolocation %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// LocationInfo is the result of a lookup.
type LocationInfo struct {
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Timezone      string  `json:"timezone"`
	ContinentCode string  `json:"continent_code,omitempty"`
	CountryCode   string  `json:"country_code,omitempty"`
}

// Coordinates returns the location as resolver coordinates.
func (l LocationInfo) Coordinates() schedule.Coordinates {
	return schedule.Coordinates{Latitude: l.Latitude, Longitude: l.Longitude}
}

// DefaultMethod returns the conventional calculation method for the region.
func (l LocationInfo) DefaultMethod() schedule.Method {
	return DefaultMethod(l.ContinentCode, l.CountryCode)
}

type ipgeoResponse struct {
	Latitude      string `json:"latitude"`
	Longitude     string `json:"longitude"`
	ContinentCode string `json:"continent_code"`
	CountryCode2  string `json:"country_code2"`
	TimeZone      struct {
		Name string `json:"name"`
	} `json:"time_zone"`
}

// Client queries the geolocation service.
type Client struct {
	http     *http.Client
	endpoint string
	apiKey   string
}

// NewClient returns a client for apiKey. A nil hc gets a client with a
// ten second timeout.
func NewClient(hc *http.Client, apiKey string) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{http: hc, endpoint: DefaultEndpoint, apiKey: apiKey}
}

// WithEndpoint returns a copy of c that queries endpoint.
func (c *Client) WithEndpoint(endpoint string) *Client {
	cp := *c
	cp.endpoint = endpoint
	return &cp
}

// Lookup resolves the location of the host's public address. It makes a
// single attempt.
func (c *Client) Lookup(ctx context.Context) (LocationInfo, error) {
	if c.apiKey == "" {
		return LocationInfo{}, &NetworkError{URL: c.endpoint, Err: ErrNoAPIKey}
	}
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return LocationInfo{}, &NetworkError{URL: c.endpoint, Err: err}
	}
	q := u.Query()
	q.Set("apiKey", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return LocationInfo{}, &NetworkError{URL: c.endpoint, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return LocationInfo{}, &NetworkError{URL: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return LocationInfo{}, &NetworkError{
			URL:    c.endpoint,
			Status: resp.StatusCode,
			Err:    errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	var body ipgeoResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&body); err != nil {
		return LocationInfo{}, &NetworkError{URL: c.endpoint, Err: fmt.Errorf("decode response: %w", err)}
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(body.Latitude), 64)
	if err != nil {
		return LocationInfo{}, &NetworkError{URL: c.endpoint, Err: fmt.Errorf("invalid latitude: %w", err)}
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(body.Longitude), 64)
	if err != nil {
		return LocationInfo{}, &NetworkError{URL: c.endpoint, Err: fmt.Errorf("invalid longitude: %w", err)}
	}
	return LocationInfo{
		Latitude:      lat,
		Longitude:     lon,
		Timezone:      body.TimeZone.Name,
		ContinentCode: body.ContinentCode,
		CountryCode:   body.CountryCode2,
	}, nil
}

var countryMethods = map[string]schedule.Method{
	// No dedicated Russian convention is computed; MWL is the closest.
	"RU": schedule.MWL,
	"GB": schedule.ISNA,
	"SG": schedule.Singapore,
	"QA": schedule.Qatar,
	"TR": schedule.Turkey,
	"IR": schedule.Tehran,
	"KW": schedule.Kuwait,
	"AE": schedule.Dubai,
	"PK": schedule.Karachi,
	"EG": schedule.Egyptian,
	"SA": schedule.UAQ,
}

var continentMethods = map[string]schedule.Method{
	"NA": schedule.ISNA,
	"EU": schedule.MWL,
	"AS": schedule.ISNA,
	"SA": schedule.MWL,
	"OC": schedule.MWL,
	"AN": schedule.MC,
}

// DefaultMethod maps a country code, then a continent code, to a method.
// Unknown regions get MWL.
func DefaultMethod(continent, country string) schedule.Method {
	if m, ok := countryMethods[strings.ToUpper(country)]; ok {
		return m
	}
	if m, ok := continentMethods[strings.ToUpper(continent)]; ok {
		return m
	}
	return schedule.MWL
}
