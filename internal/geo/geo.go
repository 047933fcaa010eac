// Package geo resolves client IP addresses to an approximate location.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "https://geolocation-db.com/json/"

type Location struct {
	CountryCode string  `json:"country_code"`
	CountryName string  `json:"country_name"`
	City        string  `json:"city"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Cache stores lookup results. Get reports false on a miss.
type Cache interface {
	Get(ctx context.Context, ip string) (*Location, bool)
	Set(ctx context.Context, ip string, loc *Location)
}

// Client looks up IP addresses with a geolocation-db compatible service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Cache      Cache
	Logger     *slog.Logger
}

func NewClient(baseURL string, cache Cache, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 3 * time.Second},
		Cache:      cache,
		Logger:     logger,
	}
}

// Lookup returns nil for private and unparsable addresses and when the
// service fails. Failures are logged, never returned.
func (c *Client) Lookup(ctx context.Context, ip string) *Location {
	if c == nil || !Routable(ip) {
		return nil
	}
	if c.Cache != nil {
		if loc, ok := c.Cache.Get(ctx, ip); ok {
			return loc
		}
	}

	loc, err := c.fetch(ctx, ip)
	if err != nil {
		c.Logger.Warn("geolocation lookup failed", "ip", ip, "err", err)
		return nil
	}
	if c.Cache != nil {
		c.Cache.Set(ctx, ip, loc)
	}
	return loc
}

func (c *Client) fetch(ctx context.Context, ip string) (*Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.BaseURL, "/")+"/"+ip, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var raw struct {
		CountryCode string `json:"country_code"`
		CountryName string `json:"country_name"`
		City        any    `json:"city"`
		Latitude    any    `json:"latitude"`
		Longitude   any    `json:"longitude"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	loc := &Location{
		CountryCode: cleanValue(raw.CountryCode),
		CountryName: cleanValue(raw.CountryName),
	}
	if s, ok := raw.City.(string); ok {
		loc.City = cleanValue(s)
	}
	loc.Latitude, _ = raw.Latitude.(float64)
	loc.Longitude, _ = raw.Longitude.(float64)
	return loc, nil
}

// cleanValue maps the placeholders the service uses for unknown fields to "".
func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "not found", "null", "none":
		return ""
	}
	return s
}

// Routable reports whether ip is a public unicast address worth looking up.
func Routable(ip string) bool {
	addr := net.ParseIP(strings.TrimSpace(ip))
	if addr == nil {
		return false
	}
	return !(addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() || addr.IsMulticast())
}
