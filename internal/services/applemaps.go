package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"saved-places-backend/internal/models"
)

// Default lifetime assumed for an access token when the exchange response
// omits an expiry (Apple access tokens are short-lived, ~30 min).
const defaultTokenLifetime = 1500 * time.Second

// Refresh the cached token when it is within this margin of expiring.
const tokenExpiryMargin = 30 * time.Second

// AccessTokenCache holds one exchanged access token between invocations of
// the same warm process. It is a soft cache: two near-simultaneous callers
// may both decide to refresh, which costs one redundant exchange call and
// nothing else. The mutex only guards field access, never the exchange call.
type AccessTokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

// NewAccessTokenCache creates an empty cache using the real clock
func NewAccessTokenCache() *AccessTokenCache {
	return &AccessTokenCache{now: time.Now}
}

// NewAccessTokenCacheWithClock creates a cache with an injected clock for tests
func NewAccessTokenCacheWithClock(now func() time.Time) *AccessTokenCache {
	return &AccessTokenCache{now: now}
}

// Get returns the cached token when it expires more than the safety margin
// in the future, otherwise empty.
func (c *AccessTokenCache) Get() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.expiresAt.After(c.now().Add(tokenExpiryMargin)) {
		return c.token, true
	}
	return "", false
}

// Put stores a freshly exchanged token with its expiry time
func (c *AccessTokenCache) Put(token string, lifetime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
	c.expiresAt = c.now().Add(lifetime)
}

// AppleMapsClient resolves place identifiers through the Apple Maps Server
// API. The long-lived auth token from the developer portal is exchanged for
// a short-lived access token, which is cached across invocations.
type AppleMapsClient struct {
	httpClient *http.Client
	baseURL    string
	authToken  string
	cache      *AccessTokenCache
}

// NewAppleMapsClient creates a client configured from the environment.
// APPLE_MAPS_AUTH_TOKEN may be unset; token exchange then fails at call
// time, which callers treat as a recoverable enrichment failure.
func NewAppleMapsClient() *AppleMapsClient {
	return &AppleMapsClient{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:   "https://maps-api.apple.com",
		authToken: os.Getenv("APPLE_MAPS_AUTH_TOKEN"),
		cache:     NewAccessTokenCache(),
	}
}

// NewAppleMapsClientWithConfig creates a client with explicit configuration
func NewAppleMapsClientWithConfig(baseURL, authToken string, cache *AccessTokenCache) *AppleMapsClient {
	return &AppleMapsClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		authToken:  authToken,
		cache:      cache,
	}
}

// GetAccessToken returns a valid short-lived access token, reusing the
// cached one when it is not near expiry.
func (a *AppleMapsClient) GetAccessToken(ctx context.Context) (string, error) {
	if token, ok := a.cache.Get(); ok {
		return token, nil
	}

	if a.authToken == "" {
		return "", fmt.Errorf("APPLE_MAPS_AUTH_TOKEN is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/v1/token", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.authToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("token exchange returned status %d: %s", resp.StatusCode, string(body))
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("token exchange returned non-JSON body: %w", err)
	}

	// The token field name varies by service version
	token := firstString(data, "accessToken", "access_token", "token", "value")
	if token == "" {
		return "", fmt.Errorf("token exchange response has no token field: %s", string(body))
	}

	lifetime := defaultTokenLifetime
	if secs := coerceFloat(firstValue(data, "expiresIn", "expires_in")); secs != nil {
		lifetime = time.Duration(*secs * float64(time.Second))
	}
	a.cache.Put(token, lifetime)

	return token, nil
}

// LookupPlace resolves a short-link place identifier to a name, coordinate
// pair, and formatted address. Any error is recoverable: the caller
// continues with a null result rather than failing the request.
func (a *AppleMapsClient) LookupPlace(ctx context.Context, placeID string) (*models.ResolvedPlace, error) {
	token, err := a.GetAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}

	lookupURL := fmt.Sprintf("%s/v1/place/%s", a.baseURL, url.PathEscape(placeID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create place request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("place lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read place response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("place lookup returned status %d: %s", resp.StatusCode, string(body))
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("place lookup returned non-JSON body: %w", err)
	}

	return extractPlaceFields(data), nil
}

// extractPlaceFields reads the logical place fields out of a lookup
// response. The service has returned more than one nesting shape, so each
// field is tried at every known location in priority order and the first
// present value wins.
func extractPlaceFields(data map[string]any) *models.ResolvedPlace {
	resolved := &models.ResolvedPlace{}

	nested, _ := data["place"].(map[string]any)

	if name := firstString(data, "name"); name != "" {
		resolved.Name = &name
	} else if name := firstString(nested, "name"); name != "" {
		resolved.Name = &name
	}

	coord, _ := data["coordinate"].(map[string]any)
	if coord == nil {
		coord, _ = nested["coordinate"].(map[string]any)
	}
	if coord != nil {
		lat := coerceFloat(firstValue(coord, "latitude", "lat"))
		lon := coerceFloat(firstValue(coord, "longitude", "lon"))
		// Never keep half a coordinate pair
		if lat != nil && lon != nil {
			resolved.Latitude = lat
			resolved.Longitude = lon
		}
	}

	if addr := firstString(data, "formattedAddress"); addr != "" {
		resolved.Address = &addr
	} else if sub, ok := data["address"].(map[string]any); ok && firstString(sub, "formattedAddress") != "" {
		addr := firstString(sub, "formattedAddress")
		resolved.Address = &addr
	} else if addr := firstString(nested, "formattedAddress"); addr != "" {
		resolved.Address = &addr
	}

	return resolved
}

// firstString returns the first key present in data holding a non-empty string
func firstString(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := data[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// firstValue returns the first key present in data, whatever its type
func firstValue(data map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := data[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// coerceFloat converts a JSON number or numeric-like string to a finite
// float, returning nil for anything else.
func coerceFloat(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return nil
		}
		f = parsed
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
