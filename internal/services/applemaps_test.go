package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAccessTokenCache(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	cache := NewAccessTokenCacheWithClock(func() time.Time { return current })

	if _, ok := cache.Get(); ok {
		t.Fatal("empty cache must miss")
	}

	cache.Put("tok-1", 1500*time.Second)
	if token, ok := cache.Get(); !ok || token != "tok-1" {
		t.Fatalf("fresh token should hit, got %q ok=%v", token, ok)
	}

	// Still comfortably outside the 30s safety margin
	current = base.Add(1500*time.Second - 40*time.Second)
	if token, ok := cache.Get(); !ok || token != "tok-1" {
		t.Errorf("token 40s from expiry should still hit, got %q ok=%v", token, ok)
	}

	// Inside the margin counts as expired
	current = base.Add(1500*time.Second - 20*time.Second)
	if _, ok := cache.Get(); ok {
		t.Error("token 20s from expiry must miss")
	}

	current = base.Add(2000 * time.Second)
	if _, ok := cache.Get(); ok {
		t.Error("expired token must miss")
	}
}

func TestGetAccessToken(t *testing.T) {
	exchanges := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer auth-token" {
			t.Errorf("Authorization = %q", got)
		}
		exchanges++
		fmt.Fprintf(w, `{"accessToken":"short-%d","expiresIn":1800}`, exchanges)
	}))
	defer server.Close()

	client := NewAppleMapsClientWithConfig(server.URL, "auth-token", NewAccessTokenCache())

	token, err := client.GetAccessToken(context.Background())
	if err != nil {
		t.Fatalf("GetAccessToken failed: %v", err)
	}
	if token != "short-1" {
		t.Errorf("token = %q, want short-1", token)
	}

	// Second call must reuse the cached token
	token, err = client.GetAccessToken(context.Background())
	if err != nil {
		t.Fatalf("second GetAccessToken failed: %v", err)
	}
	if token != "short-1" {
		t.Errorf("cached token = %q, want short-1", token)
	}
	if exchanges != 1 {
		t.Errorf("exchange count = %d, want 1", exchanges)
	}
}

func TestGetAccessTokenFieldVariants(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"camelCase field", `{"accessToken":"a"}`, "a"},
		{"snake_case field", `{"access_token":"b"}`, "b"},
		{"bare token field", `{"token":"c"}`, "c"},
		{"value field", `{"value":"d"}`, "d"},
		{"expiry as string", `{"accessToken":"e","expiresIn":"900"}`, "e"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := NewAppleMapsClientWithConfig(server.URL, "auth-token", NewAccessTokenCache())
			token, err := client.GetAccessToken(context.Background())
			if err != nil {
				t.Fatalf("GetAccessToken failed: %v", err)
			}
			if token != tt.want {
				t.Errorf("token = %q, want %q", token, tt.want)
			}
		})
	}
}

func TestGetAccessTokenErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"upstream 401", 401, `{"error":"unauthorized"}`},
		{"no token field", 200, `{"unexpected":"shape"}`},
		{"non-JSON body", 200, `<html>error</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := NewAppleMapsClientWithConfig(server.URL, "auth-token", NewAccessTokenCache())
			if _, err := client.GetAccessToken(context.Background()); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestGetAccessTokenMissingAuthToken(t *testing.T) {
	client := NewAppleMapsClientWithConfig("http://invalid.localhost", "", NewAccessTokenCache())
	if _, err := client.GetAccessToken(context.Background()); err == nil {
		t.Error("expected an error when no auth token is configured")
	}
}

func TestLookupPlace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/token":
			fmt.Fprint(w, `{"accessToken":"short"}`)
		case "/v1/place/AbC123":
			if got := r.Header.Get("Authorization"); got != "Bearer short" {
				t.Errorf("Authorization = %q", got)
			}
			fmt.Fprint(w, `{
				"name": "Joes BBQ",
				"coordinate": {"latitude": 39.0997, "longitude": -94.5786},
				"formattedAddress": "1727 Brooklyn Ave, Kansas City, MO"
			}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(404)
		}
	}))
	defer server.Close()

	client := NewAppleMapsClientWithConfig(server.URL, "auth-token", NewAccessTokenCache())

	resolved, err := client.LookupPlace(context.Background(), "AbC123")
	if err != nil {
		t.Fatalf("LookupPlace failed: %v", err)
	}
	if resolved.Name == nil || *resolved.Name != "Joes BBQ" {
		t.Errorf("Name = %v", resolved.Name)
	}
	if !resolved.HasCoordinates() {
		t.Fatal("expected coordinates")
	}
	if *resolved.Latitude != 39.0997 || *resolved.Longitude != -94.5786 {
		t.Errorf("coordinates = %v,%v", *resolved.Latitude, *resolved.Longitude)
	}
	if resolved.Address == nil || *resolved.Address != "1727 Brooklyn Ave, Kansas City, MO" {
		t.Errorf("Address = %v", resolved.Address)
	}
}

func TestLookupPlaceReusesAccessToken(t *testing.T) {
	exchanges := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/token" {
			exchanges++
			fmt.Fprint(w, `{"accessToken":"short","expiresIn":1800}`)
			return
		}
		fmt.Fprint(w, `{"name":"Spot"}`)
	}))
	defer server.Close()

	client := NewAppleMapsClientWithConfig(server.URL, "auth-token", NewAccessTokenCache())

	for i := 0; i < 2; i++ {
		if _, err := client.LookupPlace(context.Background(), "AbC123"); err != nil {
			t.Fatalf("LookupPlace %d failed: %v", i, err)
		}
	}

	if exchanges != 1 {
		t.Errorf("exchange count = %d for 2 lookups, want 1", exchanges)
	}
}

func TestLookupPlaceUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/token" {
			fmt.Fprint(w, `{"accessToken":"short"}`)
			return
		}
		w.WriteHeader(404)
		fmt.Fprint(w, `{"error":"not found"}`)
	}))
	defer server.Close()

	client := NewAppleMapsClientWithConfig(server.URL, "auth-token", NewAccessTokenCache())
	if _, err := client.LookupPlace(context.Background(), "missing"); err == nil {
		t.Error("expected an error on 404")
	}
}

func TestExtractPlaceFields(t *testing.T) {
	tests := []struct {
		name     string
		data     map[string]any
		wantName string
		wantLat  *float64
		wantAddr string
	}{
		{
			name: "flat shape",
			data: map[string]any{
				"name":             "Spot",
				"coordinate":       map[string]any{"latitude": 1.5, "longitude": 2.5},
				"formattedAddress": "123 Main St",
			},
			wantName: "Spot",
			wantLat:  floatPtr(1.5),
			wantAddr: "123 Main St",
		},
		{
			name: "nested place shape with lat/lon keys",
			data: map[string]any{
				"place": map[string]any{
					"name":             "Nested Spot",
					"coordinate":       map[string]any{"lat": 3.5, "lon": 4.5},
					"formattedAddress": "456 Oak St",
				},
			},
			wantName: "Nested Spot",
			wantLat:  floatPtr(3.5),
			wantAddr: "456 Oak St",
		},
		{
			name: "address nested under address object",
			data: map[string]any{
				"name":    "Addr Spot",
				"address": map[string]any{"formattedAddress": "789 Elm St"},
			},
			wantName: "Addr Spot",
			wantAddr: "789 Elm St",
		},
		{
			name: "half coordinate pair is dropped",
			data: map[string]any{
				"name":       "Half",
				"coordinate": map[string]any{"latitude": 1.5},
			},
			wantName: "Half",
		},
		{
			name: "string coordinates are coerced",
			data: map[string]any{
				"coordinate": map[string]any{"latitude": "5.5", "longitude": "6.5"},
			},
			wantLat: floatPtr(5.5),
		},
		{
			name: "empty response",
			data: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved := extractPlaceFields(tt.data)

			gotName := ""
			if resolved.Name != nil {
				gotName = *resolved.Name
			}
			if gotName != tt.wantName {
				t.Errorf("Name = %q, want %q", gotName, tt.wantName)
			}

			if tt.wantLat == nil {
				if resolved.Latitude != nil || resolved.Longitude != nil {
					t.Errorf("expected nil coordinates, got lat=%v lon=%v",
						resolved.Latitude, resolved.Longitude)
				}
			} else {
				if !resolved.HasCoordinates() {
					t.Fatal("expected coordinates")
				}
				if *resolved.Latitude != *tt.wantLat {
					t.Errorf("Latitude = %v, want %v", *resolved.Latitude, *tt.wantLat)
				}
			}

			gotAddr := ""
			if resolved.Address != nil {
				gotAddr = *resolved.Address
			}
			if gotAddr != tt.wantAddr {
				t.Errorf("Address = %q, want %q", gotAddr, tt.wantAddr)
			}
		})
	}
}

func TestCoerceFloat(t *testing.T) {
	if got := coerceFloat(float64(1.5)); got == nil || *got != 1.5 {
		t.Errorf("coerceFloat(1.5) = %v", got)
	}
	if got := coerceFloat("2.5"); got == nil || *got != 2.5 {
		t.Errorf("coerceFloat(\"2.5\") = %v", got)
	}
	if got := coerceFloat("abc"); got != nil {
		t.Errorf("coerceFloat(\"abc\") = %v, want nil", got)
	}
	if got := coerceFloat(nil); got != nil {
		t.Errorf("coerceFloat(nil) = %v, want nil", got)
	}
	if got := coerceFloat(true); got != nil {
		t.Errorf("coerceFloat(true) = %v, want nil", got)
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
