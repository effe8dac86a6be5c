package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"saved-places-backend/internal/models"
)

func TestParseCoordinatePair(t *testing.T) {
	tests := []struct {
		name    string
		lat     any
		lon     any
		wantLat float64
		wantLon float64
		wantOK  bool
	}{
		{"JSON numbers", 39.0997, -94.5786, 39.0997, -94.5786, true},
		{"numeric strings", "39.0997", "-94.5786", 39.0997, -94.5786, true},
		{"mixed number and string", 39.0997, "-94.5786", 39.0997, -94.5786, true},
		{"latitude missing", nil, -94.5786, 0, 0, false},
		{"longitude not numeric", 39.0997, "east", 0, 0, false},
		{"both missing", nil, nil, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon, ok := parseCoordinatePair(tt.lat, tt.lon)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && (lat != tt.wantLat || lon != tt.wantLon) {
				t.Errorf("pair = %v,%v want %v,%v", lat, lon, tt.wantLat, tt.wantLon)
			}
		})
	}
}

func TestCoordinatesSurviveJSONDecoding(t *testing.T) {
	// iOS shortcuts send coordinates as numbers or as strings depending on
	// how the shortcut was built; both decode into the payload's any fields
	var numeric ShortcutPayload
	if err := json.Unmarshal([]byte(`{"latitude": 39.1, "longitude": -94.5}`), &numeric); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, _, ok := parseCoordinatePair(numeric.Latitude, numeric.Longitude); !ok {
		t.Error("numeric payload coordinates rejected")
	}

	var stringly ShortcutPayload
	if err := json.Unmarshal([]byte(`{"latitude": "39.1", "longitude": "-94.5"}`), &stringly); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, _, ok := parseCoordinatePair(stringly.Latitude, stringly.Longitude); !ok {
		t.Error("string payload coordinates rejected")
	}
}

func TestResolveCategory(t *testing.T) {
	si := &shortcutIngestor{}

	got := si.resolveCategory(context.Background(), ShortcutPayload{Category: models.CategoryCafe})
	if got != models.CategoryCafe {
		t.Errorf("submitted category = %q, want %q", got, models.CategoryCafe)
	}

	got = si.resolveCategory(context.Background(), ShortcutPayload{Category: "spaceport"})
	if got != models.CategoryOther {
		t.Errorf("unknown category = %q, want %q", got, models.CategoryOther)
	}

	got = si.resolveCategory(context.Background(), ShortcutPayload{PlaceName: "Somewhere"})
	if got != models.CategoryOther {
		t.Errorf("no category and no classifier = %q, want %q", got, models.CategoryOther)
	}
}

func TestHandleRequestValidation(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
	}{
		{"OPTIONS preflight", "OPTIONS", "", 200},
		{"GET rejected", "GET", "", 405},
		{"invalid JSON", "POST", "{not json", 400},
		{"missing user token", "POST", `{"place_name":"Spot"}`, 401},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := handleRequest(context.Background(), events.APIGatewayProxyRequest{
				HTTPMethod: tt.method,
				Body:       tt.body,
			})
			if err != nil {
				t.Fatalf("handleRequest returned error: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if resp.Headers["Access-Control-Allow-Origin"] != "*" {
				t.Error("missing CORS header")
			}
		})
	}
}
