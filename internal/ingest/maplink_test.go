package ingest

import (
	"testing"
)

func TestExtractMapsURL(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "short link surrounded by text",
			text:     "Check this out https://maps.apple/p/AbC123xyz looks great",
			expected: "https://maps.apple/p/AbC123xyz",
		},
		{
			name:     "long form link with query params",
			text:     "dinner spot https://maps.apple.com/?ll=39.0997,-94.5786&q=Joes%20BBQ",
			expected: "https://maps.apple.com/?ll=39.0997,-94.5786&q=Joes%20BBQ",
		},
		{
			name:     "case insensitive host",
			text:     "HTTPS://MAPS.APPLE/p/Foo",
			expected: "HTTPS://MAPS.APPLE/p/Foo",
		},
		{
			name:     "no link at all",
			text:     "just a plain note about a place",
			expected: "",
		},
		{
			name:     "unrelated URL does not match",
			text:     "see https://maps.google.com/?q=foo",
			expected: "",
		},
		{
			name:     "first of two links wins",
			text:     "https://maps.apple/p/first and https://maps.apple/p/second",
			expected: "https://maps.apple/p/first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractMapsURL(tt.text)
			if got != tt.expected {
				t.Errorf("ExtractMapsURL(%q) = %q, want %q", tt.text, got, tt.expected)
			}
		})
	}
}

func TestClassifyMapsURL(t *testing.T) {
	tests := []struct {
		name        string
		rawURL      string
		wantKind    string
		wantPlaceID string
	}{
		{
			name:        "short link yields place ID",
			rawURL:      "https://maps.apple/p/AbC123xyz",
			wantKind:    LinkKindShort,
			wantPlaceID: "AbC123xyz",
		},
		{
			name:        "short link with trailing query keeps ID clean",
			rawURL:      "https://maps.apple/p/AbC123?foo=bar",
			wantKind:    LinkKindShort,
			wantPlaceID: "AbC123",
		},
		{
			name:        "short link with trailing slash keeps ID clean",
			rawURL:      "https://maps.apple/p/AbC123/extra",
			wantKind:    LinkKindShort,
			wantPlaceID: "AbC123",
		},
		{
			name:     "dot com host is a query link even under /p/",
			rawURL:   "https://maps.apple.com/p/AbC123",
			wantKind: LinkKindQuery,
		},
		{
			name:     "long form URL",
			rawURL:   "https://maps.apple.com/?ll=39.1,-94.5&q=BBQ",
			wantKind: LinkKindQuery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := ClassifyMapsURL(tt.rawURL)
			if link.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", link.Kind, tt.wantKind)
			}
			if link.PlaceID != tt.wantPlaceID {
				t.Errorf("PlaceID = %q, want %q", link.PlaceID, tt.wantPlaceID)
			}
			if link.RawURL != tt.rawURL {
				t.Errorf("RawURL = %q, want %q", link.RawURL, tt.rawURL)
			}
		})
	}
}

func TestParseQueryLink(t *testing.T) {
	resolved := ParseQueryLink("https://maps.apple.com/?ll=39.0997,-94.5786&q=Joes%20BBQ")

	if resolved.Latitude == nil || resolved.Longitude == nil {
		t.Fatal("expected both coordinates to be set")
	}
	if *resolved.Latitude != 39.0997 {
		t.Errorf("Latitude = %v, want 39.0997", *resolved.Latitude)
	}
	if *resolved.Longitude != -94.5786 {
		t.Errorf("Longitude = %v, want -94.5786", *resolved.Longitude)
	}
	if resolved.Name == nil || *resolved.Name != "Joes BBQ" {
		t.Errorf("Name = %v, want Joes BBQ", resolved.Name)
	}
}

func TestParseQueryLinkMalformedCoordinates(t *testing.T) {
	tests := []struct {
		name   string
		rawURL string
	}{
		{"non numeric pair", "https://maps.apple.com/?ll=not,numbers&q=Spot"},
		{"missing longitude", "https://maps.apple.com/?ll=39.0997&q=Spot"},
		{"half numeric pair", "https://maps.apple.com/?ll=39.0997,abc&q=Spot"},
		{"no ll parameter", "https://maps.apple.com/?q=Spot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved := ParseQueryLink(tt.rawURL)
			if resolved.Latitude != nil || resolved.Longitude != nil {
				t.Errorf("expected nil coordinates, got lat=%v lon=%v",
					resolved.Latitude, resolved.Longitude)
			}
			if resolved.Name == nil || *resolved.Name != "Spot" {
				t.Errorf("Name = %v, want Spot", resolved.Name)
			}
		})
	}
}

func TestParseQueryLinkEmpty(t *testing.T) {
	resolved := ParseQueryLink("https://maps.apple.com/")
	if resolved == nil {
		t.Fatal("expected non-nil result")
	}
	if resolved.Name != nil || resolved.Latitude != nil || resolved.Longitude != nil || resolved.Address != nil {
		t.Error("expected all fields nil for a bare URL")
	}
}

func TestStripURL(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		url      string
		expected string
	}{
		{
			name:     "URL removed and whitespace trimmed",
			body:     "great ribs https://maps.apple/p/AbC123 ",
			url:      "https://maps.apple/p/AbC123",
			expected: "great ribs",
		},
		{
			name:     "no URL leaves trimmed body",
			body:     "  just a note  ",
			url:      "",
			expected: "just a note",
		},
		{
			name:     "only first occurrence removed",
			body:     "https://maps.apple/p/X https://maps.apple/p/X",
			url:      "https://maps.apple/p/X",
			expected: "https://maps.apple/p/X",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripURL(tt.body, tt.url)
			if got != tt.expected {
				t.Errorf("StripURL() = %q, want %q", got, tt.expected)
			}
		})
	}
}
