// Package ingest implements the text-to-place pipeline shared by the
// ingestion handlers: map-link extraction and classification, query-param
// parsing, hashtag derivation, and record assembly.
package ingest

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"saved-places-backend/internal/models"
)

// Matches:
// - https://maps.apple/p/<id>
// - https://maps.apple.com/...
// - https://maps.apple.com/?ll=...&q=...
var (
	mapsURLPattern   = regexp.MustCompile(`(?i)(https?://maps\.apple(?:\.com)?/[^\s]+)`)
	shortLinkPattern = regexp.MustCompile(`(?i)^https?://maps\.apple/p/([^/?#\s]+)`)
)

// ExtractMapsURL finds the first Apple Maps URL in free text.
// Returns the empty string when the text contains none; that is a normal
// outcome, not an error.
func ExtractMapsURL(text string) string {
	match := mapsURLPattern.FindString(text)
	return match
}

// Link kind constants
const (
	LinkKindShort = "short"
	LinkKindQuery = "query"
)

// ExtractedLink is a classified Apple Maps URL found in free text
type ExtractedLink struct {
	RawURL  string
	Kind    string // short|query
	PlaceID string // set only for short links
}

// ClassifyMapsURL decides whether a matched URL is a short link carrying an
// opaque place identifier or a long-form URL carrying query parameters.
func ClassifyMapsURL(rawURL string) ExtractedLink {
	if m := shortLinkPattern.FindStringSubmatch(rawURL); m != nil {
		return ExtractedLink{
			RawURL:  rawURL,
			Kind:    LinkKindShort,
			PlaceID: m[1],
		}
	}

	return ExtractedLink{
		RawURL: rawURL,
		Kind:   LinkKindQuery,
	}
}

// ParseQueryLink decodes coordinates and a title directly from the URL's
// query parameters (example: ?ll=39.0997,-94.5786&q=Joes%20BBQ). It never
// fails; absent or malformed parameters yield nil fields. Latitude and
// longitude are set together or not at all.
func ParseQueryLink(rawURL string) *models.ResolvedPlace {
	resolved := &models.ResolvedPlace{}

	u, err := url.Parse(rawURL)
	if err != nil {
		return resolved
	}
	params := u.Query()

	if ll := params.Get("ll"); ll != "" {
		latStr, lonStr, found := strings.Cut(ll, ",")
		if found {
			lat, latErr := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
			lon, lonErr := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
			if latErr == nil && lonErr == nil && isFinite(lat) && isFinite(lon) {
				resolved.Latitude = &lat
				resolved.Longitude = &lon
			}
		}
	}

	if q := params.Get("q"); q != "" {
		title := safeDecode(q)
		resolved.Name = &title
	}

	return resolved
}

// safeDecode percent-decodes s, falling back to the raw value when the
// encoding is broken.
func safeDecode(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// StripURL removes exactly the first occurrence of extractedURL from body
// and trims surrounding whitespace. When no URL was extracted, the result
// is simply the trimmed body.
func StripURL(body, extractedURL string) string {
	if extractedURL == "" {
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(strings.Replace(body, extractedURL, "", 1))
}
