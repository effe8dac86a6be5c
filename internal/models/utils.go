package models

import (
	"regexp"
	"strings"
)

// Per-place content limits
const (
	MaxLinksPerPlace  = 3
	MaxPhotosPerPlace = 5
)

var fileNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFileName replaces characters unsafe for storage object keys
func SanitizeFileName(name string) string {
	return fileNameSanitizer.ReplaceAllString(name, "_")
}

// ValidateCategory checks if the category is one of the known values
func ValidateCategory(category string) bool {
	for _, validCategory := range Categories() {
		if category == validCategory {
			return true
		}
	}
	return false
}

// Categories returns every known category value
func Categories() []string {
	return []string{
		CategoryRestaurant,
		CategoryBar,
		CategoryCafe,
		CategoryShopping,
		CategoryOutdoors,
		CategoryLodging,
		CategoryActivity,
		CategoryOther,
	}
}

// IsValidURL performs basic URL validation
func IsValidURL(url string) bool {
	if url == "" {
		return false
	}

	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// ValidateLinks checks a proposed links array against the per-place limit.
// Returns an empty string when the links are acceptable.
func ValidateLinks(links []PlaceLink) string {
	if len(links) > MaxLinksPerPlace {
		return "maximum 3 links allowed"
	}
	for _, link := range links {
		if !IsValidURL(link.URL) {
			return "each link must have a valid http(s) url"
		}
	}
	return ""
}
