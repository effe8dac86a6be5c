package models

import "time"

// Category constants for saved places
const (
	CategoryRestaurant = "Restaurant"
	CategoryBar        = "Bar"
	CategoryCafe       = "Cafe"
	CategoryShopping   = "Shopping"
	CategoryOutdoors   = "Outdoors"
	CategoryLodging    = "Lodging"
	CategoryActivity   = "Activity"
	CategoryOther      = "Other"
)

// Place represents a single saved place record
type Place struct {
	// Primary Keys
	PK string `json:"PK" dynamodbav:"PK"` // PLACE#{place_id}
	SK string `json:"SK" dynamodbav:"SK"` // META

	PlaceID string `json:"place_id" dynamodbav:"place_id"`
	UserID  string `json:"user_id,omitempty" dynamodbav:"user_id,omitempty"` // empty for SMS ingestion without a linked profile

	// Ingestion payload
	FromPhone string `json:"from_phone,omitempty" dynamodbav:"from_phone,omitempty"`
	RawText   string `json:"raw_text,omitempty" dynamodbav:"raw_text,omitempty"`
	MapsURL   string `json:"maps_url,omitempty" dynamodbav:"maps_url,omitempty"`
	Notes     string `json:"notes,omitempty" dynamodbav:"notes,omitempty"`

	// Resolved/derived fields
	Title     string    `json:"title,omitempty" dynamodbav:"title,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty" dynamodbav:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty" dynamodbav:"longitude,omitempty"`
	Address   string    `json:"address,omitempty" dynamodbav:"address,omitempty"`
	Hashtags  []string  `json:"hashtags,omitempty" dynamodbav:"hashtags,omitempty"`

	// Normalized address components
	StreetLine1 string `json:"street_line1,omitempty" dynamodbav:"street_line1,omitempty"`
	StreetLine2 string `json:"street_line2,omitempty" dynamodbav:"street_line2,omitempty"`
	City        string `json:"city,omitempty" dynamodbav:"city,omitempty"`
	State       string `json:"state,omitempty" dynamodbav:"state,omitempty"`
	PostalCode  string `json:"postal_code,omitempty" dynamodbav:"postal_code,omitempty"`
	Country     string `json:"country,omitempty" dynamodbav:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty" dynamodbav:"country_code,omitempty"`

	// Contact fields
	Phone        string `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	Website      string `json:"website,omitempty" dynamodbav:"website,omitempty"`
	OpeningHours string `json:"opening_hours,omitempty" dynamodbav:"opening_hours,omitempty"`

	Category string      `json:"category,omitempty" dynamodbav:"category,omitempty"`
	Links    []PlaceLink `json:"links,omitempty" dynamodbav:"links,omitempty"`

	// Raw OSM blobs as submitted by the shortcut client
	OSMAddress   map[string]string `json:"osm_address,omitempty" dynamodbav:"osm_address,omitempty"`
	OSMExtratags map[string]string `json:"osm_extratags,omitempty" dynamodbav:"osm_extratags,omitempty"`

	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated_at" dynamodbav:"updated_at"`

	// GSI Keys
	UserKey    string `json:"UserKey,omitempty" dynamodbav:"UserKey,omitempty"`       // USER#{user_id}
	CreatedKey string `json:"CreatedKey,omitempty" dynamodbav:"CreatedKey,omitempty"` // CREATED#{rfc3339}
}

// PlaceLink is one external link attached to a place (max 3 per place)
type PlaceLink struct {
	URL   string `json:"url" dynamodbav:"url"`
	Label string `json:"label,omitempty" dynamodbav:"label,omitempty"`
}

// PlacePhoto represents a photo record attached to a place (max 5 per place)
type PlacePhoto struct {
	// Primary Keys
	PK string `json:"PK" dynamodbav:"PK"` // PLACE#{place_id}
	SK string `json:"SK" dynamodbav:"SK"` // PHOTO#{photo_id}

	PhotoID       string `json:"photo_id" dynamodbav:"photo_id"`
	PlaceID       string `json:"place_id" dynamodbav:"place_id"`
	StoragePath   string `json:"storage_path" dynamodbav:"storage_path"`
	ThumbnailPath string `json:"thumbnail_path,omitempty" dynamodbav:"thumbnail_path,omitempty"`
	Description   string `json:"description,omitempty" dynamodbav:"description,omitempty"`
	DisplayOrder  int    `json:"display_order" dynamodbav:"display_order"`

	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}

// PhotoView is the API representation of a photo, with public URLs resolved
type PhotoView struct {
	PhotoID      string `json:"photo_id"`
	Description  string `json:"description,omitempty"`
	DisplayOrder int    `json:"display_order"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// ResolvedPlace holds best-effort enrichment results for a map link.
// Nil fields mean the value could not be resolved.
type ResolvedPlace struct {
	Name      *string  `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   *string  `json:"address"`
}

// HasCoordinates reports whether both halves of the coordinate pair resolved.
// A record must never persist a half-populated pair.
func (r *ResolvedPlace) HasCoordinates() bool {
	return r != nil && r.Latitude != nil && r.Longitude != nil
}

// CreatePlacePK builds the partition key for a place and its photos
func CreatePlacePK(placeID string) string {
	return "PLACE#" + placeID
}

// CreatePlaceMetaSK builds the sort key for the place metadata item
func CreatePlaceMetaSK() string {
	return "META"
}

// CreatePhotoSK builds the sort key for a photo item
func CreatePhotoSK(photoID string) string {
	return "PHOTO#" + photoID
}

// GenerateUserKey builds the GSI partition key for listing a user's places
func GenerateUserKey(userID string) string {
	return "USER#" + userID
}

// GenerateCreatedKey builds the GSI sort key ordering places by creation time
func GenerateCreatedKey(t time.Time) string {
	return "CREATED#" + t.UTC().Format(time.RFC3339)
}
