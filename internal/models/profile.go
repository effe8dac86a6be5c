package models

import "time"

// Profile represents a registered user identified by an invite-code API key
type Profile struct {
	// Primary Keys
	PK string `json:"PK" dynamodbav:"PK"` // PROFILE#{profile_id}
	SK string `json:"SK" dynamodbav:"SK"` // META

	ProfileID string `json:"profile_id" dynamodbav:"profile_id"`
	FirstName string `json:"first_name,omitempty" dynamodbav:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty" dynamodbav:"last_name,omitempty"`
	APIKey    string `json:"api_key" dynamodbav:"api_key"`
	IsActive  bool   `json:"is_active" dynamodbav:"is_active"`

	ProfilePhotoPath string `json:"profile_photo_path,omitempty" dynamodbav:"profile_photo_path,omitempty"`

	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// CreateProfilePK builds the partition key for a profile
func CreateProfilePK(profileID string) string {
	return "PROFILE#" + profileID
}

// CreateProfileMetaSK builds the sort key for the profile metadata item
func CreateProfileMetaSK() string {
	return "META"
}
