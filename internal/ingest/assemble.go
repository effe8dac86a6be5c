package ingest

import (
	"time"

	"saved-places-backend/internal/models"
)

// InboundMessage is one decoded SMS webhook delivery
type InboundMessage struct {
	FromPhone string
	Body      string
}

// AssemblePlace merges an inbound message, the extracted URL, and the
// best-effort enrichment result into one persistable place record. The
// coordinate pair is copied only when both halves resolved; a half-populated
// pair is stored as neither.
func AssemblePlace(placeID string, msg InboundMessage, mapsURL string, resolved *models.ResolvedPlace, now time.Time) *models.Place {
	notes := StripURL(msg.Body, mapsURL)

	title := ""
	address := ""
	if resolved != nil {
		if resolved.Name != nil {
			title = *resolved.Name
		}
		if resolved.Address != nil {
			address = *resolved.Address
		}
	}

	hashtags := DeriveHashtags(HashtagInput{
		Title: title,
		Notes: notes,
	})

	place := &models.Place{
		PK:         models.CreatePlacePK(placeID),
		SK:         models.CreatePlaceMetaSK(),
		PlaceID:    placeID,
		FromPhone:  msg.FromPhone,
		RawText:    msg.Body,
		MapsURL:    mapsURL,
		Notes:      notes,
		Title:      title,
		Address:    address,
		Hashtags:   hashtags,
		CreatedAt:  now,
		UpdatedAt:  now,
		CreatedKey: models.GenerateCreatedKey(now),
	}

	if resolved.HasCoordinates() {
		lat := *resolved.Latitude
		lon := *resolved.Longitude
		place.Latitude = &lat
		place.Longitude = &lon
	}

	return place
}
