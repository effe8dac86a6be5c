package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"

	"saved-places-backend/internal/ingest"
	"saved-places-backend/internal/models"
	"saved-places-backend/internal/services"
)

// corsHeaders allow the shortcut companion page to call this function
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type, Authorization",
}

// ShortcutPayload is the JSON body submitted by the iOS shortcut
type ShortcutPayload struct {
	PlaceName    string            `json:"place_name"`
	PlaceAddress string            `json:"place_address"`
	Latitude     any               `json:"latitude"` // number or numeric string
	Longitude    any               `json:"longitude"`
	UserNote     string            `json:"user_note"`
	UserToken    string            `json:"user_token"`
	OSMAddress   map[string]string `json:"osm_address"`
	OSMExtratags map[string]string `json:"osm_extratags"`
	Category     string            `json:"category"`
}

// shortcutIngestor handles one shortcut submission
type shortcutIngestor struct {
	store      *services.DynamoDBService
	classifier *services.CategoryClassifier
}

// Services are built once per process and reused across warm invocations
var (
	ingestor     *shortcutIngestor
	ingestorErr  error
	ingestorOnce sync.Once
)

func getIngestor() (*shortcutIngestor, error) {
	ingestorOnce.Do(func() {
		ingestor, ingestorErr = newShortcutIngestor()
	})
	return ingestor, ingestorErr
}

func newShortcutIngestor() (*shortcutIngestor, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	placesTable := os.Getenv("PLACES_TABLE")
	profilesTable := os.Getenv("PROFILES_TABLE")
	if placesTable == "" || profilesTable == "" {
		return nil, fmt.Errorf("required environment variables not set: PLACES_TABLE, PROFILES_TABLE")
	}

	return &shortcutIngestor{
		store:      services.NewDynamoDBService(dynamodb.NewFromConfig(cfg), placesTable, profilesTable),
		classifier: services.NewCategoryClassifier(),
	}, nil
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if request.HTTPMethod == "OPTIONS" {
		return response(200, map[string]string{"status": "ok"}), nil
	}

	if request.HTTPMethod != "POST" {
		return errorResponse(405, "Method not allowed"), nil
	}

	var payload ShortcutPayload
	if err := json.Unmarshal([]byte(request.Body), &payload); err != nil {
		log.Printf("JSON parse error: %v", err)
		return errorResponse(400, "Invalid JSON body"), nil
	}

	if payload.UserToken == "" {
		log.Printf("Missing user_token in payload")
		return errorResponse(401, "Missing user_token"), nil
	}

	ingestor, err := getIngestor()
	if err != nil {
		log.Printf("ERROR: failed to initialize ingestor: %v", err)
		return errorResponse(500, "Error inserting place"), nil
	}

	profile, err := ingestor.store.GetProfileByAPIKey(ctx, payload.UserToken)
	if err != nil || !profile.IsActive {
		if err != nil && !errors.Is(err, services.ErrNotFound) {
			log.Printf("Profile lookup failed: %v", err)
		}
		return errorResponse(401, "Invalid or inactive user_token"), nil
	}

	place, err := ingestor.ingestSubmission(ctx, profile.ProfileID, payload)
	if err != nil {
		log.Printf("ERROR: insert place failed: %v", err)
		return errorResponse(500, "Error inserting place"), nil
	}

	return response(200, map[string]any{
		"status":   "ok",
		"place_id": place.PlaceID,
	}), nil
}

// ingestSubmission normalizes the payload into a place record and inserts it
func (si *shortcutIngestor) ingestSubmission(ctx context.Context, userID string, payload ShortcutPayload) (*models.Place, error) {
	addressParts := ingest.ExtractAddressParts(payload.OSMAddress)
	contact := ingest.ExtractContactInfo(payload.OSMExtratags)

	now := time.Now()
	place := &models.Place{
		PlaceID: uuid.New().String(),
		UserID:  userID,

		Title:   payload.PlaceName,
		RawText: payload.PlaceAddress,
		Notes:   payload.UserNote,

		OSMAddress:   payload.OSMAddress,
		OSMExtratags: payload.OSMExtratags,

		StreetLine1: addressParts.StreetLine1,
		StreetLine2: addressParts.StreetLine2,
		City:        addressParts.City,
		State:       addressParts.State,
		PostalCode:  addressParts.PostalCode,
		Country:     addressParts.Country,
		CountryCode: addressParts.CountryCode,

		Phone:        contact.Phone,
		Website:      contact.Website,
		OpeningHours: contact.OpeningHours,

		CreatedAt: now,
		UpdatedAt: now,
	}

	place.Category = si.resolveCategory(ctx, payload)

	if lat, lon, ok := parseCoordinatePair(payload.Latitude, payload.Longitude); ok {
		place.Latitude = &lat
		place.Longitude = &lon
	}

	place.Hashtags = ingest.DeriveHashtags(ingest.HashtagInput{
		Title:   place.Title,
		City:    place.City,
		State:   place.State,
		Country: place.Country,
		Notes:   place.Notes,
	})

	if err := si.store.CreatePlace(ctx, place); err != nil {
		return nil, err
	}

	return place, nil
}

// resolveCategory prefers the submitted category, then a best-effort
// suggestion, then the default.
func (si *shortcutIngestor) resolveCategory(ctx context.Context, payload ShortcutPayload) string {
	if payload.Category != "" && models.ValidateCategory(payload.Category) {
		return payload.Category
	}

	if si.classifier != nil {
		category, err := si.classifier.SuggestCategory(ctx, payload.PlaceName, payload.UserNote)
		if err == nil {
			return category
		}
		log.Printf("Category suggestion failed: %v", err)
	}

	return models.CategoryOther
}

// parseCoordinatePair accepts coordinates as JSON numbers or numeric
// strings. Both halves must parse to finite values or neither is kept.
func parseCoordinatePair(latRaw, lonRaw any) (float64, float64, bool) {
	lat, latOK := coordinateValue(latRaw)
	lon, lonOK := coordinateValue(lonRaw)
	if !latOK || !lonOK {
		return 0, 0, false
	}

	return lat, lon, true
}

func coordinateValue(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func response(statusCode int, body any) events.APIGatewayProxyResponse {
	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range corsHeaders {
		headers[k] = v
	}

	bodyJSON, err := json.Marshal(body)
	if err != nil {
		log.Printf("Error marshaling response body: %v", err)
		return events.APIGatewayProxyResponse{
			StatusCode: 500,
			Headers:    headers,
			Body:       `{"status":"error","error":"Internal server error"}`,
		}
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       string(bodyJSON),
	}
}

func errorResponse(statusCode int, message string) events.APIGatewayProxyResponse {
	return response(statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

func main() {
	lambda.Start(handleRequest)
}
