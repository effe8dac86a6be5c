package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"

	"saved-places-backend/internal/models"
	"saved-places-backend/internal/services"
)

// maxProfilePhotoBytes caps profile photo uploads at 5MB
const maxProfilePhotoBytes = 5 * 1024 * 1024

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type, Authorization",
}

// ResponseBody represents the response body structure
type ResponseBody struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ManageRequest is the action-dispatch request payload
type ManageRequest struct {
	Action    string `json:"action"`
	UserToken string `json:"user_token"`

	// Place fields (update)
	PlaceID     string              `json:"place_id,omitempty"`
	Title       string              `json:"title,omitempty"`
	Notes       string              `json:"notes,omitempty"`
	StreetLine1 string              `json:"street_line1,omitempty"`
	StreetLine2 string              `json:"street_line2,omitempty"`
	City        string              `json:"city,omitempty"`
	State       string              `json:"state,omitempty"`
	PostalCode  string              `json:"postal_code,omitempty"`
	Country     string              `json:"country,omitempty"`
	Phone       string              `json:"phone,omitempty"`
	Website     string              `json:"website,omitempty"`
	Category    string              `json:"category,omitempty"`
	Links       *[]models.PlaceLink `json:"links,omitempty"`

	// Photo fields
	PhotoID         string `json:"photo_id,omitempty"`
	FileBase64      string `json:"file_base64,omitempty"`
	FileName        string `json:"file_name,omitempty"`
	FileType        string `json:"file_type,omitempty"`
	ThumbnailBase64 string `json:"thumbnail_base64,omitempty"`
	Description     string `json:"description,omitempty"`
}

// PlaceView is the list representation of a place with photos attached
type PlaceView struct {
	PlaceID     string             `json:"place_id"`
	Title       string             `json:"title,omitempty"`
	Notes       string             `json:"notes,omitempty"`
	RawText     string             `json:"raw_text,omitempty"`
	StreetLine1 string             `json:"street_line1,omitempty"`
	StreetLine2 string             `json:"street_line2,omitempty"`
	City        string             `json:"city,omitempty"`
	State       string             `json:"state,omitempty"`
	PostalCode  string             `json:"postal_code,omitempty"`
	Country     string             `json:"country,omitempty"`
	Phone       string             `json:"phone,omitempty"`
	Website     string             `json:"website,omitempty"`
	Category    string             `json:"category,omitempty"`
	Hashtags    []string           `json:"hashtags,omitempty"`
	Links       []models.PlaceLink `json:"links,omitempty"`
	Photos      []models.PhotoView `json:"photos"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// placeManager bundles the services every action needs
type placeManager struct {
	store  *services.DynamoDBService
	photos *services.S3Client
}

// Services are built once per process and reused across warm invocations
var (
	manager     *placeManager
	managerErr  error
	managerOnce sync.Once
)

func getManager() (*placeManager, error) {
	managerOnce.Do(func() {
		manager, managerErr = newPlaceManager()
	})
	return manager, managerErr
}

func newPlaceManager() (*placeManager, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	placesTable := os.Getenv("PLACES_TABLE")
	profilesTable := os.Getenv("PROFILES_TABLE")
	if placesTable == "" || profilesTable == "" {
		return nil, fmt.Errorf("required environment variables not set: PLACES_TABLE, PROFILES_TABLE")
	}

	s3Client, err := services.NewS3Client()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	return &placeManager{
		store:  services.NewDynamoDBService(dynamodb.NewFromConfig(cfg), placesTable, profilesTable),
		photos: s3Client,
	}, nil
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if request.HTTPMethod == "OPTIONS" {
		return jsonResponse(200, ResponseBody{Success: true, Message: "ok"}), nil
	}

	if request.HTTPMethod != "POST" {
		return jsonResponse(405, ResponseBody{Success: false, Error: "Method not allowed"}), nil
	}

	var req ManageRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		log.Printf("JSON parse error: %v", err)
		return jsonResponse(400, ResponseBody{Success: false, Error: "Invalid JSON body"}), nil
	}

	if req.UserToken == "" {
		return jsonResponse(401, ResponseBody{Success: false, Error: "Missing user_token"}), nil
	}

	manager, err := getManager()
	if err != nil {
		log.Printf("ERROR: failed to initialize place manager: %v", err)
		return jsonResponse(500, ResponseBody{Success: false, Error: "Internal server error"}), nil
	}

	profile, err := manager.store.GetProfileByAPIKey(ctx, req.UserToken)
	if err != nil || !profile.IsActive {
		if err != nil && !errors.Is(err, services.ErrNotFound) {
			log.Printf("Profile lookup failed: %v", err)
		}
		return jsonResponse(401, ResponseBody{Success: false, Error: "Invalid or inactive user_token"}), nil
	}

	log.Printf("manage-places action=%s user=%s", req.Action, profile.ProfileID)

	var responseBody ResponseBody
	var statusCode int

	switch req.Action {
	case "list":
		responseBody, statusCode = manager.handleList(ctx, profile.ProfileID)
	case "update":
		responseBody, statusCode = manager.handleUpdate(ctx, profile.ProfileID, req)
	case "delete":
		responseBody, statusCode = manager.handleDelete(ctx, profile.ProfileID, req)
	case "upload_photo":
		responseBody, statusCode = manager.handleUploadPhoto(ctx, profile.ProfileID, req)
	case "update_photo":
		responseBody, statusCode = manager.handleUpdatePhoto(ctx, profile.ProfileID, req)
	case "delete_photo":
		responseBody, statusCode = manager.handleDeletePhoto(ctx, profile.ProfileID, req)
	case "upload_profile_photo":
		responseBody, statusCode = manager.handleUploadProfilePhoto(ctx, profile, req)
	default:
		responseBody = ResponseBody{Success: false, Error: "Unknown action"}
		statusCode = 400
	}

	return jsonResponse(statusCode, responseBody), nil
}

// ownedPlace loads a place and verifies it belongs to the caller. The
// status code distinguishes a missing place (404) from someone else's (403).
func (m *placeManager) ownedPlace(ctx context.Context, userID, placeID string) (*models.Place, ResponseBody, int) {
	if placeID == "" {
		return nil, ResponseBody{Success: false, Error: "Missing place_id"}, 400
	}

	place, err := m.store.GetPlace(ctx, placeID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, ResponseBody{Success: false, Error: "Place not found"}, 404
		}
		log.Printf("Error loading place %s: %v", placeID, err)
		return nil, ResponseBody{Success: false, Error: "Error loading place"}, 500
	}

	if place.UserID != userID {
		log.Printf("Ownership mismatch: place %s does not belong to user %s", placeID, userID)
		return nil, ResponseBody{Success: false, Error: "Forbidden"}, 403
	}

	return place, ResponseBody{}, 0
}

// handleList returns the caller's places, newest first, with photo URLs
func (m *placeManager) handleList(ctx context.Context, userID string) (ResponseBody, int) {
	places, err := m.store.QueryPlacesByUser(ctx, userID, 200)
	if err != nil {
		log.Printf("Error listing places: %v", err)
		return ResponseBody{Success: false, Error: "Error listing places"}, 500
	}

	views := make([]PlaceView, 0, len(places))
	for _, place := range places {
		view := PlaceView{
			PlaceID:     place.PlaceID,
			Title:       place.Title,
			Notes:       place.Notes,
			RawText:     place.RawText,
			StreetLine1: place.StreetLine1,
			StreetLine2: place.StreetLine2,
			City:        place.City,
			State:       place.State,
			PostalCode:  place.PostalCode,
			Country:     place.Country,
			Phone:       place.Phone,
			Website:     place.Website,
			Category:    place.Category,
			Hashtags:    place.Hashtags,
			Links:       place.Links,
			Photos:      []models.PhotoView{},
			CreatedAt:   place.CreatedAt,
			UpdatedAt:   place.UpdatedAt,
		}

		photos, err := m.store.QueryPlacePhotos(ctx, place.PlaceID)
		if err != nil {
			// List still succeeds with the photo descriptors missing
			log.Printf("Error listing photos for place %s: %v", place.PlaceID, err)
		} else {
			for _, photo := range photos {
				view.Photos = append(view.Photos, m.photoView(photo))
			}
		}

		views = append(views, view)
	}

	return ResponseBody{Success: true, Data: map[string]any{"places": views}}, 200
}

func (m *placeManager) photoView(photo models.PlacePhoto) models.PhotoView {
	view := models.PhotoView{
		PhotoID:      photo.PhotoID,
		Description:  photo.Description,
		DisplayOrder: photo.DisplayOrder,
		URL:          m.photos.GetPublicURL(photo.StoragePath),
	}
	if photo.ThumbnailPath != "" {
		view.ThumbnailURL = m.photos.GetPublicURL(photo.ThumbnailPath)
	}
	return view
}

// handleUpdate overwrites the editable fields of an owned place
func (m *placeManager) handleUpdate(ctx context.Context, userID string, req ManageRequest) (ResponseBody, int) {
	place, errBody, errCode := m.ownedPlace(ctx, userID, req.PlaceID)
	if errCode != 0 {
		return errBody, errCode
	}

	if req.Category != "" && !models.ValidateCategory(req.Category) {
		return ResponseBody{Success: false, Error: "Invalid category"}, 400
	}

	if req.Links != nil {
		if msg := models.ValidateLinks(*req.Links); msg != "" {
			return ResponseBody{Success: false, Error: msg}, 400
		}
		place.Links = *req.Links
	}

	place.Title = req.Title
	place.Notes = req.Notes
	place.StreetLine1 = req.StreetLine1
	place.StreetLine2 = req.StreetLine2
	place.City = req.City
	place.State = req.State
	place.PostalCode = req.PostalCode
	place.Country = req.Country
	place.Phone = req.Phone
	place.Website = req.Website
	place.Category = req.Category

	if err := m.store.UpdatePlace(ctx, place); err != nil {
		log.Printf("Update error: %v", err)
		return ResponseBody{Success: false, Error: "Error updating place"}, 500
	}

	return ResponseBody{Success: true, Message: "Place updated"}, 200
}

// handleDelete removes an owned place with its photo records and objects
func (m *placeManager) handleDelete(ctx context.Context, userID string, req ManageRequest) (ResponseBody, int) {
	place, errBody, errCode := m.ownedPlace(ctx, userID, req.PlaceID)
	if errCode != 0 {
		return errBody, errCode
	}

	photos, err := m.store.QueryPlacePhotos(ctx, place.PlaceID)
	if err != nil {
		log.Printf("Error listing photos for delete: %v", err)
	}
	for _, photo := range photos {
		if err := m.photos.DeletePhoto(ctx, photo.StoragePath); err != nil {
			log.Printf("Storage delete warning: %v", err)
		}
		if photo.ThumbnailPath != "" {
			if err := m.photos.DeletePhoto(ctx, photo.ThumbnailPath); err != nil {
				log.Printf("Storage delete warning: %v", err)
			}
		}
		if err := m.store.DeletePlacePhoto(ctx, place.PlaceID, photo.PhotoID); err != nil {
			log.Printf("Photo record delete warning: %v", err)
		}
	}

	if err := m.store.DeletePlace(ctx, place.PlaceID); err != nil {
		log.Printf("Delete error: %v", err)
		return ResponseBody{Success: false, Error: "Error deleting place"}, 500
	}

	return ResponseBody{Success: true, Message: "Place deleted"}, 200
}

// handleUploadPhoto stores a photo (and optional thumbnail) for an owned place
func (m *placeManager) handleUploadPhoto(ctx context.Context, userID string, req ManageRequest) (ResponseBody, int) {
	if req.PlaceID == "" || req.FileBase64 == "" || req.FileName == "" {
		return ResponseBody{Success: false, Error: "Missing place_id, file_base64, or file_name"}, 400
	}

	place, errBody, errCode := m.ownedPlace(ctx, userID, req.PlaceID)
	if errCode != 0 {
		return errBody, errCode
	}

	count, err := m.store.CountPlacePhotos(ctx, place.PlaceID)
	if err != nil {
		log.Printf("Error counting photos: %v", err)
		return ResponseBody{Success: false, Error: "Error checking photo count"}, 500
	}
	if count >= models.MaxPhotosPerPlace {
		return ResponseBody{Success: false, Error: "Maximum 5 photos per place"}, 400
	}

	fileData, err := base64.StdEncoding.DecodeString(req.FileBase64)
	if err != nil {
		return ResponseBody{Success: false, Error: "Invalid file_base64"}, 400
	}

	now := time.Now()
	storagePath := services.PhotoObjectKey(userID, place.PlaceID, req.FileName, now)

	if _, err := m.photos.UploadPhoto(ctx, storagePath, fileData, req.FileType); err != nil {
		log.Printf("Storage upload error: %v", err)
		return ResponseBody{Success: false, Error: "Upload failed"}, 500
	}

	thumbnailPath := ""
	if req.ThumbnailBase64 != "" {
		thumbData, err := base64.StdEncoding.DecodeString(req.ThumbnailBase64)
		if err != nil {
			log.Printf("Thumbnail decode failed: %v", err)
		} else {
			candidate := services.ThumbnailObjectKey(userID, place.PlaceID, req.FileName, now)
			if _, err := m.photos.UploadPhoto(ctx, candidate, thumbData, req.FileType); err != nil {
				log.Printf("Thumbnail upload failed: %v", err)
			} else {
				thumbnailPath = candidate
			}
		}
	}

	photo := &models.PlacePhoto{
		PhotoID:       uuid.New().String(),
		PlaceID:       place.PlaceID,
		StoragePath:   storagePath,
		ThumbnailPath: thumbnailPath,
		Description:   req.Description,
		DisplayOrder:  count,
	}

	if err := m.store.CreatePlacePhoto(ctx, photo); err != nil {
		log.Printf("Photo record insert error: %v", err)
		// Clean up uploaded objects so storage doesn't leak
		if delErr := m.photos.DeletePhoto(ctx, storagePath); delErr != nil {
			log.Printf("Cleanup warning: %v", delErr)
		}
		if thumbnailPath != "" {
			if delErr := m.photos.DeletePhoto(ctx, thumbnailPath); delErr != nil {
				log.Printf("Cleanup warning: %v", delErr)
			}
		}
		return ResponseBody{Success: false, Error: "Error saving photo record"}, 500
	}

	return ResponseBody{Success: true, Data: map[string]any{"photo": m.photoView(*photo)}}, 200
}

// handleUpdatePhoto updates a photo's description
func (m *placeManager) handleUpdatePhoto(ctx context.Context, userID string, req ManageRequest) (ResponseBody, int) {
	if req.PhotoID == "" || req.PlaceID == "" {
		return ResponseBody{Success: false, Error: "Missing photo_id or place_id"}, 400
	}

	place, errBody, errCode := m.ownedPlace(ctx, userID, req.PlaceID)
	if errCode != 0 {
		return errBody, errCode
	}

	photo, err := m.store.GetPlacePhoto(ctx, place.PlaceID, req.PhotoID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return ResponseBody{Success: false, Error: "Photo not found"}, 404
		}
		log.Printf("Error loading photo: %v", err)
		return ResponseBody{Success: false, Error: "Error loading photo"}, 500
	}

	photo.Description = req.Description
	if err := m.store.UpdatePlacePhoto(ctx, photo); err != nil {
		log.Printf("Photo update error: %v", err)
		return ResponseBody{Success: false, Error: "Error updating photo"}, 500
	}

	return ResponseBody{Success: true, Message: "Photo updated"}, 200
}

// handleDeletePhoto removes a photo's objects (best effort) and its record
func (m *placeManager) handleDeletePhoto(ctx context.Context, userID string, req ManageRequest) (ResponseBody, int) {
	if req.PhotoID == "" || req.PlaceID == "" {
		return ResponseBody{Success: false, Error: "Missing photo_id or place_id"}, 400
	}

	place, errBody, errCode := m.ownedPlace(ctx, userID, req.PlaceID)
	if errCode != 0 {
		return errBody, errCode
	}

	photo, err := m.store.GetPlacePhoto(ctx, place.PlaceID, req.PhotoID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return ResponseBody{Success: false, Error: "Photo not found"}, 404
		}
		log.Printf("Error loading photo: %v", err)
		return ResponseBody{Success: false, Error: "Error loading photo"}, 500
	}

	// Storage deletes are best effort; the record delete is what counts
	if err := m.photos.DeletePhoto(ctx, photo.StoragePath); err != nil {
		log.Printf("Storage delete warning: %v", err)
	}
	if photo.ThumbnailPath != "" {
		if err := m.photos.DeletePhoto(ctx, photo.ThumbnailPath); err != nil {
			log.Printf("Storage delete warning: %v", err)
		}
	}

	if err := m.store.DeletePlacePhoto(ctx, place.PlaceID, photo.PhotoID); err != nil {
		log.Printf("Photo delete error: %v", err)
		return ResponseBody{Success: false, Error: "Error deleting photo"}, 500
	}

	return ResponseBody{Success: true, Message: "Photo deleted"}, 200
}

// handleUploadProfilePhoto replaces the caller's profile photo
func (m *placeManager) handleUploadProfilePhoto(ctx context.Context, profile *models.Profile, req ManageRequest) (ResponseBody, int) {
	if req.FileBase64 == "" || req.FileName == "" {
		return ResponseBody{Success: false, Error: "Missing file_base64 or file_name"}, 400
	}

	fileData, err := base64.StdEncoding.DecodeString(req.FileBase64)
	if err != nil {
		return ResponseBody{Success: false, Error: "Invalid file_base64"}, 400
	}
	if len(fileData) > maxProfilePhotoBytes {
		return ResponseBody{Success: false, Error: "File too large. Maximum size is 5MB."}, 400
	}

	// Replace the previous photo object if one exists
	if profile.ProfilePhotoPath != "" {
		if err := m.photos.DeletePhoto(ctx, profile.ProfilePhotoPath); err != nil {
			log.Printf("Old profile photo delete warning: %v", err)
		}
	}

	storagePath := services.ProfilePhotoObjectKey(profile.ProfileID, req.FileName, time.Now())
	if _, err := m.photos.UploadPhoto(ctx, storagePath, fileData, req.FileType); err != nil {
		log.Printf("Profile photo upload error: %v", err)
		return ResponseBody{Success: false, Error: "Upload failed"}, 500
	}

	profile.ProfilePhotoPath = storagePath
	if err := m.store.UpdateProfile(ctx, profile); err != nil {
		log.Printf("Profile update error: %v", err)
		if delErr := m.photos.DeletePhoto(ctx, storagePath); delErr != nil {
			log.Printf("Cleanup warning: %v", delErr)
		}
		return ResponseBody{Success: false, Error: "Failed to update profile"}, 500
	}

	return ResponseBody{Success: true, Data: map[string]any{
		"profile_photo_path": storagePath,
		"profile_photo_url":  m.photos.GetPublicURL(storagePath),
	}}, 200
}

func jsonResponse(statusCode int, body ResponseBody) events.APIGatewayProxyResponse {
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
			Body:       `{"success":false,"error":"Internal server error"}`,
		}
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       string(bodyJSON),
	}
}

func main() {
	lambda.Start(handleRequest)
}
