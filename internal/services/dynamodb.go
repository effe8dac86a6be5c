package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"saved-places-backend/internal/models"
)

// ErrNotFound is returned when a requested item does not exist
var ErrNotFound = fmt.Errorf("item not found")

// DynamoDBService provides CRUD operations for the places and profiles tables
type DynamoDBService struct {
	client        *dynamodb.Client
	placesTable   string
	profilesTable string
}

// NewDynamoDBService creates a new DynamoDB service instance
func NewDynamoDBService(client *dynamodb.Client, placesTable, profilesTable string) *DynamoDBService {
	return &DynamoDBService{
		client:        client,
		placesTable:   placesTable,
		profilesTable: profilesTable,
	}
}

// Places Table Operations

// CreatePlace stores a place record
func (s *DynamoDBService) CreatePlace(ctx context.Context, place *models.Place) error {
	now := time.Now()
	place.CreatedAt = now
	place.UpdatedAt = now

	s.populatePlaceKeys(place)

	item, err := attributevalue.MarshalMap(place)
	if err != nil {
		return fmt.Errorf("failed to marshal place: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.placesTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to create place: %w", err)
	}

	return nil
}

// GetPlace retrieves a place by its identifier
func (s *DynamoDBService) GetPlace(ctx context.Context, placeID string) (*models.Place, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.placesTable),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: models.CreatePlacePK(placeID)},
			"SK": &types.AttributeValueMemberS{Value: models.CreatePlaceMetaSK()},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get place: %w", err)
	}

	if result.Item == nil {
		return nil, ErrNotFound
	}

	var place models.Place
	err = attributevalue.UnmarshalMap(result.Item, &place)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal place: %w", err)
	}

	return &place, nil
}

// UpdatePlace overwrites an existing place record
func (s *DynamoDBService) UpdatePlace(ctx context.Context, place *models.Place) error {
	place.UpdatedAt = time.Now()

	s.populatePlaceKeys(place)

	item, err := attributevalue.MarshalMap(place)
	if err != nil {
		return fmt.Errorf("failed to marshal place: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.placesTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to update place: %w", err)
	}

	return nil
}

// DeletePlace removes a place record
func (s *DynamoDBService) DeletePlace(ctx context.Context, placeID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.placesTable),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: models.CreatePlacePK(placeID)},
			"SK": &types.AttributeValueMemberS{Value: models.CreatePlaceMetaSK()},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete place: %w", err)
	}

	return nil
}

// QueryPlacesByUser lists a user's places newest first using the GSI
func (s *DynamoDBService) QueryPlacesByUser(ctx context.Context, userID string, limit int32) ([]models.Place, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.placesTable),
		IndexName:              aws.String("user-created-index"),
		KeyConditionExpression: aws.String("UserKey = :userKey"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":userKey": &types.AttributeValueMemberS{Value: models.GenerateUserKey(userID)},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query places by user: %w", err)
	}

	var places []models.Place
	err = attributevalue.UnmarshalListOfMaps(result.Items, &places)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal places: %w", err)
	}

	return places, nil
}

// Photo Item Operations

// CreatePlacePhoto stores a photo record under its place
func (s *DynamoDBService) CreatePlacePhoto(ctx context.Context, photo *models.PlacePhoto) error {
	photo.CreatedAt = time.Now()
	photo.PK = models.CreatePlacePK(photo.PlaceID)
	photo.SK = models.CreatePhotoSK(photo.PhotoID)

	item, err := attributevalue.MarshalMap(photo)
	if err != nil {
		return fmt.Errorf("failed to marshal photo: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.placesTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}

	return nil
}

// GetPlacePhoto retrieves one photo record
func (s *DynamoDBService) GetPlacePhoto(ctx context.Context, placeID, photoID string) (*models.PlacePhoto, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.placesTable),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: models.CreatePlacePK(placeID)},
			"SK": &types.AttributeValueMemberS{Value: models.CreatePhotoSK(photoID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}

	if result.Item == nil {
		return nil, ErrNotFound
	}

	var photo models.PlacePhoto
	err = attributevalue.UnmarshalMap(result.Item, &photo)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal photo: %w", err)
	}

	return &photo, nil
}

// UpdatePlacePhoto overwrites an existing photo record
func (s *DynamoDBService) UpdatePlacePhoto(ctx context.Context, photo *models.PlacePhoto) error {
	photo.PK = models.CreatePlacePK(photo.PlaceID)
	photo.SK = models.CreatePhotoSK(photo.PhotoID)

	item, err := attributevalue.MarshalMap(photo)
	if err != nil {
		return fmt.Errorf("failed to marshal photo: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.placesTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to update photo: %w", err)
	}

	return nil
}

// DeletePlacePhoto removes one photo record
func (s *DynamoDBService) DeletePlacePhoto(ctx context.Context, placeID, photoID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.placesTable),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: models.CreatePlacePK(placeID)},
			"SK": &types.AttributeValueMemberS{Value: models.CreatePhotoSK(photoID)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}

	return nil
}

// QueryPlacePhotos lists the photo records for a place
func (s *DynamoDBService) QueryPlacePhotos(ctx context.Context, placeID string) ([]models.PlacePhoto, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.placesTable),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :photoPrefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":          &types.AttributeValueMemberS{Value: models.CreatePlacePK(placeID)},
			":photoPrefix": &types.AttributeValueMemberS{Value: "PHOTO#"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}

	var photos []models.PlacePhoto
	err = attributevalue.UnmarshalListOfMaps(result.Items, &photos)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal photos: %w", err)
	}

	return photos, nil
}

// CountPlacePhotos counts the photo records for a place
func (s *DynamoDBService) CountPlacePhotos(ctx context.Context, placeID string) (int, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.placesTable),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :photoPrefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":          &types.AttributeValueMemberS{Value: models.CreatePlacePK(placeID)},
			":photoPrefix": &types.AttributeValueMemberS{Value: "PHOTO#"},
		},
		Select: types.SelectCount,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count photos: %w", err)
	}

	return int(result.Count), nil
}

// Profiles Table Operations

// GetProfileByAPIKey looks up a profile from a caller-supplied token using
// the api-key GSI. Returns ErrNotFound when no profile matches.
func (s *DynamoDBService) GetProfileByAPIKey(ctx context.Context, apiKey string) (*models.Profile, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.profilesTable),
		IndexName:              aws.String("api-key-index"),
		KeyConditionExpression: aws.String("api_key = :apiKey"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":apiKey": &types.AttributeValueMemberS{Value: apiKey},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query profile by api key: %w", err)
	}

	if len(result.Items) == 0 {
		return nil, ErrNotFound
	}

	var profile models.Profile
	err = attributevalue.UnmarshalMap(result.Items[0], &profile)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	return &profile, nil
}

// GetProfile retrieves a profile by its identifier
func (s *DynamoDBService) GetProfile(ctx context.Context, profileID string) (*models.Profile, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.profilesTable),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: models.CreateProfilePK(profileID)},
			"SK": &types.AttributeValueMemberS{Value: models.CreateProfileMetaSK()},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if result.Item == nil {
		return nil, ErrNotFound
	}

	var profile models.Profile
	err = attributevalue.UnmarshalMap(result.Item, &profile)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	return &profile, nil
}

// UpdateProfile overwrites an existing profile record
func (s *DynamoDBService) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	profile.UpdatedAt = time.Now()
	profile.PK = models.CreateProfilePK(profile.ProfileID)
	profile.SK = models.CreateProfileMetaSK()

	item, err := attributevalue.MarshalMap(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.profilesTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return nil
}

// populatePlaceKeys fills the primary and GSI keys before a write
func (s *DynamoDBService) populatePlaceKeys(place *models.Place) {
	place.PK = models.CreatePlacePK(place.PlaceID)
	place.SK = models.CreatePlaceMetaSK()

	if place.UserID != "" {
		place.UserKey = models.GenerateUserKey(place.UserID)
	}
	place.CreatedKey = models.GenerateCreatedKey(place.CreatedAt)
}
