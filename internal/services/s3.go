package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"saved-places-backend/internal/models"
)

// S3Client handles photo object storage for saved places
type S3Client struct {
	client     *s3.Client
	bucketName string
	region     string
}

// S3UploadResult represents the result of an S3 upload operation
type S3UploadResult struct {
	Key         string    `json:"key"`
	ETag        string    `json:"etag"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
	ContentType string    `json:"content_type"`
	PublicURL   string    `json:"public_url"`
}

// NewS3Client creates a new S3 client with AWS SDK v2
func NewS3Client() (*S3Client, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	bucketName := os.Getenv("PHOTOS_BUCKET")
	if bucketName == "" {
		bucketName = "saved-places-photos"
	}

	return &S3Client{
		client:     s3.NewFromConfig(cfg),
		bucketName: bucketName,
		region:     cfg.Region,
	}, nil
}

// UploadPhoto uploads photo bytes under the given key
func (s *S3Client) UploadPhoto(ctx context.Context, key string, data []byte, contentType string) (*S3UploadResult, error) {
	key = strings.TrimPrefix(key, "/")

	if contentType == "" {
		contentType = "image/jpeg"
	}

	uploadInput := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		CacheControl: aws.String("public, max-age=300"), // 5 minutes
		Metadata: map[string]string{
			"uploaded-by": "saved-places-backend",
			"upload-time": time.Now().UTC().Format(time.RFC3339),
		},
	}

	result, err := s.client.PutObject(ctx, uploadInput)
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &S3UploadResult{
		Key:         key,
		ETag:        strings.Trim(*result.ETag, `"`),
		Size:        int64(len(data)),
		UploadedAt:  time.Now(),
		ContentType: contentType,
		PublicURL:   s.GetPublicURL(key),
	}, nil
}

// DeletePhoto deletes one photo object
func (s *S3Client) DeletePhoto(ctx context.Context, key string) error {
	key = strings.TrimPrefix(key, "/")

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete S3 object: %w", err)
	}

	return nil
}

// GetPublicURL generates the public URL for a photo object
func (s *S3Client) GetPublicURL(key string) string {
	key = strings.TrimPrefix(key, "/")
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucketName, s.region, key)
}

// GetBucketName returns the configured bucket name
func (s *S3Client) GetBucketName() string {
	return s.bucketName
}

// PhotoObjectKey builds the object key for a place photo
func PhotoObjectKey(userID, placeID, fileName string, uploadedAt time.Time) string {
	return fmt.Sprintf("%s/%s/%d_%s", userID, placeID, uploadedAt.UnixMilli(), models.SanitizeFileName(fileName))
}

// ThumbnailObjectKey builds the object key for a photo thumbnail
func ThumbnailObjectKey(userID, placeID, fileName string, uploadedAt time.Time) string {
	return fmt.Sprintf("%s/%s/thumb_%d_%s", userID, placeID, uploadedAt.UnixMilli(), models.SanitizeFileName(fileName))
}

// ProfilePhotoObjectKey builds the object key for a profile photo
func ProfilePhotoObjectKey(userID, fileName string, uploadedAt time.Time) string {
	return fmt.Sprintf("profiles/%s/%d_%s", userID, uploadedAt.UnixMilli(), models.SanitizeFileName(fileName))
}
