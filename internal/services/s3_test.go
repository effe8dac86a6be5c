package services

import (
	"testing"
	"time"
)

func TestObjectKeys(t *testing.T) {
	uploadedAt := time.UnixMilli(1700000000000)

	key := PhotoObjectKey("user-1", "place-1", "my photo.jpg", uploadedAt)
	want := "user-1/place-1/1700000000000_my_photo.jpg"
	if key != want {
		t.Errorf("PhotoObjectKey = %q, want %q", key, want)
	}

	thumb := ThumbnailObjectKey("user-1", "place-1", "my photo.jpg", uploadedAt)
	wantThumb := "user-1/place-1/thumb_1700000000000_my_photo.jpg"
	if thumb != wantThumb {
		t.Errorf("ThumbnailObjectKey = %q, want %q", thumb, wantThumb)
	}

	profile := ProfilePhotoObjectKey("user-1", "avatar.png", uploadedAt)
	wantProfile := "profiles/user-1/1700000000000_avatar.png"
	if profile != wantProfile {
		t.Errorf("ProfilePhotoObjectKey = %q, want %q", profile, wantProfile)
	}
}

func TestGetPublicURL(t *testing.T) {
	client := &S3Client{bucketName: "saved-places-photos", region: "us-west-2"}

	got := client.GetPublicURL("user-1/place-1/1_photo.jpg")
	want := "https://saved-places-photos.s3.us-west-2.amazonaws.com/user-1/place-1/1_photo.jpg"
	if got != want {
		t.Errorf("GetPublicURL = %q, want %q", got, want)
	}

	// Leading slash must not double up in the URL
	if got := client.GetPublicURL("/a/b.jpg"); got != "https://saved-places-photos.s3.us-west-2.amazonaws.com/a/b.jpg" {
		t.Errorf("GetPublicURL with leading slash = %q", got)
	}
}
