package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPhotoExtension(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
		err         error
	}{
		{"image/jpeg", ".jpg", nil},
		{"IMAGE/PNG", ".png", nil},
		{"image/webp; charset=binary", ".webp", nil},
		{"video/mp4", "", ErrUnsupportedType},
		{"", "", ErrUnsupportedType},
	}
	for _, tt := range tests {
		got, err := PhotoExtension(tt.contentType)
		if !errors.Is(err, tt.err) || got != tt.want {
			t.Errorf("PhotoExtension(%q) = %q, %v; want %q, %v", tt.contentType, got, err, tt.want, tt.err)
		}
	}
}

func TestPresignPutSignsLocally(t *testing.T) {
	client, err := NewClient(context.Background(), S3Config{
		Region:     "us-east-1",
		Bucket:     "photos",
		AccessKey:  "AKIDEXAMPLE",
		SecretKey:  "secret",
		Endpoint:   "http://localhost:9000",
		PublicBase: "https://cdn.example.com/",
		PresignTTL: 5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	up, err := client.PresignPut(context.Background(), "photos/u/1.png", "image/png", 10)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.HasPrefix(up.URL, "http://localhost:9000/photos/photos/u/1.png?") {
		t.Fatalf("unexpected url %s", up.URL)
	}
	if !strings.Contains(up.URL, "X-Amz-Signature=") {
		t.Fatalf("url is not signed: %s", up.URL)
	}
	if up.PublicURL != "https://cdn.example.com/photos/u/1.png" {
		t.Fatalf("unexpected public url %s", up.PublicURL)
	}
	if up.Headers["Content-Length"] != "10" {
		t.Fatalf("expected content length header, got %v", up.Headers)
	}
}

func TestNewClientRequiresBucket(t *testing.T) {
	if _, err := NewClient(context.Background(), S3Config{Region: "us-east-1"}); err == nil {
		t.Fatalf("expected error without bucket")
	}
}
