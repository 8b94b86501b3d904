package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lost-persons/internal/proxy"
	"lost-persons/internal/storage"
	lperrors "lost-persons/pkg/errors"

	"github.com/google/uuid"
)

// Presigner issues direct-to-bucket upload URLs. *storage.Client implements it.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string, sizeBytes int64) (storage.PresignedUpload, error)
}

type UploadService struct {
	storage Presigner
}

// NewUploadService accepts a nil presigner; every request then fails with ErrUnavailable.
func NewUploadService(p Presigner) *UploadService {
	return &UploadService{storage: p}
}

type PresignInput struct {
	FileName    string
	ContentType string
	FileSize    int64
}

type PresignResult struct {
	UploadURL string            `json:"upload_url"`
	Key       string            `json:"key"`
	Headers   map[string]string `json:"headers"`
	ExpiresAt time.Time         `json:"expires_at"`
	PublicURL string            `json:"public_url,omitempty"`
}

// PresignPhoto returns a URL the client PUTs an image to. The returned key is what
// reports and sightings store in their photo lists.
func (s *UploadService) PresignPhoto(ctx context.Context, actor proxy.Actor, in PresignInput) (PresignResult, error) {
	if s.storage == nil {
		return PresignResult{}, fmt.Errorf("photo uploads are not configured: %w", lperrors.ErrUnavailable)
	}
	ext, err := storage.PhotoExtension(in.ContentType)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			return PresignResult{}, fmt.Errorf("only images are accepted: %w", lperrors.ErrInvalidInput)
		}
		return PresignResult{}, err
	}
	if in.FileSize < 0 || in.FileSize > storage.MaxPhotoBytes {
		return PresignResult{}, fmt.Errorf("file size must be at most %d bytes: %w", storage.MaxPhotoBytes, lperrors.ErrInvalidInput)
	}

	key := fmt.Sprintf("photos/%s/%s%s", actor.ID, uuid.NewString(), ext)
	up, err := s.storage.PresignPut(ctx, key, in.ContentType, in.FileSize)
	if err != nil {
		return PresignResult{}, err
	}
	return PresignResult{
		UploadURL: up.URL,
		Key:       up.Key,
		Headers:   up.Headers,
		ExpiresAt: up.ExpiresAt,
		PublicURL: up.PublicURL,
	}, nil
}
