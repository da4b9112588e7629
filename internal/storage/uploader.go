package storage

import (
	"context"
	"log"

	"tussles/internal/apperror"

	"github.com/google/uuid"
)

const imageKeyPrefix = "tussles/"

// StoredImage is where an image ended up.
type StoredImage struct {
	Key string
	URL string
}

// ImageUploader names validated images and writes them to a store.
type ImageUploader struct {
	store ObjectStore
}

func NewImageUploader(store ObjectStore) *ImageUploader {
	return &ImageUploader{store: store}
}

// Store uploads img under a fresh random key.
func (u *ImageUploader) Store(ctx context.Context, img *ImageFile) (*StoredImage, error) {
	key := imageKeyPrefix + uuid.NewString() + img.Ext
	if err := u.store.Upload(ctx, key, img.Data, img.ContentType); err != nil {
		if appErr, ok := apperror.As(err); ok {
			return nil, appErr
		}
		return nil, apperror.Upstream("Failed to upload image", err)
	}
	return &StoredImage{Key: key, URL: u.store.PublicURL(key)}, nil
}

// Discard removes a stored image, logging instead of failing.
func (u *ImageUploader) Discard(ctx context.Context, img *StoredImage) {
	if img == nil {
		return
	}
	if err := u.store.Delete(ctx, img.Key); err != nil {
		log.Printf("warning: failed to remove orphaned image %s: %v", img.Key, err)
	}
}
