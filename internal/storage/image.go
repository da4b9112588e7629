package storage

import (
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"

	"tussles/internal/apperror"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// MaxImageSize is 5MB in bytes
	MaxImageSize = 5 * 1024 * 1024
	// ImageField is the multipart field carrying an order image
	ImageField = "image"
	// LegacyImageField is still accepted from older clients
	LegacyImageField = "tussle_image"
)

// allowedImageTypes maps accepted extensions to their content type.
var allowedImageTypes = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ImageFile is an upload that passed validation and is ready to store.
type ImageFile struct {
	Data        []byte
	ContentType string
	Ext         string
}

func uploadError(code, message string) error {
	err := apperror.FieldError(ImageField, message)
	err.Code = code
	return err
}

// ImageTooLarge is the error for an image, or a request carrying one, over MaxImageSize.
func ImageTooLarge() error {
	return uploadError("FILE_TOO_LARGE",
		fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxImageSize/(1024*1024)))
}

// ValidateImage checks size, extension, declared content type and the
// sniffed content of an uploaded image. It never touches the object store.
func ValidateImage(fileHeader *multipart.FileHeader) (*ImageFile, error) {
	if fileHeader.Size > MaxImageSize {
		return nil, ImageTooLarge()
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	contentType, ok := allowedImageTypes[ext]
	if !ok {
		return nil, uploadError("INVALID_FILE_FORMAT", "Only JPEG, PNG, GIF and WebP images are allowed")
	}

	if declared := fileHeader.Header.Get("Content-Type"); declared != "" {
		mediaType, _, err := mime.ParseMediaType(declared)
		if err != nil || !allowedContentType(mediaType) {
			return nil, uploadError("INVALID_FILE_FORMAT", "Only JPEG, PNG, GIF and WebP images are allowed")
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, apperror.Upstream("Failed to read uploaded image", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("warning: failed to close upload: %v", closeErr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(file, MaxImageSize+1))
	if err != nil {
		return nil, apperror.Upstream("Failed to read uploaded image", err)
	}
	if len(data) > MaxImageSize {
		return nil, ImageTooLarge()
	}

	if sniffed := mimetype.Detect(data); !sniffed.Is(contentType) {
		return nil, uploadError("CONTENT_MISMATCH",
			fmt.Sprintf("File content (%s) does not match its %s extension", sniffed.String(), ext))
	}

	return &ImageFile{Data: data, ContentType: contentType, Ext: ext}, nil
}

func allowedContentType(mediaType string) bool {
	for _, ct := range allowedImageTypes {
		if strings.EqualFold(ct, mediaType) {
			return true
		}
	}
	return false
}
