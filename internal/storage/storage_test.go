package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"tussles/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 64)...)
	gifBytes  = append([]byte("GIF89a"), make([]byte, 64)...)
	webpBytes = append([]byte("RIFF\x24\x00\x00\x00WEBPVP8 "), make([]byte, 64)...)
	exeBytes  = append([]byte("MZ\x90\x00\x03\x00\x00\x00\x04\x00\x00\x00\xff\xff"), make([]byte, 64)...)
)

// fileHeader round-trips a multipart body so the header looks like one
// gin hands to a handler.
func fileHeader(t *testing.T, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, ImageField, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	require.Len(t, form.File[ImageField], 1)
	return form.File[ImageField][0]
}

func assertUploadError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Equal(t, code, appErr.Code)
	assert.Contains(t, appErr.Fields, ImageField)
}

func TestValidateImage_Accepts(t *testing.T) {
	tests := []struct {
		filename    string
		contentType string
		data        []byte
		want        string
	}{
		{"logo.png", "image/png", pngBytes, "image/png"},
		{"photo.JPG", "image/jpeg", jpegBytes, "image/jpeg"},
		{"photo.jpeg", "image/jpeg", jpegBytes, "image/jpeg"},
		{"spin.gif", "image/gif", gifBytes, "image/gif"},
		{"pic.webp", "image/webp", webpBytes, "image/webp"},
		{"nodeclared.png", "", pngBytes, "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			img, err := ValidateImage(fileHeader(t, tt.filename, tt.contentType, tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, img.ContentType)
			assert.Equal(t, strings.ToLower(tt.filename[strings.LastIndex(tt.filename, "."):]), img.Ext)
			assert.Equal(t, tt.data, img.Data)
		})
	}
}

func TestValidateImage_Rejects(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		code        string
	}{
		{"exe renamed to png", "invoice.png", "image/png", exeBytes, "CONTENT_MISMATCH"},
		{"exe extension", "setup.exe", "application/octet-stream", exeBytes, "INVALID_FILE_FORMAT"},
		{"svg extension", "icon.svg", "image/svg+xml", []byte("<svg></svg>"), "INVALID_FILE_FORMAT"},
		{"declared type not an image", "logo.png", "text/plain", pngBytes, "INVALID_FILE_FORMAT"},
		{"gif content with png name", "logo.png", "image/png", gifBytes, "CONTENT_MISMATCH"},
		{"no extension", "logo", "image/png", pngBytes, "INVALID_FILE_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateImage(fileHeader(t, tt.filename, tt.contentType, tt.data))
			assertUploadError(t, err, tt.code)
		})
	}
}

func TestValidateImage_TooLarge(t *testing.T) {
	data := append(append([]byte{}, pngBytes...), make([]byte, MaxImageSize)...)

	_, err := ValidateImage(fileHeader(t, "huge.png", "image/png", data))
	assertUploadError(t, err, "FILE_TOO_LARGE")
}

func TestImageUploader_Store(t *testing.T) {
	store := NewMemoryStore()
	uploader := NewImageUploader(store)

	img, err := ValidateImage(fileHeader(t, "logo.png", "image/png", pngBytes))
	require.NoError(t, err)

	first, err := uploader.Store(context.Background(), img)
	require.NoError(t, err)
	second, err := uploader.Store(context.Background(), img)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first.Key, "tussles/"))
	assert.True(t, strings.HasSuffix(first.Key, ".png"))
	assert.NotEqual(t, first.Key, second.Key)
	assert.Equal(t, "https://storage.test/tussle-images/"+first.Key, first.URL)
	assert.True(t, store.Has(first.Key))
	assert.Equal(t, 2, store.Len())

	uploader.Discard(context.Background(), first)
	assert.False(t, store.Has(first.Key))
	assert.Equal(t, 1, store.Len())
}

func TestImageUploader_StoreFailureIsUpstream(t *testing.T) {
	store := NewMemoryStore()
	store.FailUploads = errors.New("bucket unreachable")
	uploader := NewImageUploader(store)

	_, err := uploader.Store(context.Background(), &ImageFile{Data: pngBytes, ContentType: "image/png", Ext: ".png"})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindUpstream))
	assert.Equal(t, 0, store.Len())
}

func TestDisabledStore(t *testing.T) {
	uploader := NewImageUploader(DisabledStore{})

	_, err := uploader.Store(context.Background(), &ImageFile{Data: pngBytes, ContentType: "image/png", Ext: ".png"})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindUpstream))
	assert.ErrorIs(t, err, ErrStorageDisabled)
}
