package media

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidUpload = errors.New("media: invalid upload")
	ErrUploadFailed  = errors.New("media: upload failed")
	ErrDeleteFailed  = errors.New("media: delete failed")
)

// Image is one file of an upload batch.
type Image struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Uploader stores images under a group (e.g. "products") and deletes them by
// the URL it returned.
type Uploader interface {
	Upload(ctx context.Context, group string, images ...Image) ([]string, error)
	Delete(ctx context.Context, url string) error
}

func validateBatch(group string, images []Image) error {
	if strings.Trim(group, "/ ") == "" || strings.Contains(group, "..") {
		return ErrInvalidUpload
	}
	if len(images) == 0 {
		return ErrInvalidUpload
	}
	for _, img := range images {
		if img.Body == nil {
			return ErrInvalidUpload
		}
	}
	return nil
}

// objectKey returns <group>/<uuid><ext>. The extension comes from the file
// name, falling back to the content type.
func objectKey(group string, img Image) string {
	ext := strings.ToLower(path.Ext(img.Name))
	if ext == "" && img.ContentType != "" {
		if exts, err := mime.ExtensionsByType(img.ContentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	return strings.Trim(group, "/ ") + "/" + uuid.NewString() + ext
}

func contentType(img Image) string {
	if img.ContentType != "" {
		return img.ContentType
	}
	if ct := mime.TypeByExtension(path.Ext(img.Name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// keyFromURL strips base from url. It reports false for URLs this uploader
// did not produce.
func keyFromURL(base, url string) (string, bool) {
	prefix := strings.TrimRight(base, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	if key == "" || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}
