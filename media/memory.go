package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MemoryUploader keeps objects in process. It backs development servers
// without a bucket.
type MemoryUploader struct {
	mu      sync.Mutex
	baseURL string
	objects map[string][]byte
}

func NewMemoryUploader(baseURL string) *MemoryUploader {
	return &MemoryUploader{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string][]byte),
	}
}

func (m *MemoryUploader) Upload(_ context.Context, group string, images ...Image) ([]string, error) {
	if err := validateBatch(group, images); err != nil {
		return nil, err
	}

	staged := make(map[string][]byte, len(images))
	urls := make([]string, 0, len(images))
	for _, img := range images {
		data, err := io.ReadAll(img.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUploadFailed, img.Name, err)
		}
		key := objectKey(group, img)
		staged[key] = data
		urls = append(urls, m.baseURL+"/"+key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, data := range staged {
		m.objects[key] = data
	}
	return urls, nil
}

func (m *MemoryUploader) Delete(_ context.Context, url string) error {
	key, ok := keyFromURL(m.baseURL, url)
	if !ok {
		return fmt.Errorf("%w: %q is not a managed url", ErrDeleteFailed, url)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return fmt.Errorf("%w: %q not found", ErrDeleteFailed, url)
	}
	delete(m.objects, key)
	return nil
}

// Object returns the stored bytes behind url.
func (m *MemoryUploader) Object(url string) ([]byte, bool) {
	key, ok := keyFromURL(m.baseURL, url)
	if !ok {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return bytes.Clone(data), ok
}
