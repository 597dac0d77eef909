package upload

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// MockUploadService returns deterministic URLs without signing.
type MockUploadService struct {
	Err error
}

func (m *MockUploadService) CreateUploadURL(_ context.Context, userID string, purpose Purpose, contentType string) (*Upload, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	ext, ok := extensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}
	path, err := ObjectPath(purpose, userID, "mock", ext)
	if err != nil {
		return nil, err
	}
	return &Upload{
		URL:         "https://storage.example.com/" + path,
		Method:      http.MethodPut,
		Path:        path,
		ContentType: contentType,
		ExpiresAt:   time.Now().UTC().Add(DefaultTTL),
	}, nil
}

var _ Service = (*MockUploadService)(nil)
