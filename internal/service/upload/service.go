// Package upload issues signed Cloud Storage URLs for client-side uploads.
package upload

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	applog "github.com/freebies-japan/api/internal/platform/logging"
)

// Service errors
var (
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrUnknownPurpose         = errors.New("unknown upload purpose")
	ErrUnavailable            = errors.New("uploads are not configured")
)

// DefaultTTL is how long a signed URL stays valid.
const DefaultTTL = 15 * time.Minute

// Purpose selects the object prefix.
type Purpose string

const (
	PurposeItemImage      Purpose = "item_image"
	PurposePaymentReceipt Purpose = "payment_receipt"
)

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// Upload is a signed PUT target.
type Upload struct {
	URL         string
	Method      string
	Path        string
	ContentType string
	ExpiresAt   time.Time
}

// Service defines upload operations.
type Service interface {
	CreateUploadURL(ctx context.Context, userID string, purpose Purpose, contentType string) (*Upload, error)
}

// Signer signs object URLs. *storage.BucketHandle implements it.
type Signer interface {
	SignedURL(object string, opts *storage.SignedURLOptions) (string, error)
}

// SignedURLService implements Service with V4 signed URLs.
type SignedURLService struct {
	signer Signer
	ttl    time.Duration
	newID  func() string
	now    func() time.Time
}

// NewSignedURLService creates a service. A nil signer makes every call
// return ErrUnavailable.
func NewSignedURLService(signer Signer, ttl time.Duration) *SignedURLService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SignedURLService{
		signer: signer,
		ttl:    ttl,
		newID:  uuid.NewString,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ObjectPath returns where an upload for purpose by userID is stored.
func ObjectPath(purpose Purpose, userID, id, ext string) (string, error) {
	switch purpose {
	case PurposeItemImage:
		return fmt.Sprintf("items/%s/%s.%s", userID, id, ext), nil
	case PurposePaymentReceipt:
		return fmt.Sprintf("receipts/%s/%s.%s", userID, id, ext), nil
	default:
		return "", ErrUnknownPurpose
	}
}

// CreateUploadURL signs a PUT URL for a new object owned by userID. The
// client must send the same Content-Type header.
func (s *SignedURLService) CreateUploadURL(ctx context.Context, userID string, purpose Purpose, contentType string) (*Upload, error) {
	if s.signer == nil {
		return nil, ErrUnavailable
	}
	ext, ok := extensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}
	path, err := ObjectPath(purpose, userID, s.newID(), ext)
	if err != nil {
		return nil, err
	}

	expires := s.now().Add(s.ttl)
	url, err := s.signer.SignedURL(path, &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      http.MethodPut,
		ContentType: contentType,
		Expires:     expires,
	})
	applog.AuditResult(ctx, applog.AuditEvent{
		Action:       "sign_upload",
		ActorID:      userID,
		ResourceType: "upload",
		ResourceID:   path,
		Details:      map[string]any{"purpose": string(purpose)},
	}, err, func(error) string { return "sign_failed" })
	if err != nil {
		return nil, fmt.Errorf("sign upload url: %w", err)
	}
	return &Upload{
		URL:         url,
		Method:      http.MethodPut,
		Path:        path,
		ContentType: contentType,
		ExpiresAt:   expires,
	}, nil
}

var _ Service = (*SignedURLService)(nil)
