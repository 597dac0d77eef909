package uploads

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/freebies-japan/api/internal/platform/auth"
	"github.com/freebies-japan/api/internal/platform/timeutil"
	uploadsvc "github.com/freebies-japan/api/internal/service/upload"
)

// UploadCreateInput for POST /uploads
type UploadCreateInput struct {
	Body struct {
		Purpose     string `json:"purpose"     enum:"item_image,payment_receipt"       required:"true" doc:"What the file is for"           example:"item_image"`
		ContentType string `json:"contentType" enum:"image/jpeg,image/png,image/webp" required:"true" doc:"MIME type the client will upload" example:"image/jpeg"`
	}
}

// Upload is a signed upload target.
type Upload struct {
	URL         string        `json:"url"         doc:"Signed URL to PUT the file to"`
	Method      string        `json:"method"      doc:"HTTP method to use"                          example:"PUT"`
	Path        string        `json:"path"        doc:"Object path to reference in items or payments" example:"items/user-123/5f1c.jpg"`
	ContentType string        `json:"contentType" doc:"Content-Type header the upload must send"     example:"image/jpeg"`
	ExpiresAt   timeutil.Time `json:"expiresAt"   doc:"URL expiry"                                  example:"2024-01-15T10:45:00.000Z"`
}

// UploadCreateOutput for POST /uploads
type UploadCreateOutput struct {
	Body Upload
}

// Register wires upload routes into the provided API router.
func Register(api huma.API, svc uploadsvc.Service) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-upload",
		Method:        http.MethodPost,
		Path:          "/uploads",
		Summary:       "Create a signed upload URL",
		Description:   "Returns a short-lived URL for uploading an item image or payment receipt directly to storage.",
		Tags:          []string{"Uploads"},
		DefaultStatus: http.StatusCreated,
		Security:      auth.Bearer,
	}, func(ctx context.Context, input *UploadCreateInput) (*UploadCreateOutput, error) {
		user := auth.UserFromContext(ctx)

		up, err := svc.CreateUploadURL(ctx, user.UID, uploadsvc.Purpose(input.Body.Purpose), input.Body.ContentType)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return &UploadCreateOutput{Body: Upload{
			URL:         up.URL,
			Method:      up.Method,
			Path:        up.Path,
			ContentType: up.ContentType,
			ExpiresAt:   timeutil.Time{Time: up.ExpiresAt},
		}}, nil
	})
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, uploadsvc.ErrUnsupportedContentType), errors.Is(err, uploadsvc.ErrUnknownPurpose):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, uploadsvc.ErrUnavailable):
		return huma.Error503ServiceUnavailable("uploads are not available")
	default:
		return huma.Error500InternalServerError("internal error")
	}
}
