package profile

import (
	"github.com/freebies-japan/api/internal/platform/timeutil"
)

// Profile represents a user profile response.
type Profile struct {
	ID          string        `json:"id"          doc:"Unique identifier"      example:"user-123"`
	DisplayName string        `json:"displayName" doc:"Name shown to donors"   example:"Hanako"`
	Email       string        `json:"email"       doc:"Notification address"   example:"hanako@example.jp"`
	PhoneNumber string        `json:"phoneNumber" doc:"Phone number (E.164)"   example:"+819012345678"`
	PostalCode  string        `json:"postalCode"  doc:"Japanese postal code"   example:"150-0001"`
	Prefecture  string        `json:"prefecture"  doc:"Prefecture"             example:"Tokyo"`
	City        string        `json:"city"        doc:"City or ward"           example:"Shibuya"`
	Address     string        `json:"address"     doc:"Street address"         example:"Jingumae 1-2-3"`
	Marketing   bool          `json:"marketing"   doc:"Marketing opt-in"       example:"false"`
	Terms       bool          `json:"terms"       doc:"Terms acceptance"       example:"true"`
	CreatedAt   timeutil.Time `json:"createdAt"   doc:"Creation timestamp"     example:"2024-01-15T10:30:00.000Z"`
	UpdatedAt   timeutil.Time `json:"updatedAt"   doc:"Last update timestamp"  example:"2024-01-15T10:30:00.000Z"`
}
