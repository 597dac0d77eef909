package items

import (
	"github.com/freebies-japan/api/internal/platform/timeutil"
)

// Item represents a donated item response.
type Item struct {
	ID              string         `json:"id"                        doc:"Unique identifier"                      example:"k3Jd9sQ2"`
	DonorID         string         `json:"donorId"                   doc:"User who donated the item"              example:"user-123"`
	Title           string         `json:"title"                     doc:"Listing title"                          example:"Baby stroller"`
	Description     string         `json:"description"               doc:"Listing description"                    example:"Used for one year, folds flat."`
	Category        string         `json:"category"                  doc:"Category"                               example:"baby"`
	Condition       string         `json:"condition"                 doc:"Physical condition"                     example:"good"`
	Prefecture      string         `json:"prefecture"                doc:"Prefecture for pickup or shipping"      example:"Tokyo"`
	City            string         `json:"city"                      doc:"City or ward"                           example:"Setagaya"`
	ImagePaths      []string       `json:"imagePaths"                doc:"Storage object paths of item images"`
	Kind            string         `json:"kind"                      doc:"free (lottery) or premium (deposit)"    example:"free"`
	Price           int64          `json:"price"                     doc:"Deposit in yen, premium items only"     example:"0"`
	Status          string         `json:"status"                    doc:"Lifecycle status"                       example:"available"`
	LotteryDeadline *timeutil.Time `json:"lotteryDeadline,omitempty" doc:"Requests close and the draw runs after" example:"2024-02-01T03:00:00.000Z"`
	RequestCount    int            `json:"requestCount"              doc:"Number of active requests"              example:"4"`
	WinnerIDs       []string       `json:"winnerIds,omitempty"       doc:"Lottery winners, donor and admins only"`
	BuyerID         string         `json:"buyerId,omitempty"         doc:"Buyer of a premium item, donor and admins only"`
	ReviewNote      string         `json:"reviewNote,omitempty"      doc:"Moderation note"`
	TrackingNumber  string         `json:"trackingNumber,omitempty"  doc:"Shipping tracking number"`
	CreatedAt       timeutil.Time  `json:"createdAt"                 doc:"Creation timestamp"                     example:"2024-01-15T10:30:00.000Z"`
	UpdatedAt       timeutil.Time  `json:"updatedAt"                 doc:"Last update timestamp"                  example:"2024-01-15T10:30:00.000Z"`
}

// ItemList is the response body containing a page of items.
type ItemList struct {
	Items []Item `json:"items" doc:"List of items"`
}
