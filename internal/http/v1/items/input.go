package items

import (
	"time"

	"github.com/freebies-japan/api/internal/platform/pagination"
)

// ItemCreateInput for POST /items
type ItemCreateInput struct {
	Body struct {
		Title           string     `json:"title"                     minLength:"1" maxLength:"100"  required:"true" doc:"Listing title"                     example:"Baby stroller"`
		Description     string     `json:"description,omitempty"     maxLength:"2000"                               doc:"Listing description"               example:"Used for one year, folds flat."`
		Category        string     `json:"category"                  minLength:"1" maxLength:"50"   required:"true" doc:"Category"                          example:"baby"`
		Condition       string     `json:"condition"                 enum:"new,like_new,good,fair,poor" required:"true" doc:"Physical condition"         example:"good"`
		Prefecture      string     `json:"prefecture"                minLength:"1" maxLength:"20"   required:"true" doc:"Prefecture"                        example:"Tokyo"`
		City            string     `json:"city,omitempty"            maxLength:"50"                                 doc:"City or ward"                      example:"Setagaya"`
		ImagePaths      []string   `json:"imagePaths,omitempty"      maxItems:"10"                                  doc:"Paths returned by POST /uploads"`
		Kind            string     `json:"kind"                      enum:"free,premium"             required:"true" doc:"free (lottery) or premium (deposit)" example:"free"`
		Price           int64      `json:"price,omitempty"           minimum:"0" maximum:"10000000"                 doc:"Deposit in yen, premium items only" example:"0"`
		LotteryDeadline *time.Time `json:"lotteryDeadline,omitempty"                                                doc:"Free items: when requests close"    example:"2024-02-01T03:00:00Z"`
	}
}

// ItemListInput defines query parameters for the public catalogue.
type ItemListInput struct {
	pagination.Params
	Kind       string `query:"kind"       enum:"free,premium" doc:"Filter by kind"       example:"free"`
	Category   string `query:"category"                       doc:"Filter by category"   example:"baby"`
	Prefecture string `query:"prefecture"                     doc:"Filter by prefecture" example:"Tokyo"`
}

// ItemGetInput for GET /items/{itemId}. The Authorization header is optional;
// donors and admins can see items that are not public yet.
type ItemGetInput struct {
	ItemID        string `path:"itemId"          doc:"Item ID"`
	Authorization string `header:"Authorization" doc:"Optional bearer token"`
}

// ItemUpdateInput for PATCH /items/{itemId}
type ItemUpdateInput struct {
	ItemID string `path:"itemId" doc:"Item ID"`
	Body   struct {
		Title           *string    `json:"title,omitempty"           minLength:"1" maxLength:"100"      doc:"Listing title"`
		Description     *string    `json:"description,omitempty"     maxLength:"2000"                   doc:"Listing description"`
		Category        *string    `json:"category,omitempty"        minLength:"1" maxLength:"50"       doc:"Category"`
		Condition       *string    `json:"condition,omitempty"       enum:"new,like_new,good,fair,poor" doc:"Physical condition"`
		Prefecture      *string    `json:"prefecture,omitempty"      minLength:"1" maxLength:"20"       doc:"Prefecture"`
		City            *string    `json:"city,omitempty"            maxLength:"50"                     doc:"City or ward"`
		ImagePaths      *[]string  `json:"imagePaths,omitempty"      maxItems:"10"                      doc:"Replaces all image paths"`
		Price           *int64     `json:"price,omitempty"           minimum:"1" maximum:"10000000"     doc:"Deposit in yen, premium items only"`
		LotteryDeadline *time.Time `json:"lotteryDeadline,omitempty"                                    doc:"Free items: when requests close"`
	}
}

// ItemWithdrawInput for DELETE /items/{itemId}
type ItemWithdrawInput struct {
	ItemID string `path:"itemId" doc:"Item ID"`
}

// MyItemsInput for GET /me/items
type MyItemsInput struct {
	pagination.Params
}
