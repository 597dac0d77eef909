package payments

import (
	"github.com/freebies-japan/api/internal/platform/timeutil"
)

// Payment represents a deposit for a premium item.
type Payment struct {
	ID          string         `json:"id"                    doc:"Unique identifier"                            example:"b7c1e2f0"`
	ItemID      string         `json:"itemId"                doc:"Purchased item"                               example:"k3Jd9sQ2"`
	ItemTitle   string         `json:"itemTitle"             doc:"Item title at submission"                     example:"Sofa"`
	BuyerID     string         `json:"buyerId"               doc:"Paying user"                                  example:"user-123"`
	Amount      int64          `json:"amount"                doc:"Deposit in yen"                               example:"3000"`
	Method      string         `json:"method"                doc:"Payment method"                               example:"bank_transfer"`
	Reference   string         `json:"reference,omitempty"   doc:"Transfer reference or transaction number"     example:"TX-0042"`
	ReceiptPath string         `json:"receiptPath,omitempty" doc:"Storage path of the uploaded receipt"`
	Status      string         `json:"status"                doc:"pending, approved, rejected or cancelled"     example:"pending"`
	Note        string         `json:"note,omitempty"        doc:"Reviewer note, e.g. the rejection reason"`
	ReviewedBy  string         `json:"reviewedBy,omitempty"  doc:"Admin who decided"`
	ReviewedAt  *timeutil.Time `json:"reviewedAt,omitempty"  doc:"Decision timestamp"`
	CreatedAt   timeutil.Time  `json:"createdAt"             doc:"Creation timestamp"                           example:"2024-01-15T10:30:00.000Z"`
	UpdatedAt   timeutil.Time  `json:"updatedAt"             doc:"Last update timestamp"                        example:"2024-01-15T10:30:00.000Z"`
}

// PaymentList is the response body containing a page of payments.
type PaymentList struct {
	Payments []Payment `json:"payments" doc:"List of payments"`
}
