package admin

import "github.com/freebies-japan/api/internal/platform/pagination"

// PaymentListInput for GET /admin/payments
type PaymentListInput struct {
	pagination.Params
	Status string `query:"status" enum:"pending,approved,rejected,cancelled" doc:"Filter by status" example:"pending"`
}

// PaymentApproveInput for POST /admin/payments/{paymentId}/approve
type PaymentApproveInput struct {
	PaymentID string `path:"paymentId" doc:"Payment ID"`
}

// PaymentRejectInput for POST /admin/payments/{paymentId}/reject
type PaymentRejectInput struct {
	PaymentID string `path:"paymentId" doc:"Payment ID"`
	Body      struct {
		Reason string `json:"reason" minLength:"1" maxLength:"500" required:"true" doc:"Shown to the buyer" example:"Transfer not received"`
	}
}

// ItemReviewInput for POST /admin/items/{itemId}/review
type ItemReviewInput struct {
	ItemID string `path:"itemId" doc:"Item ID"`
	Body   struct {
		Approve bool   `json:"approve"        required:"true" doc:"Publish the item or reject it" example:"true"`
		Note    string `json:"note,omitempty" maxLength:"500" doc:"Moderation note for the donor" example:"Please add a photo of the label"`
	}
}

// ItemDeliveryInput for POST /admin/items/{itemId}/delivery
type ItemDeliveryInput struct {
	ItemID string `path:"itemId" doc:"Item ID"`
	Body   struct {
		Status         string `json:"status"                   enum:"shipped,delivered" required:"true" doc:"New fulfillment status" example:"shipped"`
		TrackingNumber string `json:"trackingNumber,omitempty" maxLength:"100"                          doc:"Carrier tracking number" example:"1234-5678-9012"`
	}
}
