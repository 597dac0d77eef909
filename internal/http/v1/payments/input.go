package payments

import "github.com/freebies-japan/api/internal/platform/pagination"

// PaymentSubmitInput for POST /items/{itemId}/payments
type PaymentSubmitInput struct {
	ItemID string `path:"itemId" doc:"Item ID"`
	Body   struct {
		Amount      int64  `json:"amount"                minimum:"1"                                  required:"true" doc:"Deposit in yen, must equal the item price" example:"3000"`
		Method      string `json:"method"                enum:"bank_transfer,paypay,credit_card,cash" required:"true" doc:"Payment method"                            example:"bank_transfer"`
		Reference   string `json:"reference,omitempty"   maxLength:"100"                                              doc:"Transfer reference"                        example:"TX-0042"`
		ReceiptPath string `json:"receiptPath,omitempty" maxLength:"300"                                              doc:"Path returned by POST /uploads"`
	}
}

// PaymentGetInput for GET /payments/{paymentId}
type PaymentGetInput struct {
	PaymentID string `path:"paymentId" doc:"Payment ID"`
}

// PaymentCancelInput for POST /payments/{paymentId}/cancel
type PaymentCancelInput struct {
	PaymentID string `path:"paymentId" doc:"Payment ID"`
}

// MyPaymentsInput for GET /me/payments
type MyPaymentsInput struct {
	pagination.Params
}
