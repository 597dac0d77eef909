package payments

// PaymentSubmitOutput for POST /items/{itemId}/payments (201 Created)
type PaymentSubmitOutput struct {
	Location string `header:"Location" doc:"URL of created payment"`
	Body     Payment
}

// PaymentOutput for single payment responses.
type PaymentOutput struct {
	Body Payment
}

// PaymentListOutput is the response wrapper with pagination Link header.
type PaymentListOutput struct {
	Link string `header:"Link" doc:"RFC 8288 pagination links"`
	Body PaymentList
}
