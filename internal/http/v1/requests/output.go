package requests

// RequestCreateOutput for POST /items/{itemId}/requests (201 Created)
type RequestCreateOutput struct {
	Location string `header:"Location" doc:"URL of the caller's requests"`
	Body     Request
}

// RequestOutput for single request responses.
type RequestOutput struct {
	Body Request
}

// RequestListOutput is the response wrapper with pagination Link header.
type RequestListOutput struct {
	Link string `header:"Link" doc:"RFC 8288 pagination links"`
	Body RequestList
}
