package requests

import "github.com/freebies-japan/api/internal/platform/pagination"

// RequestCreateInput for POST /items/{itemId}/requests
type RequestCreateInput struct {
	ItemID string `path:"itemId" doc:"Item ID"`
	Body   struct {
		Message string `json:"message,omitempty" maxLength:"500" doc:"Message to the donor" example:"We are expecting twins!"`
	}
}

// RequestListInput for GET /items/{itemId}/requests
type RequestListInput struct {
	ItemID string `path:"itemId" doc:"Item ID"`
	pagination.Params
}

// RequestWithdrawInput for DELETE /items/{itemId}/requests/me
type RequestWithdrawInput struct {
	ItemID string `path:"itemId" doc:"Item ID"`
}

// MyRequestsInput for GET /me/requests
type MyRequestsInput struct {
	pagination.Params
}
