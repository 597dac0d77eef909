package requests

import (
	"github.com/freebies-japan/api/internal/platform/timeutil"
)

// Request represents a request for a free item.
type Request struct {
	ItemID    string        `json:"itemId"    doc:"Requested item"                                example:"k3Jd9sQ2"`
	UserID    string        `json:"userId"    doc:"Requesting user"                               example:"user-123"`
	ItemTitle string        `json:"itemTitle" doc:"Item title at request time"                    example:"Baby stroller"`
	Message   string        `json:"message"   doc:"Message to the donor"                          example:"We are expecting twins!"`
	Status    string        `json:"status"    doc:"pending, selected, not_selected or withdrawn" example:"pending"`
	CreatedAt timeutil.Time `json:"createdAt" doc:"Creation timestamp"                            example:"2024-01-15T10:30:00.000Z"`
	UpdatedAt timeutil.Time `json:"updatedAt" doc:"Last update timestamp"                         example:"2024-01-15T10:30:00.000Z"`
}

// RequestList is the response body containing a page of requests.
type RequestList struct {
	Requests []Request `json:"requests" doc:"List of requests"`
}
