package lottery

// DrawInput for POST /items/{itemId}/lottery
type DrawInput struct {
	ItemID string `path:"itemId" doc:"Item ID"`
	Body   struct {
		Winners int     `json:"winners,omitempty" minimum:"1" maximum:"100" doc:"Number of winners, defaults to the server setting" example:"1"`
		Seed    *string `json:"seed,omitempty"    minLength:"1" maxLength:"64" doc:"Seed for a reproducible draw; decimal seeds are used verbatim" example:"20240201"`
	}
}

// ResultInput for GET /items/{itemId}/lottery. The Authorization header is
// optional and only changes which fields are shown.
type ResultInput struct {
	ItemID        string `path:"itemId"          doc:"Item ID"`
	Authorization string `header:"Authorization" doc:"Optional bearer token"`
}
