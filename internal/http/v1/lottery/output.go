package lottery

// DrawOutput for POST /items/{itemId}/lottery. 201 for a new draw, 200 when
// the stored result is returned.
type DrawOutput struct {
	Status   int
	Location string `header:"Location" doc:"URL of the lottery result"`
	Body     Result
}

// ResultOutput for GET /items/{itemId}/lottery
type ResultOutput struct {
	Body Result
}
