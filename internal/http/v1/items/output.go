package items

// ItemCreateOutput for POST /items (201 Created)
type ItemCreateOutput struct {
	Location string `header:"Location" doc:"URL of created item"`
	Body     Item
}

// ItemOutput for single item responses.
type ItemOutput struct {
	Body Item
}

// ItemListOutput is the response wrapper with pagination Link header.
type ItemListOutput struct {
	Link string `header:"Link" doc:"RFC 8288 pagination links"`
	Body ItemList
}
