package pagination

// DefaultLimit is the page size when the client sends none.
const DefaultLimit = 20

// Params embeds into huma input structs for pagination.
type Params struct {
	Cursor string `query:"cursor" doc:"Opaque pagination cursor from the Link header"`
	Limit  int    `query:"limit"  doc:"Maximum items per page"                       default:"20" minimum:"1" maximum:"100"`
}

// PageSize returns the limit, falling back to DefaultLimit.
func (p Params) PageSize() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}
	return p.Limit
}
