package pagination

// Page is one page of results plus the cursor for the following page.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// Paginate slices an ordered in-memory collection after the item whose ID
// equals cursor.Value. An unknown cursor value starts from the beginning.
func Paginate[T any](items []T, cursor Cursor, limit int, cursorType string, getID func(T) string) Page[T] {
	start := 0
	if cursor.Value != "" {
		for i, item := range items {
			if getID(item) == cursor.Value {
				start = i + 1
				break
			}
		}
	}
	end := min(start+limit, len(items))
	page := Page[T]{Items: items[start:end]}
	if end < len(items) && end > start {
		page.NextCursor = Cursor{Type: cursorType, Value: getID(items[end-1])}.Encode()
	}
	return page
}

// Trim is for store queries that fetch limit+1 documents: it drops the
// extra item and builds the next cursor from the last kept one.
func Trim[T any](items []T, limit int, cursorType string, getID func(T) string) Page[T] {
	if len(items) <= limit {
		return Page[T]{Items: items}
	}
	items = items[:limit]
	return Page[T]{
		Items:      items,
		NextCursor: Cursor{Type: cursorType, Value: getID(items[len(items)-1])}.Encode(),
	}
}
