package pagination

import (
	"fmt"
	"net/url"
	"strconv"
)

// BuildLinkHeader constructs an RFC 8288 Link header with rel="next" when
// nextCursor is set, preserving the other query parameters.
func BuildLinkHeader(baseURL string, query url.Values, nextCursor string, limit int) string {
	if nextCursor == "" {
		return ""
	}
	q := make(url.Values, len(query)+2)
	for k, vals := range query {
		q[k] = append([]string(nil), vals...)
	}
	q.Set("cursor", nextCursor)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return fmt.Sprintf("<%s?%s>; rel=\"next\"", baseURL, q.Encode())
}
