package shared

import (
	"net/url"
	"strconv"
	"strings"
)

// MaxPageLimit caps the number of records a single listing may return.
const MaxPageLimit = 1000

// Pagination is an offset/limit window over an id-ordered listing.
type Pagination struct {
	Offset int
	Limit  int
}

// ParsePagination reads offset (or its older alias skip) and limit from the
// query string. Missing values fall back to zero and defaultLimit;
// out-of-range values are validation errors.
func ParsePagination(query url.Values, defaultLimit int) (Pagination, error) {
	p := Pagination{Offset: 0, Limit: defaultLimit}
	fields := map[string]string{}

	raw := strings.TrimSpace(query.Get("offset"))
	if raw == "" {
		raw = strings.TrimSpace(query.Get("skip"))
	}
	if raw != "" {
		v, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			fields["offset"] = "must be an integer"
		case v < 0:
			fields["offset"] = "must be greater than or equal to 0"
		default:
			p.Offset = v
		}
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			fields["limit"] = "must be an integer"
		case v < 1 || v > MaxPageLimit:
			fields["limit"] = "must be between 1 and " + strconv.Itoa(MaxPageLimit)
		default:
			p.Limit = v
		}
	}
	if len(fields) > 0 {
		return Pagination{}, InvalidFields(fields)
	}
	return p, nil
}
