package store

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// ListingQuery defines optional filters for listing queries.
type ListingQuery struct {
	JobID      *string
	ProviderID *string
	Since      *time.Time
	Geocoded   *bool
	Limit      int // default 50
	Offset     int
}

// Normalized returns the effective limit and offset.
func (q *ListingQuery) Normalized() (limit, offset int) {
	limit = q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, max(q.Offset, 0)
}

const baseListingsSelect = `SELECT hash, title, price, size, address, link, description, image,
	latitude, longitude, distance_to_destination, date_found
FROM listings`

const countListingsSelect = "SELECT COUNT(*) FROM listings"

// ToSQL builds the data and count queries for q along with their
// positional parameters.
func (q *ListingQuery) ToSQL() (dataSQL, countSQL string, args []any) {
	var conditions []string
	paramIdx := 1

	if q.JobID != nil {
		conditions = append(conditions, fmt.Sprintf("job_id = $%d", paramIdx))
		args = append(args, *q.JobID)
		paramIdx++
	}

	if q.ProviderID != nil {
		conditions = append(conditions, fmt.Sprintf("provider_id = $%d", paramIdx))
		args = append(args, *q.ProviderID)
		paramIdx++
	}

	if q.Since != nil {
		conditions = append(conditions, fmt.Sprintf("date_found >= $%d", paramIdx))
		args = append(args, *q.Since)
	}

	if q.Geocoded != nil {
		if *q.Geocoded {
			conditions = append(conditions, "latitude IS NOT NULL AND latitude <> -1")
		} else {
			conditions = append(conditions, "(latitude IS NULL OR latitude = -1)")
		}
	}

	var whereClause string
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	limit, offset := q.Normalized()

	dataSQL = fmt.Sprintf(
		"%s%s ORDER BY date_found DESC, hash LIMIT %d OFFSET %d",
		baseListingsSelect, whereClause, limit, offset,
	)
	countSQL = countListingsSelect + whereClause

	return dataSQL, countSQL, args
}
