package history

import (
	"fmt"
	"strings"
)

const (
	// DefaultQueryLimit is used when a query carries no limit.
	DefaultQueryLimit = 100

	// MaxQueryLimit caps a single query when the caller has no configured cap.
	MaxQueryLimit = 10000
)

// ValidateQuery rejects malformed queries. maxLimit <= 0 means MaxQueryLimit.
func ValidateQuery(q *Query, maxLimit int) error {
	if q == nil {
		return NewQueryError(q, fmt.Errorf("query cannot be nil"))
	}
	if maxLimit <= 0 {
		maxLimit = MaxQueryLimit
	}

	if q.Limit < 0 {
		return NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > maxLimit {
		return NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", maxLimit, q.Limit))
	}
	if q.Offset < 0 {
		return NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}

	switch strings.ToLower(q.SortOrder) {
	case "", "asc", "desc":
	default:
		return NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}

	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
	}

	return nil
}

// ApplyQueryDefaults fills in the limit and sort order.
// defaultLimit <= 0 means DefaultQueryLimit.
func ApplyQueryDefaults(q *Query, defaultLimit int) {
	if defaultLimit <= 0 {
		defaultLimit = DefaultQueryLimit
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	q.SortOrder = strings.ToLower(q.SortOrder)
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}
