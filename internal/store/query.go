package store

import (
	"fmt"
	"strings"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

const baseEntriesSelect = `SELECT id, product_id, amount, observed_at
FROM price_entries`

// ToSQL builds the WHERE clause, ORDER BY, LIMIT, and OFFSET for a
// price-history query. The product filter is always the first positional
// parameter; callers pass the product ID as the leading arg.
func (q *EntryQuery) ToSQL() (dataSQL string, args []any) {
	conditions := []string{"product_id = $1"}
	paramIdx := 2

	if q.Since != nil {
		conditions = append(conditions, fmt.Sprintf("observed_at >= $%d", paramIdx))
		args = append(args, *q.Since)
		paramIdx++
	}

	if q.Until != nil {
		conditions = append(conditions, fmt.Sprintf("observed_at <= $%d", paramIdx))
		args = append(args, *q.Until)
	}

	order := "observed_at ASC"
	if strings.EqualFold(q.Order, "desc") {
		order = "observed_at DESC"
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset := max(q.Offset, 0)

	dataSQL = fmt.Sprintf(
		"%s WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		baseEntriesSelect, strings.Join(conditions, " AND "), order, limit, offset,
	)

	return dataSQL, args
}
