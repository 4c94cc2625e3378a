package postgres

import (
	"fmt"
	"strings"

	"github.com/kenttraders/aimarketops/backend-go/internal/repository"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

// buildRunFilterClause constructs SQL filter clauses for restock run queries
func buildRunFilterClause(filter *repository.RunFilter, alias string, startIndex int) (string, []interface{}) {
	if filter == nil {
		return "", nil
	}

	var (
		clauses []string
		args    []interface{}
	)
	idx := startIndex

	if filter.Since != nil {
		clauses = append(clauses, fmt.Sprintf("%scomputed_at >= $%d", alias, idx))
		args = append(args, *filter.Since)
		idx++
	}

	if filter.MinCost != nil {
		clauses = append(clauses, fmt.Sprintf("%sestimated_cost >= $%d", alias, idx))
		args = append(args, *filter.MinCost)
		idx++
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return " AND " + strings.Join(clauses, " AND "), args
}

// pageBounds clamps the limit and offset of a run listing.
func pageBounds(filter *repository.RunFilter) (int, int) {
	if filter == nil {
		return defaultRunsLimit, 0
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultRunsLimit
	}
	if limit > maxRunsLimit {
		limit = maxRunsLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
