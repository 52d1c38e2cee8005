package dataset

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/circlegod/circlegod/pkg/models"
)

// runQuery evaluates a structured query against in-memory rows. It is
// the shared evaluation path for the fixture and file sources: filter,
// group and aggregate, sort, then paginate. columns is the row shape in
// column order; the result's Columns preserves it (or becomes the
// group-by fields followed by aggregation aliases).
func runQuery(rows []models.Row, columns []string, params models.QueryParams) *models.QueryResult {
	out := filterRows(rows, params.Filters)

	resultCols := columns
	if len(params.Aggregations) > 0 {
		out, resultCols = groupAggregate(out, params.GroupBy, params.Aggregations)
	}

	sortRows(out, params.Sort)
	out = paginate(out, params.Offset, params.Limit)

	return &models.QueryResult{Columns: resultCols, Rows: out}
}

// ── Filtering ────────────────────────────────────────────────

// filterRows keeps rows matching every filter. A plain value means
// equality; a map with gte/gt/lte/lt keys is a numeric range.
func filterRows(rows []models.Row, filters map[string]any) []models.Row {
	if len(filters) == 0 {
		return append([]models.Row(nil), rows...)
	}
	out := make([]models.Row, 0, len(rows))
	for _, r := range rows {
		if matchesFilters(r, filters) {
			out = append(out, r)
		}
	}
	return out
}

func matchesFilters(r models.Row, filters map[string]any) bool {
	for field, want := range filters {
		got, ok := r[field]
		if !ok {
			return false
		}
		if rng, isRange := want.(map[string]any); isRange {
			if !matchesRange(got, rng) {
				return false
			}
			continue
		}
		if !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

func matchesRange(got any, rng map[string]any) bool {
	gv, ok := numeric(got)
	if !ok {
		return false
	}
	for op, bound := range rng {
		bv, ok := numeric(bound)
		if !ok {
			return false
		}
		switch op {
		case "gte":
			if !(gv >= bv) {
				return false
			}
		case "gt":
			if !(gv > bv) {
				return false
			}
		case "lte":
			if !(gv <= bv) {
				return false
			}
		case "lt":
			if !(gv < bv) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	if av, ok := numeric(a); ok {
		if bv, ok := numeric(b); ok {
			return av == bv
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// ── Grouping and aggregation ─────────────────────────────────

func groupAggregate(rows []models.Row, groupBy []string, aggs []models.Aggregation) ([]models.Row, []string) {
	type group struct {
		keyVals models.Row
		rows    []models.Row
	}

	// Group order follows first appearance in the input.
	var order []string
	groups := make(map[string]*group)
	for _, r := range rows {
		key := ""
		keyVals := models.Row{}
		for _, f := range groupBy {
			key += fmt.Sprint(r[f]) + "\x00"
			keyVals[f] = r[f]
		}
		g, ok := groups[key]
		if !ok {
			g = &group{keyVals: keyVals}
			groups[key] = g
			order = append(order, key)
		}
		g.rows = append(g.rows, r)
	}

	columns := append([]string(nil), groupBy...)
	for _, a := range aggs {
		columns = append(columns, aggAlias(a))
	}

	out := make([]models.Row, 0, len(order))
	for _, key := range order {
		g := groups[key]
		row := models.Row{}
		for f, v := range g.keyVals {
			row[f] = v
		}
		for _, a := range aggs {
			row[aggAlias(a)] = aggregate(g.rows, a)
		}
		out = append(out, row)
	}
	return out, columns
}

func aggAlias(a models.Aggregation) string {
	if a.Alias != "" {
		return a.Alias
	}
	return string(a.Func) + "_" + a.Field
}

func aggregate(rows []models.Row, a models.Aggregation) any {
	if a.Func == models.AggCount {
		if a.Field == "" || a.Field == "*" {
			return float64(len(rows))
		}
		n := 0
		for _, r := range rows {
			if v, ok := r[a.Field]; ok && v != nil {
				n++
			}
		}
		return float64(n)
	}

	var sum float64
	var minV, maxV float64
	count := 0
	for _, r := range rows {
		v, ok := numeric(r[a.Field])
		if !ok {
			continue
		}
		if count == 0 {
			minV, maxV = v, v
		} else {
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}
		sum += v
		count++
	}
	if count == 0 {
		return nil
	}

	switch a.Func {
	case models.AggSum:
		return sum
	case models.AggAvg:
		return sum / float64(count)
	case models.AggMin:
		return minV
	case models.AggMax:
		return maxV
	default:
		return nil
	}
}

// ── Sorting and pagination ───────────────────────────────────

func sortRows(rows []models.Row, specs []models.SortSpec) {
	if len(specs) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, s := range specs {
			c := compareValues(rows[i][s.Field], rows[j][s.Field])
			if c == 0 {
				continue
			}
			if s.Order == models.SortDesc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareValues(a, b any) int {
	if av, ok := numeric(a); ok {
		if bv, ok := numeric(b); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func paginate(rows []models.Row, offset, limit int) []models.Row {
	if offset > 0 {
		if offset >= len(rows) {
			return []models.Row{}
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// numeric converts the value types rows carry into float64.
func numeric(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case *float64:
		if t == nil {
			return 0, false
		}
		return *t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
