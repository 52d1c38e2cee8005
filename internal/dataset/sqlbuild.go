package dataset

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/circlegod/circlegod/pkg/models"
)

// identPattern is the only shape of identifier a structured query may
// reference. Anything else is rejected before SQL is assembled.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// tableName derives the SQL table for a dataset ID ("sales-2025" →
// "sales_2025") and validates it.
func tableName(datasetID string) (string, error) {
	name := strings.ReplaceAll(datasetID, "-", "_")
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("invalid dataset id %q", datasetID)
	}
	return name, nil
}

func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid field name %q", name)
	}
	return nil
}

// buildSelect renders a structured query as a SELECT statement. ph maps
// a 1-based argument index to the dialect's placeholder ("?" for
// sqlite, "$n" for postgres). Values travel as bound arguments;
// identifiers are validated and inlined.
func buildSelect(table string, params models.QueryParams, ph func(int) string) (string, []any, error) {
	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT ")
	if len(params.Aggregations) > 0 {
		var cols []string
		for _, g := range params.GroupBy {
			if err := checkIdent(g); err != nil {
				return "", nil, err
			}
			cols = append(cols, g)
		}
		for _, a := range params.Aggregations {
			expr, err := aggExpr(a)
			if err != nil {
				return "", nil, err
			}
			cols = append(cols, expr)
		}
		sb.WriteString(strings.Join(cols, ", "))
	} else {
		sb.WriteString("*")
	}
	sb.WriteString(" FROM ")
	sb.WriteString(table)

	if len(params.Filters) > 0 {
		conds, condArgs, err := whereConds(params.Filters, ph, len(args))
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
		args = append(args, condArgs...)
	}

	if len(params.Aggregations) > 0 && len(params.GroupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(params.GroupBy, ", "))
	}

	if len(params.Sort) > 0 {
		var specs []string
		for _, s := range params.Sort {
			if err := checkIdent(s.Field); err != nil {
				return "", nil, err
			}
			dir := "ASC"
			if s.Order == models.SortDesc {
				dir = "DESC"
			}
			specs = append(specs, s.Field+" "+dir)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(specs, ", "))
	}

	if params.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", params.Limit)
	}
	if params.Offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", params.Offset)
	}

	return sb.String(), args, nil
}

func aggExpr(a models.Aggregation) (string, error) {
	field := a.Field
	if a.Func == models.AggCount && (field == "" || field == "*") {
		field = "*"
	} else {
		if err := checkIdent(field); err != nil {
			return "", err
		}
	}
	var fn string
	switch a.Func {
	case models.AggSum:
		fn = "SUM"
	case models.AggAvg:
		fn = "AVG"
	case models.AggMin:
		fn = "MIN"
	case models.AggMax:
		fn = "MAX"
	case models.AggCount:
		fn = "COUNT"
	default:
		return "", fmt.Errorf("unsupported aggregation %q", a.Func)
	}
	alias := aggAlias(a)
	if err := checkIdent(alias); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s) AS %s", fn, field, alias), nil
}

var rangeOps = map[string]string{"gte": ">=", "gt": ">", "lte": "<=", "lt": "<"}

func whereConds(filters map[string]any, ph func(int) string, argBase int) ([]string, []any, error) {
	// Deterministic condition order.
	fields := make([]string, 0, len(filters))
	for f := range filters {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var conds []string
	var args []any
	n := argBase
	for _, field := range fields {
		if err := checkIdent(field); err != nil {
			return nil, nil, err
		}
		want := filters[field]
		if rng, ok := want.(map[string]any); ok {
			ops := make([]string, 0, len(rng))
			for op := range rng {
				ops = append(ops, op)
			}
			sort.Strings(ops)
			for _, op := range ops {
				sqlOp, known := rangeOps[op]
				if !known {
					return nil, nil, fmt.Errorf("unsupported range operator %q", op)
				}
				n++
				conds = append(conds, fmt.Sprintf("%s %s %s", field, sqlOp, ph(n)))
				args = append(args, rng[op])
			}
			continue
		}
		n++
		conds = append(conds, fmt.Sprintf("%s = %s", field, ph(n)))
		args = append(args, want)
	}
	return conds, args, nil
}

