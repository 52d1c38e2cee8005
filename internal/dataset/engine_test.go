package dataset

import (
	"reflect"
	"testing"

	"github.com/circlegod/circlegod/pkg/models"
)

var engineRows = []models.Row{
	{"month": "Jan", "region": "North", "sales": 100.0},
	{"month": "Jan", "region": "South", "sales": 80.0},
	{"month": "Feb", "region": "North", "sales": 120.0},
	{"month": "Feb", "region": "South", "sales": 90.0},
	{"month": "Mar", "region": "North", "sales": 60.0},
}

var engineCols = []string{"month", "region", "sales"}

func TestRunQueryFilterEquality(t *testing.T) {
	res := runQuery(engineRows, engineCols, models.QueryParams{
		Filters: map[string]any{"region": "North"},
	})
	if len(res.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(res.Rows))
	}
	for _, r := range res.Rows {
		if r["region"] != "North" {
			t.Errorf("filter leaked row %v", r)
		}
	}
}

func TestRunQueryFilterRange(t *testing.T) {
	res := runQuery(engineRows, engineCols, models.QueryParams{
		Filters: map[string]any{"sales": map[string]any{"gte": 90.0, "lt": 120.0}},
	})
	if len(res.Rows) != 2 {
		t.Fatalf("rows = %d, want 2 (sales 100 and 90), got %v", len(res.Rows), res.Rows)
	}
}

func TestRunQueryGroupAggregate(t *testing.T) {
	res := runQuery(engineRows, engineCols, models.QueryParams{
		GroupBy: []string{"month"},
		Aggregations: []models.Aggregation{
			{Field: "sales", Func: models.AggSum, Alias: "totalSales"},
		},
	})
	wantCols := []string{"month", "totalSales"}
	if !reflect.DeepEqual(res.Columns, wantCols) {
		t.Errorf("columns = %v, want %v", res.Columns, wantCols)
	}
	if len(res.Rows) != 3 {
		t.Fatalf("groups = %d, want 3", len(res.Rows))
	}
	// Group order follows first appearance.
	if res.Rows[0]["month"] != "Jan" || res.Rows[0]["totalSales"] != 180.0 {
		t.Errorf("first group = %v, want Jan/180", res.Rows[0])
	}
	if res.Rows[1]["totalSales"] != 210.0 {
		t.Errorf("Feb total = %v, want 210", res.Rows[1]["totalSales"])
	}
}

func TestRunQueryAggFuncs(t *testing.T) {
	res := runQuery(engineRows, engineCols, models.QueryParams{
		GroupBy: []string{"region"},
		Aggregations: []models.Aggregation{
			{Field: "sales", Func: models.AggAvg, Alias: "avgSales"},
			{Field: "sales", Func: models.AggMin, Alias: "minSales"},
			{Field: "sales", Func: models.AggMax, Alias: "maxSales"},
			{Field: "sales", Func: models.AggCount, Alias: "n"},
		},
	})
	north := res.Rows[0]
	if north["region"] != "North" {
		t.Fatalf("first group = %v, want North", north["region"])
	}
	checks := map[string]float64{"avgSales": (100.0 + 120.0 + 60.0) / 3, "minSales": 60, "maxSales": 120, "n": 3}
	for col, want := range checks {
		if north[col] != want {
			t.Errorf("%s = %v, want %v", col, north[col], want)
		}
	}
}

func TestRunQuerySortAndPaginate(t *testing.T) {
	res := runQuery(engineRows, engineCols, models.QueryParams{
		Sort:   []models.SortSpec{{Field: "sales", Order: models.SortDesc}},
		Offset: 1,
		Limit:  2,
	})
	if len(res.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(res.Rows))
	}
	if res.Rows[0]["sales"] != 100.0 || res.Rows[1]["sales"] != 90.0 {
		t.Errorf("page = %v %v, want 100 then 90", res.Rows[0]["sales"], res.Rows[1]["sales"])
	}
}

func TestRunQueryOffsetPastEnd(t *testing.T) {
	res := runQuery(engineRows, engineCols, models.QueryParams{Offset: 99})
	if len(res.Rows) != 0 {
		t.Errorf("rows = %d, want 0", len(res.Rows))
	}
}

func TestBuildSelectAggregated(t *testing.T) {
	params := models.QueryParams{
		Filters: map[string]any{"region": "North", "sales": map[string]any{"gte": 50.0}},
		GroupBy: []string{"month"},
		Aggregations: []models.Aggregation{
			{Field: "sales", Func: models.AggSum, Alias: "totalSales"},
		},
		Sort:  []models.SortSpec{{Field: "totalSales", Order: models.SortDesc}},
		Limit: 5,
	}

	query, args, err := buildSelect("sales_2025", params, func(i int) string { return "?" })
	if err != nil {
		t.Fatalf("buildSelect: %v", err)
	}
	want := "SELECT month, SUM(sales) AS totalSales FROM sales_2025" +
		" WHERE region = ? AND sales >= ? GROUP BY month ORDER BY totalSales DESC LIMIT 5"
	if query != want {
		t.Errorf("query =\n%s\nwant\n%s", query, want)
	}
	if len(args) != 2 || args[0] != "North" || args[1] != 50.0 {
		t.Errorf("args = %v", args)
	}
}

func TestBuildSelectRejectsBadIdent(t *testing.T) {
	_, _, err := buildSelect("t", models.QueryParams{
		Sort: []models.SortSpec{{Field: "sales; DROP TABLE t", Order: models.SortAsc}},
	}, func(i int) string { return "?" })
	if err == nil {
		t.Fatal("expected error for malformed field name")
	}
}

func TestTableName(t *testing.T) {
	got, err := tableName("sales-2025")
	if err != nil || got != "sales_2025" {
		t.Errorf("tableName = %q, %v; want sales_2025", got, err)
	}
	if _, err := tableName("bad id!"); err == nil {
		t.Error("expected error for invalid dataset id")
	}
}
