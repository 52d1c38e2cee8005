package dataset_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/circlegod/circlegod/internal/dataset"
	"github.com/circlegod/circlegod/pkg/models"
)

func newTestExecutor(t *testing.T) *dataset.Executor {
	t.Helper()
	catalog := dataset.NewCatalog()
	catalog.SeedBuiltin()
	registry := dataset.NewRegistry(dataset.NewFixtureSource())
	return dataset.NewExecutor(catalog, registry)
}

func TestExecuteUnknownDataset(t *testing.T) {
	exec := newTestExecutor(t)

	_, err := exec.Execute(context.Background(), "no-such-dataset", models.QueryParams{})
	if err == nil {
		t.Fatal("expected error for unknown dataset")
	}
	var notFound *dataset.ErrUnknownDataset
	if !errors.As(err, &notFound) {
		t.Fatalf("error type = %T, want *ErrUnknownDataset", err)
	}
	if notFound.ID != "no-such-dataset" {
		t.Errorf("error ID = %q, want %q", notFound.ID, "no-such-dataset")
	}
}

func TestExecuteUserGrowthByMonth(t *testing.T) {
	exec := newTestExecutor(t)

	res, err := exec.Execute(context.Background(), "users-2025", models.QueryParams{
		GroupBy: []string{"month"},
		Aggregations: []models.Aggregation{
			{Field: "users", Func: models.AggCount, Alias: "userCount"},
		},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Rows) != 6 {
		t.Fatalf("rows = %d, want 6", len(res.Rows))
	}
	if res.Columns[0] != "month" || res.Columns[1] != "userCount" {
		t.Errorf("columns = %v, want month, userCount first", res.Columns)
	}
	if res.Rows[0]["month"] != "Jan" || res.Rows[0]["userCount"] != 1200.0 {
		t.Errorf("first row = %v", res.Rows[0])
	}
}

func TestExecuteTopProducts(t *testing.T) {
	exec := newTestExecutor(t)

	res, err := exec.Execute(context.Background(), "sales-2025", models.QueryParams{
		GroupBy: []string{"product"},
		Aggregations: []models.Aggregation{
			{Field: "sales", Func: models.AggSum, Alias: "productSales"},
		},
		Sort:  []models.SortSpec{{Field: "productSales", Order: models.SortDesc}},
		Limit: 5,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Rows) != 5 {
		t.Fatalf("rows = %d, want 5", len(res.Rows))
	}
	if res.Rows[0]["product"] != "Product A" {
		t.Errorf("top product = %v, want Product A", res.Rows[0]["product"])
	}
	// Descending order must hold across the whole result.
	for i := 1; i < len(res.Rows); i++ {
		prev := res.Rows[i-1]["productSales"].(float64)
		cur := res.Rows[i]["productSales"].(float64)
		if cur > prev {
			t.Errorf("row %d out of order: %v > %v", i, cur, prev)
		}
	}
}

func TestExecuteSalesGrowthHasNullFirstMonth(t *testing.T) {
	exec := newTestExecutor(t)

	res, err := exec.Execute(context.Background(), "sales-2025", models.QueryParams{
		GroupBy: []string{"month"},
		Aggregations: []models.Aggregation{
			{Field: "sales", Func: models.AggSum, Alias: "totalSales"},
		},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Rows[0]["growth"] != nil {
		t.Errorf("first month growth = %v, want null", res.Rows[0]["growth"])
	}
	if res.Rows[0]["totalSales"] != 125000.0 {
		t.Errorf("first month totalSales = %v, want 125000", res.Rows[0]["totalSales"])
	}
}

func TestCatalogListSorted(t *testing.T) {
	catalog := dataset.NewCatalog()
	catalog.SeedBuiltin()

	list := catalog.List()
	ids := make([]string, len(list))
	for i, ds := range list {
		ids[i] = ds.ID
	}
	want := []string{"sales-2025", "users-2025"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("catalog IDs = %v, want %v", ids, want)
	}
}

func TestRegistryFallback(t *testing.T) {
	fixture := dataset.NewFixtureSource()
	registry := dataset.NewRegistry(fixture)

	if got := registry.For("anything"); got != dataset.Source(fixture) {
		t.Error("unbound dataset should resolve to the fallback source")
	}
}
