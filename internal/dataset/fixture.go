package dataset

import (
	"context"

	"github.com/circlegod/circlegod/pkg/models"
)

// FixtureSource serves pre-aggregated demo tables keyed by dataset and
// group-by field. It is the default source so the chat pipeline works
// with zero external infrastructure; grouping and aggregation are
// already baked into the tables, so only filters, sort and pagination
// are evaluated.
type FixtureSource struct {
	tables map[string]rowTable
}

type rowTable struct {
	columns []string
	rows    []models.Row
}

// NewFixtureSource creates the fixture source with the built-in tables.
func NewFixtureSource() *FixtureSource {
	f := &FixtureSource{tables: make(map[string]rowTable)}

	// Sales ledger, grouped by month. Growth is null for the first
	// month: there is no prior month to compare against.
	f.tables["sales-2025/month"] = rowTable{
		columns: []string{"month", "totalSales", "growth"},
		rows: []models.Row{
			{"month": "Jan", "totalSales": 125000.0, "growth": nil},
			{"month": "Feb", "totalSales": 140000.0, "growth": 12.0},
			{"month": "Mar", "totalSales": 158000.0, "growth": 12.9},
			{"month": "Apr", "totalSales": 172000.0, "growth": 8.9},
			{"month": "May", "totalSales": 195000.0, "growth": 13.4},
			{"month": "Jun", "totalSales": 210000.0, "growth": 7.7},
		},
	}

	f.tables["sales-2025/product"] = rowTable{
		columns: []string{"product", "productSales"},
		rows: []models.Row{
			{"product": "Product A", "productSales": 450000.0},
			{"product": "Product B", "productSales": 350000.0},
			{"product": "Product C", "productSales": 200000.0},
			{"product": "Product D", "productSales": 120000.0},
			{"product": "Product E", "productSales": 80000.0},
		},
	}

	f.tables["sales-2025/category"] = rowTable{
		columns: []string{"category", "categorySales"},
		rows: []models.Row{
			{"category": "Electronics", "categorySales": 500000.0},
			{"category": "Home Goods", "categorySales": 300000.0},
			{"category": "Office Supplies", "categorySales": 200000.0},
			{"category": "Food & Beverage", "categorySales": 100000.0},
		},
	}

	f.tables["sales-2025/region"] = rowTable{
		columns: []string{"region", "regionSales"},
		rows: []models.Row{
			{"region": "North", "regionSales": 320000.0},
			{"region": "South", "regionSales": 280000.0},
			{"region": "East", "regionSales": 250000.0},
			{"region": "West", "regionSales": 300000.0},
		},
	}

	f.tables["sales-2025/"] = rowTable{
		columns: []string{"month", "product", "category", "region", "sales"},
		rows: []models.Row{
			{"month": "Jan", "product": "Product A", "category": "Electronics", "region": "North", "sales": 42000.0},
			{"month": "Jan", "product": "Product B", "category": "Home Goods", "region": "South", "sales": 28000.0},
			{"month": "Feb", "product": "Product A", "category": "Electronics", "region": "East", "sales": 45000.0},
			{"month": "Feb", "product": "Product C", "category": "Office Supplies", "region": "West", "sales": 18000.0},
			{"month": "Mar", "product": "Product B", "category": "Home Goods", "region": "North", "sales": 31000.0},
			{"month": "Mar", "product": "Product D", "category": "Food & Beverage", "region": "South", "sales": 12000.0},
		},
	}

	f.tables["users-2025/month"] = rowTable{
		columns: []string{"month", "userCount", "activeUsers", "retention"},
		rows: []models.Row{
			{"month": "Jan", "userCount": 1200.0, "activeUsers": 960.0, "retention": 78.0},
			{"month": "Feb", "userCount": 1450.0, "activeUsers": 1160.0, "retention": 74.0},
			{"month": "Mar", "userCount": 1780.0, "activeUsers": 1420.0, "retention": 76.0},
			{"month": "Apr", "userCount": 1900.0, "activeUsers": 1520.0, "retention": 79.0},
			{"month": "May", "userCount": 2100.0, "activeUsers": 1680.0, "retention": 77.0},
			{"month": "Jun", "userCount": 2350.0, "activeUsers": 1880.0, "retention": 80.0},
		},
	}

	f.tables["users-2025/device"] = rowTable{
		columns: []string{"device", "userCount"},
		rows: []models.Row{
			{"device": "Mobile", "userCount": 5200.0},
			{"device": "Desktop", "userCount": 3100.0},
			{"device": "Tablet", "userCount": 700.0},
		},
	}

	f.tables["users-2025/userType"] = rowTable{
		columns: []string{"userType", "userCount"},
		rows: []models.Row{
			{"userType": "New", "userCount": 4200.0},
			{"userType": "Returning", "userCount": 4800.0},
		},
	}

	f.tables["users-2025/"] = rowTable{
		columns: []string{"month", "device", "userType", "users"},
		rows: []models.Row{
			{"month": "Jan", "device": "Mobile", "userType": "New", "users": 420.0},
			{"month": "Jan", "device": "Desktop", "userType": "Returning", "users": 380.0},
			{"month": "Feb", "device": "Mobile", "userType": "New", "users": 510.0},
			{"month": "Feb", "device": "Tablet", "userType": "Returning", "users": 95.0},
		},
	}

	return f
}

func (f *FixtureSource) Kind() models.SourceKind { return models.SourceMemory }

// Query picks the table for the dataset's first group-by field (the
// ungrouped table when there is none) and evaluates filters, sort and
// pagination over it. Unknown group-by fields fall back to the
// ungrouped table.
func (f *FixtureSource) Query(ctx context.Context, datasetID string, params models.QueryParams) (*models.QueryResult, error) {
	groupKey := ""
	if len(params.GroupBy) > 0 {
		groupKey = params.GroupBy[0]
	}

	table, ok := f.tables[datasetID+"/"+groupKey]
	if !ok {
		table, ok = f.tables[datasetID+"/"]
	}
	if !ok {
		return nil, &ErrUnknownDataset{ID: datasetID}
	}

	// The tables are pre-aggregated, so strip grouping before the
	// shared evaluation path runs.
	flat := params
	flat.GroupBy = nil
	flat.Aggregations = nil

	return runQuery(table.rows, table.columns, flat), nil
}

func (f *FixtureSource) HealthCheck(ctx context.Context) error { return nil }
