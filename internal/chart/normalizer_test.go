package chart_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/circlegod/circlegod/internal/chart"
	"github.com/circlegod/circlegod/pkg/models"
)

func fp(v float64) *float64 { return &v }

func TestResolveCategory(t *testing.T) {
	n := chart.New()

	cases := []struct {
		label string
		want  models.ChartType
	}{
		{"折线图", models.ChartLine},
		{"请给我一个柱状图", models.ChartBar},
		{"饼图", models.ChartPie},
		{"散点图", models.ChartScatter},
		{"Line Chart", models.ChartLine},
		{"a BAR chart please", models.ChartBar},
		{"pie", models.ChartPie},
		{"scatter plot", models.ChartScatter},
		{"heatmap", models.ChartHeatmap},
		{"map", models.ChartMap},
		{"table", models.ChartTable},
		{"no chart words here", ""},
	}
	for _, c := range cases {
		if got := n.ResolveCategory(c.label); got != c.want {
			t.Errorf("ResolveCategory(%q) = %q, want %q", c.label, got, c.want)
		}
	}
}

func TestResolveCategoryHeatmapBeforeMap(t *testing.T) {
	n := chart.New()
	if got := n.ResolveCategory("show a heatmap of activity"); got != models.ChartHeatmap {
		t.Fatalf("got %q, want %q", got, models.ChartHeatmap)
	}
}

func TestNormalizeCanonicalPassthrough(t *testing.T) {
	n := chart.New()
	in := models.ChartData{
		Labels: []string{"Jan", "Feb"},
		Datasets: []models.ChartDataset{
			{Label: "sales", Data: []*float64{fp(1), fp(2)}, BorderColor: "#0ea5e9"},
		},
	}

	cfg := n.Normalize(models.ChartLine, in)
	if cfg == nil {
		t.Fatal("Normalize returned nil for canonical input")
	}
	if !reflect.DeepEqual(cfg.Data, in) {
		t.Errorf("canonical data was altered: got %+v, want %+v", cfg.Data, in)
	}

	// Idempotence: normalizing the output's data again changes nothing.
	again := n.Normalize(models.ChartLine, cfg.Data)
	if !reflect.DeepEqual(again.Data, cfg.Data) {
		t.Errorf("second pass altered data: got %+v, want %+v", again.Data, cfg.Data)
	}
}

func TestNormalizeRowsToCartesian(t *testing.T) {
	n := chart.New()
	rows := []models.Row{
		{"month": "Jan", "totalSales": 100.0},
		{"month": "Feb", "totalSales": 150.0},
		{"month": "Mar", "totalSales": 125.0},
	}

	cfg := n.NormalizeRows(models.ChartLine, []string{"month", "totalSales"}, rows)
	if cfg == nil {
		t.Fatal("NormalizeRows returned nil")
	}
	wantLabels := []string{"Jan", "Feb", "Mar"}
	if !reflect.DeepEqual(cfg.Data.Labels, wantLabels) {
		t.Errorf("labels = %v, want %v", cfg.Data.Labels, wantLabels)
	}
	if len(cfg.Data.Datasets) != 1 {
		t.Fatalf("datasets = %d, want 1", len(cfg.Data.Datasets))
	}
	ds := cfg.Data.Datasets[0]
	if ds.Label != "totalSales" {
		t.Errorf("dataset label = %q, want %q", ds.Label, "totalSales")
	}
	if len(ds.Data) != 3 || *ds.Data[1] != 150 {
		t.Errorf("dataset data = %v", ds.Data)
	}
}

func TestNormalizeCartesianFromPlainMapSlice(t *testing.T) {
	n := chart.New()

	// models.Row aliases map[string]any, so both spellings must hit
	// the same coercion path.
	raw := []map[string]any{
		{"month": "Jan", "sales": 100.0},
		{"month": "Feb", "sales": 150.0},
	}

	cfg := n.Normalize(models.ChartBar, raw)
	if cfg == nil {
		t.Fatal("Normalize returned nil")
	}
	wantLabels := []string{"Jan", "Feb"}
	if !reflect.DeepEqual(cfg.Data.Labels, wantLabels) {
		t.Errorf("labels = %v, want %v", cfg.Data.Labels, wantLabels)
	}
	if len(cfg.Data.Datasets) != 1 || len(cfg.Data.Datasets[0].Data) != 2 {
		t.Fatalf("datasets = %+v, want one series of two points", cfg.Data.Datasets)
	}
}

func TestNormalizePieFromJSONPreservesKeyOrder(t *testing.T) {
	n := chart.New()
	raw := json.RawMessage(`{"Electronics": 500, "Home Goods": 300, "Apparel": 200}`)

	cfg := n.Normalize(models.ChartPie, raw)
	if cfg == nil {
		t.Fatal("Normalize returned nil")
	}
	wantLabels := []string{"Electronics", "Home Goods", "Apparel"}
	if !reflect.DeepEqual(cfg.Data.Labels, wantLabels) {
		t.Errorf("labels = %v, want %v (authored order)", cfg.Data.Labels, wantLabels)
	}
	got := cfg.Data.Datasets[0].Data
	if len(got) != 3 || *got[0] != 500 || *got[2] != 200 {
		t.Errorf("values = %v", got)
	}
}

func TestNormalizePieFromPlainMapIsDeterministic(t *testing.T) {
	n := chart.New()
	in := map[string]float64{"b": 2, "a": 1, "c": 3}

	first := n.Normalize(models.ChartPie, in)
	for i := 0; i < 10; i++ {
		again := n.Normalize(models.ChartPie, in)
		if !reflect.DeepEqual(again.Data.Labels, first.Data.Labels) {
			t.Fatalf("label order unstable: %v vs %v", again.Data.Labels, first.Data.Labels)
		}
	}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(first.Data.Labels, want) {
		t.Errorf("labels = %v, want %v", first.Data.Labels, want)
	}
}

func TestNormalizePadsShortSeries(t *testing.T) {
	n := chart.New()
	in := models.ChartData{
		Labels: []string{"a", "b", "c"},
		Datasets: []models.ChartDataset{
			{Label: "short", Data: []*float64{fp(1)}},
			{Label: "long", Data: []*float64{fp(1), fp(2), fp(3), fp(4)}},
		},
	}

	cfg := n.Normalize(models.ChartBar, in)
	for _, ds := range cfg.Data.Datasets {
		if len(ds.Data) != len(cfg.Data.Labels) {
			t.Errorf("dataset %q length = %d, want %d", ds.Label, len(ds.Data), len(cfg.Data.Labels))
		}
	}
	if cfg.Data.Datasets[0].Data[1] != nil {
		t.Error("padding should be null, got a value")
	}
}

func TestNormalizeCartesianPlaceholder(t *testing.T) {
	n := chart.New()
	cfg := n.Normalize(models.ChartLine, "not coercible at all")
	if cfg == nil {
		t.Fatal("Normalize returned nil")
	}
	if len(cfg.Data.Labels) != 5 || len(cfg.Data.Datasets) != 1 {
		t.Errorf("placeholder shape: %d labels, %d datasets; want 5 and 1",
			len(cfg.Data.Labels), len(cfg.Data.Datasets))
	}
	for _, v := range cfg.Data.Datasets[0].Data {
		if v == nil || *v != 0 {
			t.Errorf("placeholder values should be zeros, got %v", cfg.Data.Datasets[0].Data)
		}
	}
}

func TestNormalizePiePlaceholder(t *testing.T) {
	n := chart.New()
	cfg := n.Normalize(models.ChartPie, []string{"nope"})
	if len(cfg.Data.Labels) != 4 {
		t.Fatalf("placeholder labels = %d, want 4", len(cfg.Data.Labels))
	}
	for _, v := range cfg.Data.Datasets[0].Data {
		if v == nil || *v != 25 {
			t.Errorf("placeholder slices should be 25, got %v", cfg.Data.Datasets[0].Data)
		}
	}
}

func TestNormalizeScatterPassthroughOnly(t *testing.T) {
	n := chart.New()

	canonical := models.ChartData{
		Labels:   []string{"x"},
		Datasets: []models.ChartDataset{{Data: []*float64{fp(1)}}},
	}
	cfg := n.Normalize(models.ChartScatter, canonical)
	if !reflect.DeepEqual(cfg.Data, canonical) {
		t.Errorf("canonical scatter altered: %+v", cfg.Data)
	}

	cfg = n.Normalize(models.ChartScatter, map[string]float64{"a": 1})
	if len(cfg.Data.Labels) != 0 || len(cfg.Data.Datasets) != 0 {
		t.Errorf("non-canonical scatter should be empty, got %+v", cfg.Data)
	}
}

func TestNormalizeNilInputs(t *testing.T) {
	n := chart.New()
	if cfg := n.Normalize("", map[string]float64{"a": 1}); cfg != nil {
		t.Error("empty category should yield nil")
	}
	if cfg := n.Normalize(models.ChartLine, nil); cfg != nil {
		t.Error("nil data should yield nil")
	}
}

func TestNormalizeOptionsPerCategory(t *testing.T) {
	n := chart.New()
	rows := []models.Row{{"k": "a", "v": 1.0}}

	line := n.NormalizeRows(models.ChartLine, []string{"k", "v"}, rows)
	scales, ok := line.Options["scales"].(map[string]any)
	if !ok {
		t.Fatal("line options missing scales")
	}
	y := scales["y"].(map[string]any)
	if y["beginAtZero"] != true {
		t.Error("line y axis should begin at zero")
	}

	pie := n.NormalizeRows(models.ChartPie, []string{"k", "v"}, rows)
	plugins := pie.Options["plugins"].(map[string]any)
	legend := plugins["legend"].(map[string]any)
	if legend["position"] != "right" {
		t.Errorf("pie legend position = %v, want right", legend["position"])
	}
	if _, ok := pie.Options["scales"]; ok {
		t.Error("pie options should not carry scales")
	}
}

func TestRecommend(t *testing.T) {
	n := chart.New()

	timeSeries := models.ChartData{
		Labels:   []string{"Jan", "Feb", "Mar"},
		Datasets: []models.ChartDataset{{Data: []*float64{fp(1), fp(2), fp(3)}}},
	}
	if got := n.Recommend(timeSeries); got != models.ChartLine {
		t.Errorf("time-series labels = %q, want line", got)
	}

	shares := models.ChartData{
		Labels:   []string{"a", "b", "c"},
		Datasets: []models.ChartDataset{{Data: []*float64{fp(40), fp(35), fp(25)}}},
	}
	if got := n.Recommend(shares); got != models.ChartPie {
		t.Errorf("small positive series = %q, want pie", got)
	}
}
