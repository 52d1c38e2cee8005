package intent_test

import (
	"reflect"
	"testing"

	"github.com/circlegod/circlegod/internal/intent"
	"github.com/circlegod/circlegod/pkg/models"
)

func TestClassifyOperationPriority(t *testing.T) {
	c := intent.New()

	cases := []struct {
		query string
		want  models.Operation
	}{
		{"分析一下销售数据", models.OpAnalyze},
		{"预测下个季度的收入", models.OpPredict},
		{"对比各地区的表现", models.OpCompare},
		{"总结这个月的情况", models.OpSummarize},
		{"查看最近的数据", models.OpAnalyze},
		{"what is the latest order", models.OpLookup},
		// A query matching both resolves to the earlier rule.
		{"分析并预测趋势", models.OpAnalyze},
		{"please forecast and compare regions", models.OpPredict},
	}
	for _, tc := range cases {
		got := c.Classify(tc.query, nil)
		if got.Operation != tc.want {
			t.Errorf("Classify(%q).Operation = %q, want %q", tc.query, got.Operation, tc.want)
		}
	}
}

func TestClassifyTimeRangeMarker(t *testing.T) {
	c := intent.New()

	got := c.Classify("过去30天的销售额", nil)
	if got.TimeRange == "" {
		t.Error("expected a time-range marker for 过去30天")
	}

	got = c.Classify("show sales for the past 3 months", nil)
	if got.TimeRange != "past 3 months" {
		t.Errorf("TimeRange = %q, want %q", got.TimeRange, "past 3 months")
	}

	got = c.Classify("show sales by product", nil)
	if got.TimeRange != "" {
		t.Errorf("TimeRange = %q, want empty", got.TimeRange)
	}
}

func TestClassifyChartHint(t *testing.T) {
	c := intent.New()

	cases := []struct {
		query      string
		wantsChart bool
		hint       models.ChartType
	}{
		{"展示销售趋势", true, models.ChartLine},
		{"show a graph to compare regions", true, models.ChartBar},
		{"可视化各产品占比", true, models.ChartPie},
		{"chart the correlation between price and volume", true, models.ChartScatter},
		// Chart requested but no category keyword: hint stays empty.
		{"给我一个图表", true, ""},
		{"list the latest orders", false, ""},
	}
	for _, tc := range cases {
		got := c.Classify(tc.query, nil)
		if got.WantsChart != tc.wantsChart {
			t.Errorf("Classify(%q).WantsChart = %v, want %v", tc.query, got.WantsChart, tc.wantsChart)
		}
		if got.ChartHint != tc.hint {
			t.Errorf("Classify(%q).ChartHint = %q, want %q", tc.query, got.ChartHint, tc.hint)
		}
	}
}

func TestClassifyEntities(t *testing.T) {
	c := intent.New()

	got := c.Classify("分析用户和产品的销售情况", nil)
	want := []string{"sales", "user", "product"}
	if !reflect.DeepEqual(got.Entities, want) {
		t.Errorf("Entities = %v, want %v", got.Entities, want)
	}

	// An entity mentioned twice appears once.
	got = c.Classify("user growth and user retention", nil)
	count := 0
	for _, e := range got.Entities {
		if e == "user" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("user entity appears %d times, want 1", count)
	}
}

func TestClassifySynthesisUserGrowth(t *testing.T) {
	c := intent.New()

	got := c.Classify("展示用户增长趋势", nil)
	if !reflect.DeepEqual(got.Params.GroupBy, []string{"month"}) {
		t.Errorf("GroupBy = %v, want [month]", got.Params.GroupBy)
	}
	if len(got.Params.Aggregations) != 1 {
		t.Fatalf("Aggregations = %v", got.Params.Aggregations)
	}
	agg := got.Params.Aggregations[0]
	if agg.Func != models.AggCount || agg.Field != "users" || agg.Alias != "userCount" {
		t.Errorf("aggregation = %+v", agg)
	}
	if got.SuggestedChart != models.ChartLine {
		t.Errorf("SuggestedChart = %q, want line", got.SuggestedChart)
	}
}

func TestClassifySynthesisTopProducts(t *testing.T) {
	c := intent.New()

	got := c.Classify("rank top products by sales", nil)
	if !reflect.DeepEqual(got.Params.GroupBy, []string{"product"}) {
		t.Errorf("GroupBy = %v, want [product]", got.Params.GroupBy)
	}
	if got.Params.Limit != 5 {
		t.Errorf("Limit = %d, want 5", got.Params.Limit)
	}
	if len(got.Params.Sort) != 1 || got.Params.Sort[0].Order != models.SortDesc {
		t.Errorf("Sort = %v, want productSales desc", got.Params.Sort)
	}
	if got.SuggestedChart != models.ChartBar {
		t.Errorf("SuggestedChart = %q, want bar", got.SuggestedChart)
	}
}

func TestClassifySynthesisCategoryShare(t *testing.T) {
	c := intent.New()

	got := c.Classify("各类别的占比是多少", nil)
	if !reflect.DeepEqual(got.Params.GroupBy, []string{"category"}) {
		t.Errorf("GroupBy = %v, want [category]", got.Params.GroupBy)
	}
	if got.SuggestedChart != models.ChartPie {
		t.Errorf("SuggestedChart = %q, want pie", got.SuggestedChart)
	}
}

func TestClassifySynthesisRevenueBeatsProduct(t *testing.T) {
	c := intent.New()

	// "product sales" must reach the product rule, not the revenue one.
	got := c.Classify("show product sales ranking", nil)
	if !reflect.DeepEqual(got.Params.GroupBy, []string{"product"}) {
		t.Errorf("GroupBy = %v, want [product]", got.Params.GroupBy)
	}

	// "monthly sales" takes the revenue rule.
	got = c.Classify("monthly sales this year", nil)
	if !reflect.DeepEqual(got.Params.GroupBy, []string{"month"}) {
		t.Errorf("GroupBy = %v, want [month]", got.Params.GroupBy)
	}
	if got.Params.Aggregations[0].Alias != "totalSales" {
		t.Errorf("alias = %q, want totalSales", got.Params.Aggregations[0].Alias)
	}
}

func TestClassifyDefaultSynthesis(t *testing.T) {
	c := intent.New()

	got := c.Classify("随便看看", nil)
	if !got.Params.IsZero() {
		t.Errorf("Params = %+v, want zero", got.Params)
	}
	if got.Explanation == "" {
		t.Error("default explanation missing")
	}
	if got.SuggestedChart != "" {
		t.Errorf("SuggestedChart = %q, want empty", got.SuggestedChart)
	}
}

func TestClassifyParamsAreFreshCopies(t *testing.T) {
	c := intent.New()

	first := c.Classify("用户增长", nil)
	first.Params.GroupBy[0] = "mutated"

	second := c.Classify("用户增长", nil)
	if second.Params.GroupBy[0] != "month" {
		t.Error("rule table leaked mutation across requests")
	}
}
