// Package intent implements the rule-based intent classifier: it maps a
// free-text analytics question to an operation label, a time-range
// marker, requested-chart hints, matched entities, and structured
// query parameters.
//
// Every rule set is an ordered table evaluated first-match-wins, so a
// query matching two families deterministically resolves to the earlier
// one. The classifier never fails on text it cannot read: absence of
// matches degrades to the lookup/default branch.
package intent

import (
	"regexp"
	"strings"

	"github.com/circlegod/circlegod/pkg/models"
)

// Classifier analyzes natural-language queries. It holds no learned
// state; a zero value is not usable, construct with New.
type Classifier struct {
	timeRange *regexp.Regexp
}

// New creates a Classifier with its patterns compiled.
func New() *Classifier {
	return &Classifier{
		timeRange: regexp.MustCompile(
			`过去|最近|上个月|本周|今年|\d+\s*(天|周|月|年)|` +
				`(?i)(past|last)\s+\d+\s+(day|week|month|year)s?|` +
				`(?i)last\s+(month|week|year|quarter)|` +
				`(?i)this\s+(week|month|year|quarter)`),
	}
}

// ── Operation detection ──────────────────────────────────────

type opRule struct {
	op       models.Operation
	keywords []string
}

// Checked in priority order; the fallback is lookup.
var opRules = []opRule{
	{models.OpAnalyze, []string{"分析", "洞察", "了解", "查看", "analyz", "insight", "understand"}},
	{models.OpPredict, []string{"预测", "预估", "估计", "未来", "predict", "forecast", "estimate", "future"}},
	{models.OpCompare, []string{"对比", "比较", "差异", "区别", "compare", "versus", "difference"}},
	{models.OpSummarize, []string{"总结", "概括", "汇总", "summar", "overview"}},
}

// ── Visualization intent ─────────────────────────────────────

var chartRequestKeywords = []string{"图表", "可视化", "趋势", "图形", "展示", "chart", "visuali", "trend", "graph", "show"}

type chartRule struct {
	chart    models.ChartType
	keywords []string
}

var chartRules = []chartRule{
	{models.ChartLine, []string{"趋势", "变化", "走势", "trend", "change", "over time"}},
	{models.ChartBar, []string{"比较", "排名", "对比", "compare", "rank"}},
	{models.ChartPie, []string{"占比", "分布", "构成", "proportion", "composition", "share"}},
	{models.ChartScatter, []string{"关系", "相关性", "relationship", "correlation", "distribution"}},
}

// ── Entity extraction ────────────────────────────────────────

type entityRule struct {
	name     string
	keywords []string
}

var entityRules = []entityRule{
	{"sales", []string{"销售", "营收", "sales", "revenue"}},
	{"user", []string{"用户", "user"}},
	{"customer", []string{"客户", "customer", "client"}},
	{"product", []string{"产品", "商品", "product"}},
	{"income", []string{"收入", "income"}},
	{"profit", []string{"利润", "profit"}},
	{"cost", []string{"成本", "cost"}},
}

// ── Query synthesis ──────────────────────────────────────────

type synthRule struct {
	keywords    []string
	params      models.QueryParams
	explanation string
	chart       models.ChartType
}

// Checked in this fixed order; the first match wins, matches are never
// combined. The fallback is empty parameters with a generic explanation.
var synthRules = []synthRule{
	{
		keywords: []string{"销售额", "营收", "revenue", "total sales", "monthly sales"},
		params: models.QueryParams{
			GroupBy:      []string{"month"},
			Aggregations: []models.Aggregation{{Field: "sales", Func: models.AggSum, Alias: "totalSales"}},
		},
		explanation: "Summed total sales for each month.",
		chart:       models.ChartLine,
	},
	{
		keywords: []string{"用户增长", "用户数", "用户趋势", "user growth", "user count", "user trend"},
		params: models.QueryParams{
			GroupBy:      []string{"month"},
			Aggregations: []models.Aggregation{{Field: "users", Func: models.AggCount, Alias: "userCount"}},
		},
		explanation: "Counted users for each month.",
		chart:       models.ChartLine,
	},
	{
		keywords: []string{"产品销售", "商品销量", "product sales", "top products", "by product"},
		params: models.QueryParams{
			GroupBy:      []string{"product"},
			Aggregations: []models.Aggregation{{Field: "sales", Func: models.AggSum, Alias: "productSales"}},
			Sort:         []models.SortSpec{{Field: "productSales", Order: models.SortDesc}},
			Limit:        5,
		},
		explanation: "Summed sales per product and kept the top 5.",
		chart:       models.ChartBar,
	},
	{
		keywords: []string{"占比", "比例", "share", "proportion"},
		params: models.QueryParams{
			GroupBy:      []string{"category"},
			Aggregations: []models.Aggregation{{Field: "sales", Func: models.AggSum, Alias: "categorySales"}},
		},
		explanation: "Summed sales per category to show each category's share.",
		chart:       models.ChartPie,
	},
}

const defaultExplanation = "No specific aggregation matched your question; returning a sample of the dataset."

// Classify analyzes a free-text query against a dataset schema and
// returns the inferred intent. The dataset is advisory: classification
// is purely textual in the rule-based stand-in, and unknown datasets are
// rejected later by the executor, never here.
func (c *Classifier) Classify(query string, ds *models.Dataset) models.Intent {
	lower := strings.ToLower(query)

	intent := models.Intent{
		Operation:   models.OpLookup,
		Entities:    c.extractEntities(lower),
		Explanation: defaultExplanation,
	}

	for _, r := range opRules {
		if matchesAny(lower, r.keywords) {
			intent.Operation = r.op
			break
		}
	}

	if m := c.timeRange.FindString(query); m != "" {
		intent.TimeRange = m
	}

	if matchesAny(lower, chartRequestKeywords) {
		intent.WantsChart = true
		for _, r := range chartRules {
			if matchesAny(lower, r.keywords) {
				intent.ChartHint = r.chart
				break
			}
		}
	}

	for _, r := range synthRules {
		if matchesAny(lower, r.keywords) {
			intent.Params = cloneParams(r.params)
			intent.Explanation = r.explanation
			intent.SuggestedChart = r.chart
			break
		}
	}

	return intent
}

func (c *Classifier) extractEntities(lower string) []string {
	var entities []string
	for _, r := range entityRules {
		if matchesAny(lower, r.keywords) {
			entities = append(entities, r.name)
		}
	}
	return entities
}

func matchesAny(lower string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// cloneParams copies the rule-table parameters so every request gets a
// fresh value object.
func cloneParams(p models.QueryParams) models.QueryParams {
	out := p
	if p.GroupBy != nil {
		out.GroupBy = append([]string(nil), p.GroupBy...)
	}
	if p.Aggregations != nil {
		out.Aggregations = append([]models.Aggregation(nil), p.Aggregations...)
	}
	if p.Sort != nil {
		out.Sort = append([]models.SortSpec(nil), p.Sort...)
	}
	return out
}
