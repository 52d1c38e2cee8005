package assistant

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/circlegod/circlegod/pkg/models"
)

// RuleAssistant answers from canned templates keyed on the question.
// It is the default provider: the whole pipeline works offline, and the
// payloads it emits deliberately exercise the normalizer (ragged series,
// nullable points, JSON objects relying on key order).
type RuleAssistant struct{}

// NewRuleAssistant creates the rule-based provider.
func NewRuleAssistant() *RuleAssistant { return &RuleAssistant{} }

func fp(v float64) *float64 { return &v }

func (a *RuleAssistant) Answer(ctx context.Context, history []models.ChatMessage, dataCtx *models.DataContext) (*models.AssistantResult, error) {
	question := strings.ToLower(lastUserMessage(history))

	var res *models.AssistantResult
	switch {
	case strings.Contains(question, "用户增长") || strings.Contains(question, "user growth"):
		res = userGrowthAnswer()
	case strings.Contains(question, "销售") || strings.Contains(question, "sales"):
		res = salesShareAnswer()
	default:
		res = defaultAnswer()
	}

	if dataCtx != nil {
		res.Analysis["datasetId"] = dataCtx.DatasetID
		res.Analysis["rowCount"] = len(dataCtx.Rows)
		if dataCtx.Explanation != "" {
			res.Answer = res.Answer + "\n\n" + dataCtx.Explanation
		}
	}
	return res, nil
}

func userGrowthAnswer() *models.AssistantResult {
	// Growth rate has no value for the first month, so the first point
	// stays null and survives normalization as a gap.
	return &models.AssistantResult{
		Answer: "User growth has been strong this half: new registrations climbed " +
			"from 1,200 in January to 2,350 in June. The sharpest jump came in March " +
			"(+22.8%), and momentum recovered again toward June after a slower April.",
		ChartData: models.ChartData{
			Labels: []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"},
			Datasets: []models.ChartDataset{
				{
					Label:       "New users",
					Data:        []*float64{fp(1200), fp(1450), fp(1780), fp(1900), fp(2100), fp(2350)},
					BorderColor: "#0ea5e9",
				},
				{
					Label:       "Growth rate (%)",
					Data:        []*float64{nil, fp(20.8), fp(22.8), fp(6.7), fp(10.5), fp(11.9)},
					BorderColor: "#8b5cf6",
				},
			},
		},
		ChartLabel: "折线图",
		FollowUps: []string{
			"Which channels drove the March spike?",
			"How does retention look for the new cohorts?",
			"Compare growth against the same period last year",
		},
		Analysis: map[string]any{
			"trend":     "up",
			"peakMonth": "Mar",
		},
	}
}

func salesShareAnswer() *models.AssistantResult {
	// Raw JSON object on purpose: slice order must follow the authored
	// key order, which only the ordered decode path preserves.
	return &models.AssistantResult{
		Answer: "Electronics dominates revenue with a 42% share, followed by Home Goods " +
			"at 28%. Office Supplies and Food & Beverage contribute 18% and 12% " +
			"respectively, so the top two categories account for 70% of sales.",
		ChartData: json.RawMessage(`{"Electronics": 42, "Home Goods": 28, "Office Supplies": 18, "Food & Beverage": 12}`),
		ChartLabel: "饼图",
		FollowUps: []string{
			"Break Electronics down by product",
			"How has the category mix shifted over time?",
			"Show sales by region instead",
		},
		Analysis: map[string]any{
			"topCategory": "Electronics",
			"topShare":    42.0,
		},
	}
}

func defaultAnswer() *models.AssistantResult {
	return &models.AssistantResult{
		Answer: "I can analyze your datasets and turn the answers into charts. " +
			"Ask about trends, comparisons, rankings or category shares, " +
			"for example \"show user growth as a line chart\".",
		FollowUps: []string{
			"Show user growth trend",
			"What is the sales share by category?",
			"Rank products by sales",
			"Compare regions this quarter",
		},
		Analysis: map[string]any{},
	}
}
