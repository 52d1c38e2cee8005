package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/circlegod/circlegod/pkg/models"
)

func userMsg(content string) []models.ChatMessage {
	return []models.ChatMessage{{ID: "m1", Role: models.RoleUser, Content: content, Timestamp: time.Now()}}
}

func TestRuleAssistantUserGrowth(t *testing.T) {
	a := NewRuleAssistant()

	res, err := a.Answer(context.Background(), userMsg("show 用户增长 trend"), nil)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if res.ChartLabel != "折线图" {
		t.Errorf("chart label = %q, want 折线图", res.ChartLabel)
	}
	cd, ok := res.ChartData.(models.ChartData)
	if !ok {
		t.Fatalf("chart data type = %T", res.ChartData)
	}
	if len(cd.Datasets) != 2 {
		t.Fatalf("datasets = %d, want 2", len(cd.Datasets))
	}
	if cd.Datasets[1].Data[0] != nil {
		t.Error("growth rate first point should be null")
	}
}

func TestRuleAssistantSalesShare(t *testing.T) {
	a := NewRuleAssistant()

	res, err := a.Answer(context.Background(), userMsg("what is the sales share"), nil)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if res.ChartLabel != "饼图" {
		t.Errorf("chart label = %q, want 饼图", res.ChartLabel)
	}
	if _, ok := res.ChartData.(json.RawMessage); !ok {
		t.Errorf("chart data type = %T, want json.RawMessage", res.ChartData)
	}
}

func TestRuleAssistantDefaultHasNoChart(t *testing.T) {
	a := NewRuleAssistant()

	res, err := a.Answer(context.Background(), userMsg("hello there"), nil)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if res.ChartData != nil {
		t.Error("default answer should carry no chart data")
	}
	if len(res.FollowUps) == 0 {
		t.Error("default answer should suggest follow-ups")
	}
}

func TestRuleAssistantMergesDataContext(t *testing.T) {
	a := NewRuleAssistant()
	dataCtx := &models.DataContext{
		DatasetID:   "sales-2025",
		Columns:     []string{"month", "totalSales"},
		Rows:        []models.Row{{"month": "Jan", "totalSales": 125000.0}},
		Explanation: "Monthly sales totals",
	}

	res, err := a.Answer(context.Background(), userMsg("hello"), dataCtx)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if res.Analysis["datasetId"] != "sales-2025" {
		t.Errorf("analysis datasetId = %v", res.Analysis["datasetId"])
	}
	if res.Analysis["rowCount"] != 1 {
		t.Errorf("analysis rowCount = %v, want 1", res.Analysis["rowCount"])
	}
}

func TestExtractChartBlock(t *testing.T) {
	content := "Sales are trending up.\n```json\n" +
		`{"chartType": "line", "chartData": {"labels": ["Jan"], "datasets": []}}` +
		"\n```\nAsk me for details."

	answer, chartType, chartData := extractChartBlock(content)
	if chartType != "line" {
		t.Errorf("chartType = %q, want line", chartType)
	}
	if chartData == nil {
		t.Fatal("chartData missing")
	}
	if answer != "Sales are trending up.\n\nAsk me for details." {
		t.Errorf("answer = %q", answer)
	}
}

func TestExtractChartBlockMalformed(t *testing.T) {
	content := "Just text with ```json\nnot valid\n``` inside."
	answer, chartType, chartData := extractChartBlock(content)
	if chartData != nil || chartType != "" {
		t.Error("malformed block should yield no chart")
	}
	if answer == "" {
		t.Error("answer should keep original content")
	}
}

func TestOpenAIAssistantAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Messages[0].Role != "system" {
			t.Errorf("first message role = %s, want system", req.Messages[0].Role)
		}

		resp := map[string]any{
			"id": "cmpl-1",
			"choices": []map[string]any{
				{"message": map[string]any{"content": "Revenue grew 12% month over month."}},
			},
			"usage": map[string]any{"total_tokens": 42},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	a, err := NewOpenAIAssistant(srv.URL, "test-key", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("NewOpenAIAssistant: %v", err)
	}
	res, err := a.Answer(context.Background(), userMsg("how is revenue?"), nil)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if res.Answer != "Revenue grew 12% month over month." {
		t.Errorf("answer = %q", res.Answer)
	}
	if res.ChartData != nil {
		t.Error("no chart block, so no chart data expected")
	}
}

func TestNewOpenAIAssistantRequiresKey(t *testing.T) {
	if _, err := NewOpenAIAssistant("", "", "gpt-4o-mini"); err == nil {
		t.Error("expected error when api key missing")
	}
}
