package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/circlegod/circlegod/pkg/models"
)

const answerSystemPrompt = `You are a data analytics assistant. Answer the user's question about their data concisely.
If a chart would help, append a fenced json block with this exact shape:
{"chartType": "<line|bar|pie|scatter>", "chartData": {"labels": [...], "datasets": [{"label": "...", "data": [...]}]}}
Do not invent numbers that contradict the provided data context.`

// OpenAIAssistant answers via an OpenAI-compatible chat completions
// endpoint. Chart payloads are parsed from a fenced json block in the
// completion when the model chooses to emit one.
type OpenAIAssistant struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewOpenAIAssistant creates the provider. endpoint defaults to the
// public OpenAI API when empty.
func NewOpenAIAssistant(endpoint, apiKey, model string) (*OpenAIAssistant, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: api key not configured")
	}
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1"
	}
	return &OpenAIAssistant{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

func (a *OpenAIAssistant) Answer(ctx context.Context, history []models.ChatMessage, dataCtx *models.DataContext) (*models.AssistantResult, error) {
	msgs := []openAIMessage{{Role: "system", Content: a.systemPrompt(dataCtx)}}
	for _, m := range history {
		msgs = append(msgs, openAIMessage{Role: string(m.Role), Content: m.Content})
	}

	body, _ := json.Marshal(openAIRequest{Model: a.model, Messages: msgs})

	url := a.endpoint + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	httpResp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("openai: status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var oaiResp openAIResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&oaiResp); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(oaiResp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices")
	}

	content := oaiResp.Choices[0].Message.Content
	log.Debug().Int64("total_tokens", oaiResp.Usage.TotalTokens).Msg("Assistant completion received")

	answer, chartType, chartData := extractChartBlock(content)
	res := &models.AssistantResult{
		Answer:   answer,
		Analysis: map[string]any{"model": a.model, "totalTokens": oaiResp.Usage.TotalTokens},
	}
	if chartData != nil {
		res.ChartData = chartData
		res.ChartLabel = chartType
	}
	return res, nil
}

func (a *OpenAIAssistant) systemPrompt(dataCtx *models.DataContext) string {
	if dataCtx == nil {
		return answerSystemPrompt
	}
	var sb strings.Builder
	sb.WriteString(answerSystemPrompt)
	sb.WriteString("\n\nData context (dataset ")
	sb.WriteString(dataCtx.DatasetID)
	sb.WriteString("):\n")
	if dataCtx.Explanation != "" {
		sb.WriteString(dataCtx.Explanation)
		sb.WriteString("\n")
	}
	sb.WriteString("columns: ")
	sb.WriteString(strings.Join(dataCtx.Columns, ", "))
	sb.WriteString("\nrows:\n")
	rows, _ := json.Marshal(dataCtx.Rows)
	sb.Write(rows)
	return sb.String()
}

// extractChartBlock splits a fenced json chart block out of the
// completion. The remaining text becomes the answer; a malformed block
// is left in place and no chart is returned.
func extractChartBlock(content string) (answer, chartType string, chartData json.RawMessage) {
	start := strings.Index(content, "```json")
	if start < 0 {
		return strings.TrimSpace(content), "", nil
	}
	rest := content[start+len("```json"):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(content), "", nil
	}

	var block struct {
		ChartType string          `json:"chartType"`
		ChartData json.RawMessage `json:"chartData"`
	}
	if err := json.Unmarshal([]byte(rest[:end]), &block); err != nil || block.ChartData == nil {
		return strings.TrimSpace(content), "", nil
	}

	answer = strings.TrimSpace(content[:start] + rest[end+3:])
	return answer, block.ChartType, block.ChartData
}
