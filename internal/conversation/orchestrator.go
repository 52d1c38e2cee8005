// Package conversation runs the chat turn pipeline: classify the
// question, fetch data context, generate the answer, normalize any
// chart payload, and persist the exchange into the session.
package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/circlegod/circlegod/internal/assistant"
	"github.com/circlegod/circlegod/internal/chart"
	"github.com/circlegod/circlegod/internal/dataset"
	"github.com/circlegod/circlegod/internal/intent"
	"github.com/circlegod/circlegod/pkg/models"
)

// ErrEmptyMessages rejects turns with no messages. It is the only
// validation failure HandleTurn reports; everything downstream degrades
// instead of failing the turn.
type ErrEmptyMessages struct{}

func (e *ErrEmptyMessages) Error() string { return "messages must not be empty" }

const degradedAnswer = "Sorry, I could not generate an answer right now. Please try again."

// Orchestrator coordinates one conversation turn end to end.
type Orchestrator struct {
	classifier *intent.Classifier
	executor   *dataset.Executor
	normalizer *chart.Normalizer
	assistant  assistant.Assistant
	sessions   SessionStore
}

// NewOrchestrator wires the turn pipeline.
func NewOrchestrator(classifier *intent.Classifier, executor *dataset.Executor, normalizer *chart.Normalizer, a assistant.Assistant, sessions SessionStore) *Orchestrator {
	return &Orchestrator{
		classifier: classifier,
		executor:   executor,
		normalizer: normalizer,
		assistant:  a,
		sessions:   sessions,
	}
}

// Sessions exposes the session store for the HTTP handlers.
func (o *Orchestrator) Sessions() SessionStore { return o.sessions }

// HandleTurn runs the pipeline for one chat request.
//
// Failure policy: an empty message list is the caller's error and is
// rejected. A failing data-context build (unknown dataset, source down)
// is logged and the turn continues without data. A failing assistant
// degrades to an apologetic answer with no chart. The turn as a whole
// only errors on invalid input.
func (o *Orchestrator) HandleTurn(ctx context.Context, workspace string, req models.ChatRequest) (*models.TurnResult, error) {
	if len(req.Messages) == 0 {
		return nil, &ErrEmptyMessages{}
	}

	question := lastUserContent(req.Messages)
	turnIntent := o.classifier.Classify(question, nil)

	dataCtx := o.buildDataContext(ctx, req.DatasetID, turnIntent)

	var turnErr string
	answer, err := o.assistant.Answer(ctx, req.Messages, dataCtx)
	if err != nil {
		log.Error().Err(err).Str("workspace", workspace).Msg("Assistant failed, degrading turn")
		answer = &models.AssistantResult{Answer: degradedAnswer}
		turnErr = err.Error()
	}

	result := &models.TurnResult{
		Answer:             answer.Answer,
		Visualization:      o.buildVisualization(turnIntent, dataCtx, answer),
		SuggestedFollowUps: answer.FollowUps,
		DataAnalysis:       answer.Analysis,
		Error:              turnErr,
	}
	if result.SuggestedFollowUps == nil {
		result.SuggestedFollowUps = []string{}
	}

	o.persistTurn(ctx, workspace, req, question, result.Answer)
	return result, nil
}

// buildDataContext classifies and executes the structured query for the
// named dataset. Any failure degrades to a nil context: the assistant
// still answers, just without data.
func (o *Orchestrator) buildDataContext(ctx context.Context, datasetID string, turnIntent models.Intent) *models.DataContext {
	if datasetID == "" {
		return nil
	}

	res, err := o.executor.Execute(ctx, datasetID, turnIntent.Params)
	if err != nil {
		log.Warn().Err(err).Str("dataset", datasetID).Msg("Data context unavailable, continuing without it")
		return nil
	}
	return &models.DataContext{
		DatasetID:      datasetID,
		Columns:        res.Columns,
		Rows:           res.Rows,
		Explanation:    turnIntent.Explanation,
		SuggestedChart: turnIntent.SuggestedChart,
	}
}

// buildVisualization picks the chart category and normalizes whatever
// payload is available. Assistant-provided data wins over executor rows;
// no data at all means no visualization.
func (o *Orchestrator) buildVisualization(turnIntent models.Intent, dataCtx *models.DataContext, answer *models.AssistantResult) *models.ChartConfig {
	if answer.ChartData != nil {
		category := o.normalizer.ResolveCategory(answer.ChartLabel)
		if category == "" {
			category = fallbackCategory(turnIntent, dataCtx)
		}
		if category == "" && turnIntent.WantsChart {
			category = models.ChartLine
		}
		return o.normalizer.Normalize(category, answer.ChartData)
	}

	if turnIntent.WantsChart && dataCtx != nil && len(dataCtx.Rows) > 0 {
		category := fallbackCategory(turnIntent, dataCtx)
		if category == "" {
			// Let the data pick: coerce once, then recommend.
			probe := o.normalizer.NormalizeRows(models.ChartBar, dataCtx.Columns, dataCtx.Rows)
			category = o.normalizer.Recommend(probe.Data)
		}
		return o.normalizer.NormalizeRows(category, dataCtx.Columns, dataCtx.Rows)
	}

	return nil
}

func fallbackCategory(turnIntent models.Intent, dataCtx *models.DataContext) models.ChartType {
	if turnIntent.ChartHint != "" {
		return turnIntent.ChartHint
	}
	if dataCtx != nil {
		return dataCtx.SuggestedChart
	}
	return ""
}

// persistTurn appends the user question and assistant answer to the
// session, creating it on first use. Session failures never fail the
// turn.
func (o *Orchestrator) persistTurn(ctx context.Context, workspace string, req models.ChatRequest, question, answer string) {
	if req.SessionID == "" || o.sessions == nil {
		return
	}

	now := time.Now().UTC()
	msgs := []models.ChatMessage{
		{ID: uuid.NewString(), Role: models.RoleUser, Content: question, Timestamp: now},
		{ID: uuid.NewString(), Role: models.RoleAssistant, Content: answer, Timestamp: now},
	}

	if err := o.sessions.AppendMessages(ctx, req.SessionID, msgs...); err == nil {
		return
	}

	session := &models.ChatSession{
		ID:        req.SessionID,
		Workspace: workspace,
		Title:     truncateTitle(question),
		DatasetID: req.DatasetID,
		Messages:  msgs,
	}
	if err := o.sessions.CreateSession(ctx, session); err != nil {
		log.Warn().Err(err).Str("session", req.SessionID).Msg("Session persistence failed")
	}
}

func truncateTitle(s string) string {
	runes := []rune(s)
	if len(runes) <= 40 {
		return s
	}
	return string(runes[:40]) + "…"
}

func lastUserContent(msgs []models.ChatMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleUser {
			return msgs[i].Content
		}
	}
	return msgs[len(msgs)-1].Content
}
