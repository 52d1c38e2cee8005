// Package models defines the shared domain types for the CircleGod
// analytics plane: datasets and structured queries, chat messages,
// canonical chart configurations, and the dashboard/connector records
// the HTTP API persists.
package models

import "time"

// ── Datasets ─────────────────────────────────────────────────

// SourceKind identifies where a dataset's rows come from.
type SourceKind string

const (
	SourceFile     SourceKind = "file"
	SourceAPI      SourceKind = "api"
	SourceDatabase SourceKind = "database"
	SourceMemory   SourceKind = "memory"
)

// FieldType is the semantic type of a dataset field.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
	FieldDate   FieldType = "date"
)

// Field describes one column of a dataset schema.
type Field struct {
	Name        string    `json:"name"`
	Type        FieldType `json:"type"`
	Description string    `json:"description,omitempty"`
}

// Dataset is a named, schema-described source of rows. Datasets are
// registered in the catalog at startup and never mutated afterwards.
type Dataset struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Source      SourceKind `json:"source"`
	Fields      []Field    `json:"fields"`
	RowCount    int64      `json:"rowCount"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ── Structured queries ───────────────────────────────────────

// SortOrder is the direction of a sort spec.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortSpec orders results by a single field.
type SortSpec struct {
	Field string    `json:"field"`
	Order SortOrder `json:"order"`
}

// AggFunc is an aggregation function applied per group.
type AggFunc string

const (
	AggSum   AggFunc = "sum"
	AggAvg   AggFunc = "avg"
	AggMin   AggFunc = "min"
	AggMax   AggFunc = "max"
	AggCount AggFunc = "count"
)

// Aggregation applies a function to a source field and names the result.
type Aggregation struct {
	Field string  `json:"field"`
	Func  AggFunc `json:"function"`
	Alias string  `json:"alias,omitempty"`
}

// QueryParams is the structured query derived from a natural-language
// question (or supplied directly by API callers). It is a per-request
// value object: constructed fresh, consumed once, never persisted.
//
// Filter values are either plain values (equality) or a map with any of
// the keys "gte", "gt", "lte", "lt" (range constraint). Filters are
// AND-combined. Grouping partitions rows before aggregation, sort applies
// after aggregation, limit/offset apply last.
type QueryParams struct {
	Filters      map[string]any `json:"filters,omitempty"`
	Sort         []SortSpec     `json:"sort,omitempty"`
	Limit        int            `json:"limit,omitempty"`
	Offset       int            `json:"offset,omitempty"`
	GroupBy      []string       `json:"groupBy,omitempty"`
	Aggregations []Aggregation  `json:"aggregations,omitempty"`
}

// IsZero reports whether no query constraints were set.
func (p QueryParams) IsZero() bool {
	return len(p.Filters) == 0 && len(p.Sort) == 0 && p.Limit == 0 &&
		p.Offset == 0 && len(p.GroupBy) == 0 && len(p.Aggregations) == 0
}

// Row is a single result record keyed by column name.
type Row = map[string]any

// QueryResult carries executor output. Columns preserves the column
// order (group-by fields first, then aggregation aliases) because Go
// maps do not.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// ── Conversation ─────────────────────────────────────────────

// ChatRole is the author of a chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
	RoleSystem    ChatRole = "system"
)

// ChatMessage is one turn of a conversation. Messages are append-only;
// ordering within a session is insertion order and is significant.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession groups messages into a named multi-turn conversation.
type ChatSession struct {
	ID        string        `json:"id"`
	Workspace string        `json:"workspace"`
	Title     string        `json:"title"`
	DatasetID string        `json:"datasetId,omitempty"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Operation is the data operation a query asks for.
type Operation string

const (
	OpAnalyze   Operation = "analyze"
	OpPredict   Operation = "predict"
	OpCompare   Operation = "compare"
	OpSummarize Operation = "summarize"
	OpLookup    Operation = "lookup"
)

// Intent is the classifier's reading of a free-text query.
type Intent struct {
	Operation Operation `json:"operation"`

	// TimeRange holds the matched time phrase verbatim when the query
	// mentions one. It is an opaque marker: the rule-based classifier
	// never resolves it into concrete dates.
	TimeRange string `json:"timeRange,omitempty"`

	Entities []string `json:"entities,omitempty"`

	// WantsChart is set when the query asks for a visualization.
	// ChartHint is the guessed category; empty with WantsChart set means
	// a chart was requested but no category could be inferred and the
	// caller must pick a default.
	WantsChart bool      `json:"wantsChart"`
	ChartHint  ChartType `json:"chartHint,omitempty"`

	// Params, Explanation and SuggestedChart come from the query
	// synthesis table.
	Params         QueryParams `json:"params"`
	Explanation    string      `json:"explanation"`
	SuggestedChart ChartType   `json:"suggestedChart,omitempty"`
}

// DataContext is the retrieved-data bundle attached to an assistant call
// when the turn names a dataset.
type DataContext struct {
	DatasetID      string    `json:"datasetId"`
	Columns        []string  `json:"columns"`
	Rows           []Row     `json:"rows"`
	Explanation    string    `json:"explanation"`
	SuggestedChart ChartType `json:"suggestedChart,omitempty"`
}

// AssistantResult is what the answer-generation collaborator returns.
// ChartData is raw, possibly inconsistently shaped data; the normalizer
// coerces it before anything renders it.
type AssistantResult struct {
	Answer     string         `json:"answer"`
	ChartData  any            `json:"chartData,omitempty"`
	ChartLabel string         `json:"chartLabel,omitempty"`
	FollowUps  []string       `json:"followUps,omitempty"`
	Analysis   map[string]any `json:"analysis,omitempty"`
}

// ── Charts ───────────────────────────────────────────────────

// ChartType is one of the eight canonical chart categories.
type ChartType string

const (
	ChartLine    ChartType = "line"
	ChartBar     ChartType = "bar"
	ChartPie     ChartType = "pie"
	ChartScatter ChartType = "scatter"
	ChartArea    ChartType = "area"
	ChartHeatmap ChartType = "heatmap"
	ChartMap     ChartType = "map"
	ChartTable   ChartType = "table"
)

// ChartDataset is a single series. Data entries are nullable so gaps
// (e.g. a growth rate with no prior month) survive normalization.
// BackgroundColor is a single color for cartesian series and a color
// list for pie slices, so it stays loosely typed.
type ChartDataset struct {
	Label           string     `json:"label,omitempty"`
	Data            []*float64 `json:"data"`
	BorderColor     string     `json:"borderColor,omitempty"`
	BackgroundColor any        `json:"backgroundColor,omitempty"`
}

// ChartData is the canonical {labels, datasets} payload. The normalizer
// guarantees len(Datasets[i].Data) == len(Labels) for every series.
type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// ChartConfig is the renderer-ready visualization artifact. It is
// recomputed per query result and has no persistent identity.
type ChartConfig struct {
	Type       ChartType      `json:"type"`
	Data       ChartData      `json:"data"`
	Options    map[string]any `json:"options,omitempty"`
	Theme      string         `json:"theme,omitempty"`
	Responsive bool           `json:"responsive"`
	Animate    bool           `json:"animate"`
}

// ── HTTP contracts ───────────────────────────────────────────

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	Messages  []ChatMessage `json:"messages"`
	DatasetID string        `json:"datasetId,omitempty"`
	SessionID string        `json:"sessionId,omitempty"`
}

// TurnResult is the orchestrator's answer for one conversation turn.
// Error carries the assistant failure detail when the turn degraded;
// the turn itself still succeeds.
type TurnResult struct {
	Answer             string         `json:"answer"`
	Visualization      *ChartConfig   `json:"visualization"`
	SuggestedFollowUps []string       `json:"suggestedFollowUps"`
	DataAnalysis       map[string]any `json:"dataAnalysis"`
	Error              string         `json:"error,omitempty"`
}

// ── Connectors & dashboards ──────────────────────────────────

// Connector is a stored data-source configuration.
type Connector struct {
	ID        string         `json:"id"`
	Workspace string         `json:"workspace"`
	Name      string         `json:"name"`
	Type      SourceKind     `json:"type"`
	Config    map[string]any `json:"config"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// ComponentType is the kind of a dashboard component.
type ComponentType string

const (
	ComponentChart  ComponentType = "chart"
	ComponentTable  ComponentType = "table"
	ComponentMetric ComponentType = "metric"
	ComponentText   ComponentType = "text"
)

// ComponentConfig holds a component's payload: tabular columns/data for
// tables, a scalar value for metrics, a chart config for charts. This is
// also the shape file exporters consume.
type ComponentConfig struct {
	Columns []string     `json:"columns,omitempty"`
	Data    [][]any      `json:"data,omitempty"`
	Value   any          `json:"value,omitempty"`
	Chart   *ChartConfig `json:"chart,omitempty"`
	Text    string       `json:"text,omitempty"`
}

// GridLayout is a component's position in the dashboard grid.
type GridLayout struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// DashboardComponent is one widget on a dashboard.
type DashboardComponent struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Type   ComponentType   `json:"type"`
	Config ComponentConfig `json:"config"`
	Layout GridLayout      `json:"layout"`
}

// Dashboard is a named, ordered collection of components.
type Dashboard struct {
	ID          string               `json:"id"`
	Workspace   string               `json:"workspace"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Components  []DashboardComponent `json:"components"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}
