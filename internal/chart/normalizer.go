// Package chart coerces arbitrarily shaped data into the canonical
// chart configuration the dashboard grid renders.
//
// Upstream producers (the assistant, ad-hoc API callers) return
// human-authored, inconsistently shaped payloads; every rendering
// surface assumes one fixed {labels, datasets} shape. Centralizing the
// coercion here keeps that assumption safe.
//
// Known gap carried over from the reference behavior: scatter (and the
// other non-cartesian, non-pie categories) have no generalized
// coercion. Canonical payloads pass through; anything else yields an
// empty data payload rather than a guessed shape.
package chart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/circlegod/circlegod/pkg/models"
)

// palette is the fixed series/slice color cycle.
var palette = []string{
	"#0ea5e9", "#8b5cf6", "#22c55e", "#f59e0b",
	"#ef4444", "#06b6d4", "#ec4899", "#14b8a6",
}

// Normalizer converts raw chart payloads into models.ChartConfig.
type Normalizer struct{}

// New creates a Normalizer.
func New() *Normalizer { return &Normalizer{} }

// ── Category resolution ──────────────────────────────────────

type synonym struct {
	label string
	chart models.ChartType
}

// Checked in order with case-insensitive substring matching. Longer or
// more specific labels come first ("heatmap" must win over "map").
var synonyms = []synonym{
	{"折线图", models.ChartLine},
	{"柱状图", models.ChartBar},
	{"饼图", models.ChartPie},
	{"散点图", models.ChartScatter},
	{"面积图", models.ChartArea},
	{"热力图", models.ChartHeatmap},
	{"地图", models.ChartMap},
	{"表格", models.ChartTable},
	{"line chart", models.ChartLine},
	{"bar chart", models.ChartBar},
	{"pie chart", models.ChartPie},
	{"scatter plot", models.ChartScatter},
	{"area chart", models.ChartArea},
	{"heatmap", models.ChartHeatmap},
	{"scatter", models.ChartScatter},
	{"line", models.ChartLine},
	{"bar", models.ChartBar},
	{"pie", models.ChartPie},
	{"area", models.ChartArea},
	{"table", models.ChartTable},
	{"map", models.ChartMap},
}

// ResolveCategory maps a free-form chart label (native-language or
// English, any case, possibly embedded in surrounding text) to a
// canonical category. It returns "" when nothing in the synonym table
// matches; the caller must treat that as "no chart".
func (n *Normalizer) ResolveCategory(label string) models.ChartType {
	lower := strings.ToLower(label)
	for _, s := range synonyms {
		if strings.Contains(lower, s.label) {
			return s.chart
		}
	}
	return ""
}

// ── Normalization ────────────────────────────────────────────

// Normalize coerces raw data into a renderer-ready ChartConfig for the
// given canonical category. It returns nil when the category is empty
// or there is no data at all.
//
// Accepted raw shapes:
//   - models.ChartData (or anything already in {labels, datasets}
//     form, including decoded JSON maps): passed through unchanged.
//   - json.RawMessage / []byte: parsed with object key order preserved.
//   - row slices ([]models.Row, []map[string]any, []any of objects):
//     coerced for line/bar — label field first, one series per
//     remaining field.
//   - key→number maps: coerced for pie. For plain Go maps (which carry
//     no insertion order) the label field is the first string-valued
//     key in lexicographic order and series keys follow
//     lexicographically; JSON input keeps its authored key order.
//
// Every returned config satisfies len(Datasets[i].Data) == len(Labels):
// short series are padded with nulls, long ones truncated.
func (n *Normalizer) Normalize(t models.ChartType, raw any) *models.ChartConfig {
	if t == "" || raw == nil {
		return nil
	}

	data := n.coerce(t, raw)
	padToLabels(&data)

	return &models.ChartConfig{
		Type:       t,
		Data:       data,
		Options:    defaultOptions(t),
		Theme:      "light",
		Responsive: true,
		Animate:    true,
	}
}

// NormalizeRows is the executor-output path: the caller knows the
// column order, so the first column is always the label field and the
// remaining columns become one series each (or pie slices).
func (n *Normalizer) NormalizeRows(t models.ChartType, columns []string, rows []models.Row) *models.ChartConfig {
	if t == "" {
		return nil
	}

	ordered := make([]orderedRow, 0, len(rows))
	for _, r := range rows {
		ordered = append(ordered, orderedRow{keys: columns, vals: r})
	}

	var data models.ChartData
	switch t {
	case models.ChartPie:
		pairs, ok := pairsFromRows(ordered)
		if !ok {
			data = placeholderPie()
		} else {
			data = pieData(pairs)
		}
	default:
		cd, ok := cartesianData(ordered)
		if !ok {
			data = placeholderCartesian()
		} else {
			data = cd
		}
	}
	padToLabels(&data)

	return &models.ChartConfig{
		Type:       t,
		Data:       data,
		Options:    defaultOptions(t),
		Theme:      "light",
		Responsive: true,
		Animate:    true,
	}
}

// Recommend picks a category from canonical data when the caller has
// none: time-series-looking labels suggest a line, a single short
// series a bar, a single short all-positive series a pie, two series of
// equal length a scatter, anything else a table.
func (n *Normalizer) Recommend(data models.ChartData) models.ChartType {
	if len(data.Labels) > 0 && looksLikeTimeLabels(data.Labels) {
		return models.ChartLine
	}
	if len(data.Datasets) == 1 {
		vals := data.Datasets[0].Data
		if len(vals) <= 8 {
			sum := 0.0
			allSet := true
			for _, v := range vals {
				if v == nil {
					allSet = false
					break
				}
				sum += *v
			}
			if allSet && sum > 0 {
				sharable := true
				for _, v := range vals {
					if *v/sum*100 < 1 {
						sharable = false
						break
					}
				}
				if sharable {
					return models.ChartPie
				}
			}
		}
		if len(vals) <= 10 {
			return models.ChartBar
		}
	}
	if len(data.Datasets) >= 2 && len(data.Datasets[0].Data) == len(data.Datasets[1].Data) {
		return models.ChartScatter
	}
	return models.ChartTable
}

var timeLabelPatterns = []string{"月", "季度", "Q1", "Q2", "Q3", "Q4",
	"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func looksLikeTimeLabels(labels []string) bool {
	for _, l := range labels {
		for _, p := range timeLabelPatterns {
			if strings.Contains(l, p) {
				return true
			}
		}
	}
	return false
}

// ── Coercion ─────────────────────────────────────────────────

func (n *Normalizer) coerce(t models.ChartType, raw any) models.ChartData {
	// JSON bytes are parsed up front so authored key order survives.
	if b, ok := rawJSON(raw); ok {
		if v, err := decodeOrdered(b); err == nil {
			raw = v
		}
	}

	// Already-canonical data is a no-op for every category.
	if cd, ok := asChartData(raw); ok {
		return cd
	}

	switch t {
	case models.ChartLine, models.ChartBar:
		if rows, ok := asRows(raw); ok {
			if cd, ok := cartesianData(rows); ok {
				return cd
			}
		}
		return placeholderCartesian()
	case models.ChartPie:
		if pairs, ok := asPairs(raw); ok {
			return pieData(pairs)
		}
		return placeholderPie()
	default:
		// Scatter and the remaining categories pass through canonical
		// payloads only; nothing else has a defined transform.
		return models.ChartData{Labels: []string{}, Datasets: []models.ChartDataset{}}
	}
}

func cartesianData(rows []orderedRow) (models.ChartData, bool) {
	if len(rows) == 0 {
		return models.ChartData{}, false
	}
	cols := rows[0].keys
	if len(cols) < 2 {
		return models.ChartData{}, false
	}
	labelKey, seriesKeys := cols[0], cols[1:]

	labels := make([]string, len(rows))
	for i, r := range rows {
		labels[i] = stringify(r.vals[labelKey])
	}

	datasets := make([]models.ChartDataset, 0, len(seriesKeys))
	for si, key := range seriesKeys {
		data := make([]*float64, len(rows))
		for i, r := range rows {
			data[i] = toNumber(r.vals[key])
		}
		datasets = append(datasets, models.ChartDataset{
			Label:           key,
			Data:            data,
			BorderColor:     palette[si%len(palette)],
			BackgroundColor: withAlpha(palette[si%len(palette)]),
		})
	}
	return models.ChartData{Labels: labels, Datasets: datasets}, true
}

func pieData(pairs []member) models.ChartData {
	labels := make([]string, len(pairs))
	data := make([]*float64, len(pairs))
	colors := make([]string, len(pairs))
	for i, p := range pairs {
		labels[i] = p.key
		data[i] = toNumber(p.val)
		colors[i] = palette[i%len(palette)]
	}
	return models.ChartData{
		Labels:   labels,
		Datasets: []models.ChartDataset{{Data: data, BackgroundColor: colors}},
	}
}

func placeholderCartesian() models.ChartData {
	zeros := make([]*float64, 5)
	for i := range zeros {
		z := 0.0
		zeros[i] = &z
	}
	return models.ChartData{
		Labels: []string{"Data 1", "Data 2", "Data 3", "Data 4", "Data 5"},
		Datasets: []models.ChartDataset{{
			Label:           "Series 1",
			Data:            zeros,
			BorderColor:     palette[0],
			BackgroundColor: withAlpha(palette[0]),
		}},
	}
}

func placeholderPie() models.ChartData {
	quarters := make([]*float64, 4)
	for i := range quarters {
		q := 25.0
		quarters[i] = &q
	}
	return models.ChartData{
		Labels: []string{"Category 1", "Category 2", "Category 3", "Category 4"},
		Datasets: []models.ChartDataset{{
			Data:            quarters,
			BackgroundColor: []string{palette[0], palette[1], palette[2], palette[3]},
		}},
	}
}

// padToLabels enforces the shape invariant: every series is exactly as
// long as the label list.
func padToLabels(data *models.ChartData) {
	n := len(data.Labels)
	for i, ds := range data.Datasets {
		switch {
		case len(ds.Data) < n:
			padded := make([]*float64, n)
			copy(padded, ds.Data)
			data.Datasets[i].Data = padded
		case len(ds.Data) > n:
			data.Datasets[i].Data = ds.Data[:n]
		}
	}
}

// ── Options ──────────────────────────────────────────────────

func defaultOptions(t models.ChartType) map[string]any {
	opts := map[string]any{
		"responsive":          true,
		"maintainAspectRatio": false,
		"plugins": map[string]any{
			"legend": map[string]any{"position": "top"},
			"title":  map[string]any{"display": true, "text": "Data visualization"},
		},
	}

	switch t {
	case models.ChartLine, models.ChartBar:
		opts["scales"] = map[string]any{
			"y": map[string]any{"beginAtZero": true},
		}
	case models.ChartPie:
		opts["plugins"] = map[string]any{
			"legend": map[string]any{"position": "right"},
			"title":  map[string]any{"display": true, "text": "Data visualization"},
		}
	case models.ChartScatter:
		opts["scales"] = map[string]any{
			"x": map[string]any{"type": "linear", "position": "bottom"},
			"y": map[string]any{"beginAtZero": true},
		}
	}
	return opts
}

// ── Shape detection ──────────────────────────────────────────

// member is one object entry from order-preserving JSON decoding.
type member struct {
	key string
	val any
}

// orderedRow is a row whose column order is known.
type orderedRow struct {
	keys []string
	vals map[string]any
}

func rawJSON(raw any) ([]byte, bool) {
	switch v := raw.(type) {
	case json.RawMessage:
		return v, true
	case []byte:
		return v, true
	default:
		return nil, false
	}
}

func asChartData(raw any) (models.ChartData, bool) {
	switch v := raw.(type) {
	case models.ChartData:
		return v, true
	case *models.ChartData:
		if v != nil {
			return *v, true
		}
	case map[string]any:
		if hasChartKeys(v["labels"], v["datasets"]) {
			return remarshalChartData(v)
		}
	case []member:
		m := map[string]any{}
		for _, e := range v {
			m[e.key] = plain(e.val)
		}
		if hasChartKeys(m["labels"], m["datasets"]) {
			return remarshalChartData(m)
		}
	}
	return models.ChartData{}, false
}

func hasChartKeys(labels, datasets any) bool {
	return labels != nil && datasets != nil
}

func remarshalChartData(v map[string]any) (models.ChartData, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		return models.ChartData{}, false
	}
	var cd models.ChartData
	if err := json.Unmarshal(b, &cd); err != nil {
		return models.ChartData{}, false
	}
	return cd, true
}

// asRows extracts an ordered-row view from slice-of-object data.
func asRows(raw any) ([]orderedRow, bool) {
	switch v := raw.(type) {
	case []models.Row:
		rows := make([]orderedRow, 0, len(v))
		for _, r := range v {
			rows = append(rows, orderedRow{keys: inferredKeys(r), vals: r})
		}
		return rows, len(rows) > 0
	case []any:
		rows := make([]orderedRow, 0, len(v))
		for _, e := range v {
			switch r := e.(type) {
			case map[string]any:
				rows = append(rows, orderedRow{keys: inferredKeys(r), vals: r})
			case []member:
				keys := make([]string, len(r))
				vals := make(map[string]any, len(r))
				for i, m := range r {
					keys[i] = m.key
					vals[m.key] = plain(m.val)
				}
				rows = append(rows, orderedRow{keys: keys, vals: vals})
			default:
				return nil, false
			}
		}
		return rows, len(rows) > 0
	}
	return nil, false
}

// inferredKeys imposes a deterministic column order on an unordered
// map: the first string-valued key (lexicographically) becomes the
// label column, the rest follow lexicographically.
func inferredKeys(r map[string]any) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	labelIdx := -1
	for i, k := range keys {
		if _, ok := r[k].(string); ok {
			labelIdx = i
			break
		}
	}
	if labelIdx > 0 {
		label := keys[labelIdx]
		keys = append(keys[:labelIdx], keys[labelIdx+1:]...)
		keys = append([]string{label}, keys...)
	}
	return keys
}

// asPairs extracts ordered key→number pairs for pie coercion.
func asPairs(raw any) ([]member, bool) {
	switch v := raw.(type) {
	case []member:
		for _, m := range v {
			if toNumber(m.val) == nil {
				return nil, false
			}
		}
		return v, len(v) > 0
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			if toNumber(v[k]) == nil {
				return nil, false
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]member, len(keys))
		for i, k := range keys {
			pairs[i] = member{key: k, val: v[k]}
		}
		return pairs, len(pairs) > 0
	case map[string]float64:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]member, len(keys))
		for i, k := range keys {
			pairs[i] = member{key: k, val: v[k]}
		}
		return pairs, len(pairs) > 0
	}
	return nil, false
}

// pairsFromRows reads two-column rows (label, value) as pie pairs.
func pairsFromRows(rows []orderedRow) ([]member, bool) {
	if len(rows) == 0 || len(rows[0].keys) < 2 {
		return nil, false
	}
	labelKey, valueKey := rows[0].keys[0], rows[0].keys[1]
	pairs := make([]member, len(rows))
	for i, r := range rows {
		pairs[i] = member{key: stringify(r.vals[labelKey]), val: r.vals[valueKey]}
	}
	return pairs, true
}

// ── Ordered JSON decoding ────────────────────────────────────

// decodeOrdered parses JSON into []member for objects (preserving
// authored key order, which encoding/json's map decoding discards),
// []any for arrays, and plain values otherwise.
func decodeOrdered(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		var obj []member
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("chart: unexpected object key %v", keyTok)
			}
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj = append(obj, member{key: key, val: val})
		}
		if _, err := dec.Token(); err != nil { // consume '}'
			return nil, err
		}
		return obj, nil
	case '[':
		var arr []any
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil { // consume ']'
			return nil, err
		}
		return arr, nil
	}
	return nil, fmt.Errorf("chart: unexpected delimiter %v", delim)
}

// plain converts ordered-decode values back into ordinary Go shapes.
func plain(v any) any {
	switch t := v.(type) {
	case []member:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.key] = plain(e.val)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}

// ── Value helpers ────────────────────────────────────────────

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// toNumber converts numeric values to *float64; nil means null/absent.
func toNumber(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case *float64:
		return t
	default:
		return nil
	}
	return &f
}

// withAlpha turns a hex color into a translucent rgba() fill.
func withAlpha(hex string) string {
	if len(hex) != 7 || hex[0] != '#' {
		return hex
	}
	var r, g, b int
	if _, err := fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return hex
	}
	return fmt.Sprintf("rgba(%d, %d, %d, 0.2)", r, g, b)
}
