package models

// Response statuses reported by the query backend.
const (
	StatusSuccess        = "success"
	StatusConversational = "conversational"
	StatusError          = "error"
)

// ChartData is an optional chart section. Rows keep the backend's record
// shape; the first key is the category, the second the value.
type ChartData struct {
	Type string                   `json:"type"`
	Rows []map[string]interface{} `json:"data"`
}

// TableData is an optional tabular section.
type TableData struct {
	Columns []string                 `json:"columns"`
	Rows    []map[string]interface{} `json:"rows"`
}

// StructuredResponse is the query backend's reply, treated as an opaque
// payload validated only on read.
type StructuredResponse struct {
	Status  string     `json:"status"`
	Summary string     `json:"summary"`
	Data    *ChartData `json:"data,omitempty"`
	Table   *TableData `json:"table,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// NewErrorResponse builds the synthetic error-shaped payload used when the
// backend is unreachable or replies with garbage.
func NewErrorResponse(message string) *StructuredResponse {
	return &StructuredResponse{
		Status: StatusError,
		Error:  message,
	}
}

// IsError reports whether the response carries an error status.
func (r *StructuredResponse) IsError() bool {
	return r != nil && r.Status == StatusError
}

// DisplayText is what the transcript and the speech output carry: the
// error text for error responses, the summary otherwise.
func (r *StructuredResponse) DisplayText() string {
	if r == nil {
		return ""
	}
	if r.IsError() {
		return r.Error
	}
	return r.Summary
}

// ShouldRenderChart reports whether a chart section renders. Error
// responses suppress chart data regardless of its presence.
func (r *StructuredResponse) ShouldRenderChart() bool {
	return r != nil && !r.IsError() && r.Data != nil && len(r.Data.Rows) > 0
}

// ShouldRenderTable reports whether a table section renders.
func (r *StructuredResponse) ShouldRenderTable() bool {
	return r != nil && !r.IsError() && r.Table != nil && len(r.Table.Columns) > 0
}
