package models

// Cell is one labelled value of a solution series.
type Cell struct {
	Coords map[string]string `json:"coords"`
	Value  float64           `json:"value"`
}

// Series is a named block of solution values.
type Series struct {
	Name  string `json:"name"`
	Cells []Cell `json:"cells"`
}

// SolveResponse is the body returned by a successful solve.
type SolveResponse struct {
	RunID     string   `json:"run_id,omitempty"`
	Status    string   `json:"status"`
	Objective float64  `json:"objective"`
	Series    []Series `json:"series"`
}

// RunSummary describes one stored run.
type RunSummary struct {
	ID        string  `json:"id"`
	Scenario  string  `json:"scenario"`
	Status    string  `json:"status"`
	Objective float64 `json:"objective"`
	CreatedAt string  `json:"created_at"`
}

// ErrorDetail holds a machine-readable error code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
