package models

// SolveRequest is the request body for running a scenario solve.
type SolveRequest struct {
	// ScenarioYAML is the scenario document, verbatim.
	ScenarioYAML string `json:"scenario_yaml" binding:"required"`
	// Outputs selects the solution series to return; empty means all.
	Outputs []string `json:"outputs,omitempty"`
	// Save persists the run to the results store when one is configured.
	Save bool `json:"save,omitempty"`
}
