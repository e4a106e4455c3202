package api

// HealthResponse is the /healthz payload
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the /readyz payload
type ReadyResponse struct {
	Ready          bool     `json:"ready"`
	LastCalculated string   `json:"lastCalculated,omitempty"`
	Reasons        []string `json:"reasons,omitempty"`
}

// ErrorResponse is the generic error payload
type ErrorResponse struct {
	Error string `json:"error"`
}
