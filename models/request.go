package models

// ProcessRequest is the payload for POST /api/v1/process.
type ProcessRequest struct {
	// URL is the target to classify and process. Required.
	URL string `json:"url" binding:"required,url"`

	// Timeout is the maximum duration in seconds for the entire
	// operation (classification + scrape or download).
	// Default: 60. Max: 180.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=180"`

	// SaveArtifact controls whether a markdown artifact (webpages) or
	// temp copy (downloads) is written for successful results.
	// Default: false.
	SaveArtifact bool `json:"save_artifact,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *ProcessRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 60
	}
}

// ProcessResponse is the response for POST /api/v1/process.
type ProcessResponse struct {
	// Success mirrors the underlying handler outcome.
	Success bool `json:"success"`

	// URL is the requested URL.
	URL string `json:"url"`

	// Result carries the per-URL processing outcome.
	Result ProcessingResult `json:"result"`

	// Error is populated only for request-level failures
	// (validation, rate limiting), never for per-URL outcomes.
	Error *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}
