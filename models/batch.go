package models

// BatchRequest is the payload for POST /api/v1/batch/process.
type BatchRequest struct {
	// URLs is the list of targets to process. Required.
	URLs []string `json:"urls" binding:"required,min=1,max=100"`

	// SaveArtifact applies to every URL in the batch.
	SaveArtifact bool `json:"save_artifact,omitempty"`

	// WebhookURL, if set, receives a signed batch.completed event
	// when the whole batch finishes.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`
}

// BatchResponse is the immediate response for POST /api/v1/batch/process.
type BatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/:id.
type BatchStatusResponse struct {
	ID        string                      `json:"id"`
	Status    string                      `json:"status"`
	Completed int                         `json:"completed"`
	Total     int                         `json:"total"`
	Results   map[string]ProcessingResult `json:"results,omitempty"`
}

// BatchJob tracks an in-progress batch operation.
type BatchJob struct {
	ID        string
	Status    string // "processing", "completed", "failed", "partial"
	Total     int
	Completed int
	Results   map[string]ProcessingResult
	CreatedAt int64 // unix timestamp
}
