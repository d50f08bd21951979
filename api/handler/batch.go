package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/orchestrator"
	"github.com/use-agent/harvest/webhook"
)

// batchStore holds all in-flight and completed batch jobs.
var batchStore sync.Map

// jobMu guards the mutable fields of stored jobs (Status, Completed,
// Results) against concurrent reads from GetBatch.
var jobMu sync.Mutex

func init() {
	// Background goroutine to expire batch jobs older than 1 hour.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-1 * time.Hour).Unix()
			batchStore.Range(func(key, value any) bool {
				job := value.(*models.BatchJob)
				if job.CreatedAt < cutoff {
					batchStore.Delete(key)
				}
				return true
			})
		}
	}()
}

// PostBatch returns a handler for POST /api/v1/batch/process.
// It validates the request, creates a batch job, and processes the URLs
// in the background with bounded concurrency.
func PostBatch(o *orchestrator.Orchestrator, batchCfg config.BatchConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		jobID := "batch-" + uuid.NewString()
		job := &models.BatchJob{
			ID:        jobID,
			Status:    "processing",
			Total:     len(req.URLs),
			CreatedAt: time.Now().Unix(),
		}
		batchStore.Store(jobID, job)

		go runBatch(o, batchCfg, job, req)

		c.JSON(http.StatusOK, models.BatchResponse{
			ID:     jobID,
			Status: "processing",
			Total:  len(req.URLs),
		})
	}
}

// GetBatch returns a handler for GET /api/v1/batch/:id.
func GetBatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")
		val, ok := batchStore.Load(jobID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "batch job not found",
				},
			})
			return
		}

		job := val.(*models.BatchJob)
		jobMu.Lock()
		resp := models.BatchStatusResponse{
			ID:        job.ID,
			Status:    job.Status,
			Completed: job.Completed,
			Total:     job.Total,
			Results:   job.Results,
		}
		jobMu.Unlock()
		c.JSON(http.StatusOK, resp)
	}
}

// runBatch processes all URLs and finalises the job, delivering a
// webhook event if the request asked for one.
func runBatch(o *orchestrator.Orchestrator, batchCfg config.BatchConfig, job *models.BatchJob, req models.BatchRequest) {
	results := o.ProcessAll(context.Background(), req.URLs, req.SaveArtifact, func(done int) {
		jobMu.Lock()
		job.Completed = done
		jobMu.Unlock()
	})

	succeeded := 0
	for _, r := range results {
		if r.OK() {
			succeeded++
		}
	}

	status := "completed"
	switch {
	case succeeded == 0:
		status = "failed"
	case succeeded < len(results):
		status = "partial"
	}

	jobMu.Lock()
	job.Status = status
	job.Completed = len(req.URLs)
	job.Results = results
	jobMu.Unlock()

	slog.Info("batch job finished",
		"id", job.ID,
		"status", status,
		"succeeded", succeeded,
		"total", job.Total,
	)

	if req.WebhookURL != "" {
		notifier := webhook.NewNotifier(batchCfg.WebhookSecret)
		notifier.DeliverAsync(req.WebhookURL, webhook.BatchCompleted(models.BatchStatusResponse{
			ID:        job.ID,
			Status:    status,
			Completed: len(req.URLs),
			Total:     job.Total,
			Results:   results,
		}))
	}
}
