package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/orchestrator"
)

// Process returns a handler for POST /api/v1/process.
//
// The handler classifies the URL and routes it through the scraper or
// downloader. Per-URL failures are reported with HTTP 200 and the
// outcome encoded in the result; only request-level problems map to
// error status codes.
func Process(o *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ProcessRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ProcessResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		result := o.Process(c.Request.Context(), req)

		c.JSON(http.StatusOK, models.ProcessResponse{
			Success: result.OK(),
			URL:     req.URL,
			Result:  result,
		})
	}
}
