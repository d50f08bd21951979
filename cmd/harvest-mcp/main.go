// Command harvest-mcp exposes the Harvest API as MCP tools over stdio.
// It is a thin HTTP client: the server does the actual browser work.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// processRequest mirrors the Harvest API request model.
type processRequest struct {
	URL          string `json:"url"`
	Timeout      int    `json:"timeout,omitempty"`
	SaveArtifact bool   `json:"save_artifact,omitempty"`
}

// processingResult mirrors the Harvest per-URL result model.
type processingResult struct {
	Kind   string `json:"type"`
	Scrape *struct {
		Success      bool     `json:"success"`
		URL          string   `json:"url"`
		StatusCode   int      `json:"status_code"`
		HTML         string   `json:"html"`
		ErrorType    string   `json:"error_type"`
		Message      string   `json:"message"`
		Instructions []string `json:"instructions"`
	} `json:"scrape_result"`
	Download *struct {
		Success     bool   `json:"success"`
		LocalPath   string `json:"local_path"`
		S3URL       string `json:"s3_url"`
		FileSize    int64  `json:"file_size"`
		ContentType string `json:"content_type"`
		Error       string `json:"error"`
	} `json:"download_result"`
	ArtifactPath string `json:"artifact_path"`
}

// processResponse mirrors the Harvest API response model.
type processResponse struct {
	Success bool             `json:"success"`
	URL     string           `json:"url"`
	Result  processingResult `json:"result"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// batchResponse mirrors the Harvest batch API response.
type batchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// batchStatusResponse mirrors the Harvest batch status API response.
type batchStatusResponse struct {
	ID        string                      `json:"id"`
	Status    string                      `json:"status"`
	Completed int                         `json:"completed"`
	Total     int                         `json:"total"`
	Results   map[string]processingResult `json:"results"`
}

func main() {
	apiURL := os.Getenv("HARVEST_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("HARVEST_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "HARVEST_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"harvest",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	processURLTool := mcp.NewTool("process_url",
		mcp.WithDescription("Process a URL: downloadable files are fetched and stored, webpages are rendered with a headless browser and returned as HTML. Pages behind a login wall are reported as inaccessible."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL to process"),
		),
		mcp.WithNumber("timeout",
			mcp.Description("Maximum processing time in seconds (default: 60, max: 180)"),
		),
		mcp.WithBoolean("save_artifact",
			mcp.Description("Write a markdown artifact (webpages) or file copy (downloads) on success"),
		),
	)
	s.AddTool(processURLTool, handleProcessURL(apiURL, apiKey))

	batchProcessTool := mcp.NewTool("batch_process",
		mcp.WithDescription("Process multiple URLs in parallel. Each URL is classified as a file or webpage and handled accordingly; one result per URL."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("List of URLs to process"),
		),
		mcp.WithBoolean("save_artifact",
			mcp.Description("Write an artifact per successful URL"),
		),
	)
	s.AddTool(batchProcessTool, handleBatchProcess(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the Harvest API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// pollJobCompletion polls a job endpoint until status is no longer "processing" or context is cancelled.
func pollJobCompletion(ctx context.Context, client *http.Client, apiURL, apiKey, endpoint string) ([]byte, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+endpoint, nil)
			if err != nil {
				return nil, fmt.Errorf("create poll request: %w", err)
			}
			req.Header.Set("X-API-Key", apiKey)

			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("poll request failed: %w", err)
			}

			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("read poll response: %w", err)
			}

			var status struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal(body, &status); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}

			if status.Status != "processing" {
				return body, nil
			}
		}
	}
}

func handleProcessURL(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 200 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		reqBody := processRequest{
			URL:          url,
			Timeout:      request.GetInt("timeout", 0),
			SaveArtifact: request.GetBool("save_artifact", false),
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/process", reqBody)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("process request failed: %v", err)), nil
		}

		var procResp processResponse
		if err := json.Unmarshal(respBody, &procResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if procResp.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", procResp.Error.Code, procResp.Error.Message)), nil
		}

		return mcp.NewToolResultText(formatResult(url, procResp.Result)), nil
	}
}

func handleBatchProcess(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		payload := map[string]interface{}{
			"urls":          urls,
			"save_artifact": request.GetBool("save_artifact", false),
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/batch/process", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("batch request failed: %v", err)), nil
		}

		var batchResp batchResponse
		if err := json.Unmarshal(respBody, &batchResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse batch response: %v", err)), nil
		}

		if batchResp.ID == "" {
			return mcp.NewToolResultError("batch job creation failed"), nil
		}

		resultBody, err := pollJobCompletion(ctx, client, apiURL, apiKey, "/api/v1/batch/"+batchResp.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling batch job failed: %v", err)), nil
		}

		var statusResp batchStatusResponse
		if err := json.Unmarshal(resultBody, &statusResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse batch status: %v", err)), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Batch %s: %s (%d/%d completed)\n\n", statusResp.ID, statusResp.Status, statusResp.Completed, statusResp.Total))

		// Stable output order for the tool result.
		ordered := make([]string, 0, len(statusResp.Results))
		for u := range statusResp.Results {
			ordered = append(ordered, u)
		}
		sort.Strings(ordered)

		for _, u := range ordered {
			sb.WriteString("--- " + u + " ---\n")
			sb.WriteString(formatResult(u, statusResp.Results[u]))
			sb.WriteString("\n\n")
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

// formatResult renders one processing result as tool output text.
func formatResult(url string, r processingResult) string {
	var sb strings.Builder

	switch r.Kind {
	case "file_download":
		d := r.Download
		if d == nil || !d.Success {
			msg := "unknown error"
			if d != nil && d.Error != "" {
				msg = d.Error
			}
			fmt.Fprintf(&sb, "Download failed: %s", msg)
			break
		}
		sb.WriteString("Downloaded file successfully\n")
		if d.S3URL != "" {
			fmt.Fprintf(&sb, "S3 URL: %s\n", d.S3URL)
		}
		if d.LocalPath != "" {
			fmt.Fprintf(&sb, "Local path: %s\n", d.LocalPath)
		}
		fmt.Fprintf(&sb, "Size: %d bytes, type: %s", d.FileSize, d.ContentType)

	default:
		s := r.Scrape
		if s == nil {
			sb.WriteString("Scraping failed: no result")
			break
		}
		if s.Success {
			fmt.Fprintf(&sb, "Scraped webpage: %s (status %d)\n\n", s.URL, s.StatusCode)
			sb.WriteString(s.HTML)
			break
		}
		if s.ErrorType == "login_required" {
			sb.WriteString(s.Message)
			for i, instruction := range s.Instructions {
				fmt.Fprintf(&sb, "\n%d. %s", i+1, instruction)
			}
			break
		}
		fmt.Fprintf(&sb, "Scraping failed: %s", s.Message)
	}

	if r.ArtifactPath != "" {
		fmt.Fprintf(&sb, "\nArtifact: %s", r.ArtifactPath)
	}
	return sb.String()
}
