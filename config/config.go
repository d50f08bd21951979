package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration. It is constructed once at
// process start and passed explicitly into every constructor.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Classify  ClassifyConfig
	Download  DownloadConfig
	Batch     BatchConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Report    ReportConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 10

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// ScraperConfig controls the fixed scrape plan and per-step behavior.
type ScraperConfig struct {
	// WaitSelector is the CSS selector the navigate step waits for.
	WaitSelector string // default: "body"

	// PageTimeout bounds the navigate and extract steps.
	PageTimeout time.Duration // default: 60s

	// ScrollTimeout bounds the scroll step.
	ScrollTimeout time.Duration // default: 30s

	// ScrollDelay is how long to let lazy content settle after the
	// scroll-to-bottom before the step returns.
	ScrollDelay time.Duration // default: 2s

	// MaxTimeout is the maximum allowed timeout from the client.
	MaxTimeout time.Duration // default: 180s

	// Stealth enables anti-bot-detection evasions on every session.
	Stealth bool // default: true

	// BlockedResourceTypes lists resource types to block during capture.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string
}

// ClassifyConfig controls file-vs-webpage routing.
type ClassifyConfig struct {
	// ProbeTimeout bounds the header-only content-type probe.
	ProbeTimeout time.Duration // default: 10s

	// Extensions is the URL path suffix set that short-circuits to
	// file_download without a probe.
	Extensions []string

	// ContentTypePrefixes maps probe content-types to file_download.
	ContentTypePrefixes []string
}

// DownloadConfig controls the file downloader and its stores.
type DownloadConfig struct {
	// Dir is the local download directory.
	Dir string // default: "downloads"

	// MaxBytes caps the size of a single download.
	MaxBytes int64 // default: 100 MiB

	// UseS3 switches persistence from the local directory to S3.
	// Auto-enabled when AWS credentials are present in the environment.
	UseS3 bool

	S3Bucket string // default: "harvest-downloads"
	S3Region string // default: "us-east-1"
	S3Prefix string // default: "downloads"
}

// BatchConfig controls batch processing.
type BatchConfig struct {
	// Concurrency caps how many URLs are processed at once.
	Concurrency int // default: 5

	// WebhookSecret signs batch.completed webhook deliveries.
	WebhookSecret string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// CacheConfig controls the classification cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached classifications.
	MaxEntries int // default: 1000

	// TTL is how long a cached classification stays valid.
	TTL time.Duration // default: 1h
}

// ReportConfig controls result reporting and persistence.
type ReportConfig struct {
	// SaveResults writes a JSON summary per processed URL.
	SaveResults bool // default: false

	// OutputDir is where JSON summaries land.
	OutputDir string // default: "."
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Defaults mirror the fixed sets the classifier shipped with; override
// via HARVEST_FILE_EXTENSIONS / HARVEST_FILE_CONTENT_TYPES.
var (
	defaultExtensions = []string{
		".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
		".zip", ".rar", ".7z", ".tar", ".gz", ".bz2",
		".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff",
		".mp4", ".avi", ".mov", ".wmv", ".flv", ".webm",
		".mp3", ".wav", ".flac", ".aac", ".ogg",
		".txt", ".csv", ".json", ".xml", ".sql",
	}

	defaultContentTypePrefixes = []string{
		"application/pdf", "application/msword",
		"application/vnd.openxmlformats-officedocument",
		"application/vnd.ms-excel", "application/vnd.ms-powerpoint",
		"application/zip", "application/octet-stream",
		"image/", "video/", "audio/",
		"application/json", "text/csv", "application/xml",
	}
)

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("HARVEST_HOST", "0.0.0.0"),
			Port: envIntOr("HARVEST_PORT", 8080),
			Mode: envOr("HARVEST_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("HARVEST_HEADLESS", true),
			MaxPages:   envIntOr("HARVEST_MAX_PAGES", 10),
			NoSandbox:  envBoolOr("HARVEST_NO_SANDBOX", false),
			BrowserBin: os.Getenv("HARVEST_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			WaitSelector:  envOr("HARVEST_WAIT_SELECTOR", "body"),
			PageTimeout:   envDurationOr("HARVEST_PAGE_TIMEOUT", 60*time.Second),
			ScrollTimeout: envDurationOr("HARVEST_SCROLL_TIMEOUT", 30*time.Second),
			ScrollDelay:   envDurationOr("HARVEST_SCROLL_DELAY", 2*time.Second),
			MaxTimeout:    envDurationOr("HARVEST_MAX_TIMEOUT", 180*time.Second),
			Stealth:       envBoolOr("HARVEST_STEALTH", true),
			BlockedResourceTypes: envSliceOr("HARVEST_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
		},
		Classify: ClassifyConfig{
			ProbeTimeout:        envDurationOr("HARVEST_PROBE_TIMEOUT", 10*time.Second),
			Extensions:          envSliceOr("HARVEST_FILE_EXTENSIONS", defaultExtensions),
			ContentTypePrefixes: envSliceOr("HARVEST_FILE_CONTENT_TYPES", defaultContentTypePrefixes),
		},
		Download: DownloadConfig{
			Dir:      envOr("HARVEST_DOWNLOAD_DIR", "downloads"),
			MaxBytes: envInt64Or("HARVEST_DOWNLOAD_MAX_BYTES", 100<<20),
			UseS3:    envBoolOr("HARVEST_USE_S3", awsCredentialsPresent()),
			S3Bucket: envOr("HARVEST_S3_BUCKET", "harvest-downloads"),
			S3Region: envOr("HARVEST_S3_REGION", "us-east-1"),
			S3Prefix: envOr("HARVEST_S3_PREFIX", "downloads"),
		},
		Batch: BatchConfig{
			Concurrency:   envIntOr("HARVEST_BATCH_CONCURRENCY", 5),
			WebhookSecret: os.Getenv("HARVEST_WEBHOOK_SECRET"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("HARVEST_AUTH_ENABLED", true),
			APIKeys: envSliceOr("HARVEST_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("HARVEST_RATE_RPS", 5.0),
			Burst:             envIntOr("HARVEST_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("HARVEST_CACHE_MAX_ENTRIES", 1000),
			TTL:        envDurationOr("HARVEST_CACHE_TTL", time.Hour),
		},
		Report: ReportConfig{
			SaveResults: envBoolOr("HARVEST_SAVE_RESULTS", false),
			OutputDir:   envOr("HARVEST_OUTPUT_DIR", "."),
		},
		Log: LogConfig{
			Level:  envOr("HARVEST_LOG_LEVEL", "info"),
			Format: envOr("HARVEST_LOG_FORMAT", "json"),
		},
	}
}

// awsCredentialsPresent mirrors the auto-detect behavior of the
// downloader: S3 is used when static credentials are in the environment.
func awsCredentialsPresent() bool {
	return os.Getenv("AWS_ACCESS_KEY_ID") != "" && os.Getenv("AWS_SECRET_ACCESS_KEY") != ""
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envInt64Or(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
