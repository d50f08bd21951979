package classify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/use-agent/harvest/cache"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/models"
)

type fakeProber struct {
	contentType string
	err         error
	calls       int
}

func (p *fakeProber) Probe(_ context.Context, _ string) (string, error) {
	p.calls++
	return p.contentType, p.err
}

func testConfig() config.ClassifyConfig {
	return config.ClassifyConfig{
		ProbeTimeout:        5 * time.Second,
		Extensions:          []string{".pdf", ".zip", ".mp4", ".csv"},
		ContentTypePrefixes: []string{"application/pdf", "application/zip", "image/", "video/"},
	}
}

func TestClassify_ExtensionMatchSkipsProbe(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"pdf", "https://example.com/report.pdf"},
		{"uppercase extension", "https://example.com/ARCHIVE.ZIP"},
		{"extension with query", "https://example.com/video.mp4?session=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := &fakeProber{}
			c := New(testConfig(), prober, nil)

			kind := c.Classify(context.Background(), tt.url)
			if kind != models.KindFileDownload {
				t.Errorf("Classify(%q) = %q, want %q", tt.url, kind, models.KindFileDownload)
			}
			if prober.calls != 0 {
				t.Errorf("extension match should not probe, got %d probe calls", prober.calls)
			}
		})
	}
}

func TestClassify_ProbeContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		want        models.Kind
	}{
		{"pdf content type", "application/pdf", models.KindFileDownload},
		{"image prefix", "image/png", models.KindFileDownload},
		{"html", "text/html; charset=utf-8", models.KindWebpage},
		{"empty content type", "", models.KindWebpage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := &fakeProber{contentType: tt.contentType}
			c := New(testConfig(), prober, nil)

			kind := c.Classify(context.Background(), "https://example.com/resource")
			if kind != tt.want {
				t.Errorf("Classify with content-type %q = %q, want %q", tt.contentType, kind, tt.want)
			}
			if prober.calls != 1 {
				t.Errorf("expected exactly one probe, got %d", prober.calls)
			}
		})
	}
}

func TestClassify_ProbeFailureFailsOpenToWebpage(t *testing.T) {
	prober := &fakeProber{err: errors.New("connection refused")}
	c := New(testConfig(), prober, nil)

	kind := c.Classify(context.Background(), "https://unreachable.example.com/page")
	if kind != models.KindWebpage {
		t.Errorf("probe failure should resolve to webpage, got %q", kind)
	}
}

func TestClassify_CacheAvoidsSecondProbe(t *testing.T) {
	prober := &fakeProber{contentType: "text/html"}
	cc := cache.New(10, time.Minute)
	c := New(testConfig(), prober, cc)

	url := "https://example.com/article"
	first := c.Classify(context.Background(), url)
	second := c.Classify(context.Background(), url)

	if first != second {
		t.Errorf("cached classification changed: %q then %q", first, second)
	}
	if prober.calls != 1 {
		t.Errorf("second lookup should hit the cache, got %d probe calls", prober.calls)
	}
}

func TestClassify_InvalidURLFallsThroughToProbe(t *testing.T) {
	prober := &fakeProber{contentType: "text/html"}
	c := New(testConfig(), prober, nil)

	kind := c.Classify(context.Background(), "://not a url")
	if kind != models.KindWebpage {
		t.Errorf("unparseable URL should end up as webpage, got %q", kind)
	}
}
