package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/harvest/cleaner"
	"github.com/use-agent/harvest/models"
)

type fakeClassifier struct {
	files map[string]bool
}

func (f *fakeClassifier) Classify(_ context.Context, rawURL string) models.Kind {
	if f.files[rawURL] {
		return models.KindFileDownload
	}
	return models.KindWebpage
}

type fakeScraper struct {
	fn    func(rawURL string) *models.ScrapeResult
	calls atomic.Int32
}

func (f *fakeScraper) Scrape(_ context.Context, rawURL string) *models.ScrapeResult {
	f.calls.Add(1)
	return f.fn(rawURL)
}

type fakeDownloader struct {
	fn func(rawURL string) *models.DownloadResult
}

func (f *fakeDownloader) Download(_ context.Context, rawURL string) *models.DownloadResult {
	return f.fn(rawURL)
}

type fakeCleaner struct{}

func (fakeCleaner) Clean(rawHTML, _ string, _ ...cleaner.Options) (string, error) {
	return "# cleaned\n\n" + rawHTML, nil
}

func successScraper() *fakeScraper {
	return &fakeScraper{fn: func(rawURL string) *models.ScrapeResult {
		return models.ScrapeSuccess(rawURL, 200, "<p>content for "+rawURL+"</p>")
	}}
}

func TestProcess_RoutesWebpage(t *testing.T) {
	sc := successScraper()
	o := New(&fakeClassifier{}, sc, &fakeDownloader{}, fakeCleaner{}, 2)

	result := o.Process(context.Background(), models.ProcessRequest{URL: "https://example.com/article"})

	assert.Equal(t, models.KindWebpage, result.Kind)
	require.NotNil(t, result.Scrape)
	assert.Nil(t, result.Download)
	assert.True(t, result.OK())
}

func TestProcess_RoutesFileDownload(t *testing.T) {
	dl := &fakeDownloader{fn: func(string) *models.DownloadResult {
		return models.DownloadSuccessLocal("/tmp/report.pdf", 42, "application/pdf")
	}}
	clf := &fakeClassifier{files: map[string]bool{"https://example.com/report.pdf": true}}
	o := New(clf, successScraper(), dl, fakeCleaner{}, 2)

	result := o.Process(context.Background(), models.ProcessRequest{URL: "https://example.com/report.pdf"})

	assert.Equal(t, models.KindFileDownload, result.Kind)
	require.NotNil(t, result.Download)
	assert.Nil(t, result.Scrape)
	assert.True(t, result.OK())
}

func TestProcess_WritesMarkdownArtifact(t *testing.T) {
	o := New(&fakeClassifier{}, successScraper(), &fakeDownloader{}, fakeCleaner{}, 2)

	result := o.Process(context.Background(), models.ProcessRequest{
		URL:          "https://example.com/article",
		SaveArtifact: true,
	})
	require.True(t, result.OK())
	require.NotEmpty(t, result.ArtifactPath)
	defer os.RemoveAll(filepath.Dir(result.ArtifactPath))

	data, err := os.ReadFile(result.ArtifactPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# cleaned"))
	assert.True(t, strings.HasSuffix(result.ArtifactPath, ".md"))
}

func TestProcess_NoArtifactForFailure(t *testing.T) {
	sc := &fakeScraper{fn: func(rawURL string) *models.ScrapeResult {
		return models.ScrapeFailed(rawURL, "navigation refused")
	}}
	o := New(&fakeClassifier{}, sc, &fakeDownloader{}, fakeCleaner{}, 2)

	result := o.Process(context.Background(), models.ProcessRequest{
		URL:          "https://example.com/broken",
		SaveArtifact: true,
	})
	assert.False(t, result.OK())
	assert.Empty(t, result.ArtifactPath)
}

func TestProcessAll_OneResultPerURL(t *testing.T) {
	o := New(&fakeClassifier{}, successScraper(), &fakeDownloader{}, fakeCleaner{}, 3)

	urls := []string{
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
	}
	results := o.ProcessAll(context.Background(), urls, false, nil)

	require.Len(t, results, 3)
	for _, u := range urls {
		r, ok := results[u]
		require.True(t, ok, "missing result for %s", u)
		assert.True(t, r.OK())
	}
}

func TestProcessAll_DuplicateURLsCollapse(t *testing.T) {
	o := New(&fakeClassifier{}, successScraper(), &fakeDownloader{}, fakeCleaner{}, 2)

	urls := []string{"https://example.com/a", "https://example.com/a"}
	results := o.ProcessAll(context.Background(), urls, false, nil)

	require.Len(t, results, 1)
	assert.True(t, results["https://example.com/a"].OK())
}

func TestProcessAll_FailureIsolation(t *testing.T) {
	sc := &fakeScraper{fn: func(rawURL string) *models.ScrapeResult {
		if strings.Contains(rawURL, "panic") {
			panic("browser exploded")
		}
		return models.ScrapeSuccess(rawURL, 200, "<p>unique content "+rawURL+"</p>")
	}}
	o := New(&fakeClassifier{}, sc, &fakeDownloader{}, fakeCleaner{}, 2)

	urls := []string{"https://example.com/panic", "https://example.com/fine"}
	results := o.ProcessAll(context.Background(), urls, false, nil)

	require.Len(t, results, 2)
	assert.True(t, results["https://example.com/fine"].OK(), "healthy URL must not be affected")

	crashed := results["https://example.com/panic"]
	require.False(t, crashed.OK())
	require.NotNil(t, crashed.Scrape)
	assert.Contains(t, crashed.Scrape.Message, "internal error")
}

func TestProcessAll_ReportsProgress(t *testing.T) {
	o := New(&fakeClassifier{}, successScraper(), &fakeDownloader{}, fakeCleaner{}, 1)

	var last atomic.Int32
	urls := []string{"https://example.com/a", "https://example.com/b"}
	o.ProcessAll(context.Background(), urls, false, func(done int) {
		last.Store(int32(done))
	})

	assert.Equal(t, int32(2), last.Load())
}

func TestProcessAll_MarksNearDuplicateContent(t *testing.T) {
	article := strings.Repeat("<p>the same long article body shared by two mirrors of the site</p>", 5)
	sc := &fakeScraper{fn: func(rawURL string) *models.ScrapeResult {
		if strings.Contains(rawURL, "unique") {
			return models.ScrapeSuccess(rawURL, 200, "<p>completely different quantum physics content with many other words</p>")
		}
		return models.ScrapeSuccess(rawURL, 200, article)
	}}
	o := New(&fakeClassifier{}, sc, &fakeDownloader{}, fakeCleaner{}, 1)

	urls := []string{
		"https://example.com/original",
		"https://mirror.example.net/copy",
		"https://example.com/unique",
	}
	results := o.ProcessAll(context.Background(), urls, false, nil)

	assert.Empty(t, results["https://example.com/original"].DuplicateOf)
	assert.Equal(t, "https://example.com/original", results["https://mirror.example.net/copy"].DuplicateOf)
	assert.Empty(t, results["https://example.com/unique"].DuplicateOf)
}
