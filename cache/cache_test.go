package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/use-agent/harvest/models"
)

func TestCache_SetGet(t *testing.T) {
	c := New(10, time.Minute)

	c.Set("https://example.com/a", models.KindWebpage)
	c.Set("https://example.com/b.pdf", models.KindFileDownload)

	kind, ok := c.Get("https://example.com/a")
	if !ok || kind != models.KindWebpage {
		t.Errorf("Get(a) = %q, %v", kind, ok)
	}
	kind, ok = c.Get("https://example.com/b.pdf")
	if !ok || kind != models.KindFileDownload {
		t.Errorf("Get(b.pdf) = %q, %v", kind, ok)
	}
	if _, ok := c.Get("https://example.com/missing"); ok {
		t.Error("Get(missing) should miss")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(10, 10*time.Millisecond)

	c.Set("https://example.com/a", models.KindWebpage)
	if _, ok := c.Get("https://example.com/a"); !ok {
		t.Fatal("fresh entry should hit")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("https://example.com/a"); ok {
		t.Error("expired entry should miss")
	}
}

func TestCache_CapacityEviction(t *testing.T) {
	c := New(5, time.Minute)

	for i := 0; i < 8; i++ {
		c.Set(fmt.Sprintf("https://example.com/%d", i), models.KindWebpage)
	}

	if got := c.Len(); got > 5 {
		t.Errorf("Len() = %d, capacity is 5", got)
	}
}

func TestCache_Overwrite(t *testing.T) {
	c := New(10, time.Minute)

	c.Set("https://example.com/a", models.KindWebpage)
	c.Set("https://example.com/a", models.KindFileDownload)

	kind, ok := c.Get("https://example.com/a")
	if !ok || kind != models.KindFileDownload {
		t.Errorf("overwrite not visible: %q, %v", kind, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d after overwriting one key", c.Len())
	}
}
