package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/use-agent/harvest/models"
)

func TestDeliver_SignsPayload(t *testing.T) {
	const secret = "batch-secret"

	var gotSig string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Harvest-Signature")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	event := BatchCompleted(models.BatchStatusResponse{ID: "batch-1", Status: "completed", Total: 2})
	if err := NewNotifier(secret).Deliver(context.Background(), srv.URL, event); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(gotBody)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if gotSig != want {
		t.Errorf("signature = %q, want %q", gotSig, want)
	}

	var decoded Event
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("body not valid JSON: %v", err)
	}
	if decoded.Type != EventBatchCompleted || decoded.JobID != "batch-1" {
		t.Errorf("decoded event = %+v", decoded)
	}
	if decoded.Batch == nil || decoded.Batch.Status != "completed" {
		t.Errorf("batch status not carried: %+v", decoded.Batch)
	}
}

func TestDeliver_RoutingHeaders(t *testing.T) {
	var gotEvent, gotDelivery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEvent = r.Header.Get("X-Harvest-Event")
		gotDelivery = r.Header.Get("X-Harvest-Delivery")
	}))
	defer srv.Close()

	event := BatchCompleted(models.BatchStatusResponse{ID: "batch-7", Status: "failed"})
	if err := NewNotifier("").Deliver(context.Background(), srv.URL, event); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if gotEvent != EventBatchCompleted {
		t.Errorf("X-Harvest-Event = %q, want %q", gotEvent, EventBatchCompleted)
	}
	if gotDelivery == "" || gotDelivery != event.DeliveryID {
		t.Errorf("X-Harvest-Delivery = %q, want event delivery ID %q", gotDelivery, event.DeliveryID)
	}
}

func TestBatchCompleted_UniqueDeliveryIDs(t *testing.T) {
	status := models.BatchStatusResponse{ID: "batch-9", Status: "completed"}
	a := BatchCompleted(status)
	b := BatchCompleted(status)
	if a.DeliveryID == "" || a.DeliveryID == b.DeliveryID {
		t.Errorf("delivery IDs must be unique per event: %q vs %q", a.DeliveryID, b.DeliveryID)
	}
}

func TestDeliver_NoSecretNoSignature(t *testing.T) {
	var hadSig bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hadSig = r.Header.Get("X-Harvest-Signature") != ""
	}))
	defer srv.Close()

	event := BatchCompleted(models.BatchStatusResponse{ID: "batch-2"})
	if err := NewNotifier("").Deliver(context.Background(), srv.URL, event); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if hadSig {
		t.Error("no secret configured, signature header must be absent")
	}
}

func TestDeliver_EndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewNotifier("").Deliver(context.Background(), srv.URL, BatchCompleted(models.BatchStatusResponse{ID: "batch-3"}))
	if err == nil {
		t.Fatal("5xx response should surface as an error")
	}
}
