package analysis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
)

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{}, zaptest.NewLogger(t))
	if err == nil {
		t.Error("Expected error when base URL is not set")
	}
}

func TestClient_Analyze_StreamsRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/process_news" {
			t.Errorf("Expected path /process_news, got %s", r.URL.Path)
		}
		flusher := w.(http.Flusher)
		w.Write([]byte("{\"stage\":1,\"message\":\"Parsing\",\"total_stages\":3}\n"))
		flusher.Flush()
		w.Write([]byte("{\"result\":\"UP\",\"explanation\":\"good\"}\n"))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	var events []repositories.AnalysisEvent
	err = client.Analyze(context.Background(), repositories.AnalysisRequest{
		NewsArticle:   "Company X raised prices",
		CompanyTicker: "XYZ",
		DateOfPublish: "2026-01-02 10:00:00.000",
	}, func(ev repositories.AnalysisEvent) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[1].Result == nil {
		t.Errorf("Expected final event to be a result, got %+v", events[1])
	}
}

func TestClient_Analyze_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	err = client.Analyze(context.Background(), repositories.AnalysisRequest{}, func(repositories.AnalysisEvent) {
		t.Error("No events expected on non-success status")
	})
	if err == nil {
		t.Error("Expected error for non-success status")
	}
}

func TestClient_Analyze_ZeroByteStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	emitted := 0
	err = client.Analyze(context.Background(), repositories.AnalysisRequest{}, func(repositories.AnalysisEvent) {
		emitted++
	})
	if err != nil {
		t.Fatalf("Zero-byte stream should not be a transport error: %v", err)
	}
	if emitted != 0 {
		t.Errorf("Expected no events from empty stream, got %d", emitted)
	}
}

func TestClient_Analyze_TimeoutCutsStream(t *testing.T) {
	blocked := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{\"stage\":1,\"message\":\"Parsing\",\"total_stages\":3}\n"))
		w.(http.Flusher).Flush()
		<-blocked
	}))
	defer server.Close()
	defer close(blocked)

	client, err := NewClient(Config{BaseURL: server.URL, StreamTimeout: 50 * time.Millisecond}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	emitted := 0
	err = client.Analyze(context.Background(), repositories.AnalysisRequest{}, func(repositories.AnalysisEvent) {
		emitted++
	})
	if err == nil {
		t.Error("Expected timeout error from hung stream")
	}
	if emitted != 1 {
		t.Errorf("Records before the cut should stand, got %d", emitted)
	}
}
