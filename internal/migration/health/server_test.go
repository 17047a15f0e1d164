package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coachbook/mover/internal/infra/storage/memory"
	"github.com/coachbook/mover/internal/migration/orchestrator"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := memory.NewStore()
	orch := orchestrator.New(orchestrator.Config{},
		memory.NewSource(store), memory.NewDestination(store))
	return NewServer(orch, 0)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
	if body["state"] != "idle" {
		t.Errorf("state field = %q, want idle", body["state"])
	}
}

func TestHandleProgress(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/progress", nil)
	rec := httptest.NewRecorder()
	s.handleProgress(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		State    string `json:"state"`
		Progress struct {
			ProcessedCount int `json:"processed_count"`
			TotalCount     int `json:"total_count"`
		} `json:"progress"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.State != "idle" {
		t.Errorf("state = %q, want idle", body.State)
	}
	if body.Progress.TotalCount != 0 {
		t.Errorf("total = %d before any run, want 0", body.Progress.TotalCount)
	}
}
