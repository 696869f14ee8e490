package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/twaters/radiant/internal/domain"
)

// ─── Helpers ────────────────────────────────────────────────────────────────

type fakeFleet struct {
	nodes   []domain.NodeStatus
	version uint64
}

func (f *fakeFleet) Nodes() []domain.NodeStatus { return f.nodes }
func (f *fakeFleet) StateVersion() uint64       { return f.version }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ─── Tests ──────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	h := NewServer(&fakeFleet{}).Handler()
	rec := get(t, h, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health = %d, want 200", rec.Code)
	}
}

func TestNodes(t *testing.T) {
	fleet := &fakeFleet{
		nodes: []domain.NodeStatus{
			{
				Identity:     "CLIENT1",
				Capabilities: domain.Capabilities{Commands: []string{"c1 command"}},
				AdmittedAt:   time.Now(),
				LastSeen:     time.Now(),
			},
		},
		version: 1,
	}
	rec := get(t, NewServer(fleet).Handler(), "/v1/nodes")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /v1/nodes = %d, want 200", rec.Code)
	}

	var body struct {
		Nodes []domain.NodeStatus `json:"nodes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if len(body.Nodes) != 1 || body.Nodes[0].Identity != "CLIENT1" {
		t.Errorf("nodes = %v, want [CLIENT1]", body.Nodes)
	}
}

func TestNodes_EmptyFleetIsList(t *testing.T) {
	rec := get(t, NewServer(&fakeFleet{}).Handler(), "/v1/nodes")

	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if string(body["nodes"]) != "[]" {
		t.Errorf("nodes = %s, want []", body["nodes"])
	}
}

func TestState(t *testing.T) {
	fleet := &fakeFleet{
		nodes:   []domain.NodeStatus{{Identity: "A"}, {Identity: "B"}},
		version: 7,
	}
	rec := get(t, NewServer(fleet).Handler(), "/v1/state")

	var snap domain.StateSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if snap.Version != 7 {
		t.Errorf("version = %d, want 7", snap.Version)
	}
	if len(snap.Nodes) != 2 || snap.Nodes[0] != "A" || snap.Nodes[1] != "B" {
		t.Errorf("nodes = %v, want [A B]", snap.Nodes)
	}
}

func TestMetrics_DisabledByDefault(t *testing.T) {
	rec := get(t, NewServer(&fakeFleet{}).Handler(), "/metrics")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /metrics = %d, want 404 when disabled", rec.Code)
	}
}

func TestMetrics_Enabled(t *testing.T) {
	s := NewServer(&fakeFleet{})
	s.EnableMetrics()
	rec := get(t, s.Handler(), "/metrics")
	if rec.Code != http.StatusOK {
		t.Errorf("GET /metrics = %d, want 200", rec.Code)
	}
}
