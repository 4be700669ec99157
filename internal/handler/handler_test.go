package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"lobsim/internal/service"
	"lobsim/internal/sim"
	"lobsim/internal/strategy"
)

func newTestServer(t *testing.T) (*httptest.Server, *service.Manager) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr := service.NewManager(logger)
	srv := httptest.NewServer(NewRouter(mgr, NewFeed(logger), logger))
	t.Cleanup(srv.Close)
	return srv, mgr
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}
	return resp, data
}

func startTestRun(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	cfg := sim.DefaultConfig()
	cfg.Duration = 30
	resp, data := doJSON(t, http.MethodPost, srv.URL+"/runs", map[string]any{"config": cfg})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start run: status %d body %s", resp.StatusCode, data)
	}
	var out struct {
		RunID string `json:"run_id"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decoding start response: %v", err)
	}
	if out.RunID == "" {
		t.Fatal("empty run_id")
	}
	return out.RunID
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, data := doJSON(t, http.MethodGet, srv.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, data)
	}
}

func TestStrategiesCatalog(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, data := doJSON(t, http.MethodGet, srv.URL+"/strategies", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		Strategies []string `json:"strategies"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(out.Strategies) != 4 {
		t.Errorf("strategies = %v, want 4 entries", out.Strategies)
	}
}

func TestStartRun_DefaultConfig(t *testing.T) {
	srv, _ := newTestServer(t)
	// Empty body object: server falls back to the default scenario.
	resp, data := doJSON(t, http.MethodPost, srv.URL+"/runs", map[string]any{})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, body %s", resp.StatusCode, data)
	}
}

func TestStartRun_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	// Missing content type.
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/runs", bytes.NewBufferString("{}"))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing content type: status = %d, want 400", resp.StatusCode)
	}

	// Invalid config value.
	cfg := sim.DefaultConfig()
	cfg.Duration = -1
	resp2, data := doJSON(t, http.MethodPost, srv.URL+"/runs", map[string]any{"config": cfg})
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid config: status = %d, body %s", resp2.StatusCode, data)
	}
	var errOut struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &errOut); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if errOut.Error != "configuration_error" {
		t.Errorf("error code = %s, want configuration_error", errOut.Error)
	}
}

func TestStartRun_UnknownStrategy(t *testing.T) {
	srv, _ := newTestServer(t)

	cfg := sim.DefaultConfig()
	cfg.Duration = 30
	cfg.Strategies = []strategy.Config{{Name: "ghost"}}
	resp, data := doJSON(t, http.MethodPost, srv.URL+"/runs", map[string]any{"config": cfg})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s, want 400", resp.StatusCode, data)
	}
	var errOut struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &errOut); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if errOut.Error != "configuration_error" && errOut.Error != "unknown_strategy" {
		t.Errorf("error code = %s", errOut.Error)
	}
}

func TestStepSnapshotFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	id := startTestRun(t, srv)

	resp, data := doJSON(t, http.MethodPost, fmt.Sprintf("%s/runs/%s/step?max_events=200", srv.URL, id), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("step: status = %d, body %s", resp.StatusCode, data)
	}
	var step sim.StepResult
	if err := json.Unmarshal(data, &step); err != nil {
		t.Fatalf("decoding step: %v", err)
	}
	if step.EventsProcessed == 0 {
		t.Error("step processed no events")
	}

	resp, data = doJSON(t, http.MethodGet, fmt.Sprintf("%s/runs/%s/snapshot", srv.URL, id), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("snapshot: status = %d", resp.StatusCode)
	}
	var snap sim.RunSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if snap.SimTime != step.SimTime {
		t.Errorf("snapshot time %v != step time %v", snap.SimTime, step.SimTime)
	}

	for _, path := range []string{"book", "trades", "performance"} {
		resp, data = doJSON(t, http.MethodGet, fmt.Sprintf("%s/runs/%s/%s", srv.URL, id, path), nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: status = %d, body %s", path, resp.StatusCode, data)
		}
	}
}

func TestStep_InvalidMaxEvents(t *testing.T) {
	srv, _ := newTestServer(t)
	id := startTestRun(t, srv)

	for _, q := range []string{"max_events=0", "max_events=-5", "max_events=many"} {
		resp, _ := doJSON(t, http.MethodPost, fmt.Sprintf("%s/runs/%s/step?%s", srv.URL, id, q), nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, resp.StatusCode)
		}
	}
}

func TestUnknownRunIs404(t *testing.T) {
	srv, _ := newTestServer(t)

	paths := []struct {
		method, path string
	}{
		{http.MethodPost, "/runs/ghost/step"},
		{http.MethodGet, "/runs/ghost/snapshot"},
		{http.MethodGet, "/runs/ghost/book"},
		{http.MethodGet, "/runs/ghost/trades"},
		{http.MethodGet, "/runs/ghost/performance"},
		{http.MethodDelete, "/runs/ghost"},
	}
	for _, p := range paths {
		resp, data := doJSON(t, p.method, srv.URL+p.path, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s %s: status = %d, body %s", p.method, p.path, resp.StatusCode, data)
		}
	}
}

func TestCancelRun(t *testing.T) {
	srv, mgr := newTestServer(t)
	id := startTestRun(t, srv)

	resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/runs/"+id, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: status = %d", resp.StatusCode)
	}
	if got := len(mgr.RunIDs()); got != 0 {
		t.Errorf("runs after cancel = %d, want 0", got)
	}

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/runs/"+id, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second cancel: status = %d, want 404", resp.StatusCode)
	}
}

func TestListRuns(t *testing.T) {
	srv, _ := newTestServer(t)
	id := startTestRun(t, srv)

	resp, data := doJSON(t, http.MethodGet, srv.URL+"/runs", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status = %d", resp.StatusCode)
	}
	var out struct {
		Runs []string `json:"runs"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(out.Runs) != 1 || out.Runs[0] != id {
		t.Errorf("runs = %v, want [%s]", out.Runs, id)
	}
}

func TestStepFinishedRunStillOK(t *testing.T) {
	srv, _ := newTestServer(t)

	cfg := sim.DefaultConfig()
	cfg.Duration = 2
	resp, data := doJSON(t, http.MethodPost, srv.URL+"/runs", map[string]any{"config": cfg})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start: %d %s", resp.StatusCode, data)
	}
	var out struct {
		RunID string `json:"run_id"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decoding: %v", err)
	}

	// Drive to completion, then step once more: a finished run reports
	// done instead of erroring.
	var step sim.StepResult
	for i := 0; i < 100; i++ {
		resp, data = doJSON(t, http.MethodPost, fmt.Sprintf("%s/runs/%s/step?max_events=5000", srv.URL, out.RunID), nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("step: %d %s", resp.StatusCode, data)
		}
		if err := json.Unmarshal(data, &step); err != nil {
			t.Fatalf("decoding: %v", err)
		}
		if step.Done {
			break
		}
	}
	if !step.Done {
		t.Fatal("run never finished")
	}

	resp, data = doJSON(t, http.MethodPost, fmt.Sprintf("%s/runs/%s/step", srv.URL, out.RunID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("step after finish: %d %s", resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, &step); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if !step.Done {
		t.Error("finished run should report done")
	}
}
