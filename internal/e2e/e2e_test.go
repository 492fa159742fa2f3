package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"llamad/internal/daemon"
	"llamad/internal/engine/enginetest"
	"llamad/internal/httpapi"
	"llamad/pkg/types"
)

// newServer boots the full daemon stack over the fake engine: registry scan,
// session startup, and the real HTTP mux behind an httptest server.
func newServer(t *testing.T, eng *enginetest.Engine) (*httptest.Server, *daemon.Daemon) {
	t.Helper()
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "alpha.gguf")
	if err := os.WriteFile(modelPath, []byte("GGUF"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}

	d := daemon.New(eng, zerolog.Nop())
	d.LoadRegistry(dir)
	entry, err := d.ResolveModel("alpha.gguf")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	p := types.DefaultSessionParams()
	p.ModelPath = entry.Path
	if err := d.Start(p); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	srv := httptest.NewServer(httpapi.NewMux(d))
	t.Cleanup(srv.Close)
	return srv, d
}

func postGenerate(t *testing.T, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url+"/v1/generate", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	return resp
}

func TestE2E_GenerateStreamRoundTrip(t *testing.T) {
	srv, _ := newServer(t, enginetest.NewScripted("The", " answer", " is", " 42"))

	resp := postGenerate(t, srv.URL, `{"messages":[{"role":"user","content":"question"}],"stream":true}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 5 {
		t.Fatalf("lines = %d, want 4 tokens + final:\n%s", len(lines), raw)
	}
	var final types.GenerateFinal
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &final); err != nil {
		t.Fatalf("final: %v", err)
	}
	if !final.Done || final.Content != "The answer is 42" || final.TokensGenerated != 4 {
		t.Fatalf("final = %+v", final)
	}
}

func TestE2E_IntrospectionAfterGeneration(t *testing.T) {
	srv, _ := newServer(t, enginetest.NewScripted("hi"))

	resp := postGenerate(t, srv.URL, `{"messages":[{"role":"user","content":"hello"}]}`)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d", resp.StatusCode)
	}

	statsResp, err := http.Get(srv.URL + "/v1/stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	defer statsResp.Body.Close()
	var stats types.StatsResponse
	if err := json.NewDecoder(statsResp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.State != "finished" || stats.TokensGenerated != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	memResp, err := http.Get(srv.URL + "/v1/memory")
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	defer memResp.Body.Close()
	if memResp.StatusCode != http.StatusOK {
		t.Fatalf("memory status = %d", memResp.StatusCode)
	}
}

func TestE2E_ErrorRecoveryViaReset(t *testing.T) {
	eng := enginetest.New()
	srv, _ := newServer(t, eng)

	eng.FailDecode = true
	resp := postGenerate(t, srv.URL, `{"messages":[{"role":"user","content":"x"}]}`)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}

	// Broken session rejects work until reset.
	resp = postGenerate(t, srv.URL, `{"messages":[{"role":"user","content":"x"}]}`)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 while in error state", resp.StatusCode)
	}

	eng.FailDecode = false
	rr, err := http.Post(srv.URL+"/v1/reset", "application/json", nil)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	rr.Body.Close()
	if rr.StatusCode != http.StatusNoContent {
		t.Fatalf("reset status = %d", rr.StatusCode)
	}

	resp = postGenerate(t, srv.URL, `{"messages":[{"role":"user","content":"x"}]}`)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status after reset = %d, want 200", resp.StatusCode)
	}
}

func TestE2E_ClientDisconnectCancelsGeneration(t *testing.T) {
	// A long script keeps the loop busy long enough for the cancel to land.
	pieces := make([]string, 512)
	for i := range pieces {
		pieces[i] = "x"
	}
	srv, d := newServer(t, enginetest.NewScripted(pieces...))

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/v1/generate",
		bytes.NewBufferString(`{"messages":[{"role":"user","content":"x"}],"stream":true}`))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	// Read one token then drop the connection.
	buf := make([]byte, 64)
	if _, err := resp.Body.Read(buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	cancel()
	resp.Body.Close()

	// The session must end in a terminal state, not wedge in generating.
	deadline := waitFor(t, func() bool {
		st := d.State()
		return st == types.StateCancelled || st == types.StateFinished
	})
	if !deadline {
		t.Fatalf("session stuck in state %v after disconnect", d.State())
	}
}
