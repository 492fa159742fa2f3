package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"llamad/internal/engine/enginetest"
	"llamad/internal/session"
	"llamad/pkg/types"
)

func writeModel(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("GGUF"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestStartAndGenerate(t *testing.T) {
	d := New(enginetest.NewScripted("ok"), zerolog.Nop())
	p := types.DefaultSessionParams()
	p.ModelPath = writeModel(t, t.TempDir(), "m.gguf")
	if err := d.Start(p); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Close()

	if !d.Ready() {
		t.Fatal("daemon not ready after start")
	}
	out, err := d.Generate(context.Background(), []types.Message{{Role: types.RoleUser, Content: "hi"}}, session.GenerateOptions{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "ok" {
		t.Fatalf("output = %q", out)
	}
}

func TestLoadRegistryMissingDirIsNotFatal(t *testing.T) {
	d := New(enginetest.New(), zerolog.Nop())
	d.LoadRegistry(filepath.Join(t.TempDir(), "absent"))
	if got := d.Models(); len(got) != 0 {
		t.Fatalf("models = %v, want empty", got)
	}
}

func TestLoadRegistryAndResolve(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "a.gguf")
	writeModel(t, dir, "a-mmproj.gguf")

	d := New(enginetest.New(), zerolog.Nop())
	d.LoadRegistry(dir)
	models := d.Models()
	if len(models) != 1 {
		t.Fatalf("models = %+v, want one entry", models)
	}
	m, err := d.ResolveModel("a.gguf")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if m.MmprojPath == "" {
		t.Fatal("projector not paired")
	}
	if _, err := d.ResolveModel("nope.gguf"); err == nil {
		t.Fatal("expected error for unknown model")
	}
}
