package session

import (
	"testing"

	"llamad/internal/engine/enginetest"
)

func TestValidateModel(t *testing.T) {
	eng := enginetest.New()
	path := writeFile(t, t.TempDir(), "model.gguf", []byte("GGUF...."))

	info, err := ValidateModel(eng, path)
	if err != nil {
		t.Fatalf("validate model: %v", err)
	}
	if info.Name != "fake 7B Q4" || info.Architecture != "fake" {
		t.Fatalf("info = %+v", info)
	}
	// Validation is transient: backend and model handle are both released.
	if eng.BackendRefs != 0 {
		t.Fatalf("backend refs = %d after validation, want 0", eng.BackendRefs)
	}
	events := eng.EventList()
	if events[len(events)-1] != "backend_release" {
		t.Fatalf("last event = %q, want backend_release", events[len(events)-1])
	}
	freed := false
	for _, ev := range events {
		if ev == "model_free" {
			freed = true
		}
	}
	if !freed {
		t.Fatal("validation leaked the model handle")
	}
}

func TestValidateModelMissingFile(t *testing.T) {
	eng := enginetest.New()
	_, err := ValidateModel(eng, "/nonexistent/model.gguf")
	if CodeOf(err) != CodeModelNotFound {
		t.Fatalf("got %v, want model_not_found", err)
	}
	if len(eng.EventList()) != 0 {
		t.Fatal("backend touched for a missing file")
	}
}

func TestValidateModelUnloadableFile(t *testing.T) {
	eng := enginetest.New()
	eng.FailLoadModel = true
	path := writeFile(t, t.TempDir(), "model.gguf", []byte("GGUF...."))
	_, err := ValidateModel(eng, path)
	if CodeOf(err) != CodeModelInvalid {
		t.Fatalf("got %v, want model_invalid", err)
	}
	if eng.BackendRefs != 0 {
		t.Fatalf("backend refs = %d after failed validation, want 0", eng.BackendRefs)
	}
}

func TestValidateMmproj(t *testing.T) {
	dir := t.TempDir()

	good := writeFile(t, dir, "mmproj.gguf", []byte("GGUFxxxxxxxx"))
	if err := ValidateMmproj(good); err != nil {
		t.Fatalf("valid projector rejected: %v", err)
	}

	if err := ValidateMmproj(dir + "/absent.gguf"); CodeOf(err) != CodeMmprojNotFound {
		t.Fatalf("got %v, want mmproj_not_found", err)
	}

	badMagic := writeFile(t, dir, "notgguf.bin", []byte("JUNKxxxx"))
	if err := ValidateMmproj(badMagic); CodeOf(err) != CodeMmprojInvalid {
		t.Fatalf("got %v, want mmproj_invalid", err)
	}

	truncated := writeFile(t, dir, "short.gguf", []byte("GG"))
	if err := ValidateMmproj(truncated); CodeOf(err) != CodeMmprojInvalid {
		t.Fatalf("got %v, want mmproj_invalid for short header", err)
	}
}
