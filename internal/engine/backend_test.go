package engine

import "testing"

func TestBackendRefcount(t *testing.T) {
	inits, frees := 0, 0
	rc := backendRC{init: func() { inits++ }, free: func() { frees++ }}

	rc.acquire()
	rc.acquire()
	if inits != 1 {
		t.Fatalf("expected single init, got %d", inits)
	}
	rc.release()
	if frees != 0 {
		t.Fatalf("freed while still held")
	}
	rc.release()
	if frees != 1 {
		t.Fatalf("expected single free, got %d", frees)
	}
	// release on zero refs is a no-op
	rc.release()
	if frees != 1 {
		t.Fatalf("double free")
	}
	// reacquire after full release re-inits
	rc.acquire()
	if inits != 2 {
		t.Fatalf("expected re-init, got %d", inits)
	}
	rc.release()
}
