package httpapi

import (
	"net/http/httptest"
	"testing"
)

func TestItoa(t *testing.T) {
	cases := map[int]string{0: "0", 200: "200", 404: "404", 503: "503"}
	for in, want := range cases {
		if got := itoa(in); got != want {
			t.Fatalf("itoa(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestRoutePatternFallsBackToPath(t *testing.T) {
	r := httptest.NewRequest("GET", "/no/chi/context", nil)
	if got := routePatternOrPath(r); got != "/no/chi/context" {
		t.Fatalf("routePatternOrPath = %q", got)
	}
}
