package httpapi

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":        LevelOff,
		"off":     LevelOff,
		"error":   LevelError,
		"info":    LevelInfo,
		"debug":   LevelDebug,
		"garbage": LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestLogLevelOverrides(t *testing.T) {
	r := httptest.NewRequest("GET", "/v1/stats?log=debug", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("query override = %v, want debug", got)
	}

	r = httptest.NewRequest("GET", "/v1/stats?log=1", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("log=1 = %v, want debug", got)
	}

	r = httptest.NewRequest("GET", "/v1/stats", nil)
	r.Header.Set("X-Log-Level", "error")
	if got := requestLogLevel(r); got != LevelError {
		t.Fatalf("header override = %v, want error", got)
	}
}

func TestLoggingLineWriterBuffersPartialLines(t *testing.T) {
	var out bytes.Buffer
	prev := zlog
	SetLogger(zerolog.New(&out))
	t.Cleanup(func() { zlog = prev })

	lw := &loggingLineWriter{}
	lw.Write([]byte(`{"token":`))
	if out.Len() != 0 {
		t.Fatalf("partial line logged early: %q", out.String())
	}
	lw.Write([]byte("\"a\"}\n{\"done\":true}\n"))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("logged %d lines, want 2: %q", len(lines), out.String())
	}
	if !strings.Contains(lines[0], "generate stream") || !strings.Contains(lines[0], "token") {
		t.Fatalf("first line missing token payload: %q", lines[0])
	}
}
