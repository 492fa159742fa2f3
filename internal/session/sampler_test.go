package session

import (
	"reflect"
	"testing"

	"llamad/internal/engine/enginetest"
	"llamad/pkg/types"
)

func stagesFor(t *testing.T, p types.SamplingParams) []string {
	t.Helper()
	eng := enginetest.New()
	s := newTestSession(t, eng)
	s.mu.Lock()
	err := s.configureSampler(p)
	s.mu.Unlock()
	if err != nil {
		t.Fatalf("configure sampler: %v", err)
	}
	return eng.LastChain.Stages
}

func TestSamplerChainDefaultOrder(t *testing.T) {
	got := stagesFor(t, types.DefaultSamplingParams())
	// Defaults enable penalties, top-k, top-p and min-p; typical-p is 1.0 and
	// therefore skipped.
	want := []string{"penalties", "top_k", "top_p", "min_p", "temp", "dist"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("stages = %v, want %v", got, want)
	}
}

func TestSamplerChainGreedyShortCircuit(t *testing.T) {
	p := types.DefaultSamplingParams()
	p.Temperature = 0
	want := []string{"penalties", "greedy"}
	if got := stagesFor(t, p); !reflect.DeepEqual(got, want) {
		t.Fatalf("stages = %v, want %v", got, want)
	}

	// The greedy threshold is inclusive.
	p.Temperature = 0.01
	if got := stagesFor(t, p); !reflect.DeepEqual(got, want) {
		t.Fatalf("stages at threshold = %v, want %v", got, want)
	}

	// Just above the threshold the probabilistic pipeline returns.
	p.Temperature = 0.02
	got := stagesFor(t, p)
	if len(got) == 0 || got[len(got)-1] != "dist" {
		t.Fatalf("stages just above threshold = %v, want dist-terminated chain", got)
	}
}

func TestSamplerChainSkipsDisabledStages(t *testing.T) {
	p := types.DefaultSamplingParams()
	p.RepeatPenalty = 1.0 // exactly 1.0 disables penalties
	p.TopK = 0
	p.TopP = 1.0
	p.MinP = 0
	want := []string{"temp", "dist"}
	if got := stagesFor(t, p); !reflect.DeepEqual(got, want) {
		t.Fatalf("stages = %v, want %v", got, want)
	}
}

func TestSamplerChainTypicalBetweenTopKAndTopP(t *testing.T) {
	p := types.DefaultSamplingParams()
	p.TypicalP = 0.5
	want := []string{"penalties", "top_k", "typical", "top_p", "min_p", "temp", "dist"}
	if got := stagesFor(t, p); !reflect.DeepEqual(got, want) {
		t.Fatalf("stages = %v, want %v", got, want)
	}
}

func TestConfigureSamplerRejectsBadParams(t *testing.T) {
	s := newTestSession(t, enginetest.New())
	p := types.DefaultSamplingParams()
	p.Temperature = 5
	s.mu.Lock()
	err := s.configureSampler(p)
	s.mu.Unlock()
	if CodeOf(err) != CodeInvalidParameters {
		t.Fatalf("got %v, want invalid_parameters", err)
	}
}

func TestConfigureSamplerReplacesPreviousChain(t *testing.T) {
	eng := enginetest.New()
	s := newTestSession(t, eng)
	for i := 0; i < 2; i++ {
		s.mu.Lock()
		err := s.configureSampler(types.DefaultSamplingParams())
		s.mu.Unlock()
		if err != nil {
			t.Fatalf("configure sampler #%d: %v", i, err)
		}
	}
	freed := 0
	for _, ev := range eng.EventList() {
		if ev == "sampler_free" {
			freed++
		}
	}
	if freed != 1 {
		t.Fatalf("sampler_free count = %d, want 1 (old chain replaced)", freed)
	}
}
