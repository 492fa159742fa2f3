package session

import "llamad/pkg/types"

// Temperatures at or below this threshold select greedy decoding.
const greedyTemperature = 0.01

// defaultSeed matches llama.cpp's LLAMA_DEFAULT_SEED.
const defaultSeed uint32 = 0xFFFFFFFF

// configureSampler builds the ordered sampling chain for p, replacing any
// chain already attached to the session. The stage order is load-bearing:
// penalties run before truncation so truncation sees penalized logits, and
// temperature scaling runs after truncation but before the final draw.
// Caller holds mu.
func (s *Session) configureSampler(p types.SamplingParams) error {
	if err := ValidateSamplingParams(p); err != nil {
		return err
	}
	if s.sampler != nil {
		s.sampler.Free()
		s.sampler = nil
	}
	chain := s.model.NewSamplerChain()
	if chain == nil {
		return errf(CodeSamplingFailed, "failed to create sampler chain")
	}

	if p.RepeatPenalty != 1.0 {
		chain.AddPenalties(p.RepeatLastN, p.RepeatPenalty, p.FrequencyPenalty, p.PresencePenalty)
	}

	// Near-zero temperature means deterministic decoding; every
	// probabilistic stage is skipped.
	if p.Temperature <= greedyTemperature {
		chain.AddGreedy()
		s.sampler = chain
		return nil
	}

	if p.TopK > 0 {
		chain.AddTopK(p.TopK)
	}
	if p.TypicalP > 0 && p.TypicalP < 1 {
		chain.AddTypical(p.TypicalP)
	}
	if p.TopP > 0 && p.TopP < 1 {
		chain.AddTopP(p.TopP)
	}
	if p.MinP > 0 {
		chain.AddMinP(p.MinP)
	}
	chain.AddTemp(p.Temperature)
	chain.AddDist(defaultSeed)

	s.sampler = chain
	return nil
}
