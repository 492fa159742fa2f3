package session

import (
	"context"
	"strings"
	"time"

	"llamad/internal/engine"
	"llamad/pkg/types"
)

// GenerateOptions carry the optional capabilities for one generation call.
// All fields may be zero; absent callbacks are no-ops.
type GenerateOptions struct {
	// Sampling overrides the session default for this call only.
	Sampling   *types.SamplingParams
	OnToken    TokenFunc
	OnProgress ProgressFunc
	Cancel     *CancelToken
}

// Generate renders the conversation through the model's chat template,
// evaluates the prompt (fusing images through the vision runtime when
// present) and runs the autoregressive token loop, streaming fragments via
// OnToken. Cancellation is polled at every checkpoint; a cancelled call
// discards partial text, which already streamed through the callback.
//
// Exactly one terminal state is reached per call. A failed decode leaves the
// session in the error state on purpose: the context's sequence memory may
// be inconsistent, so Reset or reinitialization is required before the next
// generation.
func (s *Session) Generate(ctx context.Context, conversation []types.Message, opts GenerateOptions) (out string, err error) {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return "", errf(CodeNotInitialized, "session must be initialized before use")
	}
	switch s.genState {
	case types.StateInitializing, types.StateTokenizingPrompt, types.StateProcessingImages, types.StateGenerating:
		s.mu.Unlock()
		return "", errf(CodeInvalidParameters, "generation already in progress")
	case types.StateError:
		s.mu.Unlock()
		return "", errf(CodeInvalidParameters, "session in error state; reset or reinitialize first")
	}
	if len(conversation) == 0 {
		s.mu.Unlock()
		return "", errf(CodeInvalidParameters, "conversation cannot be empty")
	}
	images := collectImages(conversation)
	for _, img := range images {
		if _, verr := ValidateImageData(img.Data); verr != nil {
			s.mu.Unlock()
			return "", verr
		}
	}
	if len(images) > 0 && s.vision == nil {
		s.mu.Unlock()
		return "", errf(CodeInvalidParameters, "images provided but multimodal projector not loaded")
	}

	sampling := s.params.Sampling
	if opts.Sampling != nil {
		sampling = *opts.Sampling
	}

	completer, coarse := s.model.(engine.Completer)
	if coarse {
		// The runtime samples internally; the chain is not built but the
		// knobs are still validated up front.
		if verr := ValidateSamplingParams(sampling); verr != nil {
			s.mu.Unlock()
			return "", verr
		}
	} else if cerr := s.configureSampler(sampling); cerr != nil {
		s.mu.Unlock()
		return "", cerr
	}

	s.setStateLocked(types.StateInitializing)
	s.stats = types.GenerationStats{State: types.StateInitializing, Sampling: sampling}
	s.startTime = time.Now()
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.setState(types.StateError)
			out, err = "", errf(CodeUnknown, "unexpected failure during generation: %v", r)
		}
	}()

	// Drop the previous call's cached sequence so generations never leak
	// context across calls.
	s.ectx.ClearMemory()

	s.setState(types.StateTokenizingPrompt)
	prompt, terr := s.model.ApplyChatTemplate(toChatMessages(conversation), true)
	if terr != nil {
		s.setState(types.StateError)
		return "", errf(CodeTokenizationFailed, "failed to apply chat template: %v", terr)
	}

	if cancelled(ctx, opts.Cancel) {
		return "", s.cancelGeneration()
	}

	if coarse {
		return s.generateCoarse(ctx, completer, prompt, sampling, opts)
	}

	var pos int32
	if len(images) > 0 {
		newPos, ierr := s.evaluateMultimodal(ctx, prompt, images, opts)
		if ierr != nil {
			return "", ierr
		}
		pos = newPos
	} else {
		newPos, perr := s.evaluateText(prompt, opts)
		if perr != nil {
			return "", perr
		}
		pos = newPos
	}

	if cancelled(ctx, opts.Cancel) {
		return "", s.cancelGeneration()
	}

	return s.decodeLoop(ctx, pos, sampling, opts)
}

// evaluateMultimodal prepends per-image markers, builds bitmaps, jointly
// tokenizes text and images, and evaluates the chunks. Returns the advanced
// position cursor.
func (s *Session) evaluateMultimodal(ctx context.Context, prompt string, images []types.ImageData, opts GenerateOptions) (int32, error) {
	s.setState(types.StateProcessingImages)
	report(opts.OnProgress, 0.1, "processing images")

	prompt = strings.Repeat(s.vision.DefaultMarker(), len(images)) + "\n" + prompt

	bitmaps := make([]engine.Bitmap, 0, len(images))
	defer func() {
		for _, b := range bitmaps {
			b.Free()
		}
	}()
	for _, img := range images {
		bmp, err := s.vision.BitmapFromBytes(img.Data)
		if err != nil {
			s.setState(types.StateError)
			return 0, errf(CodeImageProcessingFailed, "failed to create bitmap from image data: %v", err)
		}
		bitmaps = append(bitmaps, bmp)
	}

	s.setState(types.StateTokenizingPrompt)
	report(opts.OnProgress, 0.3, "tokenizing multimodal prompt")
	chunks, err := s.vision.TokenizeMixed(prompt, bitmaps)
	if err != nil {
		s.setState(types.StateError)
		return 0, errf(CodeTokenizationFailed, "failed to tokenize multimodal input: %v", err)
	}

	if cancelled(ctx, opts.Cancel) {
		return 0, s.cancelGeneration()
	}

	report(opts.OnProgress, 0.5, "evaluating multimodal prompt")
	pos, err := s.vision.EvaluateChunks(s.ectx, chunks, 0, s.params.BatchSize)
	if err != nil {
		s.setState(types.StateError)
		return 0, errf(CodeEvaluationFailed, "failed to evaluate multimodal prompt: %v", err)
	}
	return pos, nil
}

// evaluateText tokenizes the rendered prompt and submits it as a single
// batch requesting logits for the final position only.
func (s *Session) evaluateText(prompt string, opts GenerateOptions) (int32, error) {
	report(opts.OnProgress, 0.2, "tokenizing text prompt")
	// The template inserts BOS itself; special tokens pass through.
	toks, err := s.model.Tokenize(prompt, false, true)
	if err != nil {
		s.setState(types.StateError)
		return 0, errf(CodeTokenizationFailed, "failed to tokenize text prompt: %v", err)
	}

	report(opts.OnProgress, 0.4, "evaluating text prompt")
	batch := engine.NewBatch(len(toks))
	for i, t := range toks {
		batch.Add(t, int32(i), i == len(toks)-1)
	}
	if err := s.ectx.Decode(batch); err != nil {
		s.setState(types.StateError)
		return 0, errf(CodeEvaluationFailed, "failed to evaluate text prompt: %v", err)
	}
	return int32(len(toks)), nil
}

// decodeLoop runs the per-token sample/emit/decode cycle until an
// end-of-generation token, budget exhaustion, cancellation or failure.
func (s *Session) decodeLoop(ctx context.Context, pos int32, sampling types.SamplingParams, opts GenerateOptions) (string, error) {
	s.setState(types.StateGenerating)
	report(opts.OnProgress, 0.6, "generating response")

	finite := sampling.NPredict > 0
	maxTokens := s.params.PredictCeiling
	if finite {
		maxTokens = int(sampling.NPredict)
	}

	var response strings.Builder
	generated := 0
	for generated < maxTokens {
		if cancelled(ctx, opts.Cancel) {
			return "", s.cancelGeneration()
		}

		tok := s.sampler.Sample(s.ectx)
		if tok == engine.TokenNull {
			s.setState(types.StateError)
			return "", errf(CodeSamplingFailed, "sampler returned null token")
		}
		s.sampler.Accept(tok)

		if s.model.IsEndOfGeneration(tok) {
			break
		}

		piece := s.model.TokenToPiece(tok)
		response.WriteString(piece)
		emit(opts.OnToken, piece)

		generated++
		s.noteToken(generated)

		s.batch.Clear()
		s.batch.Add(tok, pos, true)
		pos++
		if err := s.ectx.Decode(s.batch); err != nil {
			s.setState(types.StateError)
			return "", errf(CodeEvaluationFailed, "failed to decode token: %v", err)
		}

		if finite {
			report(opts.OnProgress, 0.6+0.4*float64(generated)/float64(maxTokens), "generating tokens")
		}
	}

	s.setState(types.StateFinished)
	report(opts.OnProgress, 1.0, "generation complete")
	return response.String(), nil
}

// generateCoarse delegates prompt evaluation and sampling to a runtime that
// owns its own decode loop, keeping the state machine, statistics,
// streaming and cancellation semantics identical to the fine-grained path.
func (s *Session) generateCoarse(ctx context.Context, completer engine.Completer, prompt string, sampling types.SamplingParams, opts GenerateOptions) (string, error) {
	s.setState(types.StateGenerating)
	report(opts.OnProgress, 0.6, "generating response")

	finite := sampling.NPredict > 0
	maxTokens := s.params.PredictCeiling
	if finite {
		maxTokens = int(sampling.NPredict)
	}

	var response strings.Builder
	generated := 0
	stopped := false
	onTok := func(piece string) bool {
		if cancelled(ctx, opts.Cancel) {
			stopped = true
			return false
		}
		response.WriteString(piece)
		emit(opts.OnToken, piece)
		generated++
		s.noteToken(generated)
		if finite {
			report(opts.OnProgress, 0.6+0.4*float64(generated)/float64(maxTokens), "generating tokens")
		}
		return true
	}

	text, err := completer.Complete(ctx, prompt, engine.CompletionParams{
		MaxTokens:     maxTokens,
		Threads:       s.params.Threads,
		TopK:          int(sampling.TopK),
		TopP:          sampling.TopP,
		Temperature:   sampling.Temperature,
		RepeatPenalty: sampling.RepeatPenalty,
	}, onTok)
	if stopped || cancelled(ctx, opts.Cancel) {
		return "", s.cancelGeneration()
	}
	if err != nil {
		s.setState(types.StateError)
		return "", errf(CodeEvaluationFailed, "completion failed: %v", err)
	}
	if text == "" {
		text = response.String()
	}

	s.setState(types.StateFinished)
	report(opts.OnProgress, 1.0, "generation complete")
	return text, nil
}

func (s *Session) cancelGeneration() error {
	s.setState(types.StateCancelled)
	return errf(CodeOperationCancelled, "generation cancelled")
}

// noteToken records statistics for the n-th generated token. Ordered after
// the token it describes and before the progress callback that reports it.
func (s *Session) noteToken(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.TokensGenerated = n
	s.stats.Elapsed = time.Since(s.startTime)
	if secs := s.stats.Elapsed.Seconds(); secs > 0 {
		s.stats.TokensPerSecond = float64(n) / secs
	}
}

func collectImages(conversation []types.Message) []types.ImageData {
	var all []types.ImageData
	for _, m := range conversation {
		all = append(all, m.Images...)
	}
	return all
}

func toChatMessages(conversation []types.Message) []engine.ChatMessage {
	msgs := make([]engine.ChatMessage, len(conversation))
	for i, m := range conversation {
		role := string(m.Role)
		if role == "" {
			role = string(types.RoleUser)
		}
		msgs[i] = engine.ChatMessage{Role: role, Content: m.Content}
	}
	return msgs
}
