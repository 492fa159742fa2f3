package session

import (
	"bytes"

	"llamad/internal/common/fsutil"
	"llamad/internal/engine"
	"llamad/pkg/types"
)

// ggufMagic is the header every GGUF file starts with.
var ggufMagic = []byte("GGUF")

// ValidateModel checks a model file without building a session: the file
// must exist and load as metadata. The backend is held only for the
// duration of the call, so validation runs safely alongside live sessions.
func ValidateModel(eng engine.Engine, path string) (types.ModelInfo, error) {
	if !fsutil.FileExists(path) {
		return types.ModelInfo{}, errf(CodeModelNotFound, "model file not found: %s", path)
	}

	eng.AcquireBackend()
	defer eng.ReleaseBackend()

	model, err := eng.LoadModel(path, engine.ModelParams{VocabOnly: true})
	if err != nil {
		return types.ModelInfo{}, errf(CodeModelInvalid, "file %s is not a loadable model: %v", path, err)
	}
	defer model.Free()

	return types.ModelInfo{
		Name:           model.Description(),
		Architecture:   model.Architecture(),
		ParameterCount: model.NumParams(),
		ContextSize:    model.TrainedContextSize(),
		Capabilities:   []string{"text_generation"},
	}, nil
}

// ValidateMmproj checks that a multimodal projector file exists and carries
// a GGUF header. It never loads the projector; that requires a base model.
func ValidateMmproj(path string) error {
	if !fsutil.FileExists(path) {
		return errf(CodeMmprojNotFound, "multimodal projector file not found: %s", path)
	}
	magic, err := fsutil.ReadMagic(path, len(ggufMagic))
	if err != nil {
		return errf(CodeMmprojInvalid, "failed to read projector header from %s: %v", path, err)
	}
	if !bytes.Equal(magic, ggufMagic) {
		return errf(CodeMmprojInvalid, "file %s is not a GGUF projector", path)
	}
	return nil
}
