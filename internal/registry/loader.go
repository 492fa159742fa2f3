package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"llamad/internal/common/fsutil"
	"llamad/pkg/types"
)

// mmproj files are projectors, not standalone models; they are paired with
// a base model instead of being listed.
func isMmproj(name string) bool {
	return strings.Contains(strings.ToLower(name), "mmproj")
}

// LoadDir scans a directory for *.gguf files and builds a registry from
// filenames. ID is the full filename (including extension); Path is the
// absolute file path. Projector files (any name containing "mmproj") are
// paired with the model they share the longest name prefix with.
func LoadDir(dir string) ([]types.ModelFile, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var models []types.ModelFile
	var projectors []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		if isMmproj(name) {
			projectors = append(projectors, name)
			continue
		}
		models = append(models, types.ModelFile{ID: name, Name: name, Path: filepath.Join(abs, name)})
	}

	for i := range models {
		if proj := matchProjector(models[i].ID, projectors); proj != "" {
			models[i].MmprojPath = filepath.Join(abs, proj)
		}
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// Resolve returns the registry entry whose ID matches ref, or a synthetic
// entry when ref is a path to an existing model file outside the directory.
func Resolve(models []types.ModelFile, ref string) (types.ModelFile, error) {
	for _, m := range models {
		if m.ID == ref || m.Name == ref {
			return m, nil
		}
	}
	if fsutil.FileExists(ref) {
		abs, err := filepath.Abs(ref)
		if err != nil {
			return types.ModelFile{}, fmt.Errorf("abs path: %w", err)
		}
		name := filepath.Base(abs)
		return types.ModelFile{ID: name, Name: name, Path: abs}, nil
	}
	return types.ModelFile{}, fmt.Errorf("model %q not found in registry", ref)
}

// matchProjector picks the projector sharing the longest common name prefix
// with the model, requiring at least a few characters so unrelated files
// never pair.
func matchProjector(modelName string, projectors []string) string {
	const minPrefix = 4
	best, bestLen := "", minPrefix-1
	for _, p := range projectors {
		if n := commonPrefixLen(strings.ToLower(modelName), strings.ToLower(p)); n > bestLen {
			best, bestLen = p, n
		}
	}
	return best
}

func commonPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
