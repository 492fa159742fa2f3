// Package daemon assembles the serving pieces: the model registry, one
// inference session, and the progress/logging glue between them. It is the
// concrete Service behind the HTTP API.
package daemon

import (
	"github.com/rs/zerolog"

	"llamad/internal/engine"
	"llamad/internal/registry"
	"llamad/internal/session"
	"llamad/pkg/types"
)

// Daemon owns the single inference session and the registry snapshot taken
// at startup.
type Daemon struct {
	*session.Session

	log    zerolog.Logger
	models []types.ModelFile
}

// New builds a daemon around an engine. The session holds no resources
// until Start.
func New(eng engine.Engine, log zerolog.Logger) *Daemon {
	return &Daemon{
		Session: session.New(eng, log),
		log:     log,
	}
}

// LoadRegistry scans dir for model files. A missing or unreadable directory
// is not fatal; the daemon serves an empty listing and logs the reason.
func (d *Daemon) LoadRegistry(dir string) {
	models, err := registry.LoadDir(dir)
	if err != nil {
		d.log.Warn().Err(err).Str("dir", dir).Msg("model registry unavailable")
		return
	}
	d.models = models
	d.log.Info().Int("models", len(models)).Str("dir", dir).Msg("model registry loaded")
}

// ResolveModel maps a model reference (registry ID or filesystem path) to a
// registry entry, including any paired projector.
func (d *Daemon) ResolveModel(ref string) (types.ModelFile, error) {
	return registry.Resolve(d.models, ref)
}

// Start initializes the session, logging progress milestones.
func (d *Daemon) Start(p types.SessionParams) error {
	return d.Initialize(p, func(fraction float64, stage string) {
		d.log.Info().Float64("progress", fraction).Msg(stage)
	}, nil)
}

// Models returns the registry snapshot.
func (d *Daemon) Models() []types.ModelFile {
	return append([]types.ModelFile(nil), d.models...)
}
