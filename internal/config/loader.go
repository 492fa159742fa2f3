package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"llamad/internal/common/fsutil"
	"llamad/pkg/types"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and are replaced by defaults in Normalize.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	// Model is the file loaded at startup: an absolute path, or a name
	// resolved against ModelsDir by the registry.
	Model  string `json:"model" yaml:"model" toml:"model"`
	Mmproj string `json:"mmproj" yaml:"mmproj" toml:"mmproj"`

	ContextSize    int  `json:"context_size" yaml:"context_size" toml:"context_size"`
	BatchSize      int  `json:"batch_size" yaml:"batch_size" toml:"batch_size"`
	Threads        int  `json:"threads" yaml:"threads" toml:"threads"`
	GPULayers      int  `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	MmprojUseGPU   bool `json:"mmproj_use_gpu" yaml:"mmproj_use_gpu" toml:"mmproj_use_gpu"`
	Verbosity      int  `json:"verbosity" yaml:"verbosity" toml:"verbosity"`
	PredictCeiling int  `json:"predict_ceiling" yaml:"predict_ceiling" toml:"predict_ceiling"`

	// Sampling sets the session-wide defaults; requests may override per call.
	Sampling *types.SamplingParams `json:"sampling" yaml:"sampling" toml:"sampling"`

	LogLevel       string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" toml:"allowed_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(expand(path))
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Normalize fills unspecified fields with defaults and expands home paths.
func (c *Config) Normalize() {
	if c.Addr == "" {
		c.Addr = ":8090"
	}
	if c.ModelsDir == "" {
		c.ModelsDir = "~/models"
	}
	c.ModelsDir = expand(c.ModelsDir)
	c.Model = expand(c.Model)
	c.Mmproj = expand(c.Mmproj)

	def := types.DefaultSessionParams()
	if c.ContextSize <= 0 {
		c.ContextSize = def.ContextSize
	}
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.Threads <= 0 {
		c.Threads = def.Threads
	}
	if c.PredictCeiling <= 0 {
		c.PredictCeiling = def.PredictCeiling
	}
	if c.Verbosity < 0 {
		c.Verbosity = def.Verbosity
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// SessionParams assembles the session parameters the config describes.
// Call Normalize first.
func (c *Config) SessionParams() types.SessionParams {
	p := types.DefaultSessionParams()
	p.ModelPath = c.Model
	p.MmprojPath = c.Mmproj
	p.ContextSize = c.ContextSize
	p.BatchSize = c.BatchSize
	p.Threads = c.Threads
	p.GPULayers = c.GPULayers
	p.MmprojUseGPU = c.MmprojUseGPU
	p.Verbosity = c.Verbosity
	p.PredictCeiling = c.PredictCeiling
	if c.Sampling != nil {
		p.Sampling = *c.Sampling
	}
	return p
}

// expand resolves a leading '~', keeping the path as-is when the home
// directory cannot be determined.
func expand(path string) string {
	out, err := fsutil.ExpandHome(path)
	if err != nil {
		return path
	}
	return out
}
