package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"llamad/internal/config"
	"llamad/internal/daemon"
	"llamad/internal/engine"
	"llamad/internal/httpapi"
)

func main() {
	// Flags with environment variable defaults
	defaultAddr := ""
	if v := os.Getenv("LLAMAD_ADDR"); v != "" {
		defaultAddr = v
	}
	addr := flag.String("addr", defaultAddr, "HTTP listen address, e.g. :8090")
	configPath := flag.String("config", "", "Config file (.yaml/.json/.toml); flags override it")
	modelsDir := flag.String("models-dir", "", "Directory to scan for *.gguf model files")
	model := flag.String("model", "", "Model to load: registry id or path to a .gguf file")
	mmproj := flag.String("mmproj", "", "Multimodal projector path (overrides registry pairing)")
	contextSize := flag.Int("context-size", 0, "Context size in tokens")
	threads := flag.Int("threads", 0, "Worker thread count")
	gpuLayers := flag.Int("gpu-layers", 0, "Layers to offload to the GPU")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Parse()

	var cfg config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fatalStartup("failed to load config", err)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *modelsDir != "" {
		cfg.ModelsDir = *modelsDir
	}
	if *model != "" {
		cfg.Model = *model
	}
	if *mmproj != "" {
		cfg.Mmproj = *mmproj
	}
	if *contextSize > 0 {
		cfg.ContextSize = *contextSize
	}
	if *threads > 0 {
		cfg.Threads = *threads
	}
	if *gpuLayers > 0 {
		cfg.GPULayers = *gpuLayers
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	cfg.Normalize()

	logger := newLogger(cfg.LogLevel)

	eng, err := engine.NewLlamaEngine()
	if err != nil {
		logger.Fatal().Err(err).Msg("inference engine unavailable (build with -tags=llama)")
	}

	d := daemon.New(eng, logger)
	d.LoadRegistry(cfg.ModelsDir)

	if cfg.Model == "" {
		logger.Fatal().Msg("no model specified; use -model or the config file")
	}
	entry, err := d.ResolveModel(cfg.Model)
	if err != nil {
		logger.Fatal().Err(err).Msg("model not found")
	}
	params := cfg.SessionParams()
	params.ModelPath = entry.Path
	if params.MmprojPath == "" {
		params.MmprojPath = entry.MmprojPath
	}
	if err := d.Start(params); err != nil {
		logger.Fatal().Err(err).Str("model", params.ModelPath).Msg("session startup failed")
	}
	defer d.Close()

	httpapi.SetLogger(logger)
	if len(cfg.AllowedOrigins) > 0 {
		httpapi.SetCORSOptions(true, cfg.AllowedOrigins,
			[]string{"GET", "POST", "OPTIONS"},
			[]string{"Accept", "Content-Type", "X-Log-Level"})
	}

	baseCtx, stopBase := context.WithCancel(context.Background())
	defer stopBase()
	httpapi.SetBaseContext(baseCtx)

	mux := httpapi.NewMux(d)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("model", params.ModelPath).Msg("llamad listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	stopBase() // cancel in-flight generations
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func fatalStartup(msg string, err error) {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	logger.Fatal().Err(err).Msg(msg)
}
