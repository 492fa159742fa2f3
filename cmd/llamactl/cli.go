package main

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"llamad/internal/common/fsutil"
	"llamad/internal/session"
	"llamad/pkg/types"
)

// buildRootCmd constructs the llamactl command tree against a llamad server.
func buildRootCmd() *cobra.Command {
	defaultAddr := "http://localhost:8090"
	if v := os.Getenv("LLAMAD_ADDR"); v != "" {
		defaultAddr = v
	}

	var addr string
	root := &cobra.Command{
		Use:           "llamactl",
		Short:         "Client for a running llamad server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&addr, "addr", defaultAddr, "llamad base URL (defaults LLAMAD_ADDR)")

	models := &cobra.Command{Use: "models", Short: "List model files known to the server", RunE: func(cmd *cobra.Command, args []string) error {
		var resp types.ModelsResponse
		if err := newClient(addr).getJSON("/v1/models", &resp); err != nil {
			return err
		}
		for _, m := range resp.Models {
			if m.MmprojPath != "" {
				fmt.Printf("%s\t(vision: %s)\n", m.ID, m.MmprojPath)
				continue
			}
			fmt.Println(m.ID)
		}
		return nil
	}}

	model := &cobra.Command{Use: "model", Short: "Show loaded model metadata", RunE: func(cmd *cobra.Command, args []string) error {
		var resp types.ModelResponse
		if err := newClient(addr).getJSON("/v1/model", &resp); err != nil {
			return err
		}
		fmt.Printf("name:         %s\n", resp.Name)
		if resp.Architecture != "" {
			fmt.Printf("architecture: %s\n", resp.Architecture)
		}
		fmt.Printf("parameters:   %d\n", resp.ParameterCount)
		fmt.Printf("context:      %d\n", resp.ContextSize)
		fmt.Printf("capabilities: %v\n", resp.Capabilities)
		return nil
	}}

	memory := &cobra.Command{Use: "memory", Short: "Show server memory usage", RunE: func(cmd *cobra.Command, args []string) error {
		var resp types.MemoryResponse
		if err := newClient(addr).getJSON("/v1/memory", &resp); err != nil {
			return err
		}
		fmt.Printf("model:   %d MB\ncontext: %d MB\ntotal:   %d MB\n", resp.ModelMB, resp.ContextMB, resp.TotalMB)
		return nil
	}}

	stats := &cobra.Command{Use: "stats", Short: "Show generation statistics", RunE: func(cmd *cobra.Command, args []string) error {
		var resp types.StatsResponse
		if err := newClient(addr).getJSON("/v1/stats", &resp); err != nil {
			return err
		}
		fmt.Printf("state:      %s\ntokens:     %d\ntokens/sec: %.2f\nelapsed:    %.2fs\n",
			resp.State, resp.TokensGenerated, resp.TokensPerSecond, resp.ElapsedSeconds)
		return nil
	}}

	reset := &cobra.Command{Use: "reset", Short: "Clear the server's context memory", RunE: func(cmd *cobra.Command, args []string) error {
		return newClient(addr).post("/v1/reset")
	}}

	var (
		images      []string
		system      string
		temperature float64
		nPredict    int
		noStream    bool
	)
	generate := &cobra.Command{
		Use:     "generate <prompt>",
		Short:   "Generate a completion, streaming tokens to stdout",
		Example: "  llamactl generate \"Write a haiku about autumn\"\n  llamactl generate --image photo.png \"What is in this picture?\"",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := types.GenerateRequest{Stream: !noStream}
			if system != "" {
				req.Messages = append(req.Messages, types.ChatMessage{Role: string(types.RoleSystem), Content: system})
			}
			user := types.ChatMessage{Role: string(types.RoleUser), Content: args[0]}
			for _, path := range images {
				raw, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read image %s: %w", path, err)
				}
				user.Images = append(user.Images, base64.StdEncoding.EncodeToString(raw))
			}
			req.Messages = append(req.Messages, user)
			if cmd.Flags().Changed("temperature") || cmd.Flags().Changed("n-predict") {
				p := types.DefaultSamplingParams()
				if cmd.Flags().Changed("temperature") {
					p.Temperature = float32(temperature)
				}
				if cmd.Flags().Changed("n-predict") {
					p.NPredict = int32(nPredict)
				}
				req.Sampling = &p
			}
			return newClient(addr).generate(req, os.Stdout)
		},
	}
	generate.Flags().StringArrayVar(&images, "image", nil, "Image file to attach (repeatable)")
	generate.Flags().StringVar(&system, "system", "", "System prompt prepended to the conversation")
	generate.Flags().Float64Var(&temperature, "temperature", 0.7, "Sampling temperature")
	generate.Flags().IntVar(&nPredict, "n-predict", -1, "Maximum tokens to generate (-1 = unlimited)")
	generate.Flags().BoolVar(&noStream, "no-stream", false, "Wait for the full response instead of streaming")

	validate := &cobra.Command{
		Use:   "validate <file.gguf>",
		Short: "Check a local model or projector file header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			magic, err := fsutil.ReadMagic(args[0], 4)
			if err != nil {
				return err
			}
			if !bytes.Equal(magic, []byte("GGUF")) {
				return fmt.Errorf("%s is not a GGUF file", args[0])
			}
			fmt.Printf("%s: valid GGUF header\n", args[0])
			return nil
		},
	}

	sniffImage := &cobra.Command{
		Use:   "sniff-image <file>",
		Short: "Check whether a local image would be accepted for generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if _, err := session.ValidateImageData(raw); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Printf("%s: supported image format\n", args[0])
			return nil
		},
	}

	root.AddCommand(models, model, memory, stats, reset, generate, validate, sniffImage)
	return root
}
