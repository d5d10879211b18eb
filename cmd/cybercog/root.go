package main

import (
	"github.com/spf13/cobra"

	"github.com/petasbytes/cybercog/internal/config"
)

type flagValues struct {
	configPath string
	model      string
	maxCalls   int
	toolsDir   string
	logLevel   string
	render     string
	skipVerify bool
	observe    bool
}

func newRootCmd() *cobra.Command {
	var fv flagValues
	cmd := &cobra.Command{
		Use:           "cybercog",
		Short:         "Interactive shell that answers questions with an LLM and local tools",
		Long:          `cybercog reads questions at a prompt, lets the model call registered tools, and prints the answer.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := fv.configPath
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			cfg, err = applyFlags(cmd, fv, cfg)
			if err != nil {
				return err
			}
			return run(cmd.Context(), path, cfg, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&fv.configPath, "config", "", "config file (default <user config dir>/cybercog/config.yaml)")
	f.StringVar(&fv.model, "model", "", "model name")
	f.IntVar(&fv.maxCalls, "max-calls", 0, "tool calls per query before the final answer is forced")
	f.StringVar(&fv.toolsDir, "tools-dir", "", "directory of tool manifests")
	f.StringVar(&fv.logLevel, "log-level", "", "debug, info, warn or error")
	f.StringVar(&fv.render, "render", "", "answer output: styled, markdown or plain")
	f.BoolVar(&fv.skipVerify, "skip-verify", false, "do not verify the API key at startup")
	f.BoolVar(&fv.observe, "observe", false, "append telemetry events to the events file")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

// applyFlags lays explicitly set flags over cfg.
func applyFlags(cmd *cobra.Command, fv flagValues, cfg config.Config) (config.Config, error) {
	f := cmd.Flags()
	if f.Changed("model") {
		cfg.Model = fv.model
	}
	if f.Changed("max-calls") {
		cfg.MaxCalls = fv.maxCalls
	}
	if f.Changed("tools-dir") {
		cfg.ToolsDir = fv.toolsDir
	}
	if f.Changed("log-level") {
		cfg.LogLevel = fv.logLevel
	}
	if f.Changed("render") {
		cfg.Render = fv.render
	}
	if f.Changed("skip-verify") {
		cfg.VerifyAPIKey = !fv.skipVerify
	}
	if f.Changed("observe") {
		cfg.Observe = fv.observe
	}
	cfg = config.Normalize(cfg)
	return cfg, cfg.Validate()
}
