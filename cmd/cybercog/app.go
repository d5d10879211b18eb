package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/petasbytes/cybercog/internal/config"
	"github.com/petasbytes/cybercog/internal/credentials"
	"github.com/petasbytes/cybercog/internal/fsops"
	"github.com/petasbytes/cybercog/internal/gateway"
	"github.com/petasbytes/cybercog/internal/invoker"
	"github.com/petasbytes/cybercog/internal/logging"
	"github.com/petasbytes/cybercog/internal/render"
	"github.com/petasbytes/cybercog/internal/runner"
	"github.com/petasbytes/cybercog/internal/shell"
	"github.com/petasbytes/cybercog/internal/telemetry"
	"github.com/petasbytes/cybercog/memory"
	"github.com/petasbytes/cybercog/tools"
)

var errNoAPIKey = errors.New("anthropic API token is not set")

// run wires the session from cfg and blocks until the shell exits.
func run(ctx context.Context, cfgPath string, cfg config.Config, out io.Writer) error {
	logger, closer, err := logging.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()

	tty := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	if tty {
		if state, err := term.GetState(int(os.Stdin.Fd())); err == nil {
			defer term.Restore(int(os.Stdin.Fd()), state)
		}
		fmt.Fprint(out, "\033[H\033[2J")
	}

	styles := render.DefaultStyles()
	sink := telemetry.New(cfg.EventsDir, cfg.Observe)
	gwOpts := gateway.Options{
		Model:              cfg.Model,
		MaxTokens:          int64(cfg.MaxTokens),
		Retry:              gateway.DefaultRetryPolicy(),
		HistoryTokenBudget: cfg.HistoryTokenBudget,
		Logger:             logger,
		Telemetry:          sink,
	}

	username := resolveUsername(cfgPath, cfg, out, logger)
	apiKey, err := resolveAPIKey(ctx, cfgPath, cfg, gwOpts, tty, out, logger)
	if err != nil {
		return err
	}
	if apiKey == "" {
		fmt.Fprintln(out, styles.Line(render.ClassError, "Exiting the program..."))
		return errNoAPIKey
	}

	sb, err := fsops.New(cfg.ReadRoot, cfg.WriteRoot)
	if err != nil {
		return fmt.Errorf("sandbox: %w", err)
	}
	reg := tools.NewRegistry()
	builtin := reg.RegisterAll(tools.Builtins(sb), logger)
	loaded := tools.LoadFrom(cfg.ToolsDir, reg, logger)
	inv := invoker.New(reg, invoker.Options{BlockingWorkers: cfg.BlockingWorkers, Logger: logger, Telemetry: sink})
	if err := invoker.RegisterParallel(reg, inv); err != nil {
		return err
	}
	logger.Info("tools ready", "builtin", builtin, "manifests", loaded, "total", reg.Len(), "dir", cfg.ToolsDir, "names", reg.Names())
	if sink.Enabled() {
		logger.Info("telemetry on", "events", sink.Path())
	}

	renderer, err := render.New(cfg.Render)
	if err != nil {
		return err
	}
	history, err := memory.Load(cfg.InputHistoryFile)
	if err != nil {
		logger.Warn("input history unavailable", "path", cfg.InputHistoryFile, "error", err)
		history = nil
	}

	svc := &runner.Service{
		NewGateway: func(key string) gateway.Gateway { return gateway.NewAnthropic(key, gwOpts) },
		Registry:   reg,
		Invoker:    inv,
		Options:    runner.Options{MaxCalls: cfg.MaxCalls, Logger: logger, Telemetry: sink},
	}
	sh := shell.New(shell.Options{
		Username: username,
		APIKey:   apiKey,
		Service:  svc,
		Renderer: renderer,
		History:  history,
		In:       os.Stdin,
		Out:      out,
		TTY:      tty,
		Logger:   logger,
	})
	defer sh.Shutdown()
	return sh.Run(ctx)
}

// resolveUsername uses the configured name, or derives one from the OS
// account and stores it.
func resolveUsername(cfgPath string, cfg config.Config, out io.Writer, logger *log.Logger) string {
	if cfg.Username != "" {
		fmt.Fprintf(out, "You are logged in as `%s`.\n", cfg.Username)
		return cfg.Username
	}
	name := config.DefaultUsername()
	if err := config.SetValue(cfgPath, config.KeyUsername, name); err != nil {
		logger.Warn("username not saved", "error", err)
	}
	return name
}

func resolveAPIKey(ctx context.Context, cfgPath string, cfg config.Config, gwOpts gateway.Options, tty bool, out io.Writer, logger *log.Logger) (string, error) {
	p := &credentials.Provider{
		ConfigPath: cfgPath,
		Stored:     cfg.AnthropicAPIKey,
		Out:        out,
		Logger:     logger,
	}
	if cfg.VerifyAPIKey {
		p.Verify = func(ctx context.Context, key string) error {
			return gateway.VerifyKey(ctx, key, gwOpts)
		}
	}
	if tty {
		p.Prompt = credentials.HuhPrompt
	}
	return p.Resolve(ctx)
}
