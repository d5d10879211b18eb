// Package credentials resolves the Anthropic API key from the environment,
// the config file, or an interactive prompt.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"

	"github.com/petasbytes/cybercog/internal/config"
	"github.com/petasbytes/cybercog/internal/logging"
)

const envKey = "ANTHROPIC_API_KEY"

// Verifier checks a key against the endpoint. gateway.VerifyKey fits once
// its options are bound.
type Verifier func(ctx context.Context, apiKey string) error

// Prompter asks the user for a key. An empty string means the user skipped.
type Prompter func(ctx context.Context) (string, error)

type Provider struct {
	// ConfigPath is where accepted keys and the declined marker are stored.
	ConfigPath string
	// Stored is the key already read from the config file.
	Stored string
	// Verify is optional; without it every key is accepted.
	Verify Verifier
	Prompt Prompter
	// Out receives the user-facing status lines.
	Out    io.Writer
	Logger *log.Logger
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// GetAPIKey returns the environment key, else the stored one. The declined
// marker is reported as absent.
func (p *Provider) GetAPIKey() string {
	lookup := p.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	key, _ := lookup(envKey)
	key = strings.TrimSpace(key)
	if key == "" {
		key = strings.TrimSpace(p.Stored)
	}
	if key == config.DeclinedAPIKey {
		return ""
	}
	return key
}

func (p *Provider) declined() bool {
	lookup := p.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, _ := lookup(envKey); strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v) == config.DeclinedAPIKey
	}
	return strings.TrimSpace(p.Stored) == config.DeclinedAPIKey
}

// Resolve returns a usable key, or "" when none is available. A previously
// declined prompt is not repeated. The error is only set when storing the
// user's answer fails or the prompt itself breaks.
func (p *Provider) Resolve(ctx context.Context) (string, error) {
	logger := logging.OrDiscard(p.Logger)
	if p.declined() {
		logger.Info("api key declined earlier; not prompting")
		return "", nil
	}

	if key := p.GetAPIKey(); key != "" {
		err := p.verify(ctx, key)
		if err == nil {
			return key, nil
		}
		logger.Warn("stored api key rejected", "error", err)
		p.printf("Error verifying Anthropic API token: %v\n", err)
	}

	if p.Prompt == nil {
		return "", nil
	}
	entry, err := p.Prompt(ctx)
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			p.printf("Anthropic token entry cancelled.\n")
			return "", nil
		}
		return "", fmt.Errorf("prompt for api key: %w", err)
	}
	entry = strings.TrimSpace(entry)

	if entry == "" {
		p.printf("Anthropic token entry cancelled.\n")
		if err := config.SetValue(p.ConfigPath, config.KeyAPIKey, config.DeclinedAPIKey); err != nil {
			return "", fmt.Errorf("store declined marker: %w", err)
		}
		return "", nil
	}

	if err := p.verify(ctx, entry); err != nil {
		logger.Warn("entered api key rejected", "error", err)
		p.printf("Invalid Anthropic token. Skipping.\n")
		return "", nil
	}
	if err := config.SetValue(p.ConfigPath, config.KeyAPIKey, entry); err != nil {
		return "", fmt.Errorf("store api key: %w", err)
	}
	p.printf("Anthropic API token verified successfully.\n")
	return entry, nil
}

func (p *Provider) verify(ctx context.Context, key string) error {
	if p.Verify == nil {
		return nil
	}
	return p.Verify(ctx, key)
}

func (p *Provider) printf(format string, args ...any) {
	if p.Out != nil {
		fmt.Fprintf(p.Out, format, args...)
	}
}

// HuhPrompt asks for the key in a masked input field.
func HuhPrompt(ctx context.Context) (string, error) {
	var key string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Anthropic API Key").
			Description("Enter your Anthropic API key (Enter to skip):").
			EchoMode(huh.EchoModePassword).
			Value(&key),
	))
	if err := form.RunWithContext(ctx); err != nil {
		return "", err
	}
	return key, nil
}
