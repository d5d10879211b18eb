package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petasbytes/cybercog/internal/config"
)

func TestSetValue_CreatesPrivateFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cybercog")
	path := filepath.Join(dir, "config.yaml")

	if err := config.SetValue(path, config.KeyAPIKey, "sk-123"); err != nil {
		t.Fatalf("set: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("file mode %v, want 0600", fi.Mode().Perm())
	}
	di, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if di.Mode().Perm() != 0o700 {
		t.Fatalf("dir mode %v, want 0700", di.Mode().Perm())
	}

	clearEnv(t)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AnthropicAPIKey != "sk-123" {
		t.Fatalf("key: %q", cfg.AnthropicAPIKey)
	}
}

func TestSetValue_KeepsOtherKeysAndComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "# my settings\nmodel: claude-x\nusername: old\nmax_calls: 3\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("prepare: %v", err)
	}

	if err := config.SetValue(path, config.KeyUsername, "new"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := config.SetValue(path, config.KeyAPIKey, "12345"); err != nil {
		t.Fatalf("set: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, "# my settings") {
		t.Fatalf("comment lost:\n%s", out)
	}
	if strings.Index(out, "model:") > strings.Index(out, "username:") {
		t.Fatalf("key order changed:\n%s", out)
	}

	clearEnv(t)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// A numeric-looking key must stay a string.
	if cfg.Username != "new" || cfg.AnthropicAPIKey != "12345" || cfg.Model != "claude-x" || cfg.MaxCalls != 3 {
		t.Fatalf("got %+v", cfg)
	}
}

func TestSetValue_RejectsNonMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("- a\n- b\n"), 0o600); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := config.SetValue(path, "k", "v"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSetValue_EmptyDocuments(t *testing.T) {
	cases := map[string]struct {
		body string
		keep string
	}{
		"marker only":   {"---\n", "---"},
		"comments only": {"# only a comment\n", "# only a comment"},
		"null":          {"~\n", ""},
		"blank":         {"\n\n", ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tc.body), 0o600); err != nil {
				t.Fatalf("prepare: %v", err)
			}
			if err := config.SetValue(path, config.KeyUsername, "alice"); err != nil {
				t.Fatalf("set: %v", err)
			}
			b, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if tc.keep != "" && !strings.Contains(string(b), tc.keep) {
				t.Fatalf("lost %q:\n%s", tc.keep, b)
			}
			if err := config.SetValue(path, config.KeyAPIKey, "sk-1"); err != nil {
				t.Fatalf("second set: %v\n%s", err, b)
			}

			clearEnv(t)
			cfg, err := config.Load(path)
			if err != nil {
				t.Fatalf("load: %v\n%s", err, b)
			}
			if cfg.Username != "alice" || cfg.AnthropicAPIKey != "sk-1" {
				t.Fatalf("got %+v", cfg)
			}
		})
	}
}
