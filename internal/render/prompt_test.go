package render_test

import (
	"path/filepath"
	"testing"

	"github.com/petasbytes/cybercog/internal/render"
)

func TestPrompt(t *testing.T) {
	home := filepath.FromSlash("/home/ada")
	cases := map[string]string{
		filepath.FromSlash("/home/ada"):       "ada@anthropic ~ $ ",
		filepath.FromSlash("/home/ada/src/x"): "ada@anthropic " + filepath.FromSlash("~/src/x") + " $ ",
		filepath.FromSlash("/home/adam"):      "ada@anthropic " + filepath.FromSlash("/home/adam") + " $ ",
		filepath.FromSlash("/srv"):            "ada@anthropic " + filepath.FromSlash("/srv") + " $ ",
	}
	for cwd, want := range cases {
		if got := render.Prompt("ada", cwd, home); got != want {
			t.Fatalf("Prompt(%q) = %q, want %q", cwd, got, want)
		}
	}
}
