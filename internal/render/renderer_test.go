package render_test

import (
	"strings"
	"testing"

	"github.com/petasbytes/cybercog/internal/render"
)

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"styled", "markdown", "plain", ""} {
		r, err := render.New(mode)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		out, err := r.Render("hello **world**")
		if err != nil {
			t.Fatalf("%q render: %v", mode, err)
		}
		if !strings.Contains(out, "hello") || !strings.Contains(out, "world") {
			t.Fatalf("%q output %q", mode, out)
		}
	}
	if _, err := render.New("fancy"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestPlain_AddsNewline(t *testing.T) {
	r, _ := render.New("plain")
	out, _ := r.Render("**raw**")
	if out != "**raw**\n" {
		t.Fatalf("got %q", out)
	}
	out, _ = r.Render("")
	if out != "No response to format.\n" {
		t.Fatalf("empty: %q", out)
	}
}
