package tools_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petasbytes/cybercog/tools"
)

func TestEditFile_CreateNew(t *testing.T) {
	def := tools.EditFileTool(sharedBox)
	p := rel(t, "new.txt")
	out, err := call(t, def, tools.EditFileInput{Path: p, NewStr: "hello"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.HasPrefix(out.(string), "Successfully created file") {
		t.Fatalf("got %q", out)
	}
	b, err := os.ReadFile(filepath.Join(sharedDir, p))
	if err != nil || string(b) != "hello" {
		t.Fatalf("verify: %q %v", b, err)
	}
}

func TestEditFile_ReplaceAll(t *testing.T) {
	p := prepareFile(t, "f.txt", "a-b-a")
	out, err := call(t, tools.EditFileTool(sharedBox), tools.EditFileInput{Path: p, OldStr: "a", NewStr: "z"})
	if err != nil || out != "OK" {
		t.Fatalf("got %v %v", out, err)
	}
	b, _ := os.ReadFile(filepath.Join(sharedDir, p))
	if string(b) != "z-b-z" {
		t.Fatalf("content: %q", b)
	}
}

func TestEditFile_Errors(t *testing.T) {
	p := prepareFile(t, "f.txt", "content")
	def := tools.EditFileTool(sharedBox)

	cases := []struct {
		name string
		in   tools.EditFileInput
		want string
	}{
		{"same strings", tools.EditFileInput{Path: p, OldStr: "x", NewStr: "x"}, "invalid edit parameters"},
		{"empty old on existing", tools.EditFileInput{Path: p, NewStr: "y"}, "old_str must be provided"},
		{"old not found", tools.EditFileInput{Path: p, OldStr: "absent", NewStr: "y"}, "not found"},
		{"missing file with old", tools.EditFileInput{Path: rel(t, "missing.txt"), OldStr: "a", NewStr: "b"}, "no such file"},
		{"denied write", tools.EditFileInput{Path: "go.mod", NewStr: "module x"}, "ERR_DENIED_WRITE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := call(t, def, tc.in)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
		})
	}
}
