package tools_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/petasbytes/cybercog/internal/fsops"
	"github.com/petasbytes/cybercog/tools"
)

var sharedDir string
var sharedBox *fsops.Sandbox

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "tools-tests-")
	if err != nil {
		panic(err)
	}
	sharedBox, err = fsops.New(dir, dir)
	if err != nil {
		panic(err)
	}
	sharedDir = sharedBox.ReadRoot()

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// rel returns a per-test relative path inside the shared sandbox.
func rel(t *testing.T, elems ...string) string {
	return filepath.Join(append([]string{t.Name()}, elems...)...)
}

func call(t *testing.T, def tools.ToolDefinition, in any) (any, error) {
	t.Helper()
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal input: %v", err)
	}
	return def.Function(context.Background(), b)
}
