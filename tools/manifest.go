package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/petasbytes/cybercog/internal/logging"
)

// Manifest declares a command-backed tool. Example:
//
//	name: word_count
//	description: Count words in a text.
//	mode: blocking
//	result: string
//	parameters:
//	  - name: text
//	    type: string
//	    description: Text to count.
//	command: ["sh", "-c", "wc -w"]
//
// A parameter without a type is a string; int, str, bool, float, list and
// dict are accepted for the JSON Schema names. Parameters are required
// unless they say required: false.
//
// The command gets the arguments object on stdin and each top-level argument
// as TOOL_ARG_<NAME> in its environment. It runs in the manifest's directory.
type Manifest struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Mode        string              `yaml:"mode"`
	Result      string              `yaml:"result"`
	Parameters  []ManifestParameter `yaml:"parameters"`
	Command     []string            `yaml:"command"`
}

type ManifestParameter struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Required    *bool  `yaml:"required"`
}

var typeAliases = map[string]string{
	"":      "string",
	"int":   "integer",
	"str":   "string",
	"bool":  "boolean",
	"float": "number",
	"list":  "array",
	"dict":  "object",
}

// schemaType maps a declared parameter type to its JSON Schema name.
func schemaType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if alias, ok := typeAliases[t]; ok {
		return alias
	}
	return t
}

// LoadFrom registers every manifest in dir (non-recursive, lexical order).
// A manifest that cannot be read, parsed or registered is logged and skipped.
// It returns the number of tools registered.
func LoadFrom(dir string, reg *Registry, logger *log.Logger) int {
	logger = logging.OrDiscard(logger)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("tools directory not found", "dir", dir)
		} else {
			logger.Error("read tools directory", "dir", dir, "error", err)
		}
		return 0
	}

	var files []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	loaded := 0
	for _, path := range files {
		def, err := ParseManifestFile(path)
		if err != nil {
			logger.Error("tool manifest skipped", "path", path, "error", err)
			continue
		}
		if _, err := reg.Register(def); err != nil {
			logger.Error("tool manifest skipped", "path", path, "error", err)
			continue
		}
		logger.Info("loaded tool", "name", def.Name, "path", path)
		loaded++
	}
	logger.Info("finished loading tools", "dir", dir, "loaded", loaded, "files", len(files))
	return loaded
}

// ParseManifestFile reads one manifest and builds its definition.
func ParseManifestFile(path string) (ToolDefinition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return ToolDefinition{}, err
	}
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return ToolDefinition{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return m.Definition(filepath.Dir(path))
}

// Definition converts the manifest into a ToolDefinition whose command runs in workDir.
func (m Manifest) Definition(workDir string) (ToolDefinition, error) {
	if strings.TrimSpace(m.Name) == "" {
		return ToolDefinition{}, &RegistrationError{Reason: "manifest has no name"}
	}
	if len(m.Command) == 0 {
		return ToolDefinition{}, &RegistrationError{Name: m.Name, Reason: "manifest has no command"}
	}

	def := ToolDefinition{
		Name:        strings.TrimSpace(m.Name),
		Description: strings.TrimSpace(m.Description),
	}
	switch strings.ToLower(m.Mode) {
	case "", "blocking":
		def.Mode = Blocking
	case "non_blocking", "nonblocking":
		def.Mode = NonBlocking
	default:
		return ToolDefinition{}, &RegistrationError{Name: m.Name, Reason: "unknown mode " + m.Mode}
	}
	switch strings.ToLower(m.Result) {
	case "", "string":
		def.Result = StringResult
	case "structured", "json":
		def.Result = StructuredResult
	default:
		return ToolDefinition{}, &RegistrationError{Name: m.Name, Reason: "unknown result kind " + m.Result}
	}

	schema := &jsonschema.Schema{Type: "object", Properties: jsonschema.NewProperties()}
	for _, p := range m.Parameters {
		if p.Name == "" {
			return ToolDefinition{}, &RegistrationError{Name: m.Name, Reason: "parameter without name"}
		}
		schema.Properties.Set(p.Name, &jsonschema.Schema{Type: schemaType(p.Type), Description: p.Description})
		if p.Required == nil || *p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	def.InputSchema = schema
	def.Function = commandHandler(m.Command, workDir, def.Result)
	return def, nil
}

func commandHandler(argv []string, workDir string, kind ResultKind) HandlerFunc {
	return func(ctx context.Context, input json.RawMessage) (any, error) {
		if len(input) == 0 {
			input = json.RawMessage(`{}`)
		}
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Dir = workDir
		cmd.Stdin = bytes.NewReader(input)
		cmd.Env = append(os.Environ(), argumentEnv(input)...)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return nil, fmt.Errorf("%s: %w: %s", argv[0], err, msg)
			}
			return nil, fmt.Errorf("%s: %w", argv[0], err)
		}
		out := strings.TrimSpace(stdout.String())
		if kind == StringResult {
			return out, nil
		}
		if !gjson.Valid(out) {
			return nil, fmt.Errorf("%s: output is not valid JSON", argv[0])
		}
		return json.RawMessage(out), nil
	}
}

func argumentEnv(input json.RawMessage) []string {
	var env []string
	gjson.ParseBytes(input).ForEach(func(key, value gjson.Result) bool {
		name := strings.ToUpper(strings.Map(func(r rune) rune {
			if r == '-' || r == ' ' || r == '.' {
				return '_'
			}
			return r
		}, key.String()))
		env = append(env, "TOOL_ARG_"+name+"="+value.String())
		return true
	})
	return env
}
