package tools

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/invopop/jsonschema"
)

const noDescription = "No description provided."

// Parameter types a descriptor may advertise.
var parameterTypes = map[string]bool{
	"integer": true,
	"string":  true,
	"boolean": true,
	"number":  true,
	"array":   true,
	"object":  true,
}

type Parameter struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// ToolDescriptor is the immutable, model-facing view of a registered tool.
type ToolDescriptor struct {
	Name        string
	Description string
	Parameters  []Parameter
	Schema      *jsonschema.Schema
}

// RegistrationError rejects one tool definition; other tools are unaffected.
type RegistrationError struct {
	Name   string
	Reason string
}

func (e *RegistrationError) Error() string {
	if e.Name == "" {
		return "register tool: " + e.Reason
	}
	return fmt.Sprintf("register tool %s: %s", e.Name, e.Reason)
}

type entry struct {
	def  ToolDefinition
	desc ToolDescriptor
}

// Registry maps tool names to definitions. It is filled at startup and only
// read afterwards, so lookups from concurrent invocations are safe.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register validates def, derives its descriptor and records both.
func (r *Registry) Register(def ToolDefinition) (ToolDescriptor, error) {
	if def.Name == "" {
		return ToolDescriptor{}, &RegistrationError{Reason: "tool has no name"}
	}
	if def.Function == nil {
		return ToolDescriptor{}, &RegistrationError{Name: def.Name, Reason: "tool has no handler"}
	}
	desc, err := describe(def)
	if err != nil {
		return ToolDescriptor{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[def.Name]; exists {
		return ToolDescriptor{}, &RegistrationError{Name: def.Name, Reason: "already registered"}
	}
	r.entries[def.Name] = entry{def: def, desc: desc}
	r.order = append(r.order, def.Name)
	return desc, nil
}

// RegisterAll registers each definition, logging and skipping failures.
// It returns the number registered.
func (r *Registry) RegisterAll(defs []ToolDefinition, logger *log.Logger) int {
	n := 0
	for _, def := range defs {
		if _, err := r.Register(def); err != nil {
			if logger != nil {
				logger.Error("tool registration skipped", "tool", def.Name, "error", err)
			}
			continue
		}
		n++
	}
	return n
}

func (r *Registry) Lookup(name string) (ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.def, ok
}

// Descriptors returns all descriptors in registration order.
func (r *Registry) Descriptors() []ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].desc)
	}
	return out
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// describe walks the schema properties in declaration order.
func describe(def ToolDefinition) (ToolDescriptor, error) {
	desc := ToolDescriptor{
		Name:        def.Name,
		Description: def.Description,
		Schema:      def.InputSchema,
	}
	if desc.Description == "" {
		desc.Description = noDescription
	}
	if def.InputSchema == nil {
		desc.Schema = &jsonschema.Schema{Type: "object", Properties: jsonschema.NewProperties()}
		return desc, nil
	}
	if def.InputSchema.Type != "" && def.InputSchema.Type != "object" {
		return ToolDescriptor{}, &RegistrationError{Name: def.Name, Reason: "input schema must be an object, got " + def.InputSchema.Type}
	}

	required := make(map[string]bool, len(def.InputSchema.Required))
	for _, name := range def.InputSchema.Required {
		required[name] = true
	}
	if props := def.InputSchema.Properties; props != nil {
		for pair := props.Oldest(); pair != nil; pair = pair.Next() {
			prop := pair.Value
			if prop == nil || !parameterTypes[prop.Type] {
				typ := ""
				if prop != nil {
					typ = prop.Type
				}
				return ToolDescriptor{}, &RegistrationError{
					Name:   def.Name,
					Reason: fmt.Sprintf("parameter %s has unsupported type %q", pair.Key, typ),
				}
			}
			p := Parameter{
				Name:        pair.Key,
				Type:        prop.Type,
				Description: prop.Description,
				Required:    required[pair.Key],
			}
			if p.Description == "" {
				p.Description = noDescription
			}
			desc.Parameters = append(desc.Parameters, p)
		}
	}
	return desc, nil
}
