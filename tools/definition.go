package tools

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Mode tells the invoker where a handler may run.
type Mode int

const (
	// Blocking handlers may stall on I/O and run on the invoker's worker pool.
	Blocking Mode = iota
	// NonBlocking handlers return promptly and run on the calling goroutine.
	NonBlocking
)

func (m Mode) String() string {
	if m == NonBlocking {
		return "non_blocking"
	}
	return "blocking"
}

// ResultKind fixes how a handler's return value becomes a result payload.
type ResultKind int

const (
	// StringResult handlers return a string which is passed through unchanged.
	StringResult ResultKind = iota
	// StructuredResult handlers return any JSON-serializable value.
	StructuredResult
)

func (k ResultKind) String() string {
	if k == StructuredResult {
		return "structured"
	}
	return "string"
}

// HandlerFunc receives the raw JSON object of arguments produced by the model.
type HandlerFunc func(ctx context.Context, input json.RawMessage) (any, error)

type ToolDefinition struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Mode        Mode
	Result      ResultKind
	Function    HandlerFunc
}

// GenerateSchema reflects T's exported fields into an inline object schema.
// Field docs come from the jsonschema_description tag.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// decode is the common first step of typed handlers. An empty input is
// treated as an empty object.
func decode[T any](input json.RawMessage) (T, error) {
	var in T
	if len(input) == 0 {
		return in, nil
	}
	err := json.Unmarshal(input, &in)
	return in, err
}
