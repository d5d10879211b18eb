// Package tools defines tool contracts, the tool registry and built-in tools.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, handler, and the
//     handler's execution mode and result kind.
//   - GenerateSchema[T](): derive a JSON Schema from a Go input struct.
//   - Registry: startup-built name -> (definition, descriptor) table.
//   - LoadFrom: command-backed tools declared by YAML manifests in a directory.
//   - Built-ins: read_file, list_files (non-recursive), edit_file, current_time.
package tools
