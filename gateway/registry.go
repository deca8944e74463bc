// Package gateway exposes the engine as a fixed table of named operations with JSON
// parameter schemas. Every invocation returns a structured Response; failures are
// reported in the response, never as a panic or a Go error.
package gateway

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/YuminosukeSato/loanml/pkg/errors"
)

// Handler runs one operation with arguments that already passed schema validation.
type Handler func(ctx context.Context, args json.RawMessage) (Response, error)

// Operation is one callable entry of the registry.
type Operation struct {
	Name        string
	Description string
	Parameters  json.RawMessage
	Handler     Handler

	schema *gojsonschema.Schema
}

// Definition is the manifest entry an agent uses to discover an operation.
type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Registry maps operation names to operations. It is immutable after NewRegistry.
type Registry struct {
	ops   map[string]*Operation
	order []string
}

// NewRegistry validates ops and indexes them by name. Names must be non-empty and
// unique, every operation needs a handler and its parameter schema must compile.
func NewRegistry(ops ...Operation) (*Registry, error) {
	r := &Registry{ops: make(map[string]*Operation, len(ops))}
	for i := range ops {
		op := ops[i]
		name := strings.TrimSpace(op.Name)
		switch {
		case name == "" || name != op.Name:
			return nil, errors.NewInvalidArgumentError("operation.name", "must be non-empty without surrounding spaces", op.Name)
		case r.ops[name] != nil:
			return nil, errors.NewInvalidArgumentError("operation.name", "duplicate operation", name)
		case op.Handler == nil:
			return nil, errors.NewInvalidArgumentError(name+".handler", "handler is required", nil)
		}
		if len(op.Parameters) == 0 {
			op.Parameters = json.RawMessage(`{"type":"object","additionalProperties":false}`)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(op.Parameters))
		if err != nil {
			return nil, errors.NewInvalidArgumentError(name+".parameters", "schema does not compile: "+err.Error(), string(op.Parameters))
		}
		op.schema = schema
		r.ops[name] = &op
		r.order = append(r.order, name)
	}
	return r, nil
}

// Lookup returns the operation registered under name.
func (r *Registry) Lookup(name string) (*Operation, bool) {
	op, ok := r.ops[name]
	return op, ok
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Definitions returns the manifest in registration order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		op := r.ops[name]
		out = append(out, Definition{Name: op.Name, Description: op.Description, Parameters: op.Parameters})
	}
	return out
}

// validate checks args against the operation schema. Empty args mean {}.
func (op *Operation) validate(args json.RawMessage) (json.RawMessage, error) {
	if len(strings.TrimSpace(string(args))) == 0 || string(args) == "null" {
		args = json.RawMessage(`{}`)
	}
	result, err := op.schema.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return nil, errors.NewInvalidArgumentError("arguments", "not valid JSON: "+err.Error(), string(args))
	}
	if result.Valid() {
		return args, nil
	}

	violations := result.Errors()
	sort.SliceStable(violations, func(i, j int) bool { return violations[i].Field() < violations[j].Field() })
	first := violations[0]
	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.String()
	}
	return nil, errors.NewInvalidArgumentError(first.Field(), strings.Join(msgs, "; "), first.Value())
}
