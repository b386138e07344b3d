// Package schema embeds the swarmstat.yml JSON Schema and validates
// configuration documents against it.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed swarmstat.embedded.schema.json
var embedded []byte

const resourceName = "swarmstat.schema.json"

// Embedded returns the raw embedded schema document.
func Embedded() []byte {
	return embedded
}

// Validator checks documents against the compiled embedded schema.
type Validator struct {
	schema *jsonschema.Schema
}

var compiled = sync.OnceValues(func() (*Validator, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(resourceName, bytes.NewReader(embedded)); err != nil {
		return nil, fmt.Errorf("load embedded schema: %w", err)
	}
	s, err := c.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("compile embedded schema: %w", err)
	}
	return &Validator{schema: s}, nil
})

// NewValidator returns the validator for the embedded schema. The schema
// is compiled once per process.
func NewValidator() (*Validator, error) {
	return compiled()
}

// Validate checks v with the shared validator.
func Validate(v any) error {
	val, err := NewValidator()
	if err != nil {
		return err
	}
	return val.Validate(v)
}

// Validate checks doc, which may be any value that marshals to JSON.
// Violations are reported one per line with their instance location.
func (v *Validator) Validate(doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}

	err = v.schema.Validate(generic)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	var lines []string
	for _, leaf := range leaves(ve) {
		loc := leaf.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", loc, leaf.Message))
	}
	return fmt.Errorf("schema validation failed:\n%s", strings.Join(lines, "\n"))
}

// leaves returns the innermost causes, which carry the useful messages.
func leaves(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}
