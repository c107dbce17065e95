package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	compiler "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/neon-files/preview-sdk/domain/errors"
)

const schemaURL = "mem://payload.schema.json"

// Validator checks JSON documents against one compiled schema.
type Validator struct {
	schema *compiler.Schema
	name   string
}

// NewValidator compiles schemaJSON. name identifies the payload in errors.
func NewValidator(name string, schemaJSON []byte) (*Validator, error) {
	c := compiler.NewCompiler()
	c.Draft = compiler.Draft2020
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, &errors.SchemaError{Type: name, Err: fmt.Errorf("add resource: %w", err)}
	}
	sch, err := c.Compile(schemaURL)
	if err != nil {
		return nil, &errors.SchemaError{Type: name, Err: fmt.Errorf("compile: %w", err)}
	}
	return &Validator{schema: sch, name: name}, nil
}

// ValidatorFor generates the schema of v and compiles it.
func ValidatorFor(name string, v interface{}) (*Validator, error) {
	schemaJSON, err := GenerateSchema(v)
	if err != nil {
		return nil, &errors.SchemaError{Type: name, Err: err}
	}
	return NewValidator(name, schemaJSON)
}

// Validate checks that document is JSON matching the schema.
func (v *Validator) Validate(document []byte) error {
	dec := json.NewDecoder(bytes.NewReader(document))
	dec.UseNumber()

	var obj interface{}
	if err := dec.Decode(&obj); err != nil {
		return &errors.SchemaError{Type: v.name, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if err := v.schema.Validate(obj); err != nil {
		return &errors.SchemaError{Type: v.name, Err: err}
	}
	return nil
}
