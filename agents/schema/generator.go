/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package schema

import (
	"errors"
	"slices"

	"github.com/invopop/jsonschema"
)

// Generator wraps jsonschema.Reflector with the defaults used for tool
// argument structs: inline definitions, required-ness from tags.
type Generator struct {
	reflector jsonschema.Reflector
}

// NewGenerator constructs a generator for tool argument schemas.
func NewGenerator() *Generator {
	return &Generator{
		reflector: jsonschema.Reflector{
			RequiredFromJSONSchemaTags: true,
			ExpandedStruct:             true,
			DoNotReference:             true,
		},
	}
}

// Reflect returns the JSON schema for the provided value.
func (g *Generator) Reflect(v any) *jsonschema.Schema {
	return g.reflector.Reflect(v)
}

// Reflect derives the JSON schema for v using a default generator.
func Reflect(v any) *jsonschema.Schema {
	return NewGenerator().Reflect(v)
}

// ReflectType allocates a zero value of T and reflects it to a schema.
func ReflectType[T any]() *jsonschema.Schema {
	var zero T
	return Reflect(&zero)
}

// Property is one top-level field of an object schema, flattened for tool
// definitions.
type Property struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// Properties flattens the top-level properties of an object schema in
// declaration order.
func Properties(s *jsonschema.Schema) ([]Property, error) {
	if s == nil {
		return nil, errors.New("nil schema")
	}
	if s.Type != "" && s.Type != "object" {
		return nil, errors.New("schema is not an object: " + s.Type)
	}
	if s.Properties == nil {
		return nil, nil
	}

	out := make([]Property, 0, s.Properties.Len())
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		typ := pair.Value.Type
		if typ == "" {
			// Unconstrained fields (e.g. map[string]any) are exposed as objects.
			typ = "object"
		}
		out = append(out, Property{
			Name:        pair.Key,
			Type:        typ,
			Description: pair.Value.Description,
			Required:    slices.Contains(s.Required, pair.Key),
		})
	}
	return out, nil
}

// PropertiesFor reflects T and flattens its top-level properties.
func PropertiesFor[T any]() ([]Property, error) {
	return Properties(ReflectType[T]())
}
