package strut

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// SchemaField is one flattened schema entry in the introspection document.
type SchemaField struct {
	// Key is the property or parameter name
	Key string `json:"key"`

	// Type is the primitive kind: string, number, boolean, array or object
	Type string `json:"type"`

	// Value is the JSON-serialized schema fragment
	Value string `json:"value"`
}

// RouteSchema groups the flattened schemas of one route by request section.
type RouteSchema struct {
	Headers []SchemaField `json:"headers,omitempty"`
	Query   []SchemaField `json:"query,omitempty"`
	Params  []SchemaField `json:"params,omitempty"`
	Body    []SchemaField `json:"body,omitempty"`
}

// IntrospectionObject describes one compiled route for external tooling.
// Objects are regenerated fresh on each build and never mutated.
type IntrospectionObject struct {
	Name   string      `json:"name"`
	Method string      `json:"method"`
	Path   string      `json:"path"`
	Schema RouteSchema `json:"schema"`
}

// BuildIntrospection converts the registry into a description of every
// route. Controllers and methods are walked in the same order the compiler
// uses, so introspected paths exactly match live routes. The output is
// deterministic: building twice on an unchanged registry serializes
// byte-identically.
func BuildIntrospection(registry *Registry, basePath string) []IntrospectionObject {
	var objects []IntrospectionObject

	for _, controller := range registry.Controllers() {
		for _, method := range controller.Methods() {
			fullPath := JoinPaths(basePath, controller.BasePath, method.Path)
			objects = append(objects, IntrospectionObject{
				Name:   routeName(method.HTTPMethod, fullPath),
				Method: method.HTTPMethod,
				Path:   fullPath,
				Schema: buildRouteSchema(method),
			})
		}
	}

	return objects
}

// routeName derives the introspection name for a route. The request-file
// generator turns it into a filename by replacing path separators with
// underscores.
func routeName(httpMethod, fullPath string) string {
	return strings.ToLower(httpMethod) + fullPath
}

func buildRouteSchema(method *MethodDescriptor) RouteSchema {
	bindings := method.Bindings()

	return RouteSchema{
		Headers: sectionFields(method.Schemas.Headers, bindings, SourceHeaderSingle),
		Query:   sectionFields(method.Schemas.Query, bindings, SourceQuerySingle),
		Params:  paramFields(bindings),
		Body:    bodyFields(method, bindings),
	}
}

// sectionFields flattens one request section. A declared section schema
// wins; otherwise each single-value binding of the section contributes one
// field, in argument-index order.
func sectionFields(schema *openapi3.Schema, bindings []ParamBinding, single ParamSource) []SchemaField {
	if schema != nil {
		return flattenSchema(schema, "")
	}

	var fields []SchemaField
	for _, binding := range bindings {
		if binding.Source == single {
			fields = append(fields, bindingField(binding))
		}
	}
	return fields
}

// paramFields describes path parameters. There is no section-level schema
// for them; the fields come from ParamSingle bindings, or from an object
// schema attached to a whole-params binding.
func paramFields(bindings []ParamBinding) []SchemaField {
	var fields []SchemaField
	for _, binding := range bindings {
		switch binding.Source {
		case SourceParamSingle:
			fields = append(fields, bindingField(binding))
		case SourceParams:
			if binding.Schema != nil {
				fields = append(fields, flattenSchema(binding.Schema, "")...)
			}
		}
	}
	return fields
}

func bodyFields(method *MethodDescriptor, bindings []ParamBinding) []SchemaField {
	if method.Schemas.Body != nil {
		return flattenSchema(method.Schemas.Body, "")
	}
	for _, binding := range bindings {
		if binding.Source == SourceBody && binding.Schema != nil {
			return flattenSchema(binding.Schema, binding.Name)
		}
	}
	return nil
}

func bindingField(binding ParamBinding) SchemaField {
	name := binding.Name
	if name == "" {
		name = "unknown"
	}
	return SchemaField{
		Key:   name,
		Type:  schemaKind(binding.Schema),
		Value: serializeSchema(binding.Schema),
	}
}

// flattenSchema turns a schema into an ordered field sequence. Object roots
// produce one field per declared property, sorted by name for deterministic
// output; any other root produces a single field named after the binding
// ("unknown" when absent).
func flattenSchema(schema *openapi3.Schema, fallbackName string) []SchemaField {
	if schema == nil {
		return nil
	}

	if schema.Type.Is(openapi3.TypeObject) && len(schema.Properties) > 0 {
		names := make([]string, 0, len(schema.Properties))
		for name := range schema.Properties {
			names = append(names, name)
		}
		sort.Strings(names)

		fields := make([]SchemaField, 0, len(names))
		for _, name := range names {
			property := schema.Properties[name].Value
			fields = append(fields, SchemaField{
				Key:   name,
				Type:  schemaKind(property),
				Value: serializeSchema(property),
			})
		}
		return fields
	}

	if fallbackName == "" {
		fallbackName = "unknown"
	}
	return []SchemaField{{
		Key:   fallbackName,
		Type:  schemaKind(schema),
		Value: serializeSchema(schema),
	}}
}

func serializeSchema(schema *openapi3.Schema) string {
	if schema == nil {
		return "{}"
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
