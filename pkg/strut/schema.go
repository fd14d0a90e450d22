package strut

import (
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/uuid"
)

// Schema construction helpers. Thin wrappers over openapi3 so registration
// call sites read declaratively.

// ObjectSchema creates an object schema from property name/schema pairs.
func ObjectSchema(properties map[string]*openapi3.Schema) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	for name, property := range properties {
		schema = schema.WithProperty(name, property)
	}
	return schema
}

// StringSchema creates a plain string schema
func StringSchema() *openapi3.Schema {
	return openapi3.NewStringSchema()
}

// NumberSchema creates a number schema. Single-value bindings coerce the raw
// string with strconv before validation.
func NumberSchema() *openapi3.Schema {
	return openapi3.NewFloat64Schema()
}

// IntegerSchema creates an integer schema. Single-value bindings coerce the
// raw string with strconv before validation.
func IntegerSchema() *openapi3.Schema {
	return openapi3.NewIntegerSchema()
}

// BooleanSchema creates a boolean schema
func BooleanSchema() *openapi3.Schema {
	return openapi3.NewBoolSchema()
}

// ArraySchema creates an array schema with the given item schema
func ArraySchema(items *openapi3.Schema) *openapi3.Schema {
	schema := openapi3.NewArraySchema()
	schema.Items = items.NewRef()
	return schema
}

// UUIDSchema creates a string schema whose single-value bindings are parsed
// into uuid.UUID values.
func UUIDSchema() *openapi3.Schema {
	return openapi3.NewStringSchema().WithFormat("uuid")
}

// emailPattern is intentionally loose; it rejects the obvious garbage and
// leaves the rest to the mail server.
const emailPattern = `^[^@\s]+@[^@\s]+\.[^@\s]+$`

// EmailSchema creates a string schema that validates an email address shape
func EmailSchema() *openapi3.Schema {
	return openapi3.NewStringSchema().WithFormat("email").WithPattern(emailPattern)
}

// validateValue runs a value through a schema and converts the outcome into
// validation issues. A nil schema accepts everything.
func validateValue(schema *openapi3.Schema, value any) []ValidationIssue {
	if schema == nil {
		return nil
	}
	err := schema.VisitJSON(value, openapi3.MultiErrors())
	if err == nil {
		return nil
	}
	return issuesFromError(err)
}

func issuesFromError(err error) []ValidationIssue {
	if multi, ok := err.(openapi3.MultiError); ok {
		var issues []ValidationIssue
		for _, sub := range multi {
			issues = append(issues, issuesFromError(sub)...)
		}
		return issues
	}
	if schemaErr, ok := err.(*openapi3.SchemaError); ok {
		issue := ValidationIssue{Message: schemaErr.Reason}
		if issue.Message == "" {
			issue.Message = schemaErr.Error()
		}
		if pointer := schemaErr.JSONPointer(); len(pointer) > 0 {
			issue.Path = joinPointer(pointer)
		}
		return []ValidationIssue{issue}
	}
	return []ValidationIssue{{Message: err.Error()}}
}

func joinPointer(pointer []string) string {
	path := ""
	for i, part := range pointer {
		if i > 0 {
			path += "."
		}
		path += part
	}
	return path
}

// coerceSingle converts the raw string of a single-value binding into the Go
// value implied by the schema's type, then validates it. Path, query and
// header values always arrive as strings; without coercion a numeric schema
// could never match.
func coerceSingle(schema *openapi3.Schema, raw string) (any, []ValidationIssue) {
	if schema == nil {
		return raw, nil
	}

	types := schema.Type
	switch {
	case types.Is(openapi3.TypeInteger):
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, []ValidationIssue{{Message: strconv.Quote(raw) + " is not a valid integer"}}
		}
		if issues := validateValue(schema, float64(n)); issues != nil {
			return nil, issues
		}
		return n, nil

	case types.Is(openapi3.TypeNumber):
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, []ValidationIssue{{Message: strconv.Quote(raw) + " is not a valid number"}}
		}
		if issues := validateValue(schema, f); issues != nil {
			return nil, issues
		}
		return f, nil

	case types.Is(openapi3.TypeBoolean):
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, []ValidationIssue{{Message: strconv.Quote(raw) + " is not a valid boolean"}}
		}
		if issues := validateValue(schema, b); issues != nil {
			return nil, issues
		}
		return b, nil

	case types.Is(openapi3.TypeString) && schema.Format == "uuid":
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, []ValidationIssue{{Message: strconv.Quote(raw) + " is not a valid UUID"}}
		}
		return id, nil

	default:
		if issues := validateValue(schema, raw); issues != nil {
			return nil, issues
		}
		return raw, nil
	}
}

// schemaKind maps a schema to the introspection type enum: string, number,
// boolean, array or object. Integers report as number.
func schemaKind(schema *openapi3.Schema) string {
	if schema == nil || schema.Type == nil {
		return "string"
	}
	types := schema.Type
	switch {
	case types.Is(openapi3.TypeObject):
		return "object"
	case types.Is(openapi3.TypeArray):
		return "array"
	case types.Is(openapi3.TypeBoolean):
		return "boolean"
	case types.Is(openapi3.TypeNumber), types.Is(openapi3.TypeInteger):
		return "number"
	default:
		return "string"
	}
}
