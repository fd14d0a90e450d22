package strut

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/labstack/echo/v4"
)

// argsContextKey is where the validation middleware stores the bound
// argument list for the terminal handler.
const argsContextKey = "strut:args"

// BoundArgs returns the argument list produced by the parameter binder for
// the current request. Before binding has run it returns a single-element
// list holding the context.
func BoundArgs(c echo.Context) []any {
	if args, ok := c.Get(argsContextKey).([]any); ok {
		return args
	}
	return []any{c}
}

// bindArguments produces the ordered argument list for a handler call, or
// the first validation failure in argument-index order. Position 0 and any
// position without a binding receive the request context.
func bindArguments(c echo.Context, md *MethodDescriptor) ([]any, *ValidationError) {
	bindings := md.Bindings()

	argCount := 1
	if n := len(bindings); n > 0 {
		if last := bindings[n-1].ArgIndex; last+1 > argCount {
			argCount = last + 1
		}
	}

	args := make([]any, argCount)
	for i := range args {
		args[i] = c
	}

	var bodyDecoded bool
	var bodyValue any

	for _, binding := range bindings {
		var value any
		var issues []ValidationIssue

		switch binding.Source {
		case SourceBody:
			if !bodyDecoded {
				var verr *ValidationError
				bodyValue, verr = decodeBody(c)
				if verr != nil {
					return nil, verr
				}
				bodyDecoded = true
			}
			value = bodyValue
			issues = validateValue(binding.Schema, value)

		case SourceQuery:
			value = queryObject(c)
			issues = validateValue(binding.Schema, value)

		case SourceParams:
			value = paramsObject(c)
			issues = validateValue(binding.Schema, value)

		case SourceHeaders:
			value = headersObject(c)
			issues = validateValue(binding.Schema, value)

		case SourceQuerySingle:
			value, issues = coerceSingle(binding.Schema, c.QueryParam(binding.Name))

		case SourceParamSingle:
			value, issues = coerceSingle(binding.Schema, c.Param(binding.Name))

		case SourceHeaderSingle:
			value, issues = coerceSingle(binding.Schema, c.Request().Header.Get(binding.Name))
		}

		if issues != nil {
			return nil, &ValidationError{
				Location: binding.Source.Location(),
				Name:     binding.Name,
				Issues:   issues,
			}
		}
		args[binding.ArgIndex] = value
	}

	// Section schemas with no binding of the same source still gate the
	// request.
	if verr := validateUnboundSections(c, md, bindings, bodyDecoded, bodyValue); verr != nil {
		return nil, verr
	}

	return args, nil
}

func validateUnboundSections(c echo.Context, md *MethodDescriptor, bindings []ParamBinding, bodyDecoded bool, bodyValue any) *ValidationError {
	// A schema-less binding only delivers the raw value; it does not cover
	// the section, so a declared section schema still gates the request.
	bound := map[ParamSource]bool{}
	for _, binding := range bindings {
		if binding.Schema != nil {
			bound[binding.Source] = true
		}
	}

	if md.Schemas.Body != nil && !bound[SourceBody] {
		if !bodyDecoded {
			var verr *ValidationError
			bodyValue, verr = decodeBody(c)
			if verr != nil {
				return verr
			}
		}
		if issues := validateValue(md.Schemas.Body, bodyValue); issues != nil {
			return &ValidationError{Location: "body", Issues: issues}
		}
	}

	if md.Schemas.Query != nil && !bound[SourceQuery] {
		if issues := validateValue(md.Schemas.Query, queryObject(c)); issues != nil {
			return &ValidationError{Location: "query", Issues: issues}
		}
	}

	if md.Schemas.Headers != nil && !bound[SourceHeaders] {
		if issues := validateValue(md.Schemas.Headers, headersObject(c)); issues != nil {
			return &ValidationError{Location: "headers", Issues: issues}
		}
	}

	return nil
}

// decodeBody reads and JSON-decodes the request body. An empty body decodes
// to nil so object schemas report a proper type mismatch instead of a JSON
// syntax error.
func decodeBody(c echo.Context) (any, *ValidationError) {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, &ValidationError{
			Location: "body",
			Issues:   []ValidationIssue{{Message: "unable to read request body"}},
		}
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, &ValidationError{
			Location: "body",
			Issues:   []ValidationIssue{{Message: "invalid JSON in request body"}},
		}
	}
	return value, nil
}

// queryObject flattens the query string into an object, keeping the first
// value for repeated keys.
func queryObject(c echo.Context) map[string]any {
	object := make(map[string]any)
	for key, values := range c.QueryParams() {
		if len(values) > 0 {
			object[key] = values[0]
		}
	}
	return object
}

// paramsObject collects all path parameters into an object.
func paramsObject(c echo.Context) map[string]any {
	object := make(map[string]any)
	names := c.ParamNames()
	values := c.ParamValues()
	for i, name := range names {
		if i < len(values) {
			object[name] = values[i]
		}
	}
	return object
}

// headersObject flattens request headers into an object with lower-cased
// keys, keeping the first value for repeated headers.
func headersObject(c echo.Context) map[string]any {
	object := make(map[string]any)
	for key, values := range c.Request().Header {
		if len(values) > 0 {
			object[strings.ToLower(key)] = values[0]
		}
	}
	return object
}
