// Package strut provides the public APIs for the Strut framework.
//
// Controllers and route handlers are declared with explicit registration
// calls during application wiring. Build compiles those declarations into an
// Echo router with parameter binding, schema validation, middleware
// composition and introspection.
package strut

import (
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
)

// HandlerFunc is the signature for route handlers. args holds the values
// produced by the parameter binder, indexed by argument position. Position 0
// is always the request context; positions without a binding also receive
// the request context.
type HandlerFunc func(c echo.Context, args []any) (any, error)

// MiddlewareFunc is the middleware signature accepted at every level
// (application, controller, route). It is Echo's own middleware type so
// existing Echo middleware can be attached directly.
type MiddlewareFunc = echo.MiddlewareFunc

// MethodAll registers a route for every HTTP method.
const MethodAll = "ALL"

// ParamSource identifies where a bound argument's raw value comes from.
type ParamSource int

const (
	// SourceBody binds the decoded JSON request body.
	SourceBody ParamSource = iota

	// SourceQuery binds the entire query string as an object.
	SourceQuery

	// SourceParams binds all path parameters as an object.
	SourceParams

	// SourceHeaders binds all request headers as an object.
	SourceHeaders

	// SourceQuerySingle binds a single named query parameter.
	SourceQuerySingle

	// SourceParamSingle binds a single named path parameter.
	SourceParamSingle

	// SourceHeaderSingle binds a single named header value.
	SourceHeaderSingle
)

// Location returns the request location reported in validation failures.
func (s ParamSource) Location() string {
	switch s {
	case SourceBody:
		return "body"
	case SourceQuery, SourceQuerySingle:
		return "query"
	case SourceParams, SourceParamSingle:
		return "params"
	case SourceHeaders, SourceHeaderSingle:
		return "headers"
	default:
		return "unknown"
	}
}

// Single reports whether the source extracts one named value rather than a
// whole mapping.
func (s ParamSource) Single() bool {
	switch s {
	case SourceQuerySingle, SourceParamSingle, SourceHeaderSingle:
		return true
	default:
		return false
	}
}

// ParamBinding maps one handler argument position to a request-derived value
// and its optional validator.
type ParamBinding struct {
	// ArgIndex is the handler argument position the bound value is placed at.
	ArgIndex int

	// Source is where the raw value is extracted from.
	Source ParamSource

	// Name is the parameter name. Required for Single sources, ignored for
	// whole-mapping sources.
	Name string

	// Schema validates (and for Single sources, coerces) the raw value.
	// A nil schema binds the raw value unvalidated.
	Schema *openapi3.Schema
}

// ValidationSchemas holds the per-section schemas validated before a handler
// is invoked. Nil sections are skipped.
type ValidationSchemas struct {
	Body    *openapi3.Schema
	Query   *openapi3.Schema
	Headers *openapi3.Schema
}
