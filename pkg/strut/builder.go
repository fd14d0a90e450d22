package strut

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// ControllerBuilder is the fluent registration API over the raw registry
// operations. Builders are used once, during application wiring; errors at
// that stage are programmer errors, so the chaining methods panic instead of
// returning them. Use the Registry methods directly when an error value is
// preferred.
type ControllerBuilder struct {
	registry *Registry
	name     string
}

// NewController registers a controller on the default registry and returns
// a builder for declaring its routes.
func NewController(name, basePath string, middlewares ...MiddlewareFunc) (*ControllerBuilder, error) {
	return DefaultRegistry.NewController(name, basePath, middlewares...)
}

// MustController is like NewController but panics on registration failure.
func MustController(name, basePath string, middlewares ...MiddlewareFunc) *ControllerBuilder {
	builder, err := NewController(name, basePath, middlewares...)
	if err != nil {
		panic(err)
	}
	return builder
}

// NewController registers a controller on this registry and returns a
// builder for declaring its routes.
func (r *Registry) NewController(name, basePath string, middlewares ...MiddlewareFunc) (*ControllerBuilder, error) {
	if _, err := r.RegisterController(name, basePath, middlewares...); err != nil {
		return nil, err
	}
	return &ControllerBuilder{registry: r, name: name}, nil
}

// routeSpec accumulates the per-route options before they are applied
// through the registry operations.
type routeSpec struct {
	statusCode  int
	middlewares []MiddlewareFunc
	schemas     ValidationSchemas
	bindings    []ParamBinding
}

// RouteOption configures a single route declaration.
type RouteOption func(*routeSpec)

// WithStatus sets the status code applied to plain handler return values
// (default 200).
func WithStatus(code int) RouteOption {
	return func(spec *routeSpec) {
		spec.statusCode = code
	}
}

// Use attaches route-level middlewares, run after controller middlewares in
// declaration order.
func Use(middlewares ...MiddlewareFunc) RouteOption {
	return func(spec *routeSpec) {
		spec.middlewares = append(spec.middlewares, middlewares...)
	}
}

// ValidateBody validates the JSON request body against a schema without
// binding it to an argument.
func ValidateBody(schema *openapi3.Schema) RouteOption {
	return func(spec *routeSpec) {
		spec.schemas.Body = schema
	}
}

// ValidateQuery validates the query-string object against a schema without
// binding it to an argument.
func ValidateQuery(schema *openapi3.Schema) RouteOption {
	return func(spec *routeSpec) {
		spec.schemas.Query = schema
	}
}

// ValidateHeaders validates the request-header object against a schema
// without binding it to an argument.
func ValidateHeaders(schema *openapi3.Schema) RouteOption {
	return func(spec *routeSpec) {
		spec.schemas.Headers = schema
	}
}

// BindBody binds the decoded JSON request body to the given argument
// position and records the schema for validation and introspection.
func BindBody(argIndex int, schema *openapi3.Schema) RouteOption {
	return func(spec *routeSpec) {
		spec.schemas.Body = schema
		spec.bindings = append(spec.bindings, ParamBinding{
			ArgIndex: argIndex,
			Source:   SourceBody,
			Schema:   schema,
		})
	}
}

// BindQuery binds the entire query-string object to the given argument
// position. A nil schema binds it unvalidated.
func BindQuery(argIndex int, schema *openapi3.Schema) RouteOption {
	return func(spec *routeSpec) {
		if schema != nil {
			spec.schemas.Query = schema
		}
		spec.bindings = append(spec.bindings, ParamBinding{
			ArgIndex: argIndex,
			Source:   SourceQuery,
			Schema:   schema,
		})
	}
}

// BindParams binds all path parameters as an object to the given argument
// position. A nil schema binds them unvalidated.
func BindParams(argIndex int, schema *openapi3.Schema) RouteOption {
	return func(spec *routeSpec) {
		spec.bindings = append(spec.bindings, ParamBinding{
			ArgIndex: argIndex,
			Source:   SourceParams,
			Schema:   schema,
		})
	}
}

// BindHeaders binds the request-header object to the given argument
// position. Header names are lower-cased keys. A nil schema binds them
// unvalidated.
func BindHeaders(argIndex int, schema *openapi3.Schema) RouteOption {
	return func(spec *routeSpec) {
		if schema != nil {
			spec.schemas.Headers = schema
		}
		spec.bindings = append(spec.bindings, ParamBinding{
			ArgIndex: argIndex,
			Source:   SourceHeaders,
			Schema:   schema,
		})
	}
}

// BindQueryParam binds a single named query parameter, coerced per the
// schema's type.
func BindQueryParam(argIndex int, name string, schema *openapi3.Schema) RouteOption {
	return func(spec *routeSpec) {
		spec.bindings = append(spec.bindings, ParamBinding{
			ArgIndex: argIndex,
			Source:   SourceQuerySingle,
			Name:     name,
			Schema:   schema,
		})
	}
}

// BindPathParam binds a single named path parameter, coerced per the
// schema's type.
func BindPathParam(argIndex int, name string, schema *openapi3.Schema) RouteOption {
	return func(spec *routeSpec) {
		spec.bindings = append(spec.bindings, ParamBinding{
			ArgIndex: argIndex,
			Source:   SourceParamSingle,
			Name:     name,
			Schema:   schema,
		})
	}
}

// BindHeader binds a single named header value, coerced per the schema's
// type.
func BindHeader(argIndex int, name string, schema *openapi3.Schema) RouteOption {
	return func(spec *routeSpec) {
		spec.bindings = append(spec.bindings, ParamBinding{
			ArgIndex: argIndex,
			Source:   SourceHeaderSingle,
			Name:     name,
			Schema:   schema,
		})
	}
}

// Route declares a route method on the controller. The method name must be
// unique within the controller; it shows up in introspection output and
// error messages.
func (b *ControllerBuilder) Route(httpMethod, path, method string, handler HandlerFunc, opts ...RouteOption) *ControllerBuilder {
	spec := &routeSpec{}
	for _, opt := range opts {
		opt(spec)
	}

	if _, err := b.registry.RegisterMethod(b.name, method, httpMethod, path, handler, spec.middlewares, spec.statusCode); err != nil {
		panic(err)
	}
	if err := b.registry.RegisterValidation(b.name, method, spec.schemas); err != nil {
		panic(err)
	}
	for _, binding := range spec.bindings {
		if err := b.registry.RegisterParamBinding(b.name, method, binding); err != nil {
			panic(err)
		}
	}
	return b
}

// GET declares a GET route
func (b *ControllerBuilder) GET(path, method string, handler HandlerFunc, opts ...RouteOption) *ControllerBuilder {
	return b.Route(http.MethodGet, path, method, handler, opts...)
}

// POST declares a POST route
func (b *ControllerBuilder) POST(path, method string, handler HandlerFunc, opts ...RouteOption) *ControllerBuilder {
	return b.Route(http.MethodPost, path, method, handler, opts...)
}

// PUT declares a PUT route
func (b *ControllerBuilder) PUT(path, method string, handler HandlerFunc, opts ...RouteOption) *ControllerBuilder {
	return b.Route(http.MethodPut, path, method, handler, opts...)
}

// PATCH declares a PATCH route
func (b *ControllerBuilder) PATCH(path, method string, handler HandlerFunc, opts ...RouteOption) *ControllerBuilder {
	return b.Route(http.MethodPatch, path, method, handler, opts...)
}

// DELETE declares a DELETE route
func (b *ControllerBuilder) DELETE(path, method string, handler HandlerFunc, opts ...RouteOption) *ControllerBuilder {
	return b.Route(http.MethodDelete, path, method, handler, opts...)
}

// OPTIONS declares an OPTIONS route
func (b *ControllerBuilder) OPTIONS(path, method string, handler HandlerFunc, opts ...RouteOption) *ControllerBuilder {
	return b.Route(http.MethodOptions, path, method, handler, opts...)
}

// ALL declares a route matching every HTTP method
func (b *ControllerBuilder) ALL(path, method string, handler HandlerFunc, opts ...RouteOption) *ControllerBuilder {
	return b.Route(MethodAll, path, method, handler, opts...)
}
