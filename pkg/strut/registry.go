package strut

import (
	"fmt"
	"sort"
)

// MethodDescriptor holds the declarative markers collected for one route
// method. Descriptors are created during application wiring and read-only
// afterwards.
type MethodDescriptor struct {
	// Name is the method name, unique within its controller
	Name string

	// HTTPMethod is GET, POST, PUT, PATCH, DELETE, OPTIONS or ALL
	HTTPMethod string

	// Path is the route path relative to the controller base path; may be empty
	Path string

	// Handler is invoked with the bound argument list once validation passes
	Handler HandlerFunc

	// Middlewares run after controller middlewares, in declaration order
	Middlewares []MiddlewareFunc

	// StatusCode overrides the default 200 applied to plain return values
	StatusCode int

	// Schemas are the per-section validation schemas
	Schemas ValidationSchemas

	bindings map[int]ParamBinding
}

// Bindings returns the method's parameter bindings in ascending argument
// index order.
func (m *MethodDescriptor) Bindings() []ParamBinding {
	indexes := make([]int, 0, len(m.bindings))
	for index := range m.bindings {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)

	ordered := make([]ParamBinding, 0, len(indexes))
	for _, index := range indexes {
		ordered = append(ordered, m.bindings[index])
	}
	return ordered
}

// ControllerDescriptor groups the route methods declared under one base path.
type ControllerDescriptor struct {
	// Name identifies the controller; duplicate names are a registration error
	Name string

	// BasePath is prepended to every method path
	BasePath string

	// Middlewares run before route middlewares, in declaration order
	Middlewares []MiddlewareFunc

	methods []*MethodDescriptor
	byName  map[string]*MethodDescriptor
}

// Methods returns the controller's method descriptors in registration order.
func (cd *ControllerDescriptor) Methods() []*MethodDescriptor {
	return append([]*MethodDescriptor(nil), cd.methods...)
}

// Method returns a method descriptor by name.
func (cd *ControllerDescriptor) Method(name string) (*MethodDescriptor, bool) {
	m, ok := cd.byName[name]
	return m, ok
}

// Registry is the process-wide store of declarative markers. It is populated
// during application wiring, before the entry point is installed, and frozen
// afterwards; request handling never mutates it.
type Registry struct {
	controllers []*ControllerDescriptor
	byName      map[string]*ControllerDescriptor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*ControllerDescriptor),
	}
}

// DefaultRegistry is the global registry used by the package-level
// registration helpers.
var DefaultRegistry = NewRegistry()

// Controllers returns all registered controllers in registration order.
// Registration order is route-registration order: with overlapping patterns
// the first registered route wins, consistent with Echo's own precedence.
func (r *Registry) Controllers() []*ControllerDescriptor {
	return append([]*ControllerDescriptor(nil), r.controllers...)
}

// Controller returns a controller descriptor by name.
func (r *Registry) Controller(name string) (*ControllerDescriptor, bool) {
	cd, ok := r.byName[name]
	return cd, ok
}

// RegisterController records a controller with its base path and
// middlewares. Registering the same name twice fails with
// ErrDuplicateRegistration.
func (r *Registry) RegisterController(name, basePath string, middlewares ...MiddlewareFunc) (*ControllerDescriptor, error) {
	if _, exists := r.byName[name]; exists {
		return nil, fmt.Errorf("%w: controller %q", ErrDuplicateRegistration, name)
	}

	cd := &ControllerDescriptor{
		Name:        name,
		BasePath:    basePath,
		Middlewares: append([]MiddlewareFunc(nil), middlewares...),
		byName:      make(map[string]*MethodDescriptor),
	}
	r.controllers = append(r.controllers, cd)
	r.byName[name] = cd
	return cd, nil
}

// RegisterMethod records a route method on a previously registered
// controller. Methods are kept in registration order.
func (r *Registry) RegisterMethod(controller, method, httpMethod, path string, handler HandlerFunc, middlewares []MiddlewareFunc, statusCode int) (*MethodDescriptor, error) {
	cd, ok := r.byName[controller]
	if !ok {
		return nil, fmt.Errorf("unknown controller %q", controller)
	}
	if _, exists := cd.byName[method]; exists {
		return nil, fmt.Errorf("%w: method %q on controller %q", ErrDuplicateRegistration, method, controller)
	}
	if handler == nil {
		return nil, fmt.Errorf("nil handler for %s.%s", controller, method)
	}

	md := &MethodDescriptor{
		Name:        method,
		HTTPMethod:  httpMethod,
		Path:        path,
		Handler:     handler,
		Middlewares: append([]MiddlewareFunc(nil), middlewares...),
		StatusCode:  statusCode,
		bindings:    make(map[int]ParamBinding),
	}
	cd.methods = append(cd.methods, md)
	cd.byName[method] = md
	return md, nil
}

// RegisterValidation attaches per-section schemas to a method. Calls are
// additive: only non-nil sections overwrite previously registered ones.
func (r *Registry) RegisterValidation(controller, method string, schemas ValidationSchemas) error {
	md, err := r.method(controller, method)
	if err != nil {
		return err
	}
	if schemas.Body != nil {
		md.Schemas.Body = schemas.Body
	}
	if schemas.Query != nil {
		md.Schemas.Query = schemas.Query
	}
	if schemas.Headers != nil {
		md.Schemas.Headers = schemas.Headers
	}
	return nil
}

// RegisterParamBinding attaches a parameter binding to a method. Bindings
// accumulate keyed by argument index; a later call for the same index
// overwrites the earlier one, so markers may be composed in any order.
func (r *Registry) RegisterParamBinding(controller, method string, binding ParamBinding) error {
	md, err := r.method(controller, method)
	if err != nil {
		return err
	}
	if binding.ArgIndex <= 0 {
		return fmt.Errorf("invalid argument index %d for %s.%s: position 0 is the request context", binding.ArgIndex, controller, method)
	}
	if binding.Source.Single() && binding.Name == "" {
		return fmt.Errorf("binding for %s.%s argument %d requires a name", controller, method, binding.ArgIndex)
	}
	md.bindings[binding.ArgIndex] = binding
	return nil
}

func (r *Registry) method(controller, method string) (*MethodDescriptor, error) {
	cd, ok := r.byName[controller]
	if !ok {
		return nil, fmt.Errorf("unknown controller %q", controller)
	}
	md, ok := cd.byName[method]
	if !ok {
		return nil, fmt.Errorf("unknown method %q on controller %q", method, controller)
	}
	return md, nil
}
