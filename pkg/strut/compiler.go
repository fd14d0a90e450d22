package strut

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// TopMiddleware is an application-level middleware scoped to the routes
// whose full path matches its pattern (see MatchPath). An empty pattern
// matches every route.
type TopMiddleware struct {
	Pattern    string
	Middleware MiddlewareFunc
}

// CompiledRoute is one router-ready (method, fullPath, chain) triple
// produced by the compiler.
type CompiledRoute struct {
	// Method is the HTTP method, or ALL
	Method string

	// Path is the fully resolved route path
	Path string

	// Controller and MethodName identify the declaration the route came from
	Controller string
	MethodName string

	// Middlewares is the assembled chain, outermost first
	Middlewares []MiddlewareFunc

	// Handler is the terminal handler wrapping the user handler
	Handler echo.HandlerFunc
}

// Compiler turns registry descriptors into compiled routes. Compilation is a
// pure transform: re-running it on an unchanged registry yields an identical
// set of registrations.
type Compiler struct {
	// BasePath is prepended to every controller base path
	BasePath string

	// TopMiddlewares are matched against each route's full path in
	// declaration order
	TopMiddlewares []TopMiddleware
}

// Compile resolves full paths and assembles middleware chains for every
// registered method. Two methods compiling to the same (method, path) pair
// fail with ErrRouteConflict; nothing is ever silently dropped or merged.
func (cp *Compiler) Compile(registry *Registry) ([]CompiledRoute, error) {
	var routes []CompiledRoute
	claimed := make(map[string]string)

	for _, controller := range registry.Controllers() {
		for _, method := range controller.Methods() {
			fullPath := JoinPaths(cp.BasePath, controller.BasePath, method.Path)

			key := method.HTTPMethod + " " + fullPath
			owner := controller.Name + "." + method.Name
			if previous, dup := claimed[key]; dup {
				return nil, fmt.Errorf("%w: %s declared by both %s and %s", ErrRouteConflict, key, previous, owner)
			}
			claimed[key] = owner

			routes = append(routes, CompiledRoute{
				Method:      method.HTTPMethod,
				Path:        fullPath,
				Controller:  controller.Name,
				MethodName:  method.Name,
				Middlewares: cp.assembleChain(fullPath, controller, method),
				Handler:     terminalHandler(method),
			})
		}
	}

	return routes, nil
}

// assembleChain builds the middleware chain for one route, outermost first:
// matching top middlewares, controller middlewares, route middlewares, then
// the synthesized validation middleware.
func (cp *Compiler) assembleChain(fullPath string, controller *ControllerDescriptor, method *MethodDescriptor) []MiddlewareFunc {
	var chain []MiddlewareFunc

	for _, top := range cp.TopMiddlewares {
		if top.Pattern == "" || MatchPath(top.Pattern, fullPath) {
			chain = append(chain, top.Middleware)
		}
	}
	chain = append(chain, controller.Middlewares...)
	chain = append(chain, method.Middlewares...)
	chain = append(chain, validationMiddleware(method))

	return chain
}

// Register attaches compiled routes to an Echo instance.
func (cp *Compiler) Register(e *echo.Echo, routes []CompiledRoute) {
	for _, route := range routes {
		if route.Method == MethodAll {
			e.Any(route.Path, route.Handler, route.Middlewares...)
			continue
		}
		e.Add(route.Method, route.Path, route.Handler, route.Middlewares...)
	}
}

// validationMiddleware runs the parameter binder before the handler. On
// failure the request short-circuits with a ValidationError and the handler
// is never invoked.
func validationMiddleware(method *MethodDescriptor) MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			args, verr := bindArguments(c, method)
			if verr != nil {
				return verr
			}
			c.Set(argsContextKey, args)
			return next(c)
		}
	}
}

// terminalHandler wraps the user handler so its return value becomes a JSON
// reply. A *Response return controls status and headers explicitly;
// otherwise the route's configured status (default 200) applies. Handlers
// that write the response themselves are left alone.
func terminalHandler(method *MethodDescriptor) echo.HandlerFunc {
	status := method.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	return func(c echo.Context) error {
		result, err := method.Handler(c, BoundArgs(c))
		if err != nil {
			return err
		}
		if c.Response().Committed {
			return nil
		}

		switch v := result.(type) {
		case *Response:
			return v.write(c)
		case nil:
			return c.NoContent(status)
		default:
			return c.JSON(status, v)
		}
	}
}
