package strut

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Config holds the assembler configuration.
type Config struct {
	// BasePath is prepended to every route path
	BasePath string

	// TopMiddlewares are application-level middlewares scoped by path
	// pattern, applied outermost in declaration order
	TopMiddlewares []TopMiddleware

	// OnError handles failures raised by middlewares or handlers that the
	// framework has no structured conversion for. It must write a response.
	OnError func(err error, c echo.Context)

	// NotFound handles requests no compiled route matches. Nil falls back to
	// a JSON 404.
	NotFound echo.HandlerFunc

	// EnableIntrospection exposes the route description document on GET
	// IntrospectionPath
	EnableIntrospection bool

	// IntrospectionPath defaults to /introspection
	IntrospectionPath string

	// Port is the port to listen on (default: 8080)
	Port string

	// Host is the host to bind to (default: "")
	Host string

	// EnableCORS enables CORS middleware
	EnableCORS bool

	// EnableLogger enables request logging middleware
	EnableLogger bool

	// EnableRecover enables panic recovery middleware
	EnableRecover bool

	// ShutdownTimeout is the timeout for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return &Config{
		IntrospectionPath: DefaultIntrospectionPath,
		Port:              port,
		EnableCORS:        true,
		EnableLogger:      true,
		EnableRecover:     true,
		ShutdownTimeout:   30 * time.Second,
	}
}

// DefaultIntrospectionPath is used when introspection is enabled without an
// explicit path.
const DefaultIntrospectionPath = "/introspection"

// App is the dispatchable application produced by Build. The compiled route
// table is read-only after the build step and safe to share across
// concurrent requests.
type App struct {
	echo          *echo.Echo
	config        *Config
	routes        []CompiledRoute
	introspection []IntrospectionObject
}

// Build compiles the registry into a servable application. Build-time
// failures (duplicate registrations, route conflicts, an introspection path
// colliding with a real route) are returned before any traffic is accepted.
func Build(config *Config, registry *Registry) (*App, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if registry == nil {
		registry = DefaultRegistry
	}

	compiler := &Compiler{
		BasePath:       config.BasePath,
		TopMiddlewares: config.TopMiddlewares,
	}
	routes, err := compiler.Compile(registry)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true

	if config.EnableRecover {
		e.Use(middleware.Recover())
	}
	if config.EnableLogger {
		e.Use(middleware.Logger())
	}
	if config.EnableCORS {
		e.Use(middleware.CORS())
	}

	app := &App{
		echo:   e,
		config: config,
		routes: routes,
	}
	e.HTTPErrorHandler = app.errorHandler

	if config.EnableIntrospection {
		path := config.IntrospectionPath
		if path == "" {
			path = DefaultIntrospectionPath
		}
		path = JoinPaths(path)

		for _, route := range routes {
			if route.Path == path && (route.Method == http.MethodGet || route.Method == MethodAll) {
				return nil, fmt.Errorf("%w: introspection path %s collides with %s.%s", ErrRouteConflict, path, route.Controller, route.MethodName)
			}
		}

		app.introspection = BuildIntrospection(registry, config.BasePath)
		e.GET(path, func(c echo.Context) error {
			return c.JSON(http.StatusOK, app.introspection)
		})
	}

	compiler.Register(e, routes)
	return app, nil
}

// Routes returns the compiled route table.
func (a *App) Routes() []CompiledRoute {
	return append([]CompiledRoute(nil), a.routes...)
}

// Introspection returns the route description document, or nil when
// introspection is disabled.
func (a *App) Introspection() []IntrospectionObject {
	return append([]IntrospectionObject(nil), a.introspection...)
}

// Echo returns the underlying Echo instance for advanced configuration
func (a *App) Echo() *echo.Echo {
	return a.echo
}

// ServeHTTP implements http.Handler with no environment or execution
// context attached.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.echo.ServeHTTP(w, r)
}

// Handle dispatches one request with opaque host values attached. env and
// exec are threaded to middlewares and handlers unmodified; read them back
// with Env and ExecContext.
func (a *App) Handle(w http.ResponseWriter, r *http.Request, env, exec any) {
	ctx := r.Context()
	if env != nil {
		ctx = context.WithValue(ctx, envContextKey{}, env)
	}
	if exec != nil {
		ctx = context.WithValue(ctx, execContextKey{}, exec)
	}
	a.echo.ServeHTTP(w, r.WithContext(ctx))
}

type envContextKey struct{}
type execContextKey struct{}

// Env returns the opaque environment value passed to Handle, or nil.
func Env(c echo.Context) any {
	return c.Request().Context().Value(envContextKey{})
}

// ExecContext returns the opaque execution-context value passed to Handle,
// or nil.
func ExecContext(c echo.Context) any {
	return c.Request().Context().Value(execContextKey{})
}

// validationResponse is the body of a structured validation failure.
type validationResponse struct {
	Message  string            `json:"message"`
	Location string            `json:"location"`
	Name     string            `json:"name,omitempty"`
	Issues   []ValidationIssue `json:"issues"`
}

// errorHandler converts every request-time failure into a response object;
// nothing propagates past the entry point uncaught.
func (a *App) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		_ = c.JSON(http.StatusBadRequest, validationResponse{
			Message:  "validation failed",
			Location: verr.Location,
			Name:     verr.Name,
			Issues:   verr.Issues,
		})
		return
	}

	if errors.Is(err, echo.ErrNotFound) {
		if a.config.NotFound != nil {
			if hookErr := a.config.NotFound(c); hookErr == nil {
				return
			}
		}
		_ = c.JSON(http.StatusNotFound, map[string]string{"message": "Endpoint not found"})
		return
	}

	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		_ = c.JSON(httpErr.StatusCode, httpErr)
		return
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		_ = c.JSON(echoErr.Code, map[string]any{"message": echoErr.Message})
		return
	}

	if a.config.OnError != nil {
		a.config.OnError(err, c)
		return
	}
	_ = c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal Server Error"})
}

// Start starts the server and blocks until shutdown
func (a *App) Start() error {
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%s", a.config.Host, a.config.Port)
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	case <-quit:
	}

	timeout := a.config.ShutdownTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
