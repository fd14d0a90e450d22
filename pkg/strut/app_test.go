package strut

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func perform(app *App, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func buildUsersApp(t *testing.T, invoked *int) *App {
	t.Helper()
	registry := NewRegistry()

	users := must(registry.NewController("UserController", "/users"))
	users.GET("/:id", "Get", func(c echo.Context, args []any) (any, error) {
		*invoked++
		return map[string]any{"id": args[1], "name": "Ada"}, nil
	}, BindPathParam(1, "id", IntegerSchema()))

	users.POST("", "Create", func(c echo.Context, args []any) (any, error) {
		*invoked++
		return args[1], nil
	}, WithStatus(http.StatusCreated), BindBody(1, ObjectSchema(map[string]*openapi3.Schema{
		"name":  StringSchema(),
		"email": EmailSchema(),
	})))

	app, err := Build(&Config{BasePath: "/api"}, registry)
	require.NoError(t, err)
	return app
}

func TestApp_PathParamCoercedToNumber(t *testing.T) {
	var invoked int
	app := buildUsersApp(t, &invoked)

	rec := perform(app, http.MethodGet, "/api/users/42", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, invoked)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(42), body["id"])
	assert.Equal(t, "Ada", body["name"])
}

func TestApp_PathParamValidationFailureSkipsHandler(t *testing.T) {
	var invoked int
	app := buildUsersApp(t, &invoked)

	rec := perform(app, http.MethodGet, "/api/users/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, invoked, "handler must never run on validation failure")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation failed", body["message"])
	assert.Equal(t, "params", body["location"])
	assert.Equal(t, "id", body["name"])
}

func TestApp_BodyValidationFailureListsField(t *testing.T) {
	var invoked int
	app := buildUsersApp(t, &invoked)

	rec := perform(app, http.MethodPost, "/api/users", `{"name":"Ada","email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, invoked)

	var body struct {
		Message  string            `json:"message"`
		Location string            `json:"location"`
		Issues   []ValidationIssue `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "body", body.Location)
	require.NotEmpty(t, body.Issues)

	found := false
	for _, issue := range body.Issues {
		if strings.Contains(issue.Path, "email") {
			found = true
		}
	}
	assert.True(t, found, "issues should name the email field, got %+v", body.Issues)
}

func TestApp_QuerySchemaEnforcedWithSchemalessBinding(t *testing.T) {
	invoked := 0

	querySchema := ObjectSchema(map[string]*openapi3.Schema{"q": StringSchema()})
	querySchema.Required = []string{"q"}

	registry := NewRegistry()
	must(registry.NewController("SearchController", "/search")).
		GET("", "Search", func(c echo.Context, args []any) (any, error) {
			invoked++
			return args[1], nil
		}, BindQuery(1, nil), ValidateQuery(querySchema))

	app, err := Build(&Config{}, registry)
	require.NoError(t, err)

	rec := perform(app, http.MethodGet, "/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, invoked, "handler must never run when the query schema fails")

	rec = perform(app, http.MethodGet, "/search?q=term", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, invoked)
}

func TestApp_CreatedStatusApplied(t *testing.T) {
	var invoked int
	app := buildUsersApp(t, &invoked)

	rec := perform(app, http.MethodPost, "/api/users", `{"name":"Ada","email":"ada@example.com"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, invoked)
}

func TestApp_DefaultNotFound(t *testing.T) {
	var invoked int
	app := buildUsersApp(t, &invoked)

	rec := perform(app, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Endpoint not found"}`, rec.Body.String())
}

func TestApp_CustomNotFound(t *testing.T) {
	registry := NewRegistry()
	must(registry.NewController("C", "/x")).GET("", "X", noopHandler)

	app, err := Build(&Config{
		NotFound: func(c echo.Context) error {
			return c.JSON(http.StatusNotFound, map[string]string{"message": "no such thing"})
		},
	}, registry)
	require.NoError(t, err)

	rec := perform(app, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"no such thing"}`, rec.Body.String())
}

func TestApp_MiddlewareExecutionOrder(t *testing.T) {
	var log []string
	logger := func(name string) MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				log = append(log, name)
				return next(c)
			}
		}
	}

	registry := NewRegistry()
	ctrl := must(registry.NewController("IntController", "/int", logger("M2")))
	ctrl.GET("/x", "X", func(c echo.Context, args []any) (any, error) {
		log = append(log, "handler")
		return "ok", nil
	}, Use(logger("M3")))

	app, err := Build(&Config{
		TopMiddlewares: []TopMiddleware{{Pattern: "/int/*", Middleware: logger("M1")}},
	}, registry)
	require.NoError(t, err)

	rec := perform(app, http.MethodGet, "/int/x", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"M1", "M2", "M3", "handler"}, log)
}

func TestApp_MiddlewareShortCircuit(t *testing.T) {
	invoked := 0

	registry := NewRegistry()
	deny := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return ErrUnauthorized("missing token")
		}
	}
	ctrl := must(registry.NewController("C", "/secure", deny))
	ctrl.GET("", "X", func(c echo.Context, args []any) (any, error) {
		invoked++
		return "ok", nil
	})

	app, err := Build(&Config{}, registry)
	require.NoError(t, err)

	rec := perform(app, http.MethodGet, "/secure", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, invoked)
}

func TestApp_HandlerErrorConversions(t *testing.T) {
	registry := NewRegistry()
	ctrl := must(registry.NewController("C", "/errors"))
	ctrl.GET("/http", "Http", func(c echo.Context, args []any) (any, error) {
		return nil, ErrNotFound("no such user")
	})
	ctrl.GET("/plain", "Plain", func(c echo.Context, args []any) (any, error) {
		return nil, assert.AnError
	})

	app, err := Build(&Config{}, registry)
	require.NoError(t, err)

	rec := perform(app, http.MethodGet, "/errors/http", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "no such user", body["message"])

	rec = perform(app, http.MethodGet, "/errors/plain", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal Server Error"}`, rec.Body.String())
}

func TestApp_OnErrorHook(t *testing.T) {
	registry := NewRegistry()
	must(registry.NewController("C", "/boom")).GET("", "Boom", func(c echo.Context, args []any) (any, error) {
		return nil, assert.AnError
	})

	hooked := false
	app, err := Build(&Config{
		OnError: func(err error, c echo.Context) {
			hooked = true
			_ = c.JSON(http.StatusBadGateway, map[string]string{"message": "hooked"})
		},
	}, registry)
	require.NoError(t, err)

	rec := perform(app, http.MethodGet, "/boom", "")
	assert.True(t, hooked)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestApp_ResponseReturnControlsStatus(t *testing.T) {
	registry := NewRegistry()
	must(registry.NewController("C", "/things")).POST("", "Create", func(c echo.Context, args []any) (any, error) {
		return Created(map[string]string{"id": "1"}).WithHeader("Location", "/things/1"), nil
	})

	app, err := Build(&Config{}, registry)
	require.NoError(t, err)

	rec := perform(app, http.MethodPost, "/things", "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/things/1", rec.Header().Get("Location"))
	assert.JSONEq(t, `{"id":"1"}`, rec.Body.String())
}

func TestApp_IntrospectionEndpoint(t *testing.T) {
	registry := NewRegistry()
	users := must(registry.NewController("UserController", "/users"))
	users.GET("/:id", "Get", noopHandler, BindPathParam(1, "id", IntegerSchema()))

	app, err := Build(&Config{
		BasePath:            "/api",
		EnableIntrospection: true,
	}, registry)
	require.NoError(t, err)

	rec := perform(app, http.MethodGet, DefaultIntrospectionPath, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var objects []IntrospectionObject
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &objects))
	require.Len(t, objects, 1)
	assert.Equal(t, "/api/users/:id", objects[0].Path)
	assert.Equal(t, http.MethodGet, objects[0].Method)

	// Serving twice yields byte-identical output.
	again := perform(app, http.MethodGet, DefaultIntrospectionPath, "")
	assert.Equal(t, rec.Body.String(), again.Body.String())
}

func TestApp_IntrospectionPathCollision(t *testing.T) {
	registry := NewRegistry()
	must(registry.NewController("C", "/introspection")).GET("", "Clash", noopHandler)

	_, err := Build(&Config{EnableIntrospection: true}, registry)
	assert.ErrorIs(t, err, ErrRouteConflict)
}

func TestApp_RouteConflictFailsBuild(t *testing.T) {
	registry := NewRegistry()
	must(registry.NewController("A", "/dup")).GET("", "X", noopHandler)
	must(registry.NewController("B", "")).GET("/dup", "Y", noopHandler)

	_, err := Build(&Config{}, registry)
	assert.ErrorIs(t, err, ErrRouteConflict)
}

func TestApp_EnvThreading(t *testing.T) {
	registry := NewRegistry()
	must(registry.NewController("C", "/env")).GET("", "Env", func(c echo.Context, args []any) (any, error) {
		env, _ := Env(c).(map[string]string)
		return map[string]string{"token": env["API_TOKEN"]}, nil
	})

	app, err := Build(&Config{}, registry)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/env", nil)
	rec := httptest.NewRecorder()
	app.Handle(rec, req, map[string]string{"API_TOKEN": "sekrit"}, nil)

	assert.JSONEq(t, `{"token":"sekrit"}`, rec.Body.String())
}

func TestApp_NilResultUsesNoContent(t *testing.T) {
	registry := NewRegistry()
	must(registry.NewController("C", "/empty")).DELETE("", "Del", noopHandler, WithStatus(http.StatusNoContent))

	app, err := Build(&Config{}, registry)
	require.NoError(t, err)

	rec := perform(app, http.MethodDelete, "/empty", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}
