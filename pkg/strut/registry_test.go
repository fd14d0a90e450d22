package strut

import (
	"net/http"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler(c echo.Context, args []any) (any, error) {
	return nil, nil
}

func TestRegistry_RegisterController(t *testing.T) {
	registry := NewRegistry()

	cd, err := registry.RegisterController("UserController", "/users")
	require.NoError(t, err)
	assert.Equal(t, "UserController", cd.Name)
	assert.Equal(t, "/users", cd.BasePath)

	controllers := registry.Controllers()
	assert.Len(t, controllers, 1)
}

func TestRegistry_RegisterController_Duplicate(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.RegisterController("UserController", "/users")
	require.NoError(t, err)

	_, err = registry.RegisterController("UserController", "/other")
	assert.ErrorIs(t, err, ErrDuplicateRegistration)
}

func TestRegistry_RegisterMethod_PreservesOrder(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.RegisterController("UserController", "/users")
	require.NoError(t, err)

	names := []string{"List", "Get", "Create", "Delete"}
	for _, name := range names {
		_, err := registry.RegisterMethod("UserController", name, http.MethodGet, "/"+name, noopHandler, nil, 0)
		require.NoError(t, err)
	}

	cd, ok := registry.Controller("UserController")
	require.True(t, ok)

	methods := cd.Methods()
	require.Len(t, methods, len(names))
	for i, method := range methods {
		assert.Equal(t, names[i], method.Name)
	}
}

func TestRegistry_RegisterMethod_UnknownController(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.RegisterMethod("Ghost", "Get", http.MethodGet, "/", noopHandler, nil, 0)
	assert.Error(t, err)
}

func TestRegistry_RegisterParamBinding_LastDeclaredWins(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.RegisterController("UserController", "/users")
	require.NoError(t, err)
	_, err = registry.RegisterMethod("UserController", "Get", http.MethodGet, "/:id", noopHandler, nil, 0)
	require.NoError(t, err)

	first := ParamBinding{ArgIndex: 1, Source: SourceParamSingle, Name: "id", Schema: StringSchema()}
	second := ParamBinding{ArgIndex: 1, Source: SourceParamSingle, Name: "id", Schema: IntegerSchema()}

	require.NoError(t, registry.RegisterParamBinding("UserController", "Get", first))
	require.NoError(t, registry.RegisterParamBinding("UserController", "Get", second))

	method, ok := registry.Controller("UserController")
	require.True(t, ok)
	md, ok := method.Method("Get")
	require.True(t, ok)

	bindings := md.Bindings()
	require.Len(t, bindings, 1)
	assert.True(t, bindings[0].Schema.Type.Is("integer"))
}

func TestRegistry_RegisterParamBinding_OrderedByArgIndex(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.RegisterController("C", "/")
	require.NoError(t, err)
	_, err = registry.RegisterMethod("C", "M", http.MethodGet, "/", noopHandler, nil, 0)
	require.NoError(t, err)

	// Registered out of order on purpose.
	require.NoError(t, registry.RegisterParamBinding("C", "M", ParamBinding{ArgIndex: 3, Source: SourceQuerySingle, Name: "c"}))
	require.NoError(t, registry.RegisterParamBinding("C", "M", ParamBinding{ArgIndex: 1, Source: SourceQuerySingle, Name: "a"}))
	require.NoError(t, registry.RegisterParamBinding("C", "M", ParamBinding{ArgIndex: 2, Source: SourceQuerySingle, Name: "b"}))

	md, _ := mustMethod(t, registry, "C", "M")
	bindings := md.Bindings()
	require.Len(t, bindings, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{bindings[0].Name, bindings[1].Name, bindings[2].Name})
}

func TestRegistry_RegisterParamBinding_Invalid(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.RegisterController("C", "/")
	require.NoError(t, err)
	_, err = registry.RegisterMethod("C", "M", http.MethodGet, "/", noopHandler, nil, 0)
	require.NoError(t, err)

	// Position 0 is reserved for the request context.
	err = registry.RegisterParamBinding("C", "M", ParamBinding{ArgIndex: 0, Source: SourceBody})
	assert.Error(t, err)

	// Single sources require a name.
	err = registry.RegisterParamBinding("C", "M", ParamBinding{ArgIndex: 1, Source: SourceQuerySingle})
	assert.Error(t, err)
}

func TestRegistry_RegisterValidation_Additive(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.RegisterController("C", "/")
	require.NoError(t, err)
	_, err = registry.RegisterMethod("C", "M", http.MethodPost, "/", noopHandler, nil, 0)
	require.NoError(t, err)

	require.NoError(t, registry.RegisterValidation("C", "M", ValidationSchemas{Body: ObjectSchema(map[string]*openapi3.Schema{"name": StringSchema()})}))
	require.NoError(t, registry.RegisterValidation("C", "M", ValidationSchemas{Query: ObjectSchema(nil)}))

	md, _ := mustMethod(t, registry, "C", "M")
	assert.NotNil(t, md.Schemas.Body, "earlier body schema must survive a later query-only call")
	assert.NotNil(t, md.Schemas.Query)
	assert.Nil(t, md.Schemas.Headers)
}

func mustMethod(t *testing.T, registry *Registry, controller, method string) (*MethodDescriptor, *ControllerDescriptor) {
	t.Helper()
	cd, ok := registry.Controller(controller)
	require.True(t, ok)
	md, ok := cd.Method(method)
	require.True(t, ok)
	return md, cd
}
