package strut

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response represents an HTTP response with custom status code and body.
// Return it from a route handler to control the status code, headers and
// cookies; plain return values are JSON-encoded with the route's configured
// status (default 200).
type Response struct {
	// StatusCode is the HTTP status code to return (e.g., 200, 201, 404)
	StatusCode int `json:"-"`

	// Body is the response body that will be JSON-encoded and sent to the client
	Body any `json:"body,omitempty"`

	// Headers are extra response headers set before the body is written
	Headers map[string]string `json:"-"`

	// Cookies are set on the response before the body is written
	Cookies []*http.Cookie `json:"-"`
}

// NewResponse creates a new Response with the specified status code and body
func NewResponse(statusCode int, body any) *Response {
	return &Response{
		StatusCode: statusCode,
		Body:       body,
	}
}

// WithHeader adds a response header and returns the response for chaining
func (r *Response) WithHeader(key, value string) *Response {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

// WithCookie adds a response cookie and returns the response for chaining
func (r *Response) WithCookie(cookie *http.Cookie) *Response {
	r.Cookies = append(r.Cookies, cookie)
	return r
}

// WithSimpleCookie adds a name/value cookie with default attributes
func (r *Response) WithSimpleCookie(name, value string) *Response {
	return r.WithCookie(&http.Cookie{Name: name, Value: value, Path: "/"})
}

// write sends the response through the Echo context.
func (r *Response) write(c echo.Context) error {
	for key, value := range r.Headers {
		c.Response().Header().Set(key, value)
	}
	for _, cookie := range r.Cookies {
		c.SetCookie(cookie)
	}
	if r.Body == nil {
		return c.NoContent(r.StatusCode)
	}
	return c.JSON(r.StatusCode, r.Body)
}

// OK creates a 200 OK response with the given body
func OK(body any) *Response {
	return NewResponse(http.StatusOK, body)
}

// Created creates a 201 Created response with the given body
func Created(body any) *Response {
	return NewResponse(http.StatusCreated, body)
}

// NoContent creates a 204 No Content response
func NoContent() *Response {
	return NewResponse(http.StatusNoContent, nil)
}

// BadRequest creates a 400 Bad Request response with the given error message
func BadRequest(message string) *Response {
	return NewResponse(http.StatusBadRequest, map[string]string{"error": message})
}

// NotFound creates a 404 Not Found response with the given error message
func NotFound(message string) *Response {
	return NewResponse(http.StatusNotFound, map[string]string{"error": message})
}

// InternalServerError creates a 500 Internal Server Error response with the given error message
func InternalServerError(message string) *Response {
	return NewResponse(http.StatusInternalServerError, map[string]string{"error": message})
}
