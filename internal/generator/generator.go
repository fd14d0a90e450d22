// Package generator converts a Strut introspection document into Bruno
// request files, one per route, so a collection of API smoke tests can be
// scaffolded straight from a running application.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/strutworks/strut/pkg/strut"
)

const defaultTimeout = 10 * time.Second

// Generator fetches introspection documents and renders request files.
type Generator struct {
	// Client is used to fetch the introspection document
	Client *http.Client

	// BaseURL is the URL prefix written into generated requests. Defaults to
	// the Bruno environment placeholder {{baseUrl}}.
	BaseURL string
}

// New creates a generator with defaults
func New() *Generator {
	return &Generator{
		Client:  &http.Client{Timeout: defaultTimeout},
		BaseURL: "{{baseUrl}}",
	}
}

// Fetch downloads and decodes the introspection document.
func (g *Generator) Fetch(ctx context.Context, url string) ([]strut.IntrospectionObject, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	var routes []strut.IntrospectionObject
	if err := json.NewDecoder(resp.Body).Decode(&routes); err != nil {
		return nil, fmt.Errorf("decoding introspection document: %w", err)
	}
	return routes, nil
}

// DummyValue maps a schema field type to the placeholder value written into
// generated requests.
func DummyValue(fieldType string) any {
	switch fieldType {
	case "number":
		return 248
	case "boolean":
		return true
	case "array":
		return []int{1, 2, 3}
	case "object":
		return map[string]any{}
	default:
		return "lorem ipsum"
	}
}

// FileName derives the request file name from a route name: path separators
// become underscores and parameter colons are dropped.
func FileName(name string) string {
	sanitized := strings.ReplaceAll(name, "/", "_")
	sanitized = strings.ReplaceAll(sanitized, ":", "")
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "root"
	}
	return sanitized + ".bru"
}

// Render produces the Bruno request file content for one route.
func (g *Generator) Render(route strut.IntrospectionObject, seq int) string {
	var b strings.Builder

	name := strings.TrimSuffix(FileName(route.Name), ".bru")
	fmt.Fprintf(&b, "meta {\n  name: %s\n  type: http\n  seq: %d\n}\n", name, seq)

	verb := strings.ToLower(route.Method)
	if route.Method == strut.MethodAll {
		verb = "get"
	}
	body := "none"
	if len(route.Schema.Body) > 0 {
		body = "json"
	}
	fmt.Fprintf(&b, "\n%s {\n  url: %s%s\n  body: %s\n  auth: none\n}\n", verb, g.BaseURL, route.Path, body)

	writeBlock(&b, "params:path", route.Schema.Params)
	writeBlock(&b, "params:query", route.Schema.Query)
	writeBlock(&b, "headers", route.Schema.Headers)

	if len(route.Schema.Body) > 0 {
		b.WriteString("\nbody:json {\n  {\n")
		for i, field := range route.Schema.Body {
			encoded, _ := json.Marshal(DummyValue(field.Type))
			comma := ","
			if i == len(route.Schema.Body)-1 {
				comma = ""
			}
			fmt.Fprintf(&b, "    %q: %s%s\n", field.Key, encoded, comma)
		}
		b.WriteString("  }\n}\n")
	}

	return b.String()
}

func writeBlock(b *strings.Builder, block string, fields []strut.SchemaField) {
	if len(fields) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s {\n", block)
	for _, field := range fields {
		fmt.Fprintf(b, "  %s: %v\n", field.Key, dummyText(field.Type))
	}
	b.WriteString("}\n")
}

// dummyText renders a placeholder value as plain block text rather than JSON.
func dummyText(fieldType string) string {
	switch value := DummyValue(fieldType).(type) {
	case string:
		return value
	case []int:
		return "1,2,3"
	case map[string]any:
		return "{}"
	default:
		return fmt.Sprintf("%v", value)
	}
}

// Write renders every route into outDir and returns the written file paths
// in route order.
func (g *Generator) Write(routes []strut.IntrospectionObject, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	written := make([]string, 0, len(routes))
	for i, route := range routes {
		path := filepath.Join(outDir, FileName(route.Name))
		content := g.Render(route, i+1)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
