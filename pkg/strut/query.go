package strut

import (
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// QueryMap gives handlers typed access to query parameters without going
// through a parameter binding. Useful for optional filters where declaring
// a schema would be overkill.
type QueryMap map[string][]string

// NewQueryMap snapshots the query parameters of the current request.
func NewQueryMap(c echo.Context) QueryMap {
	return QueryMap(c.QueryParams())
}

// Get returns the first value for key, or "" when absent.
func (q QueryMap) Get(key string) string {
	if values := q[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// GetDefault returns the first value for key, or fallback when absent or empty.
func (q QueryMap) GetDefault(key, fallback string) string {
	if value := q.Get(key); value != "" {
		return value
	}
	return fallback
}

// GetInt parses the first value for key as an int. Absent or unparsable
// values yield fallback.
func (q QueryMap) GetInt(key string, fallback int) int {
	if value := q.Get(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// GetBool reports whether the first value for key is truthy.
// "true", "1", "yes" and "on" count as true, case insensitively.
func (q QueryMap) GetBool(key string) bool {
	switch strings.ToLower(q.Get(key)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// GetUUID parses the first value for key as a UUID.
func (q QueryMap) GetUUID(key string) (uuid.UUID, bool) {
	parsed, err := uuid.Parse(q.Get(key))
	if err != nil {
		return uuid.UUID{}, false
	}
	return parsed, true
}

// GetAll returns every value supplied for key.
func (q QueryMap) GetAll(key string) []string {
	return q[key]
}

// Has reports whether key was present in the query string at all,
// even with an empty value.
func (q QueryMap) Has(key string) bool {
	_, exists := q[key]
	return exists
}

// Keys returns the parameter names in sorted order.
func (q QueryMap) Keys() []string {
	keys := make([]string, 0, len(q))
	for key := range q {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
