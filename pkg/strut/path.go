package strut

import "strings"

// JoinPaths joins path fragments into a single route path. Duplicate
// separators are collapsed, empty segments are dropped and the result always
// has exactly one leading slash. Parameter segments (":id") and wildcards
// ("*") pass through untouched.
//
//	JoinPaths("/api/", "//users", ":id")  -> "/api/users/:id"
//	JoinPaths("", "")                     -> "/"
func JoinPaths(fragments ...string) string {
	var segments []string
	for _, fragment := range fragments {
		for _, segment := range strings.Split(fragment, "/") {
			if segment != "" {
				segments = append(segments, segment)
			}
		}
	}
	return "/" + strings.Join(segments, "/")
}

// MatchPath reports whether a route path matches a middleware path pattern.
// Pattern segments are compared literally except for "*": in the final
// position it matches one or more remaining segments, elsewhere it matches
// exactly one segment. A pattern of "*" or "/*" matches every path,
// including the root.
//
//	MatchPath("/int/*", "/int/x")    -> true
//	MatchPath("/int/*", "/int/x/y")  -> true
//	MatchPath("/int/*", "/int")      -> false
//	MatchPath("/*/users", "/v1/users") -> true
//	MatchPath("/*", "/")             -> true
func MatchPath(pattern, path string) bool {
	patternSegs := splitSegments(pattern)
	pathSegs := splitSegments(path)

	if len(patternSegs) == 0 {
		return len(pathSegs) == 0
	}

	for i, seg := range patternSegs {
		if seg == "*" && i == len(patternSegs)-1 {
			if i == 0 {
				return true
			}
			return len(pathSegs) > i
		}
		if i >= len(pathSegs) {
			return false
		}
		if seg != "*" && seg != pathSegs[i] {
			return false
		}
	}

	return len(pathSegs) == len(patternSegs)
}

func splitSegments(p string) []string {
	var segments []string
	for _, segment := range strings.Split(p, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}
