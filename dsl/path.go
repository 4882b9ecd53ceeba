package dsl

import (
	"strconv"
	"strings"
)

// PathGet walks a dotted path through nested maps and slices. Numeric
// segments index slices. A miss at any step returns nil.
func PathGet(root any, path string) any {
	if path == "" {
		return nil
	}
	cur := root
	for _, seg := range strings.Split(path, ".") {
		switch c := cur.(type) {
		case map[string]any:
			cur = c[seg]
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(c) {
				return nil
			}
			cur = c[idx]
		default:
			return nil
		}
	}
	return cur
}

// PathSet writes a dotted path into a nested map structure, creating
// intermediate maps as needed. It reports whether the write landed; a path
// that runs into a non-map interior value is dropped.
func PathSet(root map[string]any, path string, value any) bool {
	if path == "" {
		return false
	}
	segs := strings.Split(path, ".")
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg]
		if !ok || next == nil {
			m := map[string]any{}
			cur[seg] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return false
		}
		cur = m
	}
	cur[segs[len(segs)-1]] = value
	return true
}

// SplitPathHead separates the first segment of a dotted path from the rest.
func SplitPathHead(path string) (head, rest string) {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i], path[i+1:]
	}
	return path, ""
}
