package dsl

import (
	"regexp"
	"strconv"
	"strings"
)

// Comparison sugar rewrites two fixed infix shapes onto the DSL before JSON
// parsing is attempted:
//
//	count > 0        -> [">", ["get","count"], 0]
//	flag == other    -> ["==", ["get","flag"], ["get","other"]]
//	!flag            -> ["!", ["get","flag"]]
//
// Anything else is left alone; the caller falls through to DSL JSON and
// finally to a bare state-path read. Sugar over the DSL, not a second
// language.

var (
	identPattern = `[A-Za-z_][A-Za-z0-9_.]*`

	// Longest operators first so ">=" never matches as ">".
	comparisonRe = regexp.MustCompile(
		`^(` + identPattern + `)\s*(===|==|!=|>=|<=|>|<)\s*(.+)$`)
	negationRe = regexp.MustCompile(`^!\s*(` + identPattern + `)$`)

	quotedRe = regexp.MustCompile(`^'([^']*)'$|^"([^"]*)"$`)

	bareIdentRe = regexp.MustCompile(`^` + identPattern + `$`)
)

// Desugar attempts the fixed rewrites. ok is false when the input matches
// neither shape, in which case the source must be treated as raw DSL.
func Desugar(source string) (node Node, ok bool) {
	trimmed := strings.TrimSpace(source)

	if m := negationRe.FindStringSubmatch(trimmed); m != nil {
		return Apply(OpNot, Apply(OpGet, Lit(m[1]))), true
	}

	m := comparisonRe.FindStringSubmatch(trimmed)
	if m == nil {
		return Node{}, false
	}
	rhs, ok := sugarOperand(strings.TrimSpace(m[3]))
	if !ok {
		return Node{}, false
	}
	return Apply(Op(m[2]), Apply(OpGet, Lit(m[1])), rhs), true
}

// sugarOperand accepts a numeric literal, boolean or null literal, quoted
// string literal, or an identifier (treated as a nested get).
func sugarOperand(raw string) (Node, bool) {
	switch raw {
	case "true":
		return Lit(true), true
	case "false":
		return Lit(false), true
	case "null":
		return Lit(nil), true
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return Lit(n), true
	}
	if m := quotedRe.FindStringSubmatch(raw); m != nil {
		if m[1] != "" || strings.HasPrefix(raw, "'") {
			return Lit(m[1]), true
		}
		return Lit(m[2]), true
	}
	if bareIdentRe.MatchString(raw) {
		return Apply(OpGet, Lit(raw)), true
	}
	return Node{}, false
}
