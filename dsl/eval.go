package dsl

import (
	"log"
	"math"
	"reflect"
	"strconv"
)

// State is the mutable key space `get`, `set` and `toggle` operate on. The
// reactive store implements it; tests can use a MapState.
type State interface {
	GetPath(path string) any
	SetPath(path string, value any) bool
}

// Extras is the ambient, per-invocation context bag. Path heads prefixed
// with `$` inside `get` resolve here instead of state: `$event.target.value`
// reads Extras["event"] and walks the remainder.
type Extras map[string]any

// ClassChecker is the capability `hasClass` needs; the DOM layer supplies
// it under Extras["el"].
type ClassChecker interface {
	HasClass(name string) bool
}

// FetchFunc is the capability `fetch` needs, supplied under Extras["fetch"].
type FetchFunc func(url string) (any, error)

// Context carries everything one evaluation may touch. Absent capabilities
// degrade each operator to its safe default rather than failing.
type Context struct {
	State  State
	Extras Extras
	Pub    func(topic string, payload any)
	Logf   func(format string, args ...any)
}

func (ctx *Context) logf(format string, args ...any) {
	if ctx.Logf != nil {
		ctx.Logf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Eval reduces a node to a value. It is total over the accepted grammar:
// malformed shapes (wrong arity, bad path) yield nil so a single broken
// directive degrades instead of taking the page down with it.
func Eval(node Node, ctx *Context) (result any) {
	defer func() {
		if r := recover(); r != nil {
			ctx.logf("dsl: evaluation panicked: %v", r)
			result = nil
		}
	}()
	return eval(node, ctx)
}

func eval(node Node, ctx *Context) any {
	switch node.Kind {
	case KindLiteral:
		return node.Lit

	case KindArray:
		out := make([]any, 0, len(node.Args))
		for _, e := range node.Args {
			out = append(out, eval(e, ctx))
		}
		return out

	case KindObject:
		out := make(map[string]any, len(node.Obj))
		for k, e := range node.Obj {
			out[k] = eval(e, ctx)
		}
		return out

	case KindOp:
		return evalOp(node, ctx)
	}
	return nil
}

func evalOp(node Node, ctx *Context) any {
	args := node.Args
	switch node.Op {
	case OpAdd:
		acc := 0.0
		for _, a := range args {
			n, ok := toNumber(eval(a, ctx))
			if !ok {
				return nil
			}
			acc += n
		}
		return acc

	case OpMul:
		acc := 1.0
		for _, a := range args {
			n, ok := toNumber(eval(a, ctx))
			if !ok {
				return nil
			}
			acc *= n
		}
		return acc

	case OpSub:
		if len(args) == 0 {
			return nil
		}
		first, ok := toNumber(eval(args[0], ctx))
		if !ok {
			return nil
		}
		if len(args) == 1 {
			return -first
		}
		acc := first
		for _, a := range args[1:] {
			n, ok := toNumber(eval(a, ctx))
			if !ok {
				return nil
			}
			acc -= n
		}
		return acc

	case OpDiv:
		if len(args) == 0 {
			return nil
		}
		acc, ok := toNumber(eval(args[0], ctx))
		if !ok {
			return nil
		}
		for _, a := range args[1:] {
			n, ok := toNumber(eval(a, ctx))
			if !ok {
				return nil
			}
			acc /= n
		}
		return acc

	case OpMod:
		if len(args) != 2 {
			ctx.logf("dsl: %% wants 2 operands, got %d", len(args))
			return nil
		}
		a, okA := toNumber(eval(args[0], ctx))
		b, okB := toNumber(eval(args[1], ctx))
		if !okA || !okB {
			return nil
		}
		return math.Mod(a, b)

	case OpEq, OpStrictEq, OpNeq, OpGt, OpLt, OpGte, OpLte:
		if len(args) != 2 {
			ctx.logf("dsl: %s wants 2 operands, got %d", node.Op, len(args))
			return nil
		}
		return compare(node.Op, eval(args[0], ctx), eval(args[1], ctx))

	case OpAnd:
		var last any
		for _, a := range args {
			last = eval(a, ctx)
			if !Truthy(last) {
				return last
			}
		}
		return last

	case OpOr:
		var last any
		for _, a := range args {
			last = eval(a, ctx)
			if Truthy(last) {
				return last
			}
		}
		return last

	case OpNot:
		if len(args) != 1 {
			ctx.logf("dsl: ! wants 1 operand, got %d", len(args))
			return nil
		}
		return !Truthy(eval(args[0], ctx))

	case OpTernary:
		if len(args) != 3 {
			ctx.logf("dsl: ?: wants 3 operands, got %d", len(args))
			return nil
		}
		if Truthy(eval(args[0], ctx)) {
			return eval(args[1], ctx)
		}
		return eval(args[2], ctx)

	case OpSeq:
		var last any
		for _, a := range args {
			last = eval(a, ctx)
		}
		return last

	case OpGet:
		if len(args) != 1 {
			ctx.logf("dsl: get wants 1 operand, got %d", len(args))
			return nil
		}
		path, ok := evalPath(args[0], ctx)
		if !ok {
			return nil
		}
		return ctx.resolve(path)

	case OpSet:
		if len(args) != 2 {
			ctx.logf("dsl: set wants 2 operands, got %d", len(args))
			return nil
		}
		path, ok := evalPath(args[0], ctx)
		if !ok {
			return nil
		}
		value := eval(args[1], ctx)
		if ctx.State != nil {
			ctx.State.SetPath(path, value)
		}
		return value

	case OpToggle:
		if len(args) != 1 {
			ctx.logf("dsl: toggle wants 1 operand, got %d", len(args))
			return nil
		}
		path, ok := evalPath(args[0], ctx)
		if !ok || ctx.State == nil {
			return nil
		}
		flipped := !Truthy(ctx.State.GetPath(path))
		ctx.State.SetPath(path, flipped)
		return flipped

	case OpPub:
		if ctx.Pub == nil || len(args) < 1 {
			return nil
		}
		topic := toString(eval(args[0], ctx))
		var payload any
		if len(args) > 1 {
			payload = eval(args[1], ctx)
		}
		// fire and forget
		func() {
			defer func() { recover() }()
			ctx.Pub(topic, payload)
		}()
		return nil

	case OpHasClass:
		if len(args) != 1 {
			return false
		}
		el, ok := ctx.Extras["el"].(ClassChecker)
		if !ok {
			return false
		}
		return el.HasClass(toString(eval(args[0], ctx)))

	case OpFetch:
		if len(args) != 1 {
			return nil
		}
		fetch, ok := ctx.Extras["fetch"].(FetchFunc)
		if !ok {
			return nil
		}
		url := toString(eval(args[0], ctx))
		v, err := fetch(url)
		if err != nil {
			ctx.logf("dsl: fetch %q: %v", url, err)
			return nil
		}
		return v
	}

	// Parse never produces an unknown Op; hand-built nodes might.
	ctx.logf("dsl: unknown operator %q", node.Op)
	return nil
}

// evalPath evaluates a path operand. A literal string is used as-is; any
// other node is evaluated and the result coerced to a string, which is what
// makes dynamic key access work.
func evalPath(node Node, ctx *Context) (string, bool) {
	if node.Kind == KindLiteral {
		if s, ok := node.Lit.(string); ok {
			return s, s != ""
		}
	}
	v := eval(node, ctx)
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// resolve reads a dotted path from state, or from the extras bag when the
// head segment carries the `$` prefix.
func (ctx *Context) resolve(path string) any {
	head, rest := SplitPathHead(path)
	if len(head) > 1 && head[0] == '$' {
		extra, ok := ctx.Extras[head[1:]]
		if !ok {
			return nil
		}
		if rest == "" {
			return extra
		}
		return PathGet(extra, rest)
	}
	if ctx.State == nil {
		return nil
	}
	return ctx.State.GetPath(path)
}

// Truthy follows the host-page notion of truthiness: nil, false, zero and
// the empty string are falsy, everything else is truthy.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	default:
		if n, ok := toNumber(v); ok {
			return n != 0 && !math.IsNaN(n)
		}
		return true
	}
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(s)
	default:
		if n, ok := toNumber(v); ok {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
		return ""
	}
}

func compare(op Op, a, b any) any {
	switch op {
	case OpStrictEq:
		return StrictEqual(a, b)
	case OpEq:
		return LooseEqual(a, b)
	case OpNeq:
		return !LooseEqual(a, b)
	}

	// Ordered comparisons: string-vs-string lexically, otherwise numeric.
	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		switch op {
		case OpGt:
			return as > bs
		case OpLt:
			return as < bs
		case OpGte:
			return as >= bs
		case OpLte:
			return as <= bs
		}
	}
	an, okA := coerceNumber(a)
	bn, okB := coerceNumber(b)
	if !okA || !okB {
		return false
	}
	switch op {
	case OpGt:
		return an > bn
	case OpLt:
		return an < bn
	case OpGte:
		return an >= bn
	case OpLte:
		return an <= bn
	}
	return false
}

// StrictEqual mirrors host `===` on the JSON value domain: numbers compare
// numerically, other scalars by type and value, composites structurally.
func StrictEqual(a, b any) bool {
	if an, ok := toNumber(a); ok {
		bn, ok := toNumber(b)
		return ok && an == bn
	}
	if _, ok := toNumber(b); ok {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// LooseEqual is the documented `==` looseness: on top of strict equality it
// coerces numeric strings and booleans to numbers before comparing.
func LooseEqual(a, b any) bool {
	if StrictEqual(a, b) {
		return true
	}
	an, okA := coerceNumber(a)
	bn, okB := coerceNumber(b)
	return okA && okB && an == bn
}

// coerceNumber is toNumber plus the loose coercions: booleans and numeric
// strings become numbers.
func coerceNumber(v any) (float64, bool) {
	if n, ok := toNumber(v); ok {
		return n, true
	}
	switch t := v.(type) {
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
