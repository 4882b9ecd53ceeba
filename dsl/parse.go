package dsl

import (
	"encoding/json"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Parse decodes a JSON expression source into a Node. An array whose first
// element is a recognized operator name becomes an operator application;
// any other array is an array literal.
func Parse(source string) (Node, error) {
	var raw any
	if err := json.Unmarshal([]byte(source), &raw); err != nil {
		return Node{}, err
	}
	return fromValue(raw), nil
}

func fromValue(raw any) Node {
	switch v := raw.(type) {
	case []any:
		if len(v) > 0 {
			if head, ok := v[0].(string); ok {
				args := make([]Node, 0, len(v)-1)
				for _, operand := range v[1:] {
					args = append(args, fromValue(operand))
				}
				if IsOp(head) {
					return Node{Kind: KindOp, Op: Op(head), Args: args}
				}
				// A string head that is no operator degrades to an array
				// literal of its operands, so stale directives keep yielding
				// data instead of errors.
				return Node{Kind: KindArray, Args: args}
			}
		}
		elems := make([]Node, 0, len(v))
		for _, e := range v {
			elems = append(elems, fromValue(e))
		}
		return Node{Kind: KindArray, Args: elems}
	case map[string]any:
		obj := make(map[string]Node, len(v))
		for k, e := range v {
			obj[k] = fromValue(e)
		}
		return Node{Kind: KindObject, Obj: obj}
	default:
		return Node{Kind: KindLiteral, Lit: v}
	}
}

// Directive expressions are evaluated far more often than they are authored,
// so parsed nodes are memoized by source hash.
var compileCache = struct {
	mu    sync.RWMutex
	nodes map[uint64]Node
}{nodes: map[uint64]Node{}}

// Compile is Parse with memoization keyed by xxhash of the source text.
func Compile(source string) (Node, error) {
	key := xxhash.Sum64String(source)
	compileCache.mu.RLock()
	node, ok := compileCache.nodes[key]
	compileCache.mu.RUnlock()
	if ok {
		return node, nil
	}

	node, err := Parse(source)
	if err != nil {
		return Node{}, err
	}
	compileCache.mu.Lock()
	compileCache.nodes[key] = node
	compileCache.mu.Unlock()
	return node, nil
}
