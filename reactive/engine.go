package reactive

import (
	"encoding/json"
	"log"
	"strings"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/microbind/microbind/dsl"
)

// Policy selects what happens when a watcher re-arms its own scope while a
// notification pass for that scope is already running.
type Policy uint8

const (
	// PolicySkip drops re-entrant schedule requests. The mutation itself
	// still applies and is visible to later reads, but no extra pass is
	// queued for it, so call-stack depth stays bounded no matter how often
	// a watcher writes.
	PolicySkip Policy = iota

	// PolicyDefer collapses re-entrant requests into exactly one follow-up
	// pass after the current one finishes, so convergence chains observe
	// every intermediate state without synchronous recursion.
	PolicyDefer
)

type Option func(*Engine)

func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

func WithLogger(logf func(format string, args ...any)) Option {
	return func(e *Engine) { e.logf = logf }
}

// WithPublisher injects the pub/sub collaborator consumed by the DSL `pub`
// operator. Absent a publisher, `pub` is a no-op.
func WithPublisher(pub func(topic string, payload any)) Option {
	return func(e *Engine) { e.pub = pub }
}

// WithScopeInitializer installs the collaborator Watch asks to lazily
// initialize an unknown scope before giving up on it.
func WithScopeInitializer(init func(scope any) bool) Option {
	return func(e *Engine) { e.scopeInit = init }
}

// Engine owns the per-scope state records, the notification queue and the
// handler table. It follows the host-page discipline: one cooperative call
// stack, writes coalesced per scope until the outermost execution unit
// ends. It is not safe for concurrent use from multiple goroutines, with
// the single exception of handler registration.
type Engine struct {
	policy    Policy
	logf      func(format string, args ...any)
	pub       func(topic string, payload any)
	scopeInit func(scope any) bool

	scopes map[any]*scopeRecord

	queue      []*scopeRecord
	queued     mapset.Set[*scopeRecord]
	batchDepth int
	draining   bool

	handlersMu sync.RWMutex
	handlers   map[string]*registeredHandler
	handlerGen uint64
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logf:     log.Printf,
		scopes:   map[any]*scopeRecord{},
		queued:   mapset.NewThreadUnsafeSet[*scopeRecord](),
		handlers: map[string]*registeredHandler{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// InitScope creates the scope's state record from a JSON object literal.
// Malformed input leaves the scope without a record and logs, it never
// propagates: a broken declaration costs one scope, not the page.
func (e *Engine) InitScope(scope any, initialJSON string) {
	var initial map[string]any
	if err := json.Unmarshal([]byte(initialJSON), &initial); err != nil {
		e.logf("reactive: bad initial state for scope %v: %v", scope, err)
		return
	}
	e.InitScopeValues(scope, initial)
}

// InitScopeValues is InitScope for already-parsed state. Re-initializing an
// existing scope re-declares its keys through the observable write path, so
// attached watchers see the change.
func (e *Engine) InitScopeValues(scope any, initial map[string]any) {
	if rec, ok := e.scopes[scope]; ok && !rec.destroyed {
		e.SetState(scope, initial)
		return
	}
	state := initial
	if state == nil {
		state = map[string]any{}
	}
	e.scopes[scope] = &scopeRecord{eng: e, key: scope, state: state}
}

// HasScope reports whether the scope owns a state record.
func (e *Engine) HasScope(scope any) bool {
	rec, ok := e.scopes[scope]
	return ok && !rec.destroyed
}

// GetState returns the scope's live state mapping, or nil for an unknown
// scope. Interior mutation of the returned map bypasses change observation;
// that is the documented shallow contract.
func (e *Engine) GetState(scope any) map[string]any {
	rec, ok := e.scopes[scope]
	if !ok || rec.destroyed {
		return nil
	}
	return rec.state
}

// SetState applies a partial update. All writes land before any watcher
// runs, and the whole update coalesces into a single notification pass.
func (e *Engine) SetState(scope any, partial map[string]any) {
	rec, ok := e.scopes[scope]
	if !ok || rec.destroyed {
		e.logf("reactive: setState on unknown scope %v", scope)
		return
	}
	e.StartBatch()
	defer e.EndBatch()
	for k, v := range partial {
		rec.SetPath(k, v)
	}
}

// DestroyScope drops the scope's record and watchers. Pending notifications
// for it are abandoned.
func (e *Engine) DestroyScope(scope any) {
	rec, ok := e.scopes[scope]
	if !ok {
		return
	}
	rec.destroyed = true
	rec.watchers = nil
	rec.pending = false
	rec.rearmed = false
	delete(e.scopes, scope)
}

// Evaluate runs an expression source against a scope. Resolution order:
// comparison sugar, then DSL JSON, then a bare state-path read. Any `set`
// the expression performs schedules notification exactly like SetState.
func (e *Engine) Evaluate(source string, scope any, extras dsl.Extras) any {
	node := e.compile(source)

	var state dsl.State
	if rec, ok := e.scopes[scope]; ok && !rec.destroyed {
		state = rec
	}
	ctx := &dsl.Context{
		State:  state,
		Extras: extras,
		Pub:    e.pub,
		Logf:   e.logf,
	}

	e.StartBatch()
	defer e.EndBatch()
	return dsl.Eval(node, ctx)
}

func (e *Engine) compile(source string) dsl.Node {
	trimmed := strings.TrimSpace(source)
	if node, ok := dsl.Desugar(trimmed); ok {
		return node
	}
	if node, err := dsl.Compile(trimmed); err == nil {
		return node
	}
	// Not sugar, not JSON: a bare state-path read.
	return dsl.Apply(dsl.OpGet, dsl.Lit(trimmed))
}
