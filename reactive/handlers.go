package reactive

import "fmt"

// Invocation is the context a named handler receives: the originating
// scope, an optional event-like payload, and the state path its return
// value is written back to (empty means no write-back).
type Invocation struct {
	Scope any
	Event any
	Path  string
}

// HandlerFunc is a trusted, author-registered callback invokable by name
// from markup instead of DSL. It gets the current value at the declared
// path (nil when no path is declared) and returns the new one. Returning a
// *Deferred defers the write-back to resolution.
type HandlerFunc func(current any, inv Invocation) (any, error)

type registeredHandler struct {
	fn  HandlerFunc
	gen uint64
}

// RegisterHandler installs fn under name, replacing any previous handler
// with that name. The returned unregister is idempotent and removes only
// the registration it belongs to, never a later replacement.
func (e *Engine) RegisterHandler(name string, fn HandlerFunc) (unregister func()) {
	e.handlersMu.Lock()
	e.handlerGen++
	reg := &registeredHandler{fn: fn, gen: e.handlerGen}
	e.handlers[name] = reg
	e.handlersMu.Unlock()

	return func() {
		e.handlersMu.Lock()
		defer e.handlersMu.Unlock()
		if cur, ok := e.handlers[name]; ok && cur.gen == reg.gen {
			delete(e.handlers, name)
		}
	}
}

// InvokeHandler runs the named handler against a scope. A synchronous
// return value is written back to the declared path through the store,
// re-entering the scheduler exactly as a DSL `set` would. A *Deferred
// return writes back on resolution and then forces a flush, so an
// async handler's results are visible synchronously relative to its own
// completion. Errors and panics mean no value was produced: logged, no
// write-back.
func (e *Engine) InvokeHandler(name string, scope any, event any, path string) {
	e.handlersMu.RLock()
	reg, ok := e.handlers[name]
	e.handlersMu.RUnlock()
	if !ok {
		e.logf("reactive: no handler registered as %q", name)
		return
	}

	var current any
	if rec, ok := e.scopes[scope]; ok && !rec.destroyed && path != "" {
		current = rec.GetPath(path)
	}

	inv := Invocation{Scope: scope, Event: event, Path: path}
	result, err := callHandler(reg.fn, current, inv)
	if err != nil {
		e.logf("reactive: handler %q: %v", name, err)
		return
	}

	if d, ok := result.(*Deferred); ok {
		d.then(func(value any, err error) {
			if err != nil {
				e.logf("reactive: handler %q rejected: %v", name, err)
			} else {
				e.writeBack(scope, path, value)
			}
			e.Flush(scope)
		})
		return
	}
	e.writeBack(scope, path, result)
}

func callHandler(fn HandlerFunc, current any, inv Invocation) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(current, inv)
}

func (e *Engine) writeBack(scope any, path string, value any) {
	if path == "" {
		return
	}
	rec, ok := e.scopes[scope]
	if !ok || rec.destroyed {
		e.logf("reactive: handler write-back to unknown scope %v", scope)
		return
	}
	e.StartBatch()
	defer e.EndBatch()
	rec.SetPath(path, value)
}
