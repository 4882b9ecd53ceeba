package reactive

import "github.com/microbind/microbind/dsl"

// Watch registers a zero-argument callback invoked once per notification
// pass for the scope. It never fails: an unknown scope is first offered to
// the configured scope initializer, and if it stays unknown the returned
// unsubscribe is a callable no-op.
//
// This is the sole seam a presentation layer needs; the engine has no idea
// what a watcher renders.
func (e *Engine) Watch(scope any, callback func()) (unsubscribe func()) {
	rec, ok := e.scopes[scope]
	if (!ok || rec.destroyed) && e.scopeInit != nil && e.scopeInit(scope) {
		rec, ok = e.scopes[scope]
	}
	if !ok || rec.destroyed {
		e.logf("reactive: watch on unknown scope %v", scope)
		return func() {}
	}

	w := &watcher{fn: callback}
	rec.watchers = append(rec.watchers, w)

	return func() {
		if w.removed {
			return
		}
		w.removed = true
		for i, cur := range rec.watchers {
			if cur == w {
				rec.watchers = append(rec.watchers[:i], rec.watchers[i+1:]...)
				break
			}
		}
	}
}

// Bind attaches an expression to an update callback: evaluate once now,
// re-evaluate on every settled notification pass, and call update only when
// the computed value actually changed. This is the directive contract the
// DOM processors (and the tests) consume.
func (e *Engine) Bind(scope any, source string, extras dsl.Extras, update func(value any)) (unbind func()) {
	last := e.Evaluate(source, scope, extras)
	update(last)

	return e.Watch(scope, func() {
		next := e.Evaluate(source, scope, extras)
		if dsl.StrictEqual(next, last) {
			return
		}
		last = next
		update(next)
	})
}
