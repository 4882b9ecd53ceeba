package reactive

import (
	"github.com/microbind/microbind/dsl"
)

// scopeRecord is one scope's state record plus its watcher set and the
// scheduling markers. It implements dsl.State so expressions read and write
// through the same observed path the public API uses.
type scopeRecord struct {
	eng *Engine
	key any

	state    map[string]any
	watchers []*watcher

	// pending means a notification pass is queued but has not run yet.
	pending bool
	// notifying is set for the duration of a pass over this scope.
	notifying bool
	// rearmed records a re-entrant schedule request under PolicyDefer.
	rearmed   bool
	destroyed bool
}

type watcher struct {
	fn      func()
	removed bool
}

func (r *scopeRecord) GetPath(path string) any {
	return dsl.PathGet(r.state, path)
}

// SetPath writes a dotted path. Writes that do not change the stored value
// are dropped; a changed write arms the scope's pending marker, which
// schedules at most one notification pass per turn however many keys
// change.
func (r *scopeRecord) SetPath(path string, value any) bool {
	if r.destroyed {
		return false
	}
	old := dsl.PathGet(r.state, path)
	if dsl.StrictEqual(old, value) {
		return true
	}
	if !dsl.PathSet(r.state, path, value) {
		r.eng.logf("reactive: cannot write path %q on scope %v", path, r.key)
		return false
	}
	r.arm()
	return true
}

// arm requests a notification pass. During an in-progress pass the request
// is governed by the engine's re-entrancy policy; outside one it enqueues
// the scope at most once.
func (r *scopeRecord) arm() {
	if r.destroyed {
		return
	}
	if r.notifying {
		if r.eng.policy == PolicyDefer {
			r.rearmed = true
		}
		return
	}
	if r.pending {
		return
	}
	r.pending = true
	r.eng.enqueue(r)
}

// flush drains this scope's pending marker synchronously. Safe to call when
// nothing is pending. Under PolicyDefer the loop keeps going until a pass
// completes without a re-entrant request, so every intermediate state is
// observed without growing the stack.
func (r *scopeRecord) flush() {
	if !r.pending {
		return
	}
	r.pending = false
	for {
		r.runWatchers()
		if !r.rearmed {
			return
		}
		r.rearmed = false
	}
}

// runWatchers invokes the watcher set in registration order. Each watcher
// is isolated: a panic is logged and its siblings still run.
func (r *scopeRecord) runWatchers() {
	r.notifying = true
	defer func() { r.notifying = false }()

	// Snapshot so mid-pass subscribes wait for the next pass; a watcher
	// unsubscribed mid-pass is skipped if it has not run yet.
	snapshot := append([]*watcher(nil), r.watchers...)
	for _, w := range snapshot {
		if w.removed {
			continue
		}
		r.safeCall(w)
	}
}

func (r *scopeRecord) safeCall(w *watcher) {
	defer func() {
		if rec := recover(); rec != nil {
			r.eng.logf("reactive: watcher on scope %v panicked: %v", r.key, rec)
		}
	}()
	w.fn()
}
