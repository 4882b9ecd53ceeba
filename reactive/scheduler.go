package reactive

// The scheduler is the engine's stand-in for end-of-turn microtasks: a
// FIFO of armed scopes that drains when the outermost execution unit ends.
// Every public mutating entry point brackets itself with StartBatch and
// EndBatch, so a bare write drains immediately while nested writes ride the
// enclosing unit.

// StartBatch opens an execution unit. Writes inside it arm scopes without
// notifying.
func (e *Engine) StartBatch() {
	e.batchDepth++
}

// EndBatch closes the unit and, when it was the outermost one, drains the
// queue.
func (e *Engine) EndBatch() {
	e.batchDepth--
	if e.batchDepth == 0 {
		e.drain()
	}
}

// Batch runs fn as one execution unit: however many writes it performs,
// each touched scope gets one notification pass when fn returns.
func (e *Engine) Batch(fn func()) {
	e.StartBatch()
	defer e.EndBatch()
	fn()
}

// Flush forcibly drains one scope's pending marker before returning, for
// callers that need watcher-visible effects inside an event handler. A
// no-op when nothing is pending or the scope is unknown.
func (e *Engine) Flush(scope any) {
	rec, ok := e.scopes[scope]
	if !ok || rec.destroyed {
		return
	}
	rec.flush()
}

// enqueue adds a scope to the notification queue at most once. The mapset
// membership check keeps the FIFO free of duplicates without scanning it.
func (e *Engine) enqueue(r *scopeRecord) {
	if e.queued.Contains(r) {
		return
	}
	e.queued.Add(r)
	e.queue = append(e.queue, r)
	if e.batchDepth == 0 {
		e.drain()
	}
}

// drain runs notification passes until the queue is empty. Scopes armed by
// watchers of other scopes during the drain join the same loop, so chained
// cross-scope updates settle iteratively rather than recursively.
func (e *Engine) drain() {
	if e.draining {
		return
	}
	e.draining = true
	defer func() { e.draining = false }()

	for len(e.queue) > 0 {
		r := e.queue[0]
		e.queue = e.queue[1:]
		e.queued.Remove(r)
		if r.destroyed {
			continue
		}
		r.flush()
	}
}
