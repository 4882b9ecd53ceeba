package reactive_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microbind/microbind/reactive"
)

// should read-modify-write the declared path on each invocation
func TestHandlerWriteBack(t *testing.T) {
	e := quietEngine()
	e.InitScopeValues("s", map[string]any{"count": 0.0})

	e.RegisterHandler("inc", func(current any, inv reactive.Invocation) (any, error) {
		n, _ := current.(float64)
		return n + 1, nil
	})

	e.InvokeHandler("inc", "s", nil, "count")
	e.InvokeHandler("inc", "s", nil, "count")
	assert.Equal(t, 2.0, e.GetState("s")["count"])
}

// should notify watchers through the ordinary write path
func TestHandlerWriteBackNotifies(t *testing.T) {
	e := quietEngine()
	e.InitScopeValues("s", map[string]any{"count": 0.0})

	passes := 0
	e.Watch("s", func() { passes++ })

	e.RegisterHandler("inc", func(current any, inv reactive.Invocation) (any, error) {
		n, _ := current.(float64)
		return n + 1, nil
	})
	e.InvokeHandler("inc", "s", nil, "count")
	assert.Equal(t, 1, passes)
}

// should hand the handler its invocation context
func TestHandlerInvocationContext(t *testing.T) {
	e := quietEngine()
	e.InitScopeValues("s", map[string]any{"last": ""})

	var got reactive.Invocation
	e.RegisterHandler("capture", func(current any, inv reactive.Invocation) (any, error) {
		got = inv
		return current, nil
	})

	event := map[string]any{"key": "Enter"}
	e.InvokeHandler("capture", "s", event, "last")
	assert.Equal(t, "s", got.Scope)
	assert.Equal(t, event, got.Event)
	assert.Equal(t, "last", got.Path)
}

// should skip write-back when no path is declared
func TestHandlerNoPath(t *testing.T) {
	e := quietEngine()
	e.InitScopeValues("s", map[string]any{"count": 3.0})

	var sawCurrent any = "sentinel"
	e.RegisterHandler("peek", func(current any, inv reactive.Invocation) (any, error) {
		sawCurrent = current
		return 99.0, nil
	})
	e.InvokeHandler("peek", "s", nil, "")

	assert.Nil(t, sawCurrent)
	assert.Equal(t, 3.0, e.GetState("s")["count"])
}

// should treat handler errors and panics as no value produced
func TestHandlerFailure(t *testing.T) {
	e := quietEngine()
	e.InitScopeValues("s", map[string]any{"count": 1.0})

	e.RegisterHandler("fail", func(current any, inv reactive.Invocation) (any, error) {
		return 42.0, errors.New("nope")
	})
	e.RegisterHandler("explode", func(current any, inv reactive.Invocation) (any, error) {
		panic("boom")
	})

	assert.NotPanics(t, func() {
		e.InvokeHandler("fail", "s", nil, "count")
		e.InvokeHandler("explode", "s", nil, "count")
		e.InvokeHandler("unregistered", "s", nil, "count")
	})
	assert.Equal(t, 1.0, e.GetState("s")["count"])
}

// should defer write-back to resolution and flush immediately after
func TestHandlerDeferred(t *testing.T) {
	e := quietEngine()
	e.InitScopeValues("s", map[string]any{"result": nil})

	passes := 0
	e.Watch("s", func() { passes++ })

	d := reactive.NewDeferred()
	e.RegisterHandler("load", func(current any, inv reactive.Invocation) (any, error) {
		return d, nil
	})

	e.InvokeHandler("load", "s", nil, "result")
	require.Nil(t, e.GetState("s")["result"])
	require.Equal(t, 0, passes)

	d.Resolve("loaded")
	assert.Equal(t, "loaded", e.GetState("s")["result"])
	assert.Equal(t, 1, passes)

	// Settling twice is a no-op.
	d.Resolve("again")
	assert.Equal(t, "loaded", e.GetState("s")["result"])
}

// should flush visibly even when resolution happens inside a batch
func TestHandlerDeferredFlushesInsideBatch(t *testing.T) {
	e := quietEngine()
	e.InitScopeValues("s", map[string]any{"result": nil})

	passes := 0
	e.Watch("s", func() { passes++ })

	d := reactive.NewDeferred()
	e.RegisterHandler("load", func(current any, inv reactive.Invocation) (any, error) {
		return d, nil
	})
	e.InvokeHandler("load", "s", nil, "result")

	e.Batch(func() {
		d.Resolve("loaded")
		// The forced flush makes the effect visible before the batch ends.
		assert.Equal(t, 1, passes)
	})
	assert.Equal(t, 1, passes)
}

// should drop the write-back when the deferred rejects
func TestHandlerDeferredReject(t *testing.T) {
	e := quietEngine()
	e.InitScopeValues("s", map[string]any{"result": "old"})

	d := reactive.NewDeferred()
	e.RegisterHandler("load", func(current any, inv reactive.Invocation) (any, error) {
		return d, nil
	})
	e.InvokeHandler("load", "s", nil, "result")

	d.Reject(errors.New("network down"))
	assert.Equal(t, "old", e.GetState("s")["result"])
}

// should replace on re-register and keep unregister scoped to its own registration
func TestHandlerReplaceAndUnregister(t *testing.T) {
	e := quietEngine()
	e.InitScopeValues("s", map[string]any{"v": 0.0})

	unregOld := e.RegisterHandler("h", func(current any, inv reactive.Invocation) (any, error) {
		return "old", nil
	})
	e.RegisterHandler("h", func(current any, inv reactive.Invocation) (any, error) {
		return "new", nil
	})

	// The stale unregister must not remove the replacement.
	unregOld()
	unregOld()
	e.InvokeHandler("h", "s", nil, "v")
	assert.Equal(t, "new", e.GetState("s")["v"])
}

// should run deferred completion callbacks registered after settlement
func TestDeferredLateSubscriber(t *testing.T) {
	e := quietEngine()
	e.InitScopeValues("s", map[string]any{"v": nil})

	d := reactive.NewDeferred()
	d.Resolve(7.0)

	e.RegisterHandler("late", func(current any, inv reactive.Invocation) (any, error) {
		return d, nil
	})
	e.InvokeHandler("late", "s", nil, "v")
	assert.Equal(t, 7.0, e.GetState("s")["v"])
}
