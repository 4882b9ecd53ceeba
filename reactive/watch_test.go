package reactive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microbind/microbind/reactive"
)

// should return a callable no-op unsubscribe for an unknown scope
func TestWatchUnknownScope(t *testing.T) {
	e := quietEngine()

	var unsub func()
	assert.NotPanics(t, func() {
		unsub = e.Watch("nobody", func() {})
	})
	require.NotNil(t, unsub)
	assert.NotPanics(t, unsub)
}

// should ask the scope initializer before giving up on an unknown scope
func TestWatchLazyInit(t *testing.T) {
	var e *reactive.Engine
	e = quietEngine(reactive.WithScopeInitializer(func(scope any) bool {
		if scope != "lazy" {
			return false
		}
		e.InitScopeValues(scope, map[string]any{"x": 0.0})
		return true
	}))

	calls := 0
	e.Watch("lazy", func() { calls++ })
	require.True(t, e.HasScope("lazy"))

	e.SetState("lazy", map[string]any{"x": 1.0})
	assert.Equal(t, 1, calls)

	// Initializer declines: back to the no-op path.
	assert.NotPanics(t, e.Watch("stubborn", func() {}))
	assert.False(t, e.HasScope("stubborn"))
}

// should push the initial value and then only actual changes
func TestBind(t *testing.T) {
	e := quietEngine()
	e.InitScopeValues("s", map[string]any{"count": 0.0})

	var seen []any
	unbind := e.Bind("s", "count > 0", nil, func(value any) {
		seen = append(seen, value)
	})
	assert.Equal(t, []any{false}, seen)

	e.SetState("s", map[string]any{"count": 5.0})
	assert.Equal(t, []any{false, true}, seen)

	// Still true: recomputed but not re-delivered.
	e.SetState("s", map[string]any{"count": 9.0})
	assert.Equal(t, []any{false, true}, seen)

	e.SetState("s", map[string]any{"count": 0.0})
	assert.Equal(t, []any{false, true, false}, seen)

	unbind()
	e.SetState("s", map[string]any{"count": 3.0})
	assert.Equal(t, []any{false, true, false}, seen)
}

// should bind computed values, not just booleans
func TestBindValue(t *testing.T) {
	e := quietEngine()
	e.InitScopeValues("s", map[string]any{"first": "ada", "last": "lovelace"})

	var label any
	e.Bind("s", `["?:", ["get","first"], ["get","first"], ["get","last"]]`, nil, func(v any) {
		label = v
	})
	assert.Equal(t, "ada", label)

	e.SetState("s", map[string]any{"first": ""})
	assert.Equal(t, "lovelace", label)
}
