package dsl

// MapState is the trivial State over a plain map, with none of the reactive
// store's change observation. Used by the evaluator's own tests and by the
// dslcheck tool.
type MapState map[string]any

func (m MapState) GetPath(path string) any {
	return PathGet(map[string]any(m), path)
}

func (m MapState) SetPath(path string, value any) bool {
	return PathSet(map[string]any(m), path, value)
}
