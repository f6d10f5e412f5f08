package archtable

type factory struct{}

// Factory is the single entry point for constructing the package's
// top-level objects, mirroring the constructor-registry pattern this
// codebase uses throughout instead of bare package-level constructors.
var Factory factory

// NewWorld constructs an empty World.
func (f factory) NewWorld() *World {
	return NewWorld()
}

// NewEngine constructs an Engine bound to world.
func (f factory) NewEngine(world *World) *Engine {
	return NewEngine(world)
}

// FactoryNewTypeInfoCache constructs a generic lookup cache, typically used to
// dictionary-index tables by type hash or name.
func FactoryNewTypeInfoCache[T any](cap int) Cache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[string]int),
		maxCapacity: cap,
	}
}
