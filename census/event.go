package census

// Event is a classification event emitted by the walker. The set of
// implementations is closed: BlockEvent, FunctionEvent, TraitEvent and
// TraitImplEvent.
type Event interface {
	event()
}

// BlockEvent is emitted for every block. Owner is the DefID of the nearest
// enclosing function or body owner.
type BlockEvent struct {
	Owner  DefID
	Span   Span
	Unsafe bool
}

// FunctionEvent is emitted for every function or method with a body.
// Safe is the declared safety of its header.
type FunctionEvent struct {
	ID   DefID
	Span Span
	Safe bool
}

// TraitEvent is emitted for an unsafe trait definition.
type TraitEvent struct {
	ID   DefID
	Span Span
}

// TraitImplEvent is emitted for an unsafe implementation of a trait.
type TraitImplEvent struct {
	ID   DefID
	Span Span
}

func (BlockEvent) event()     {}
func (FunctionEvent) event()  {}
func (TraitEvent) event()     {}
func (TraitImplEvent) event() {}
