package census

// DefID identifies a definition (function, trait, impl or other body owner)
// inside one compilation unit. The front end picks the value; the census only
// compares DefIDs for equality.
type DefID uint64

// Span is a byte range [Start, End) inside a compilation unit
type Span struct {
	Start uint32
	End   uint32
}

// Finding is a classified construct ready for reporting
type Finding struct {
	Name     string `json:"name"`
	IsSafe   bool   `json:"is_safe"`
	Location string `json:"location"`
}

// Report is the census of one compilation unit.
// Every list keeps discovery order. Functions lists the unsafe functions
// first and the safe ones after them.
type Report struct {
	UnsafeTraitImpls []Finding `json:"unsafe_trait_impls"`
	UnsafeTraits     []Finding `json:"unsafe_traits"`
	Functions        []Finding `json:"functions"`
	UnsafeBlocks     int       `json:"unsafe_blocks"`
	SafeBlocks       int       `json:"safe_blocks"`
}

// UnsafeFunctions returns the function findings flagged unsafe
func (r Report) UnsafeFunctions() []Finding {
	var unsafeFns []Finding
	for _, fn := range r.Functions {
		if !fn.IsSafe {
			unsafeFns = append(unsafeFns, fn)
		}
	}
	return unsafeFns
}

// HasUnsafe reports whether any unsafe construct was found
func (r Report) HasUnsafe() bool {
	return len(r.UnsafeTraitImpls) > 0 || len(r.UnsafeTraits) > 0 || r.UnsafeBlocks > 0 || len(r.UnsafeFunctions()) > 0
}

// Resolver turns identifiers of the front end into human readable strings.
type Resolver interface {
	// ResolveName returns the qualified name of a definition.
	ResolveName(id DefID) string
	// ResolveLocation returns "<file>:<line>" for a span.
	ResolveLocation(span Span) string
}

// Kind is the construct kind of a Node as far as the census is concerned
type Kind uint8

const (
	// KindOther nodes are only traversed.
	KindOther Kind = iota
	KindBlock
	KindFunction
	KindClosure
	KindTrait
	KindImpl
	// KindOwner is a definition other than a function that can own bodies,
	// e.g. a const or a static item.
	KindOwner
)

func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindFunction:
		return "function"
	case KindClosure:
		return "closure"
	case KindTrait:
		return "trait"
	case KindImpl:
		return "impl"
	case KindOwner:
		return "owner"
	default:
		return "other"
	}
}

// Node is one node of a parsed compilation unit.
//
// Unsafe reports the safety modifier of blocks, functions, traits and impls.
// ImplementsTrait is only meaningful for KindImpl. Def is only meaningful for
// KindFunction, KindTrait, KindImpl, KindOwner and the root node.
type Node interface {
	Kind() Kind
	Unsafe() bool
	ImplementsTrait() bool
	Def() DefID
	Span() Span
	ChildCount() int
	Child(i int) Node
}
