package census

import (
	"fmt"
	"slices"
)

// pending is a function whose classification is not final yet
type pending struct {
	id   DefID
	span Span
}

// pendingSet is an insertion ordered set of pending functions keyed by DefID
type pendingSet struct {
	entries []pending
	index   map[DefID]struct{}
}

func newPendingSet() *pendingSet {
	return &pendingSet{index: make(map[DefID]struct{})}
}

func (s *pendingSet) contains(id DefID) bool {
	_, ok := s.index[id]
	return ok
}

// add inserts id unless it is already present and reports whether it did
func (s *pendingSet) add(id DefID, span Span) bool {
	if s.contains(id) {
		return false
	}
	s.index[id] = struct{}{}
	s.entries = append(s.entries, pending{id: id, span: span})
	return true
}

func (s *pendingSet) remove(id DefID) {
	if !s.contains(id) {
		return
	}
	delete(s.index, id)
	s.entries = slices.DeleteFunc(s.entries, func(p pending) bool {
		return p.id == id
	})
}

func (s *pendingSet) len() int {
	return len(s.entries)
}

// State is the classification state of one census run. It must not be
// shared between runs or goroutines.
type State struct {
	resolver Resolver

	safeFns   *pendingSet
	unsafeFns *pendingSet

	unsafeTraits     []Finding
	unsafeTraitImpls []Finding

	unsafeBlocks int
	safeBlocks   int
}

// NewState creates an empty classification state
func NewState(resolver Resolver) *State {
	if resolver == nil {
		panic("census: nil resolver")
	}
	return &State{
		resolver:  resolver,
		safeFns:   newPendingSet(),
		unsafeFns: newPendingSet(),
	}
}

// Apply folds one event into the state.
//
// Unsafe membership of a function is never withdrawn: an unsafe block revokes
// a safe declaration, and a safe declaration arriving after an unsafe block
// for the same function is ignored. The final membership is therefore the
// same whichever order the events for one function arrive in.
func (s *State) Apply(ev Event) {
	switch ev := ev.(type) {
	case BlockEvent:
		if !ev.Unsafe {
			s.safeBlocks++
			return
		}
		s.unsafeBlocks++
		s.safeFns.remove(ev.Owner)
		s.unsafeFns.add(ev.Owner, ev.Span)
	case FunctionEvent:
		if ev.Safe {
			if !s.unsafeFns.contains(ev.ID) {
				s.safeFns.add(ev.ID, ev.Span)
			}
			return
		}
		s.safeFns.remove(ev.ID)
		s.unsafeFns.add(ev.ID, ev.Span)
	case TraitEvent:
		s.unsafeTraits = append(s.unsafeTraits, s.finding(ev.ID, ev.Span, false))
	case TraitImplEvent:
		s.unsafeTraitImpls = append(s.unsafeTraitImpls, s.finding(ev.ID, ev.Span, false))
	default:
		panic(fmt.Sprintf("census: unknown event %T", ev))
	}
}

// Pending returns the number of safe and unsafe functions awaiting assembly
func (s *State) Pending() (safe, unsafe int) {
	return s.safeFns.len(), s.unsafeFns.len()
}

// Report resolves every pending function once and assembles the census.
// Unsafe functions come first, then safe ones, each in discovery order.
func (s *State) Report() Report {
	functions := make([]Finding, 0, s.safeFns.len()+s.unsafeFns.len())
	for _, p := range s.unsafeFns.entries {
		functions = append(functions, s.finding(p.id, p.span, false))
	}
	for _, p := range s.safeFns.entries {
		functions = append(functions, s.finding(p.id, p.span, true))
	}

	return Report{
		UnsafeTraitImpls: append([]Finding{}, s.unsafeTraitImpls...),
		UnsafeTraits:     append([]Finding{}, s.unsafeTraits...),
		Functions:        functions,
		UnsafeBlocks:     s.unsafeBlocks,
		SafeBlocks:       s.safeBlocks,
	}
}

func (s *State) finding(id DefID, span Span, safe bool) Finding {
	return Finding{
		Name:     s.resolver.ResolveName(id),
		IsSafe:   safe,
		Location: s.resolver.ResolveLocation(span),
	}
}
