package census

// walker drives a pre-order traversal and feeds the state
type walker struct {
	state  *State
	owners []DefID
}

// Run takes the census of one compilation unit rooted at root.
// Blocks that are not inside any function or body owner belong to the
// root's DefID.
func Run(root Node, resolver Resolver) Report {
	if root == nil {
		panic("census: nil root")
	}
	w := &walker{
		state:  NewState(resolver),
		owners: []DefID{root.Def()},
	}
	w.walkChildren(root)
	return w.state.Report()
}

func (w *walker) owner() DefID {
	return w.owners[len(w.owners)-1]
}

func (w *walker) visit(n Node) {
	switch n.Kind() {
	case KindBlock:
		w.state.Apply(BlockEvent{Owner: w.owner(), Span: n.Span(), Unsafe: n.Unsafe()})
		w.walkChildren(n)

	case KindFunction:
		w.state.Apply(FunctionEvent{ID: n.Def(), Span: n.Span(), Safe: !n.Unsafe()})
		w.walkOwned(n)

	case KindOwner:
		w.walkOwned(n)

	case KindTrait:
		if n.Unsafe() {
			w.state.Apply(TraitEvent{ID: n.Def(), Span: n.Span()})
		}
		w.walkChildren(n)

	case KindImpl:
		if n.ImplementsTrait() && n.Unsafe() {
			w.state.Apply(TraitImplEvent{ID: n.Def(), Span: n.Span()})
		}
		w.walkChildren(n)

	default:
		// Closures are not classified; their blocks stay with the
		// enclosing owner.
		w.walkChildren(n)
	}
}

// walkOwned walks the children of a definition that owns its bodies
func (w *walker) walkOwned(n Node) {
	w.owners = append(w.owners, n.Def())
	w.walkChildren(n)
	w.owners = w.owners[:len(w.owners)-1]
}

func (w *walker) walkChildren(n Node) {
	for i := 0; i < n.ChildCount(); i++ {
		if child := n.Child(i); child != nil {
			w.visit(child)
		}
	}
}
