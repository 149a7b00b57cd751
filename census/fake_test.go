package census_test

import (
	"fmt"

	"github.com/hannajonsd/unsafe-census/census"
)

type fakeNode struct {
	kind     census.Kind
	unsafe   bool
	ofTrait  bool
	id       census.DefID
	span     census.Span
	children []census.Node
}

func (n *fakeNode) Kind() census.Kind       { return n.kind }
func (n *fakeNode) Unsafe() bool            { return n.unsafe }
func (n *fakeNode) ImplementsTrait() bool   { return n.ofTrait }
func (n *fakeNode) Def() census.DefID       { return n.id }
func (n *fakeNode) Span() census.Span       { return n.span }
func (n *fakeNode) ChildCount() int         { return len(n.children) }
func (n *fakeNode) Child(i int) census.Node { return n.children[i] }

// fakeUnit hands out DefIDs and records names the way a front end would.
// Spans encode the line number in Start.
type fakeUnit struct {
	next    census.DefID
	names   map[census.DefID]string
	lookups map[census.DefID]int
}

func newFakeUnit() *fakeUnit {
	return &fakeUnit{
		next:    1,
		names:   make(map[census.DefID]string),
		lookups: make(map[census.DefID]int),
	}
}

func (u *fakeUnit) ResolveName(id census.DefID) string {
	u.lookups[id]++
	if name, ok := u.names[id]; ok {
		return name
	}
	return fmt.Sprintf("def#%d", id)
}

func (u *fakeUnit) ResolveLocation(span census.Span) string {
	return fmt.Sprintf("src/lib.rs:%d", span.Start)
}

func (u *fakeUnit) def(name string) census.DefID {
	id := u.next
	u.next++
	u.names[id] = name
	return id
}

func (u *fakeUnit) root(children ...census.Node) *fakeNode {
	return &fakeNode{kind: census.KindOther, id: u.def("crate"), children: children}
}

func (u *fakeUnit) fn(name string, line uint32, unsafe bool, children ...census.Node) *fakeNode {
	return &fakeNode{kind: census.KindFunction, unsafe: unsafe, id: u.def(name), span: census.Span{Start: line}, children: children}
}

func (u *fakeUnit) trait(name string, line uint32, unsafe bool, children ...census.Node) *fakeNode {
	return &fakeNode{kind: census.KindTrait, unsafe: unsafe, id: u.def(name), span: census.Span{Start: line}, children: children}
}

func (u *fakeUnit) impl(name string, line uint32, ofTrait, unsafe bool, children ...census.Node) *fakeNode {
	return &fakeNode{kind: census.KindImpl, unsafe: unsafe, ofTrait: ofTrait, id: u.def(name), span: census.Span{Start: line}, children: children}
}

func (u *fakeUnit) owner(name string, line uint32, children ...census.Node) *fakeNode {
	return &fakeNode{kind: census.KindOwner, id: u.def(name), span: census.Span{Start: line}, children: children}
}

func block(line uint32, children ...census.Node) *fakeNode {
	return &fakeNode{kind: census.KindBlock, span: census.Span{Start: line}, children: children}
}

func unsafeBlock(line uint32, children ...census.Node) *fakeNode {
	return &fakeNode{kind: census.KindBlock, unsafe: true, span: census.Span{Start: line}, children: children}
}

func closure(children ...census.Node) *fakeNode {
	return &fakeNode{kind: census.KindClosure, children: children}
}

func other(children ...census.Node) *fakeNode {
	return &fakeNode{kind: census.KindOther, children: children}
}
