package parser

import (
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hannajonsd/unsafe-census/census"
)

// Unit is one parsed Rust compilation unit (a source file). It exposes the
// syntax tree to the census and resolves census identifiers back to names
// and locations.
type Unit struct {
	result      *ParseResult
	displayPath string
	modulePath  []string

	lineStarts []uint32
	defs       map[census.DefID]*sitter.Node
	names      map[census.DefID]string
}

var _ census.Resolver = (*Unit)(nil)

// NewUnit wraps a parse result. displayPath is used in locations and
// modulePath prefixes every qualified name (nil for a crate root).
func NewUnit(result *ParseResult, displayPath string, modulePath []string) *Unit {
	if displayPath == "" {
		displayPath = result.FilePath
	}
	return &Unit{
		result:      result,
		displayPath: displayPath,
		modulePath:  modulePath,
		lineStarts:  lineIndex(result.Source),
		names:       make(map[census.DefID]string),
	}
}

// Root returns the census view of the syntax tree
func (u *Unit) Root() census.Node {
	return &rustNode{unit: u, node: u.result.Tree.RootNode()}
}

// Path returns the display path of the unit
func (u *Unit) Path() string {
	return u.displayPath
}

// HasErrors reports whether tree-sitter had to recover from syntax errors
func (u *Unit) HasErrors() bool {
	return u.result.HasErrors()
}

// Close releases the syntax tree
func (u *Unit) Close() {
	u.result.Close()
}

// ResolveName returns the qualified path of a definition, e.g.
// "ffi::raw::<Buffer as Drop>::drop"
func (u *Unit) ResolveName(id census.DefID) string {
	if name, ok := u.names[id]; ok {
		return name
	}
	node, ok := u.definitions()[id]
	if !ok {
		return fmt.Sprintf("<unknown def %d>", id)
	}
	name := u.qualifiedName(node)
	u.names[id] = name
	return name
}

// ResolveLocation returns "<file>:<line>" with a 1-based line
func (u *Unit) ResolveLocation(span census.Span) string {
	return fmt.Sprintf("%s:%d", u.displayPath, u.line(span.Start))
}

func (u *Unit) line(offset uint32) int {
	return sort.Search(len(u.lineStarts), func(i int) bool {
		return u.lineStarts[i] > offset
	})
}

func lineIndex(source []byte) []uint32 {
	starts := []uint32{0}
	for i, b := range source {
		if b == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return starts
}

// definitions indexes every definition node by DefID on first use
func (u *Unit) definitions() map[census.DefID]*sitter.Node {
	if u.defs != nil {
		return u.defs
	}
	u.defs = make(map[census.DefID]*sitter.Node)
	root := u.result.Tree.RootNode()
	u.defs[defID(root, census.KindOther)] = root
	WalkAST(root, func(n *sitter.Node) {
		switch kind := kindOf(n); kind {
		case census.KindFunction, census.KindTrait, census.KindImpl, census.KindOwner:
			u.defs[defID(n, kind)] = n
		}
	})
	return u.defs
}

// defID combines the start byte with the kind so that a definition never
// collides with the root node starting at the same byte
func defID(n *sitter.Node, kind census.Kind) census.DefID {
	return census.DefID(uint64(n.StartByte())<<8 | uint64(kind))
}

func (u *Unit) qualifiedName(node *sitter.Node) string {
	source := u.result.Source
	if node.Type() == "source_file" {
		if len(u.modulePath) == 0 {
			return "crate"
		}
		return strings.Join(u.modulePath, "::")
	}

	segments := []string{u.ownSegment(node)}
	for p := node.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "mod_item", "function_item", "trait_item":
			if name := p.ChildByFieldName("name"); name != nil {
				segments = append(segments, identifierText(name, source))
			}
		case "impl_item":
			segments = append(segments, implPathSegment(p, source))
		}
	}

	path := append([]string{}, u.modulePath...)
	for i := len(segments) - 1; i >= 0; i-- {
		path = append(path, segments[i])
	}
	return strings.Join(path, "::")
}

func (u *Unit) ownSegment(node *sitter.Node) string {
	source := u.result.Source
	if node.Type() == "impl_item" {
		return implName(node, source)
	}
	if name := node.ChildByFieldName("name"); name != nil {
		return identifierText(name, source)
	}
	return "_"
}

// implName names an impl the way it is written: "impl Trait for Type"
func implName(node *sitter.Node, source []byte) string {
	typ := node.ChildByFieldName("type")
	if typ == nil {
		return "impl"
	}
	trait := node.ChildByFieldName("trait")
	if trait == nil {
		return "impl " + typeText(typ, source)
	}
	neg := ""
	if hasChild(node, "!") {
		neg = "!"
	}
	return fmt.Sprintf("impl %s%s for %s", neg, typeText(trait, source), typeText(typ, source))
}

// implPathSegment is the path segment items inside an impl are reached by:
// "Type" for inherent impls and "<Type as Trait>" for trait impls
func implPathSegment(node *sitter.Node, source []byte) string {
	typ := node.ChildByFieldName("type")
	if typ == nil {
		return "impl"
	}
	if trait := node.ChildByFieldName("trait"); trait != nil {
		return fmt.Sprintf("<%s as %s>", typeText(typ, source), typeText(trait, source))
	}
	return typeText(typ, source)
}
