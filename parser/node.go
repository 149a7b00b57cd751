package parser

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hannajonsd/unsafe-census/census"
)

// rustNode adapts a tree-sitter node of the Rust grammar to census.Node
type rustNode struct {
	unit *Unit
	node *sitter.Node
}

var _ census.Node = (*rustNode)(nil)

func (n *rustNode) Kind() census.Kind {
	return kindOf(n.node)
}

func (n *rustNode) Unsafe() bool {
	switch n.node.Type() {
	case "unsafe_block":
		return true
	case "token_tree":
		return isMacroUnsafeBlock(n.node)
	case "function_item":
		for i := 0; i < int(n.node.ChildCount()); i++ {
			child := n.node.Child(i)
			if child.Type() == "function_modifiers" {
				return hasChild(child, "unsafe")
			}
		}
		return false
	case "trait_item", "impl_item":
		return hasChild(n.node, "unsafe")
	default:
		return false
	}
}

func (n *rustNode) ImplementsTrait() bool {
	return n.node.Type() == "impl_item" && n.node.ChildByFieldName("trait") != nil
}

func (n *rustNode) Def() census.DefID {
	return defID(n.node, n.Kind())
}

func (n *rustNode) Span() census.Span {
	return census.Span{Start: n.node.StartByte(), End: n.node.EndByte()}
}

func (n *rustNode) ChildCount() int {
	return int(n.node.ChildCount())
}

func (n *rustNode) Child(i int) census.Node {
	child := n.node.Child(i)
	if child == nil {
		return nil
	}
	return &rustNode{unit: n.unit, node: child}
}

// kindOf maps Rust grammar node types onto census kinds.
// The block directly under an unsafe_block is the same block as far as rustc
// is concerned, so only the unsafe_block is counted. Macro arguments stay
// unparsed token trees; of those only `unsafe { ... }` is counted.
func kindOf(node *sitter.Node) census.Kind {
	switch node.Type() {
	case "unsafe_block":
		return census.KindBlock
	case "block":
		if parent := node.Parent(); parent != nil && parent.Type() == "unsafe_block" {
			return census.KindOther
		}
		return census.KindBlock
	case "token_tree":
		if isMacroUnsafeBlock(node) {
			return census.KindBlock
		}
		return census.KindOther
	case "function_item":
		return census.KindFunction
	case "closure_expression":
		return census.KindClosure
	case "trait_item":
		return census.KindTrait
	case "impl_item":
		return census.KindImpl
	case "const_item", "static_item", "struct_item", "enum_item", "union_item", "type_item":
		return census.KindOwner
	default:
		return census.KindOther
	}
}

// isMacroUnsafeBlock reports whether node is a brace token tree preceded by the
// unsafe keyword inside the arguments of a macro invocation. Bodies of
// macro_rules definitions are not invocations and are skipped.
func isMacroUnsafeBlock(node *sitter.Node) bool {
	if node.ChildCount() == 0 || node.Child(0).Type() != "{" {
		return false
	}
	prev := node.PrevSibling()
	if prev == nil || prev.IsNamed() || prev.Type() != "unsafe" {
		return false
	}

	parent := node.Parent()
	for parent != nil && parent.Type() == "token_tree" {
		parent = parent.Parent()
	}
	return parent != nil && parent.Type() == "macro_invocation"
}

func hasChild(node *sitter.Node, typ string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == typ {
			return true
		}
	}
	return false
}
