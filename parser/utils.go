package parser

import (
	"context"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/text/unicode/norm"
)

// WalkAST recursively traverses an AST and applies a visitor function to each node
func WalkAST(node *sitter.Node, visitor func(*sitter.Node)) {
	visitor(node)

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		WalkAST(child, visitor)
	}
}

// ParseFileGeneric provides common file parsing functionality for all language parsers
func (bp *BaseParser) ParseFileGeneric(ctx context.Context, filePath string) (*ParseResult, error) {
	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return bp.ParseSourceGeneric(ctx, filePath, source)
}

// ParseSourceGeneric parses in-memory source attributed to filePath
func (bp *BaseParser) ParseSourceGeneric(ctx context.Context, filePath string, source []byte) (*ParseResult, error) {
	tree, err := bp.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filePath, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("failed to parse file %s", filePath)
	}

	return &ParseResult{
		Tree:     tree,
		Source:   source,
		Language: bp.langName,
		FilePath: filePath,
	}, nil
}

// GetLanguage returns the language name for this parser
func (bp *BaseParser) GetLanguage() string {
	return bp.langName
}

// Close releases the underlying tree-sitter parser
func (bp *BaseParser) Close() {
	bp.parser.Close()
}

// nodeText returns the source text of a node
func nodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// identifierText returns the NFC form of an identifier, the form rustc
// compares identifiers in
func identifierText(node *sitter.Node, source []byte) string {
	return norm.NFC.String(nodeText(node, source))
}

// typeText returns the text of a type with whitespace collapsed
func typeText(node *sitter.Node, source []byte) string {
	return norm.NFC.String(strings.Join(strings.Fields(nodeText(node, source)), " "))
}
