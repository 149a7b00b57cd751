package parser

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parser defines the interface for language-specific source code parsers
type Parser interface {
	GetLanguage() string
	Close()
	ParseFile(ctx context.Context, filePath string) (*ParseResult, error)
}

// BaseParser provides common functionality for all language parsers
type BaseParser struct {
	parser   *sitter.Parser
	language *sitter.Language
	langName string
}

// ParseResult contains the parsed AST and metadata for a source file
type ParseResult struct {
	Tree     *sitter.Tree
	Source   []byte
	Language string
	FilePath string
}

// HasErrors reports whether the tree contains syntax errors
func (r *ParseResult) HasErrors() bool {
	return r.Tree.RootNode().HasError()
}

// Close releases the syntax tree
func (r *ParseResult) Close() {
	r.Tree.Close()
}
