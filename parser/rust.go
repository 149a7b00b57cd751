package parser

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

type RustParser struct {
	BaseParser
}

// NewRustParser creates a new Rust language parser using tree-sitter
func NewRustParser() (*RustParser, error) {
	parser := sitter.NewParser()
	language := rust.GetLanguage()
	parser.SetLanguage(language)

	return &RustParser{
		BaseParser: BaseParser{
			parser:   parser,
			language: language,
			langName: "rust",
		},
	}, nil
}

// ParseFile parses a Rust source file and returns the parse result
func (p *RustParser) ParseFile(ctx context.Context, filePath string) (*ParseResult, error) {
	return p.ParseFileGeneric(ctx, filePath)
}
