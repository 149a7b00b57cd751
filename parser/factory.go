package parser

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CreateParser creates the appropriate parser based on file extension
func CreateParser(filePath string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".rs":
		return NewRustParser()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
}

// IsSourceFile reports whether CreateParser accepts the file
func IsSourceFile(filePath string) bool {
	return strings.ToLower(filepath.Ext(filePath)) == ".rs"
}
