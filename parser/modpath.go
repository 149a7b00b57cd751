package parser

import (
	"path/filepath"
	"strings"
)

// ModulePath derives the module path of a source file from its place in a
// crate laid out the Cargo way. Crate roots (src/lib.rs, src/main.rs,
// src/bin/*.rs and the single-file targets under tests/, examples/ and
// benches/) return nil.
//
//	src/ffi/raw.rs  -> [ffi raw]
//	src/ffi/mod.rs  -> [ffi]
//	tests/common/mod.rs -> [common]
func ModulePath(crateDir, filePath string) []string {
	rel, err := filepath.Rel(crateDir, filePath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".rs")
	parts := strings.Split(rel, "/")
	if len(parts) < 2 {
		// build.rs and friends
		return nil
	}

	switch parts[0] {
	case "src":
		parts = parts[1:]
		if parts[0] == "bin" {
			parts = targetModulePath(parts[1:])
		} else if len(parts) == 1 && (parts[0] == "lib" || parts[0] == "main") {
			return nil
		}
	case "tests", "examples", "benches":
		parts = targetModulePath(parts[1:])
	default:
		return nil
	}

	if n := len(parts); n > 0 && parts[n-1] == "mod" {
		parts = parts[:n-1]
	}
	if len(parts) == 0 {
		return nil
	}
	return parts
}

// targetModulePath handles auto-discovered targets: a single file or a
// directory with a main.rs is a crate root of its own
func targetModulePath(parts []string) []string {
	switch {
	case len(parts) <= 1:
		return nil
	case len(parts) == 2 && parts[1] == "main":
		return nil
	default:
		return parts
	}
}
