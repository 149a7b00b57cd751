package analyzer

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/hannajonsd/unsafe-census/parser"
)

// DefaultIgnorePatterns are skipped in every repository
var DefaultIgnorePatterns = []string{
	"target/",
	"vendor/",
	".git/",
}

// sourceFilter decides which paths under a root take part in the census
type sourceFilter struct {
	root    string
	matcher *ignore.GitIgnore
}

// newSourceFilter combines the default patterns, the configured excludes and
// the root .gitignore
func newSourceFilter(root string, exclude []string) *sourceFilter {
	patterns := append([]string{}, DefaultIgnorePatterns...)
	patterns = append(patterns, exclude...)

	gitignorePath := filepath.Join(root, ".gitignore")
	if content, err := os.ReadFile(gitignorePath); err == nil {
		patterns = append(patterns, strings.Split(string(content), "\n")...)
	}

	return &sourceFilter{
		root:    root,
		matcher: ignore.CompileIgnoreLines(patterns...),
	}
}

// ShouldIgnore checks a path against the ignore patterns. Directories are
// matched with a trailing slash so that "dir/" patterns apply.
func (sf *sourceFilter) ShouldIgnore(path string, isDir bool) bool {
	relPath, err := filepath.Rel(sf.root, path)
	if err != nil || relPath == "." {
		return false
	}

	relPath = filepath.ToSlash(relPath)
	if isDir {
		relPath += "/"
	}
	return sf.matcher.MatchesPath(relPath)
}

func (sf *sourceFilter) skipDir(path string) bool {
	return sf.ShouldIgnore(path, true)
}

// findSourceFiles finds all Rust source files below the filter's root in
// lexical order
func (sf *sourceFilter) findSourceFiles() ([]string, error) {
	var sourceFiles []string

	err := filepath.WalkDir(sf.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == sf.root {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || sf.ShouldIgnore(path, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if parser.IsSourceFile(path) && !sf.ShouldIgnore(path, false) {
			sourceFiles = append(sourceFiles, path)
		}
		return nil
	})

	return sourceFiles, err
}

// displayPath returns path relative to root with forward slashes
func displayPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
