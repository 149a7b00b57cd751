package osv

import (
	"regexp"
	"strings"
)

const ident = `[a-zA-Z_][a-zA-Z0-9_]*`

var (
	callPattern      = regexp.MustCompile(`\b(` + ident + `(?:::` + ident + `)*)\s*\(\)`)
	backtickPattern  = regexp.MustCompile("`(" + ident + `(?:::` + ident + `)*)(?:\(\))?` + "`")
	funcWordPattern  = regexp.MustCompile(`(?i)\b(` + ident + `)\b\s+(?:function|method)`)
	quotedPattern    = regexp.MustCompile(`['"](` + ident + `)['"]`)
	symbolExtractors = []*regexp.Regexp{callPattern, backtickPattern, funcWordPattern, quotedPattern}
)

// ExtractMentionedSymbols finds function names and paths in advisory text.
// Results keep the order of first mention.
func ExtractMentionedSymbols(text string) []string {
	var found []string
	for _, re := range symbolExtractors {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			found = append(found, text[m[2]:m[3]])
		}
	}

	var results []string
	for _, s := range DeduplicateSlice(found) {
		if isSymbolLike(s) && !looksLikeGarbageSymbol(s) {
			results = append(results, s)
		}
	}
	return results
}

// isSymbolLike filters out URLs, file names, and other non-symbol-like strings
func isSymbolLike(s string) bool {
	blockedKeywords := []string{
		"http", "www", "github", "readme", "cargo", "crates", "rustsec", "e.g", "i.e",
	}

	lowerS := strings.ToLower(s)
	for _, keyword := range blockedKeywords {
		if lowerS == keyword {
			return false
		}
	}
	return true
}

// ExtractPossibleSymbols extracts function symbols from vulnerability text,
// excluding the crate name itself
func ExtractPossibleSymbols(crate, summary, details string) []string {
	var results []string
	for _, match := range ExtractMentionedSymbols(summary + " " + details) {
		if match == crate || match == strings.ReplaceAll(crate, "-", "_") {
			continue
		}
		results = append(results, match)
	}
	return results
}

func looksLikeGarbageSymbol(s string) bool {
	lower := strings.ToLower(s)

	// obvious junk words
	junk := []string{"true", "false", "none", "some", "self", "unsafe", "the", "this", "previous", "vulnerable", "safe"}
	for _, j := range junk {
		if lower == j {
			return true
		}
	}
	return len(s) < 2
}

// DeduplicateSlice removes duplicate strings while preserving order
func DeduplicateSlice(slice []string) []string {
	seen := make(map[string]struct{}, len(slice))
	var out []string
	for _, s := range slice {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
