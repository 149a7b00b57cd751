package analyzer

import (
	"time"

	"github.com/hannajonsd/unsafe-census/census"
	"github.com/hannajonsd/unsafe-census/manifest"
)

// Options configures a CensusAnalyzer
type Options struct {
	Workers     int
	Exclude     []string
	Advisories  bool
	OSVEndpoint string
	Timeout     time.Duration
}

// RepositoryReport is the census of every Rust file under a root directory
type RepositoryReport struct {
	Root   string        `json:"root"`
	Crates []CrateReport `json:"crates"`
	Totals Totals        `json:"totals"`
}

// CrateReport groups the files of one crate. Files outside any crate are
// collected in a report with an empty name.
type CrateReport struct {
	manifest.Crate
	Files      []FileReport `json:"files"`
	Advisories []Advisory   `json:"advisories,omitempty"`
}

// FileReport is the census of a single source file
type FileReport struct {
	Path        string `json:"path"`
	ParseErrors bool   `json:"parse_errors,omitempty"`
	census.Report
}

// Advisory is an OSV advisory of a crate together with the unsafe functions
// of the crate it mentions
type Advisory struct {
	ID            string           `json:"id"`
	Summary       string           `json:"summary"`
	Aliases       []string         `json:"aliases,omitempty"`
	FixedVersions []string         `json:"fixed_versions,omitempty"`
	Symbols       []string         `json:"symbols,omitempty"`
	UnsafeMatches []census.Finding `json:"unsafe_matches,omitempty"`
}

// Totals sums the census over the whole repository
type Totals struct {
	Files            int `json:"files"`
	FilesWithErrors  int `json:"files_with_errors"`
	UnsafeFunctions  int `json:"unsafe_functions"`
	SafeFunctions    int `json:"safe_functions"`
	UnsafeTraits     int `json:"unsafe_traits"`
	UnsafeTraitImpls int `json:"unsafe_trait_impls"`
	UnsafeBlocks     int `json:"unsafe_blocks"`
	SafeBlocks       int `json:"safe_blocks"`
	Advisories       int `json:"advisories"`
}

// HasUnsafe reports whether any file contains an unsafe construct
func (r *RepositoryReport) HasUnsafe() bool {
	for _, c := range r.Crates {
		for _, f := range c.Files {
			if f.HasUnsafe() {
				return true
			}
		}
	}
	return false
}

func (t *Totals) add(f FileReport) {
	t.Files++
	if f.ParseErrors {
		t.FilesWithErrors++
	}
	for _, fn := range f.Functions {
		if fn.IsSafe {
			t.SafeFunctions++
		} else {
			t.UnsafeFunctions++
		}
	}
	t.UnsafeTraits += len(f.UnsafeTraits)
	t.UnsafeTraitImpls += len(f.UnsafeTraitImpls)
	t.UnsafeBlocks += f.UnsafeBlocks
	t.SafeBlocks += f.SafeBlocks
}
