package osv

// CratesIO is the OSV ecosystem name of Rust packages
const CratesIO = "crates.io"

// OSVRequest represents a vulnerability query request to the OSV API
type OSVRequest struct {
	Package struct {
		Name      string `json:"name"`
		Ecosystem string `json:"ecosystem"`
	} `json:"package"`
	Version string `json:"version,omitempty"`
}

// Advisory represents a security vulnerability advisory from OSV
type Advisory struct {
	ID       string     `json:"id"`
	Summary  string     `json:"summary"`
	Details  string     `json:"details"`
	Aliases  []string   `json:"aliases,omitempty"`
	Severity []Severity `json:"severity,omitempty"`
	Affected []Affected `json:"affected"`
}

// Severity is a scored severity (e.g. CVSS_V3)
type Severity struct {
	Type  string `json:"type"`
	Score string `json:"score"`
}

// Affected represents a package affected by a vulnerability
type Affected struct {
	Package           PackageInfo       `json:"package"`
	Ranges            []Range           `json:"ranges,omitempty"`
	EcosystemSpecific EcosystemSpecific `json:"ecosystem_specific"`
}

// Range lists the introduced/fixed events of an affected version range
type Range struct {
	Type   string  `json:"type"`
	Events []Event `json:"events"`
}

// Event is one boundary of an affected range
type Event struct {
	Introduced string `json:"introduced,omitempty"`
	Fixed      string `json:"fixed,omitempty"`
}

// PackageInfo contains basic package identification information
type PackageInfo struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem"`
}

// EcosystemSpecific contains ecosystem-specific vulnerability details.
// RustSec advisories list affected functions under "affects".
type EcosystemSpecific struct {
	Affects Affects  `json:"affects"`
	Imports []Import `json:"imports,omitempty"`
}

// Affects lists the affected functions of a crate as "crate::path::fn"
type Affects struct {
	Functions []string `json:"functions,omitempty"`
}

// Import represents a vulnerable import path and its affected symbols
type Import struct {
	Path    string   `json:"path"`
	Symbols []string `json:"symbols"`
}

// FixedVersions returns every version that fixes the advisory
func (a Advisory) FixedVersions() []string {
	var fixed []string
	for _, affected := range a.Affected {
		for _, r := range affected.Ranges {
			for _, ev := range r.Events {
				if ev.Fixed != "" {
					fixed = append(fixed, ev.Fixed)
				}
			}
		}
	}
	return DeduplicateSlice(fixed)
}

// AffectedFunctions returns the function paths the advisory names
func (a Advisory) AffectedFunctions() []string {
	var fns []string
	for _, affected := range a.Affected {
		fns = append(fns, affected.EcosystemSpecific.Affects.Functions...)
		for _, imp := range affected.EcosystemSpecific.Imports {
			fns = append(fns, imp.Symbols...)
		}
	}
	return DeduplicateSlice(fns)
}
