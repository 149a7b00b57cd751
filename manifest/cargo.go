package manifest

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/hannajonsd/unsafe-census/logger"
)

const CargoFile = "Cargo.toml"

// Cargo is the subset of a Cargo.toml the census cares about
type Cargo struct {
	Package   *Package   `toml:"package"`
	Workspace *Workspace `toml:"workspace"`
}

// Package is the [package] table. Version and edition may be inherited from
// the workspace ({ workspace = true }), so they are decoded loosely.
type Package struct {
	Name    string `toml:"name"`
	Version any    `toml:"version"`
	Edition any    `toml:"edition"`
}

// Workspace is the [workspace] table
type Workspace struct {
	Members []string          `toml:"members"`
	Exclude []string          `toml:"exclude"`
	Package *WorkspacePackage `toml:"package"`
}

// WorkspacePackage is the [workspace.package] table members inherit from
type WorkspacePackage struct {
	Version string `toml:"version"`
	Edition string `toml:"edition"`
}

// Crate is a package found on disk
type Crate struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Edition string `json:"edition,omitempty"`
	Dir     string `json:"dir"`
}

// LoadCargo parses a Cargo.toml file
func LoadCargo(path string) (*Cargo, error) {
	var cargo Cargo
	if _, err := toml.DecodeFile(path, &cargo); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cargo, nil
}

// VersionString returns the literal version, or "" when it is inherited
func (p *Package) VersionString() string {
	if v, ok := p.Version.(string); ok {
		return v
	}
	return ""
}

// EditionString returns the literal edition, or "" when it is inherited
func (p *Package) EditionString() string {
	if e, ok := p.Edition.(string); ok {
		return e
	}
	return ""
}

// InheritsVersion reports whether the version is `version.workspace = true`
func (p *Package) InheritsVersion() bool {
	return inherited(p.Version)
}

// InheritsEdition reports whether the edition is `edition.workspace = true`
func (p *Package) InheritsEdition() bool {
	return inherited(p.Edition)
}

func inherited(value any) bool {
	table, ok := value.(map[string]any)
	return ok && table["workspace"] == true
}

// FindCrates locates every package manifest under rootDir. skip is consulted
// for every directory below the root; returning true prunes it. Manifests that
// fail to parse are logged and skipped. Versions and editions inherited from
// a workspace are resolved against the enclosing workspace root.
func FindCrates(rootDir string, skip func(path string) bool) ([]Crate, error) {
	rootAbs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", rootDir, err)
	}

	var (
		crates     []Crate
		packages   []*Package
		workspaces []workspaceRoot
	)
	err = filepath.WalkDir(rootAbs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == rootAbs {
				return nil
			}
			name := d.Name()
			// Skip hidden directories and build output
			if strings.HasPrefix(name, ".") || name == "target" || name == "vendor" {
				return filepath.SkipDir
			}
			if skip != nil && skip(path) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Name() != CargoFile {
			return nil
		}

		cargo, err := LoadCargo(path)
		if err != nil {
			logger.Warnf("Skipping manifest: %v", err)
			return nil
		}
		if cargo.Workspace != nil {
			workspaces = append(workspaces, workspaceRoot{dir: filepath.Dir(path), workspace: cargo.Workspace})
		}
		if cargo.Package == nil {
			// virtual workspace manifest
			return nil
		}

		packages = append(packages, cargo.Package)
		crates = append(crates, Crate{
			Name:    cargo.Package.Name,
			Version: cargo.Package.VersionString(),
			Edition: cargo.Package.EditionString(),
			Dir:     filepath.Dir(path),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find crates in %s: %w", rootDir, err)
	}

	for i, pkg := range packages {
		if !pkg.InheritsVersion() && !pkg.InheritsEdition() {
			continue
		}
		ws := enclosingWorkspace(workspaces, crates[i].Dir)
		if ws == nil || ws.Package == nil {
			logger.Debugf("%s inherits from a workspace that could not be resolved", crates[i].Name)
			continue
		}
		if pkg.InheritsVersion() {
			crates[i].Version = ws.Package.Version
		}
		if pkg.InheritsEdition() {
			crates[i].Edition = ws.Package.Edition
		}
	}

	sort.Slice(crates, func(i, j int) bool {
		return crates[i].Dir < crates[j].Dir
	})
	return crates, nil
}

// CrateFor returns the innermost crate containing filePath, or nil
func CrateFor(crates []Crate, filePath string) *Crate {
	var best *Crate
	for i := range crates {
		dir := crates[i].Dir
		if filePath != dir && !strings.HasPrefix(filePath, dir+string(filepath.Separator)) {
			continue
		}
		if best == nil || len(dir) > len(best.Dir) {
			best = &crates[i]
		}
	}
	return best
}
