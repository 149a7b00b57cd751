package manifest

import (
	"path"
	"path/filepath"
	"strings"
)

type workspaceRoot struct {
	dir       string
	workspace *Workspace
}

// enclosingWorkspace returns the nearest workspace at or above crateDir,
// provided it lists the crate as a member
func enclosingWorkspace(roots []workspaceRoot, crateDir string) *Workspace {
	var best *workspaceRoot
	for i := range roots {
		dir := roots[i].dir
		if crateDir != dir && !strings.HasPrefix(crateDir, dir+string(filepath.Separator)) {
			continue
		}
		if best == nil || len(dir) > len(best.dir) {
			best = &roots[i]
		}
	}
	if best == nil || !best.hasMember(crateDir) {
		return nil
	}
	return best.workspace
}

// hasMember matches crateDir against the members and exclude globs. The root
// package of a workspace is always a member.
func (w *workspaceRoot) hasMember(crateDir string) bool {
	if crateDir == w.dir {
		return true
	}
	rel, err := filepath.Rel(w.dir, crateDir)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range w.workspace.Exclude {
		if matchMember(pattern, rel) {
			return false
		}
	}
	for _, pattern := range w.workspace.Members {
		if matchMember(pattern, rel) {
			return true
		}
	}
	return false
}

func matchMember(pattern, rel string) bool {
	ok, err := path.Match(path.Clean(filepath.ToSlash(pattern)), rel)
	return err == nil && ok
}
