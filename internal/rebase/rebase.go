// Package rebase implements the §4.12 Rebase Utility: computing the recycle
// destination for a path by finding the first segment where base and target
// diverge, then appending the remaining target segments onto base.
package rebase

import (
	"path/filepath"
	"strings"
)

// Rebase finds the first segment where base and target diverge (after
// cleaning) and appends target's remaining segments to base. It is used to
// compute where a path under a scan root should land under the recycle-bin
// path, preserving the subtree structure.
//
// Rebase(B, B) == B, and Rebase(B, B/sub/...) == B/sub/....
// When target does not share base as a prefix, the relative path from the
// nearest common ancestor is appended, so the recycle bin still gets a
// sensible nested layout instead of collapsing everything to its root.
func Rebase(base, target string) string {
	base = filepath.Clean(base)
	target = filepath.Clean(target)

	baseSegs := segments(base)
	targetSegs := segments(target)

	i := 0
	for i < len(baseSegs) && i < len(targetSegs) && baseSegs[i] == targetSegs[i] {
		i++
	}

	remainder := targetSegs[i:]
	result := base
	for _, seg := range remainder {
		result = filepath.Join(result, seg)
	}
	return result
}

func segments(p string) []string {
	p = filepath.ToSlash(p)
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
