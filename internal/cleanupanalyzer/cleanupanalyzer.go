// Package cleanupanalyzer implements §4.4: selecting directories and files
// to move into the recycle area, either before (pre) or after (post) the
// main analyzers run. Grounded on an internal/cleanup package's
// candidate/reason shape, generalized from a delete-candidate list to a
// move-candidate list and given the cascade-suppression pass §4.4
// requires, which that package had no analog for.
package cleanupanalyzer

import (
	"sort"
	"strings"

	"archivist/internal/corectx"
	"archivist/internal/model"
	"archivist/internal/planmodel"
	"archivist/internal/rebase"
)

// Result is §4.4's output: the split directory/file Operations plus the
// total bytes reclaimable.
type Result struct {
	Directories []planmodel.Operation
	Files       []planmodel.Operation
	Size        int64
}

// candidate is an internal, kind-agnostic record used to run the shared
// cascade-suppression pass over both directories and files before they're
// turned into Operations.
type candidate struct {
	path     string
	isDir    bool
	depth    int
	size     int64
	reason   string
	parent   string
}

// Analyze computes the cleanup candidates for scan under cx's config.
func Analyze(cx *corectx.Context, scan *model.Scan) Result {
	var candidates []candidate

	for _, d := range scan.DirsInOrder() {
		if d.Path == scan.Root {
			continue
		}
		if d.Path == cx.Config.RecycleBinPath || strings.HasPrefix(d.Path, cx.Config.RecycleBinPath+"/") {
			continue
		}
		if d.TotalSize <= cx.Config.EmptyThreshold {
			reason := "is empty"
			if d.TotalSize > 0 {
				reason = "size below threshold"
			} else if d.FileCount > 0 {
				reason = "considered empty but contains only ignored/zero-byte items"
			}
			candidates = append(candidates, candidate{
				path: d.Path, isDir: true, depth: d.Depth,
				size: d.TotalSize, reason: reason, parent: d.Dir,
			})
		}
	}

	for _, f := range scan.FilesInOrder() {
		if f.MarkedForDelete {
			candidates = append(candidates, candidate{
				path: f.Path, isDir: false, depth: f.Depth,
				size: f.Stat.Size, reason: "marked for deletion", parent: f.Dir,
			})
		}
	}

	accepted := suppressCascade(candidates)

	result := Result{}
	for _, c := range accepted {
		op := planmodel.Operation{
			Kind:   planmodel.PreCleanup,
			Path:   c.path,
			MoveTo: rebase.Rebase(cx.Config.RecycleBinPath, c.path),
			Reason: c.reason,
		}
		if c.isDir {
			result.Directories = append(result.Directories, op)
		} else {
			result.Files = append(result.Files, op)
		}
		result.Size += c.size
	}
	return result
}

// AnalyzeAsKind is Analyze, but tags every emitted Operation with kind
// instead of the default PreCleanup, so the same analyzer logic serves
// both the pre-cleanup and post-cleanup passes §4.10 distinguishes.
func AnalyzeAsKind(cx *corectx.Context, scan *model.Scan, kind planmodel.Kind) Result {
	r := Analyze(cx, scan)
	for i := range r.Directories {
		r.Directories[i].Kind = kind
	}
	for i := range r.Files {
		r.Files[i].Kind = kind
	}
	return r
}

// suppressCascade implements §4.4's cascade rule: sort by increasing
// depth, then drop any candidate whose parent is already covered by an
// accepted ancestor path. A directory's own path joins the accepted set
// even when the directory itself is dropped by cascade, preserving
// recursion semantics for its own descendants.
func suppressCascade(candidates []candidate) []candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].depth < candidates[j].depth
	})

	acceptedDirs := make(map[string]bool)
	var accepted []candidate

	for _, c := range candidates {
		if hasAcceptedAncestor(c.parent, acceptedDirs) {
			if c.isDir {
				acceptedDirs[c.path] = true
			}
			continue
		}
		accepted = append(accepted, c)
		if c.isDir {
			acceptedDirs[c.path] = true
		}
	}
	return accepted
}

func hasAcceptedAncestor(parent string, acceptedDirs map[string]bool) bool {
	for p := range acceptedDirs {
		if parent == p || strings.HasPrefix(parent, p+"/") {
			return true
		}
	}
	return false
}
