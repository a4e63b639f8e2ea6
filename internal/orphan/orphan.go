// Package orphan implements §4.6: a file is an orphan when it is the only
// file in its immediate parent directory, irrespective of extension. Spec
// fixes the lone-file rule over the historical extension-filter variant
// (§9 Design Notes Open Questions); RootConfig.OrphanFileExtensions is
// retained as a dormant config knob for a future extension-filter mode,
// per the same note, but is not consulted here.
package orphan

import (
	"archivist/internal/corectx"
	"archivist/internal/model"
	"archivist/internal/planmodel"
	"archivist/internal/rebase"
)

// Analyze returns an Orphan Operation for every file whose parent
// directory's FileCount is exactly 1.
func Analyze(cx *corectx.Context, scan *model.Scan) []planmodel.Operation {
	var ops []planmodel.Operation
	for _, f := range scan.FilesInOrder() {
		dir, ok := scan.Directories[f.Dir]
		if !ok || dir.FileCount != 1 {
			continue
		}
		ops = append(ops, planmodel.Operation{
			Kind:   planmodel.Orphan,
			Path:   f.Path,
			MoveTo: rebase.Rebase(cx.Config.RecycleBinPath, f.Path),
			Reason: "lone file in directory",
		})
	}
	return ops
}
