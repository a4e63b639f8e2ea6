// Package permissions implements §4.8: comparing each scanned entry's mode
// against the configured desired mode and emitting a Permissions Operation
// on mismatch.
package permissions

import (
	"os"

	"archivist/internal/corectx"
	"archivist/internal/model"
	"archivist/internal/planmodel"
)

// Analyze returns a Permissions Operation for every file or directory
// whose stat.mode & 0o777 doesn't match the configured desired mode.
func Analyze(cx *corectx.Context, scan *model.Scan) []planmodel.Operation {
	var ops []planmodel.Operation

	for _, d := range scan.DirsInOrder() {
		if d.Path == scan.Root {
			continue
		}
		if op, mismatch := compare(d.Path, d.Stat.Mode, cx.Config.DirMode); mismatch {
			ops = append(ops, op)
		}
	}
	for _, f := range scan.FilesInOrder() {
		if f.Ignored || f.MarkedForDelete {
			continue
		}
		if op, mismatch := compare(f.Path, f.Stat.Mode, cx.Config.FileMode); mismatch {
			ops = append(ops, op)
		}
	}
	return ops
}

func compare(path string, current, desired os.FileMode) (planmodel.Operation, bool) {
	currentPerm := current & os.ModePerm
	desiredPerm := desired & os.ModePerm
	if currentPerm == desiredPerm {
		return planmodel.Operation{}, false
	}
	return planmodel.Operation{
		Kind:        planmodel.Permissions,
		Path:        path,
		CurrentMode: uint32(currentPerm),
		DesiredMode: uint32(desiredPerm),
	}, true
}
