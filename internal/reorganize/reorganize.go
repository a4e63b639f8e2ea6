// Package reorganize implements §4.7: moving files into a date-derived
// directory layout. Date extraction is parallelized under
// internal/concurrency's bounded limiter, since §4.7 calls out that EXIF
// reads dominate the analyzer's wall-clock time — grounded on the fan-out/
// fan-in shape in other_examples/ivoronin-dupedog's scanner (semaphore +
// WaitGroup + result channel), adapted here to a bounded worker pool over
// a fixed file list instead of an unbounded directory walk.
package reorganize

import (
	"path/filepath"
	"strings"
	"sync"

	"archivist/internal/corectx"
	"archivist/internal/dateextract"
	"archivist/internal/model"
	"archivist/internal/planmodel"
)

// Analyze computes Reorganize Operations for every eligible file in scan.
func Analyze(cx *corectx.Context, scan *model.Scan) []planmodel.Operation {
	files := scan.FilesInOrder()

	results := make([]*planmodel.Operation, len(files))
	var wg sync.WaitGroup

	for i, f := range files {
		if f.Ignored || f.MarkedForDelete {
			continue
		}
		wg.Add(1)
		go func(i int, f *model.FileEntry) {
			defer wg.Done()
			cx.Limiter.Acquire()
			defer cx.Limiter.Release()
			results[i] = buildOperation(cx, f)
		}(i, f)
	}
	wg.Wait()

	var ops []planmodel.Operation
	for _, op := range results {
		if op != nil {
			ops = append(ops, *op)
		}
	}
	return ops
}

// buildOperation computes the target for a single file, or nil if it has
// no extractable date, or the target directory matches its current one
// (idempotence: §8 requires a second run over already-reorganized files
// to produce an empty Reorganize plan).
func buildOperation(cx *corectx.Context, f *model.FileEntry) *planmodel.Operation {
	result, ok := dateextract.Extract(f, cx.Config.DateThreshold)
	if !ok {
		return nil
	}

	base := cx.Config.RelativePath
	if base == "" {
		base = cx.Config.ScanPath
	}
	targetDir := filepath.Join(base, dateextract.Format(cx.Config.ReorganizeTemplate, result.Date))
	targetDir = filepath.Clean(targetDir)

	if targetDir == filepath.Clean(f.Dir) {
		return nil
	}

	name := f.Name
	leaf := filepath.Base(f.Dir)
	if leaf != "." && leaf != string(filepath.Separator) && !strings.Contains(name, leaf) {
		ext := filepath.Ext(name)
		base := strings.TrimSuffix(name, ext)
		name = base + "_" + leaf + ext
	}

	return &planmodel.Operation{
		Kind:   planmodel.Reorganize,
		Path:   f.Path,
		MoveTo: filepath.Join(targetDir, name),
		Reason: "capture date " + result.Date.Format("2006-01-02") + " (" + string(result.Source) + ")",
	}
}
