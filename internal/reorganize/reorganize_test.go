package reorganize

import (
	"path/filepath"
	"testing"
	"time"

	"archivist/internal/config"
	"archivist/internal/corectx"
	"archivist/internal/logging"
	"archivist/internal/model"
)

func newContext(relativePath string) *corectx.Context {
	return corectx.New(&config.RootConfig{
		ScanPath:              "/r",
		RelativePath:          relativePath,
		ReorganizeTemplate:    "/{year}/{month}/",
		ReorganizeConcurrency: 2,
		DateThreshold:         time.Date(1995, 1, 1, 0, 0, 0, 0, time.UTC),
	}, logging.Nop())
}

// TestReorganizeByMtime reproduces §8 scenario 4 using a stat timestamp,
// since the test doesn't embed real EXIF bytes.
func TestReorganizeByMtime(t *testing.T) {
	cx := newContext("/r")
	scan := model.New("/r")
	scan.AddDir(&model.DirEntry{Path: "/r", Depth: 0})
	scan.AddDir(&model.DirEntry{Path: "/r/in", Dir: "/r", Depth: 1})
	f := &model.FileEntry{
		Path: "/r/in/pic.jpg", Dir: "/r/in", Name: "pic.jpg", Base: "pic", Ext: ".jpg", Depth: 2,
		Stat: model.StatSnapshot{Mtime: time.Date(2019, 7, 4, 0, 0, 0, 0, time.UTC)},
	}
	scan.AddFile(f)

	ops := Analyze(cx, scan)
	if len(ops) != 1 {
		t.Fatalf("ops = %d, want 1", len(ops))
	}
	want := filepath.Join("/r", "2019", "07", "pic.jpg")
	if ops[0].MoveTo != want {
		t.Errorf("MoveTo = %q, want %q", ops[0].MoveTo, want)
	}
}

func TestReorganizeIdempotentWhenAlreadyInPlace(t *testing.T) {
	cx := newContext("/r")
	scan := model.New("/r")
	scan.AddDir(&model.DirEntry{Path: "/r", Depth: 0})
	scan.AddDir(&model.DirEntry{Path: "/r/2019/07", Dir: "/r/2019", Depth: 2})
	f := &model.FileEntry{
		Path: "/r/2019/07/pic.jpg", Dir: "/r/2019/07", Name: "pic.jpg", Base: "pic", Ext: ".jpg", Depth: 3,
		Stat: model.StatSnapshot{Mtime: time.Date(2019, 7, 4, 0, 0, 0, 0, time.UTC)},
	}
	scan.AddFile(f)

	ops := Analyze(cx, scan)
	if len(ops) != 0 {
		t.Errorf("ops = %d, want 0 (already reorganized)", len(ops))
	}
}

func TestReorganizeSkipsIgnoredAndMarkedForDelete(t *testing.T) {
	cx := newContext("/r")
	scan := model.New("/r")
	scan.AddDir(&model.DirEntry{Path: "/r", Depth: 0})
	scan.AddFile(&model.FileEntry{
		Path: "/r/thumbs.ini", Dir: "/r", Name: "thumbs.ini", Base: "thumbs", Ext: ".ini", Depth: 1,
		Ignored: true, Stat: model.StatSnapshot{Mtime: time.Date(2019, 7, 4, 0, 0, 0, 0, time.UTC)},
	})
	scan.AddFile(&model.FileEntry{
		Path: "/r/Thumbs.db", Dir: "/r", Name: "Thumbs.db", Base: "Thumbs", Ext: ".db", Depth: 1,
		MarkedForDelete: true, Stat: model.StatSnapshot{Mtime: time.Date(2019, 7, 4, 0, 0, 0, 0, time.UTC)},
	})

	ops := Analyze(cx, scan)
	if len(ops) != 0 {
		t.Errorf("ops = %d, want 0", len(ops))
	}
}

func TestReorganizeNoDateIsSkipped(t *testing.T) {
	cx := newContext("/r")
	scan := model.New("/r")
	scan.AddDir(&model.DirEntry{Path: "/r", Depth: 0})
	scan.AddFile(&model.FileEntry{
		Path: "/r/mystery.bin", Dir: "/r", Name: "mystery.bin", Base: "mystery", Ext: ".bin", Depth: 1,
	})

	ops := Analyze(cx, scan)
	if len(ops) != 0 {
		t.Errorf("ops = %d, want 0 (no date source at all)", len(ops))
	}
}
