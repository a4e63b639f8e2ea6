package duplicate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"archivist/internal/config"
	"archivist/internal/corectx"
	"archivist/internal/logging"
	"archivist/internal/scanner"
)

func newContext(root, recycleBin string) *corectx.Context {
	return corectx.New(&config.RootConfig{
		ScanPath:          root,
		RecycleBinPath:    recycleBin,
		HashByteLimit:     131072,
		DupeSetExtensions: []string{"jpg", "jpeg", "mp4", "avi"},
	}, logging.Nop())
}

// mustWriteSeq creates path with content. Callers create files in the
// order they want ctime to reflect, with a small gap so the filesystem's
// change-time clock resolution can't tie two creations together; the
// duplicate analyzer's tie-break operates on ctime, which (unlike mtime)
// cannot be set directly through the os package.
func mustWriteSeq(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
}

// TestDuplicatePicksOldest reproduces §8 scenario 2: two files with
// identical content; the one with the earlier timestamp is the original.
func TestDuplicatePicksOldest(t *testing.T) {
	root := t.TempDir()
	recycleBin := filepath.Join(root, "#recycle")
	content := []byte("identical photo bytes")

	mustWriteSeq(t, filepath.Join(root, "x", "A.jpg"), content)
	mustWriteSeq(t, filepath.Join(root, "A.jpg"), content)

	cx := newContext(root, recycleBin)
	scan, err := scanner.Scan(cx, root)
	if err != nil {
		t.Fatal(err)
	}

	ops, _ := Analyze(cx, scan)
	if len(ops) != 1 {
		t.Fatalf("ops = %d, want 1", len(ops))
	}
	op := ops[0]
	if op.Path != filepath.Join(root, "A.jpg") {
		t.Errorf("duplicate path = %q, want %s", op.Path, filepath.Join(root, "A.jpg"))
	}
	if op.OriginalPath != filepath.Join(root, "x", "A.jpg") {
		t.Errorf("originalPath = %q, want %s", op.OriginalPath, filepath.Join(root, "x", "A.jpg"))
	}
}

// TestFilesetDuplicateTravelsWithSidecar reproduces §8 scenario 3. An
// unrelated file in a/ gives a/ and b/ different shapes, so the directory
// stage does not claim b/ as a whole and the file stage is exercised.
func TestFilesetDuplicateTravelsWithSidecar(t *testing.T) {
	root := t.TempDir()
	recycleBin := filepath.Join(root, "#recycle")
	imgContent := []byte("same image bytes")
	xmpContent := []byte("same sidecar bytes")

	mustWriteSeq(t, filepath.Join(root, "a", "IMG.jpg"), imgContent)
	mustWriteSeq(t, filepath.Join(root, "a", "IMG.xmp"), xmpContent)
	mustWriteSeq(t, filepath.Join(root, "b", "IMG.jpg"), imgContent)
	mustWriteSeq(t, filepath.Join(root, "b", "IMG.xmp"), xmpContent)
	mustWriteSeq(t, filepath.Join(root, "a", "notes.txt"), []byte("unrelated"))

	cx := newContext(root, recycleBin)
	cx.Config.DupeSetExtensions = []string{"jpg"}
	scan, err := scanner.Scan(cx, root)
	if err != nil {
		t.Fatal(err)
	}

	ops, _ := Analyze(cx, scan)
	if len(ops) != 1 {
		t.Fatalf("ops = %d, want 1, got %+v", len(ops), ops)
	}
	op := ops[0]
	if op.Path != filepath.Join(root, "b", "IMG.jpg") {
		t.Errorf("duplicate path = %q", op.Path)
	}
	if len(op.SidecarFiles) != 1 || op.SidecarFiles[0] != filepath.Join(root, "b", "IMG.xmp") {
		t.Errorf("SidecarFiles = %v, want [%s]", op.SidecarFiles, filepath.Join(root, "b", "IMG.xmp"))
	}
}

func TestDetermineOriginalStableUnderPermutation(t *testing.T) {
	items := []tieBreakItem{
		{path: "/r/c.jpg", minTime: 100, name: "c.jpg"},
		{path: "/r/a.jpg", minTime: 50, name: "a.jpg"},
		{path: "/r/b.jpg", minTime: 50, name: "bbbb.jpg"},
	}
	want := determineOriginal(items)

	reversed := []tieBreakItem{items[2], items[1], items[0]}
	got := determineOriginal(reversed)
	if got != want {
		t.Errorf("determineOriginal not stable under permutation: %+v vs %+v", got, want)
	}
	if want.path != "/r/a.jpg" {
		t.Errorf("want original = /r/a.jpg, got %s", want.path)
	}
}

func TestDetermineOriginalSingleton(t *testing.T) {
	item := tieBreakItem{path: "/r/only.jpg", minTime: 1, name: "only.jpg"}
	got := determineOriginal([]tieBreakItem{item})
	if got != item {
		t.Errorf("determineOriginal({x}) should return x, got %+v", got)
	}
}

func TestIsSidecarOf(t *testing.T) {
	cases := []struct {
		name, base string
		want       bool
	}{
		{"IMG_001.xmp", "IMG_001", true},
		{"IMG_001.aae", "IMG_001", true},
		{"IMG_001-thumb.jpg", "IMG_001", true},
		{"IMG_0012.jpg", "IMG_001", false},
		{"IMG_001.jpg", "IMG_001", true},
	}
	for _, c := range cases {
		if got := isSidecarOf(c.name, c.base); got != c.want {
			t.Errorf("isSidecarOf(%q, %q) = %v, want %v", c.name, c.base, got, c.want)
		}
	}
}
