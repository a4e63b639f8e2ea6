package dateextract

import (
	"testing"
	"time"

	"archivist/internal/model"
)

func threshold() time.Time {
	return time.Date(1995, 1, 1, 0, 0, 0, 0, time.UTC)
}

func TestScanForDateISO(t *testing.T) {
	tm, src, ok := scanForDate("/r/in/2019-07-04/pic.jpg")
	if !ok {
		t.Fatal("expected a match")
	}
	if src != SourcePath {
		t.Errorf("source = %q, want %q", src, SourcePath)
	}
	if tm.Year() != 2019 || tm.Month() != 7 || tm.Day() != 4 {
		t.Errorf("got %v", tm)
	}
}

func TestScanForDateCompact(t *testing.T) {
	tm, _, ok := scanForDate("IMG_20210305_120000.jpg")
	if !ok {
		t.Fatal("expected a match")
	}
	if tm.Year() != 2021 || tm.Month() != 3 || tm.Day() != 5 {
		t.Errorf("got %v", tm)
	}
}

func TestScanForDateRejectsImplausibleYear(t *testing.T) {
	_, _, ok := scanForDate("31129999")
	if ok {
		t.Error("year 9999 should be rejected")
	}
}

func TestScanForDateEpoch(t *testing.T) {
	tm, src, ok := scanForDate("backup-1562198400-final.tar")
	if !ok {
		t.Fatal("expected epoch match")
	}
	if src != SourcePathEpoch {
		t.Errorf("source = %q, want %q", src, SourcePathEpoch)
	}
	if tm.Year() != 2019 {
		t.Errorf("got %v", tm)
	}
}

func TestExtractFallsBackToMtime(t *testing.T) {
	mtime := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	fe := &model.FileEntry{
		Path: "/r/noinfo/file.bin",
		Dir:  "/r/noinfo",
		Name: "file.bin",
		Ext:  ".bin",
		Stat: model.StatSnapshot{Mtime: mtime},
	}
	res, ok := Extract(fe, threshold())
	if !ok {
		t.Fatal("expected a fallback result")
	}
	if res.Source != SourceTimestampMtime {
		t.Errorf("source = %q, want %q", res.Source, SourceTimestampMtime)
	}
	if !res.Date.Equal(mtime) {
		t.Errorf("date = %v, want %v", res.Date, mtime)
	}
}

func TestExtractRejectsCandidatesBeforeThreshold(t *testing.T) {
	fe := &model.FileEntry{
		Path: "/r/old/file.bin",
		Dir:  "/r/old",
		Name: "file.bin",
		Ext:  ".bin",
		Stat: model.StatSnapshot{Mtime: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	_, ok := Extract(fe, threshold())
	if ok {
		t.Error("expected no candidate: mtime predates threshold and nothing else matches")
	}
}

func TestFormatSubstitutesTemplate(t *testing.T) {
	tm := time.Date(2019, 7, 4, 0, 0, 0, 0, time.UTC)
	got := Format("/{year}/{month}/", tm)
	if got != "/2019/07/" {
		t.Errorf("Format = %q, want /2019/07/", got)
	}
}
