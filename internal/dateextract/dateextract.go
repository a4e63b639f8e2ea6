// Package dateextract implements §4.3: recovering the best-guess capture
// date for a FileEntry: the earliest valid date among EXIF, path and
// filename text, with the stat mtime used only as a last resort.
//
// The EXIF step is grounded directly on
// other_examples/tendant-photo-organizer's getExifDate/isPhotoFile; the
// regex cascade follows its datePatterns idiom but is generalized to also
// scan the full path (not just the filename) and to the three patterns
// §4.3 names explicitly (YYYYMMDD, DDMMYYYY, bare epoch) instead of the
// camera-specific ones that source tool special-cased.
package dateextract

import (
	"bytes"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"archivist/internal/model"
)

// Source tags the origin of a returned date, per §4.3's output contract.
type Source string

const (
	SourceEXIF           Source = "exif"
	SourcePath           Source = "path"
	SourcePathEpoch      Source = "path (epoch)"
	SourceFilename       Source = "filename"
	SourceFilenameEpoch  Source = "filename (epoch)"
	SourceTimestampMtime Source = "timestamps (mtime)"
)

// exifExtensions is the set of extensions §4.3 names as image/RAW formats
// worth an EXIF attempt.
var exifExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true,
	".heic": true, ".heif": true, ".cr2": true, ".cr3": true,
	".nef": true, ".arw": true, ".dng": true, ".raf": true,
	".rw2": true, ".orf": true,
}

const exifReadLimit = 64 * 1024

var (
	// YYYY(-?)MM(-?)DD, optionally separated by '-'.
	patternYMD = regexp.MustCompile(`(\d{4})-?(\d{2})-?(\d{2})`)
	// DD(-?)MM(-?)YYYY.
	patternDMY = regexp.MustCompile(`(\d{2})-?(\d{2})-?(\d{4})`)
	// A standalone 10-digit epoch, not immediately adjacent to other digits.
	patternEpoch = regexp.MustCompile(`(?:^|[^0-9])(\d{10})(?:[^0-9]|$)`)
)

// Result is a successfully extracted date plus its provenance tag.
type Result struct {
	Date   time.Time
	Source Source
}

// Extract returns the earliest plausible date strictly after threshold for
// fe, or (Result{}, false) if no source produced one.
func Extract(fe *model.FileEntry, threshold time.Time) (Result, bool) {
	var candidates []Result

	if exifExtensions[fe.Ext] {
		if t, ok := readEXIFDate(fe.Path); ok {
			candidates = append(candidates, Result{Date: t, Source: SourceEXIF})
		}
	}

	if t, src, ok := scanForDate(fe.Dir); ok {
		candidates = append(candidates, Result{Date: t, Source: src})
	}
	if t, src, ok := scanForDate(fe.Name); ok {
		// Tag the candidate as filename-sourced; it competes with the path
		// candidate on date alone (on equal dates the path one is kept).
		filenameSrc := SourceFilename
		if src == SourcePathEpoch {
			filenameSrc = SourceFilenameEpoch
		}
		candidates = append(candidates, Result{Date: t, Source: filenameSrc})
	}

	var best Result
	found := false
	for _, c := range candidates {
		if !c.Date.After(threshold) {
			continue
		}
		if !found || c.Date.Before(best.Date) {
			best = c
			found = true
		}
	}
	if !found && !fe.Stat.Mtime.IsZero() && fe.Stat.Mtime.After(threshold) {
		return Result{Date: fe.Stat.Mtime, Source: SourceTimestampMtime}, true
	}
	return best, found
}

// readEXIFDate reads up to exifReadLimit bytes of path and attempts to
// decode a DateTimeOriginal. Any failure is silently ignored, per §7's
// "EXIF parse failure" error kind.
func readEXIFDate(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	buf := make([]byte, exifReadLimit)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return time.Time{}, false
	}

	x, err := exif.Decode(bytes.NewReader(buf[:n]))
	if err != nil {
		return time.Time{}, false
	}
	t, err := x.DateTime()
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// scanForDate tries the YMD pattern, then DMY, then the bare epoch pattern
// against s, accepting only values within the plausible ranges §4.3 names.
func scanForDate(s string) (time.Time, Source, bool) {
	if m := patternYMD.FindStringSubmatch(s); m != nil {
		if t, ok := buildDate(m[1], m[2], m[3]); ok {
			return t, SourcePath, true
		}
	}
	if m := patternDMY.FindStringSubmatch(s); m != nil {
		if t, ok := buildDate(m[3], m[2], m[1]); ok {
			return t, SourcePath, true
		}
	}
	if m := patternEpoch.FindStringSubmatch(s); m != nil {
		if sec, err := strconv.ParseInt(m[1], 10, 64); err == nil && sec >= 0 {
			return time.Unix(sec, 0).UTC(), SourcePathEpoch, true
		}
	}
	return time.Time{}, "", false
}

func buildDate(yearStr, monthStr, dayStr string) (time.Time, bool) {
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1900 || year > 2099 {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// templateFields are the placeholders the reorganizer substitutes; exposed
// here so dateextract and the reorganizer agree on formatting without a
// circular import.
var templateFields = map[string]func(time.Time) string{
	"year":  func(t time.Time) string { return strconv.Itoa(t.Year()) },
	"month": func(t time.Time) string { return pad2(int(t.Month())) },
	"day":   func(t time.Time) string { return pad2(t.Day()) },
}

func pad2(n int) string {
	s := strconv.Itoa(n)
	if len(s) < 2 {
		return strings.Repeat("0", 2-len(s)) + s
	}
	return s
}

// Format substitutes {year}/{month}/{day} tokens in template with fields
// derived from t.
func Format(template string, t time.Time) string {
	out := template
	for token, fn := range templateFields {
		out = strings.ReplaceAll(out, "{"+token+"}", fn(t))
	}
	return out
}
