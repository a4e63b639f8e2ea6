// Package model defines the Scan Model (§3): the read-only tree of
// FileEntry and DirEntry records the scanner produces and every analyzer
// consumes. Entries are created once by the scanner and never mutated by
// analyzers afterwards.
package model

import (
	"os"
	"time"
)

// StatSnapshot captures the subset of stat(2) fields the analyzers need.
// Populated once at scan time; never refreshed.
type StatSnapshot struct {
	Size      int64
	Mode      os.FileMode
	Uid       uint32
	Gid       uint32
	Mtime     time.Time
	Ctime     time.Time
	Birthtime time.Time // falls back to Ctime on platforms without birthtime
	Dev       uint64    // filesystem device number, used to detect device crossings
	Nlink     uint64    // hard-link count, part of the directory shape key
}

// CtimeMs and BirthtimeMs express the two timestamps fastest-first as
// milliseconds since the epoch, matching the §4.5 determineOriginal tie-break
// which operates on min(ctimeMs, birthtimeMs).
func (s StatSnapshot) CtimeMs() int64     { return s.Ctime.UnixMilli() }
func (s StatSnapshot) BirthtimeMs() int64 { return s.Birthtime.UnixMilli() }

// FileEntry is one non-directory entry discovered by the scanner.
type FileEntry struct {
	Path            string // absolute path
	Dir             string // containing directory path
	Base            string // base name without extension
	Name            string // full file name including extension
	Ext             string // lower-cased extension, including the leading dot ("" if none)
	Depth           int    // depth below the scan root
	Stat            StatSnapshot
	Ignored         bool // matched an ignoreFiles pattern
	MarkedForDelete bool // matched a removeFiles pattern (overrides Ignored)
}

// DirEntry is one directory discovered by the scanner, with aggregates
// finalized once the whole subtree beneath it has been scanned.
type DirEntry struct {
	Path  string // absolute path
	Dir   string // containing directory path ("" for the scan root)
	Depth int
	Stat  StatSnapshot

	// Aggregates, defined recursively per §3:
	IntrinsicSize int64 // sum of sizes of non-ignored files whose immediate parent is this dir
	TotalSize     int64 // IntrinsicSize + sum of TotalSize of descendant directories
	FileCount     int   // count of files (ignored included) directly in this directory
	DirCount      int   // count of immediate subdirectories
}

// Counters tallies scan-wide statistics.
type Counters struct {
	Scanned int64 // files + directories recorded below the root
	Ignored int64 // files flagged Ignored or MarkedForDelete, plus skipped ignored directories
	Bytes   int64 // total bytes of files neither Ignored nor MarkedForDelete
}

// Scan is the Scan Model: two insertion-ordered mappings keyed by absolute
// path, plus scan-wide counters. Read-only after the scanner returns it.
type Scan struct {
	Root        string
	Files       map[string]*FileEntry
	Directories map[string]*DirEntry
	// order preserves insertion order for callers that need deterministic
	// iteration (e.g. depth-sorted cascade logic); maps alone don't guarantee it.
	fileOrder []string
	dirOrder  []string
	Counters  Counters
}

// New creates an empty Scan Model rooted at root.
func New(root string) *Scan {
	return &Scan{
		Root:        root,
		Files:       make(map[string]*FileEntry),
		Directories: make(map[string]*DirEntry),
	}
}

// AddFile records f, preserving insertion order. Overwrites silently if the
// path was already recorded (callers are expected to check first).
func (s *Scan) AddFile(f *FileEntry) {
	if _, exists := s.Files[f.Path]; !exists {
		s.fileOrder = append(s.fileOrder, f.Path)
	}
	s.Files[f.Path] = f
}

// AddDir records d, preserving insertion order.
func (s *Scan) AddDir(d *DirEntry) {
	if _, exists := s.Directories[d.Path]; !exists {
		s.dirOrder = append(s.dirOrder, d.Path)
	}
	s.Directories[d.Path] = d
}

// FilesInOrder returns file entries in the order they were added.
func (s *Scan) FilesInOrder() []*FileEntry {
	out := make([]*FileEntry, 0, len(s.fileOrder))
	for _, p := range s.fileOrder {
		out = append(out, s.Files[p])
	}
	return out
}

// DirsInOrder returns directory entries in the order they were added.
func (s *Scan) DirsInOrder() []*DirEntry {
	out := make([]*DirEntry, 0, len(s.dirOrder))
	for _, p := range s.dirOrder {
		out = append(out, s.Directories[p])
	}
	return out
}
