// Package scanner implements §4.1: a single breadth-first traversal of a
// root directory that produces the Scan Model (internal/model.Scan).
//
// An internal/scan package walks trees with recursive helpers
// (effectively filepath.Walk in spirit); this module's Design Notes call
// for an explicit BFS work queue instead of recursion, so a single
// pathologically deep subtree can't exhaust the Go call stack and so
// sibling directories are discovered in a predictable level order. The
// queue/worklist shape and Logger plumbing are otherwise adapted directly
// from internal/scan.Scanner.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"archivist/internal/corectx"
	"archivist/internal/model"
	"archivist/internal/pathmatch"
)

// workItem is one entry in the BFS queue: a directory to list, along with
// the depth it was discovered at.
type workItem struct {
	path  string
	depth int
}

// children tracks the direct files and subdirectories gathered for a
// directory during the BFS pass, used afterward to fold aggregates
// bottom-up without re-walking the tree.
type children struct {
	files []*model.FileEntry
	dirs  []*model.DirEntry
}

// Scan walks root breadth-first and returns the populated Scan Model.
// Symlinks are never followed (§ non-goals): a symlink is recorded as a
// plain FileEntry using its own lstat info, never descended into. A
// subdirectory whose device number differs from root's is a mount
// boundary and is recorded but not descended into either.
func Scan(cx *corectx.Context, root string) (*model.Scan, error) {
	rootInfo, err := os.Lstat(root)
	if err != nil {
		return nil, fmt.Errorf("stat scan root: %w", err)
	}
	rootStat, err := statSnapshot(root, rootInfo)
	if err != nil {
		return nil, err
	}

	ignoreDirs, err := pathmatch.CompileSet(cx.Config.IgnoreDirectories)
	if err != nil {
		return nil, fmt.Errorf("compile ignore_directories: %w", err)
	}
	ignoreFiles, err := pathmatch.CompileSet(cx.Config.IgnoreFiles)
	if err != nil {
		return nil, fmt.Errorf("compile ignore_files: %w", err)
	}
	removeFiles, err := pathmatch.CompileSet(cx.Config.RemoveFiles)
	if err != nil {
		return nil, fmt.Errorf("compile remove_files: %w", err)
	}
	recycleBin := filepath.Clean(cx.Config.RecycleBinPath)

	scan := model.New(root)
	scan.AddDir(&model.DirEntry{Path: root, Dir: "", Depth: 0, Stat: rootStat})

	kids := map[string]*children{root: {}}
	queue := []workItem{{path: root, depth: 0}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(item.path)
		if err != nil {
			cx.Logger.Warn("failed to read directory", "path", item.path, "error", err)
			continue
		}

		for _, entry := range entries {
			full := filepath.Join(item.path, entry.Name())
			info, err := entry.Info()
			if err != nil {
				cx.Logger.Warn("failed to stat entry", "path", full, "error", err)
				continue
			}

			if info.Mode()&os.ModeSymlink != 0 {
				fe := newFileEntry(full, item.path, info, item.depth+1, ignoreFiles, removeFiles)
				scan.AddFile(fe)
				recordFile(kids, item.path, fe)
				tally(scan, fe)
				continue
			}

			if entry.IsDir() {
				if ignoreDirs.MatchAny(entry.Name()) {
					scan.Counters.Ignored++
					continue
				}
				if isRecycleBin(full, recycleBin) {
					continue
				}
				st, err := statSnapshot(full, info)
				if err != nil {
					cx.Logger.Warn("failed to read device info", "path", full, "error", err)
					continue
				}
				de := &model.DirEntry{Path: full, Dir: item.path, Depth: item.depth + 1, Stat: st}
				scan.AddDir(de)
				recordDir(kids, item.path, de)
				kids[full] = &children{}
				scan.Counters.Scanned++

				if st.Dev != rootStat.Dev {
					cx.Logger.Warn("skipping mount boundary", "path", full)
					continue
				}
				queue = append(queue, workItem{path: full, depth: item.depth + 1})
				continue
			}

			fe := newFileEntry(full, item.path, info, item.depth+1, ignoreFiles, removeFiles)
			scan.AddFile(fe)
			recordFile(kids, item.path, fe)
			tally(scan, fe)
		}
	}

	foldAggregates(scan, kids)
	return scan, nil
}

// isRecycleBin reports whether path is the recycle-bin directory itself or
// nested under it; either case means it must not be descended into or
// recorded, per §4.1.
func isRecycleBin(path, recycleBin string) bool {
	if recycleBin == "" || recycleBin == "." {
		return false
	}
	return path == recycleBin || strings.HasPrefix(path, recycleBin+string(filepath.Separator))
}

func newFileEntry(full, dir string, info os.FileInfo, depth int, ignoreFiles, removeFiles pathmatch.Set) *model.FileEntry {
	st, _ := statSnapshot(full, info)
	name := info.Name()
	ext := strings.ToLower(filepath.Ext(name))
	base := strings.TrimSuffix(name, filepath.Ext(name))

	markedForDelete := removeFiles.MatchAny(name)
	ignored := ignoreFiles.MatchAny(name) && !markedForDelete

	return &model.FileEntry{
		Path:            full,
		Dir:             dir,
		Base:            base,
		Name:            name,
		Ext:             ext,
		Depth:           depth,
		Stat:            st,
		Ignored:         ignored,
		MarkedForDelete: markedForDelete,
	}
}

func tally(scan *model.Scan, fe *model.FileEntry) {
	scan.Counters.Scanned++
	if fe.Ignored || fe.MarkedForDelete {
		scan.Counters.Ignored++
		return
	}
	scan.Counters.Bytes += fe.Stat.Size
}

func recordFile(kids map[string]*children, dir string, fe *model.FileEntry) {
	c := kids[dir]
	if c == nil {
		c = &children{}
		kids[dir] = c
	}
	c.files = append(c.files, fe)
}

func recordDir(kids map[string]*children, dir string, de *model.DirEntry) {
	c := kids[dir]
	if c == nil {
		c = &children{}
		kids[dir] = c
	}
	c.dirs = append(c.dirs, de)
}

// foldAggregates computes each DirEntry's IntrinsicSize/TotalSize/FileCount/
// DirCount per §3's recursive definition, processing directories deepest-
// first so a parent's TotalSize can sum already-finalized children.
func foldAggregates(scan *model.Scan, kids map[string]*children) {
	dirs := scan.DirsInOrder()
	sort.SliceStable(dirs, func(i, j int) bool { return dirs[i].Depth > dirs[j].Depth })

	for _, d := range dirs {
		c := kids[d.Path]
		if c == nil {
			continue
		}
		d.FileCount = len(c.files)
		d.DirCount = len(c.dirs)
		for _, f := range c.files {
			if !f.Ignored {
				d.IntrinsicSize += f.Stat.Size
			}
		}
		d.TotalSize = d.IntrinsicSize
		for _, sub := range c.dirs {
			d.TotalSize += sub.TotalSize
		}
	}
}
