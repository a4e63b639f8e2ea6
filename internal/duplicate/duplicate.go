// Package duplicate implements §4.5's two-stage duplicate analyzer: cheap
// shape/size grouping first, then content hashing only within a surviving
// group. Chunk hashing is grounded on
// other_examples/tendant-photo-organizer's getFileHash (MD5 over a byte
// window); the directory-shape-group / fileset-sidecar concepts are
// spec-original, generalized from that same tool's size-based duplicate
// check and its sidecarExts idea.
package duplicate

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"archivist/internal/corectx"
	"archivist/internal/model"
	"archivist/internal/planmodel"
	"archivist/internal/rebase"
)

// Analyze runs both stages and returns the Duplicate Operations to emit,
// plus the set of directory paths claimed in Stage A (exposed so callers
// that want DUP_DIR_PATHS for diagnostics can have it; the arbiter doesn't
// need it, since claimed paths flow through the returned Operations).
func Analyze(cx *corectx.Context, scan *model.Scan) ([]planmodel.Operation, map[string]bool) {
	dirChildren, fileChildren := buildChildTables(scan)

	dupDirPaths := make(map[string]bool)
	var ops []planmodel.Operation

	dirOps := analyzeDirectories(cx, scan, dirChildren, fileChildren, dupDirPaths)
	ops = append(ops, dirOps...)

	fileOps := analyzeFiles(cx, scan, fileChildren, dupDirPaths)
	ops = append(ops, fileOps...)

	return ops, dupDirPaths
}

// buildChildTables indexes the Scan Model's flat path→entry maps into
// per-directory child lists, sorted by name, since both the recursive
// directory hash and the fileset scan need ordered sibling access.
func buildChildTables(scan *model.Scan) (map[string][]*model.DirEntry, map[string][]*model.FileEntry) {
	dirChildren := make(map[string][]*model.DirEntry)
	fileChildren := make(map[string][]*model.FileEntry)

	for _, d := range scan.DirsInOrder() {
		if d.Path == scan.Root {
			continue
		}
		dirChildren[d.Dir] = append(dirChildren[d.Dir], d)
	}
	for _, f := range scan.FilesInOrder() {
		fileChildren[f.Dir] = append(fileChildren[f.Dir], f)
	}
	for _, list := range dirChildren {
		sort.Slice(list, func(i, j int) bool { return filepath.Base(list[i].Path) < filepath.Base(list[j].Path) })
	}
	for _, list := range fileChildren {
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	}
	return dirChildren, fileChildren
}

// shapeKey is the cheap pre-hash grouping signature §4.5 Stage A names.
type shapeKey struct {
	intrinsicSize int64
	totalSize     int64
	fileCount     int
	linkCount     uint64
	statSize      int64
}

func analyzeDirectories(
	cx *corectx.Context, scan *model.Scan,
	dirChildren map[string][]*model.DirEntry, fileChildren map[string][]*model.FileEntry,
	dupDirPaths map[string]bool,
) []planmodel.Operation {
	groups := make(map[shapeKey][]*model.DirEntry)
	for _, d := range scan.DirsInOrder() {
		if d.Path == scan.Root {
			continue
		}
		key := shapeKey{d.IntrinsicSize, d.TotalSize, d.FileCount, d.Stat.Nlink, d.Stat.Size}
		groups[key] = append(groups[key], d)
	}

	var ops []planmodel.Operation
	hashCache := make(map[string]string)

	for _, group := range groups {
		if len(group) < 2 {
			continue
		}

		type hashed struct {
			dir  *model.DirEntry
			hash string
		}
		var members []hashed
		for _, d := range group {
			h, err := recursiveDirHash(d.Path, dirChildren, fileChildren, cx.Config.HashByteLimit, hashCache)
			if err != nil {
				cx.Logger.Warn("directory hash failed, excluding from duplicate claim", "path", d.Path, "error", err)
				continue
			}
			members = append(members, hashed{dir: d, hash: h})
		}

		byHash := make(map[string][]hashed)
		for _, m := range members {
			byHash[m.hash] = append(byHash[m.hash], m)
		}

		for _, dupes := range byHash {
			if len(dupes) < 2 {
				continue
			}
			items := make([]tieBreakItem, len(dupes))
			for i, m := range dupes {
				items[i] = tieBreakItem{path: m.dir.Path, minTime: minTime(m.dir.Stat), name: filepath.Base(m.dir.Path)}
			}
			original := determineOriginal(items)

			for _, m := range dupes {
				if m.dir.Path == original.path {
					continue
				}
				ops = append(ops, planmodel.Operation{
					Kind:         planmodel.Duplicate,
					Path:         m.dir.Path,
					MoveTo:       rebase.Rebase(cx.Config.RecycleBinPath, m.dir.Path),
					OriginalPath: original.path,
				})
				dupDirPaths[m.dir.Path] = true
			}
		}
	}
	return ops
}

// recursiveDirHash computes the MD5-equivalent running digest described in
// §4.5 Stage A: the chunk hash of every direct child file (sorted by
// name), combined recursively with the hash of every immediate
// subdirectory. Results are memoized in cache since sibling groups can
// share subdirectories across shape-key collisions.
func recursiveDirHash(
	dir string, dirChildren map[string][]*model.DirEntry, fileChildren map[string][]*model.FileEntry,
	byteLimit int, cache map[string]string,
) (string, error) {
	if h, ok := cache[dir]; ok {
		return h, nil
	}

	h := md5.New()
	for _, f := range fileChildren[dir] {
		chunk, err := hashPrefix(f.Path, byteLimit)
		if err != nil {
			return "", err
		}
		io.WriteString(h, chunk)
	}
	for _, sub := range dirChildren[dir] {
		subHash, err := recursiveDirHash(sub.Path, dirChildren, fileChildren, byteLimit, cache)
		if err != nil {
			return "", err
		}
		io.WriteString(h, subHash)
	}

	sum := hex.EncodeToString(h.Sum(nil))
	cache[dir] = sum
	return sum, nil
}

// hashPrefix MD5-hashes the first limit bytes of path (or the whole file,
// if shorter).
func hashPrefix(path string, limit int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, io.LimitReader(f, int64(limit))); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func minTime(st model.StatSnapshot) int64 {
	c, b := st.CtimeMs(), st.BirthtimeMs()
	if c < b {
		return c
	}
	return b
}

// tieBreakItem captures the fields determineOriginal needs: minTime is
// min(ctimeMs, birthtimeMs); name and path break ties per §4.5.
type tieBreakItem struct {
	path    string
	minTime int64
	name    string
}

// determineOriginal picks the oldest item, then the shortest name, then
// lexicographically smallest path. Stable under permutation of items.
func determineOriginal(items []tieBreakItem) tieBreakItem {
	best := items[0]
	for _, it := range items[1:] {
		switch {
		case it.minTime < best.minTime:
			best = it
		case it.minTime == best.minTime && len(it.name) < len(best.name):
			best = it
		case it.minTime == best.minTime && len(it.name) == len(best.name) && it.path < best.path:
			best = it
		}
	}
	return best
}

// fileset groups a master media file with its sidecars, per §4.5 Stage B.1.
type fileset struct {
	master   *model.FileEntry
	sidecars []*model.FileEntry
}

// buildFilesets scans dir's children for masters (extension in
// masterExts) and attaches every sibling whose name begins with the
// master's base name followed by a non-alphanumeric boundary (or nothing).
func buildFilesets(files []*model.FileEntry, masterExts map[string]bool) map[string]*fileset {
	sets := make(map[string]*fileset)
	var masters []*model.FileEntry
	for _, f := range files {
		if masterExts[f.Ext] {
			masters = append(masters, f)
		}
	}
	claimed := make(map[string]bool)
	for _, m := range masters {
		fs := &fileset{master: m}
		for _, sib := range files {
			if sib.Path == m.Path || claimed[sib.Path] {
				continue
			}
			if isSidecarOf(sib.Name, m.Base) {
				fs.sidecars = append(fs.sidecars, sib)
				claimed[sib.Path] = true
			}
		}
		sets[m.Path] = fs
	}
	return sets
}

// isSidecarOf reports whether name begins with masterBase immediately
// followed by a non-alphanumeric character or the end of the base name.
func isSidecarOf(name, masterBase string) bool {
	if !strings.HasPrefix(name, masterBase) {
		return false
	}
	rest := name[len(masterBase):]
	if rest == "" {
		return true
	}
	r := rune(rest[0])
	isAlnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
	return !isAlnum
}

func analyzeFiles(
	cx *corectx.Context, scan *model.Scan,
	fileChildren map[string][]*model.FileEntry, dupDirPaths map[string]bool,
) []planmodel.Operation {
	masterExts := make(map[string]bool)
	for _, ext := range cx.Config.DupeSetExtensions {
		e := ext
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		masterExts[strings.ToLower(e)] = true
	}

	filesetByMaster := make(map[string]*fileset)
	sidecarOwner := make(map[string]string) // sidecar path -> master path
	for dir, files := range fileChildren {
		if dupDirPaths[dir] {
			continue
		}
		for masterPath, fs := range buildFilesets(files, masterExts) {
			filesetByMaster[masterPath] = fs
			for _, sc := range fs.sidecars {
				sidecarOwner[sc.Path] = masterPath
			}
		}
	}

	sizeGroups := make(map[int64][]*model.FileEntry)
	for _, f := range scan.FilesInOrder() {
		if dupDirPaths[f.Dir] || f.Ignored || f.MarkedForDelete {
			continue
		}
		if _, isSidecar := sidecarOwner[f.Path]; isSidecar {
			continue
		}
		sizeGroups[f.Stat.Size] = append(sizeGroups[f.Stat.Size], f)
	}

	var ops []planmodel.Operation
	emittedSidecar := make(map[string]bool)

	for _, group := range sizeGroups {
		if len(group) < 2 {
			continue
		}

		type hashed struct {
			file *model.FileEntry
			hash string
		}
		var members []hashed
		for _, f := range group {
			h, err := effectiveHash(f, filesetByMaster[f.Path], cx.Config.HashByteLimit)
			if err != nil {
				cx.Logger.Warn("file hash failed, excluding from duplicate claim", "path", f.Path, "error", err)
				continue
			}
			members = append(members, hashed{file: f, hash: h})
		}

		byHash := make(map[string][]hashed)
		for _, m := range members {
			byHash[m.hash] = append(byHash[m.hash], m)
		}

		for _, dupes := range byHash {
			if len(dupes) < 2 {
				continue
			}
			items := make([]tieBreakItem, len(dupes))
			for i, m := range dupes {
				items[i] = tieBreakItem{path: m.file.Path, minTime: minTime(m.file.Stat), name: m.file.Name}
			}
			original := determineOriginal(items)

			for _, m := range dupes {
				if m.file.Path == original.path {
					continue
				}
				if emittedSidecar[m.file.Path] {
					continue
				}
				op := planmodel.Operation{
					Kind:         planmodel.Duplicate,
					Path:         m.file.Path,
					MoveTo:       rebase.Rebase(cx.Config.RecycleBinPath, m.file.Path),
					OriginalPath: original.path,
				}
				if fs, ok := filesetByMaster[m.file.Path]; ok {
					for _, sc := range fs.sidecars {
						op.SidecarFiles = append(op.SidecarFiles, sc.Path)
						emittedSidecar[sc.Path] = true
					}
				}
				ops = append(ops, op)
			}
		}
	}
	return ops
}

// effectiveHash is the plain chunk hash of f, unless f is a fileset
// master, in which case it's the MD5 of the concatenation of the master's
// own chunk hash and each sidecar's chunk hash, in member order.
func effectiveHash(f *model.FileEntry, fs *fileset, byteLimit int) (string, error) {
	masterHash, err := hashPrefix(f.Path, byteLimit)
	if err != nil {
		return "", err
	}
	if fs == nil || len(fs.sidecars) == 0 {
		return masterHash, nil
	}

	h := md5.New()
	io.WriteString(h, masterHash)
	for _, sc := range fs.sidecars {
		scHash, err := hashPrefix(sc.Path, byteLimit)
		if err != nil {
			return "", err
		}
		io.WriteString(h, scHash)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
