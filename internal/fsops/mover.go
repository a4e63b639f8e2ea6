// Package fsops abstracts the filesystem side effects the executor
// applies. Grounded directly on a Deleter interface (which
// enabled mocking deletes in dry-run tests); generalized here from
// Remove/RemoveAll to Move/Chmod/Chown since this spec never deletes —
// every "removal" is a move into the recycle bin (§1 Non-goals).
package fsops

import "os"

// Mover abstracts the three filesystem mutations the executor issues.
type Mover interface {
	// Move relocates src to dst, creating dst's parent directories as
	// needed and overwriting an existing file at dst.
	Move(src, dst string) error
	Chmod(path string, mode os.FileMode) error
	Chown(path string, uid, gid int) error
}
