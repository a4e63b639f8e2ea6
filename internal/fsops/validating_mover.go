package fsops

import (
	"fmt"
	"os"

	"archivist/internal/safety"
)

// ValidatingMover wraps a Mover with internal/safety's move-target
// contract, so every operation the executor applies — not just the ones
// the analyzers are trusted to have computed correctly — is re-checked
// against the scan root / recycle-bin allowlist immediately before it
// touches the filesystem. This is the last line of defense against a
// miscomputed Operation.MoveTo ever reaching os.Rename or os.Chmod.
type ValidatingMover struct {
	Mover      Mover
	Validator  *safety.Validator
	RecycleBin string
}

// NewValidatingMover builds a ValidatingMover that authorizes paths
// against allowedRoots (typically a root's scanPath and recycleBinPath)
// and confines move destinations to recycleBin.
func NewValidatingMover(mover Mover, allowedRoots []string, recycleBin string) *ValidatingMover {
	return &ValidatingMover{
		Mover:      mover,
		Validator:  safety.NewValidator(allowedRoots, nil),
		RecycleBin: recycleBin,
	}
}

func (v *ValidatingMover) Move(src, dst string) error {
	if err := v.Validator.ValidateMoveTarget(src, dst, v.RecycleBin); err != nil {
		return fmt.Errorf("refusing move %s -> %s: %w", src, dst, err)
	}
	return v.Mover.Move(src, dst)
}

func (v *ValidatingMover) Chmod(path string, mode os.FileMode) error {
	if err := v.Validator.ValidateSource(path); err != nil {
		return fmt.Errorf("refusing chmod %s: %w", path, err)
	}
	return v.Mover.Chmod(path, mode)
}

func (v *ValidatingMover) Chown(path string, uid, gid int) error {
	if err := v.Validator.ValidateSource(path); err != nil {
		return fmt.Errorf("refusing chown %s: %w", path, err)
	}
	return v.Mover.Chown(path, uid, gid)
}
