// Package ownership implements §4.9: resolving the configured owner user
// and group to numeric ids via the local account databases, then
// comparing every scanned entry's uid/gid against them.
package ownership

import (
	"fmt"
	"os/user"
	"strconv"

	"archivist/internal/corectx"
	"archivist/internal/model"
	"archivist/internal/planmodel"
)

// ErrAccountLookup wraps a failure to resolve the configured owner user or
// group; §7 treats this as fatal for the ownership action only.
type ErrAccountLookup struct {
	Field string
	Name  string
	Err   error
}

func (e *ErrAccountLookup) Error() string {
	return fmt.Sprintf("resolve %s %q: %v", e.Field, e.Name, e.Err)
}

func (e *ErrAccountLookup) Unwrap() error { return e.Err }

// Analyze resolves RootConfig.OwnerUser/OwnerGroup and returns an
// Ownership Operation for every entry whose uid/gid doesn't match.
func Analyze(cx *corectx.Context, scan *model.Scan) ([]planmodel.Operation, error) {
	uid, err := resolveUID(cx.Config.OwnerUser)
	if err != nil {
		return nil, &ErrAccountLookup{Field: "owner_user", Name: cx.Config.OwnerUser, Err: err}
	}
	gid, err := resolveGID(cx.Config.OwnerGroup)
	if err != nil {
		return nil, &ErrAccountLookup{Field: "owner_group", Name: cx.Config.OwnerGroup, Err: err}
	}

	var ops []planmodel.Operation
	for _, d := range scan.DirsInOrder() {
		if d.Path == scan.Root {
			continue
		}
		if op, mismatch := compare(cx, d.Path, d.Stat.Uid, d.Stat.Gid, uid, gid); mismatch {
			ops = append(ops, op)
		}
	}
	for _, f := range scan.FilesInOrder() {
		if f.Ignored || f.MarkedForDelete {
			continue
		}
		if op, mismatch := compare(cx, f.Path, f.Stat.Uid, f.Stat.Gid, uid, gid); mismatch {
			ops = append(ops, op)
		}
	}
	return ops, nil
}

func compare(cx *corectx.Context, path string, currentUid, currentGid, desiredUid, desiredGid uint32) (planmodel.Operation, bool) {
	if currentUid == desiredUid && currentGid == desiredGid {
		return planmodel.Operation{}, false
	}
	return planmodel.Operation{
		Kind:         planmodel.Ownership,
		Path:         path,
		NewUid:       desiredUid,
		NewGid:       desiredGid,
		CurrentOwner: lookupUserName(currentUid),
		CurrentGroup: lookupGroupName(currentGid),
		DesiredOwner: cx.Config.OwnerUser,
		DesiredGroup: cx.Config.OwnerGroup,
	}, true
}

// lookupUserName and lookupGroupName resolve a numeric id back to a name
// for display purposes; an unresolvable id (orphaned uid/gid) falls back
// to its numeric string rather than failing the whole analyzer.
func lookupUserName(uid uint32) string {
	u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
	if err != nil {
		return strconv.FormatUint(uint64(uid), 10)
	}
	return u.Username
}

func lookupGroupName(gid uint32) string {
	g, err := user.LookupGroupId(strconv.FormatUint(uint64(gid), 10))
	if err != nil {
		return strconv.FormatUint(uint64(gid), 10)
	}
	return g.Name
}

func resolveUID(name string) (uint32, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return 0, err
	}
	uid, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(uid), nil
}

func resolveGID(name string) (uint32, error) {
	g, err := user.LookupGroup(name)
	if err != nil {
		return 0, err
	}
	gid, err := strconv.ParseUint(g.Gid, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(gid), nil
}
