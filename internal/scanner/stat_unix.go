//go:build unix

package scanner

import (
	"os"
	"syscall"
	"time"

	"archivist/internal/model"
)

// statSnapshot extracts the device/link-count/ownership fields stat(2) exposes
// beyond what os.FileInfo carries. Linux's syscall.Stat_t has no birthtime
// field, so Birthtime falls back to Ctime, matching the comment on
// model.StatSnapshot.
func statSnapshot(path string, info os.FileInfo) (model.StatSnapshot, error) {
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return model.StatSnapshot{
			Size:  info.Size(),
			Mode:  info.Mode(),
			Mtime: info.ModTime(),
		}, nil
	}
	ctime := time.Unix(sys.Ctim.Sec, sys.Ctim.Nsec)
	return model.StatSnapshot{
		Size:      info.Size(),
		Mode:      info.Mode(),
		Uid:       sys.Uid,
		Gid:       sys.Gid,
		Mtime:     info.ModTime(),
		Ctime:     ctime,
		Birthtime: ctime,
		Dev:       uint64(sys.Dev),
		Nlink:     uint64(sys.Nlink),
	}, nil
}
