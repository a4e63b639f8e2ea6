package fsops

import "os"

// FakeMover implements Mover for testing. Records every call without
// performing actual filesystem mutations, the same role a FakeDeleter
// plays in proving dry-run paths never touch disk.
type FakeMover struct {
	Moves  []MoveCall
	Chmods []ChmodCall
	Chowns []ChownCall
}

type MoveCall struct{ Src, Dst string }
type ChmodCall struct {
	Path string
	Mode os.FileMode
}
type ChownCall struct {
	Path     string
	Uid, Gid int
}

func (f *FakeMover) Move(src, dst string) error {
	f.Moves = append(f.Moves, MoveCall{Src: src, Dst: dst})
	return nil
}

func (f *FakeMover) Chmod(path string, mode os.FileMode) error {
	f.Chmods = append(f.Chmods, ChmodCall{Path: path, Mode: mode})
	return nil
}

func (f *FakeMover) Chown(path string, uid, gid int) error {
	f.Chowns = append(f.Chowns, ChownCall{Path: path, Uid: uid, Gid: gid})
	return nil
}
