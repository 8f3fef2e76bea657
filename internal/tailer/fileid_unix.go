//go:build unix

package tailer

import (
	"os"

	"golang.org/x/sys/unix"
)

// fileID identifies the inode behind a path.
type fileID struct {
	dev uint64
	ino uint64
}

func (id fileID) equal(other fileID) bool {
	return id == other
}

func statPath(path string) (fileState, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return fileState{}, &os.PathError{Op: "stat", Path: path, Err: err}
	}
	return stateFromStat(&st), nil
}

func statHandle(file *os.File) (fileState, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(file.Fd()), &st); err != nil {
		return fileState{}, &os.PathError{Op: "fstat", Path: file.Name(), Err: err}
	}
	return stateFromStat(&st), nil
}

func stateFromStat(st *unix.Stat_t) fileState {
	return fileState{
		id:      fileID{dev: uint64(st.Dev), ino: uint64(st.Ino)},
		size:    st.Size,
		removed: st.Nlink == 0,
		dir:     st.Mode&unix.S_IFMT == unix.S_IFDIR,
	}
}
