//go:build !unix

package tailer

import "os"

// fileID wraps the platform file info; os.SameFile does the comparison.
type fileID struct {
	info os.FileInfo
}

func (id fileID) equal(other fileID) bool {
	if id.info == nil || other.info == nil {
		return false
	}
	return os.SameFile(id.info, other.info)
}

func statPath(path string) (fileState, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}, err
	}
	return fileState{id: fileID{info: info}, size: info.Size(), dir: info.IsDir()}, nil
}

// statHandle cannot observe link counts here, so removed is always false and
// deletion is only noticed through identity or size changes.
func statHandle(file *os.File) (fileState, error) {
	info, err := file.Stat()
	if err != nil {
		return fileState{}, err
	}
	return fileState{id: fileID{info: info}, size: info.Size(), dir: info.IsDir()}, nil
}
