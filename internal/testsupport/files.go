package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// LogFile is a writer-side stand-in for a system log: it appends through a
// held handle and can be truncated, removed, renamed and recreated the way
// log rotation tools do.
type LogFile struct {
	t    testing.TB
	Path string
	file *os.File
}

// NewLogFile creates an empty log named name inside a per-test directory.
func NewLogFile(t testing.TB, name string) *LogFile {
	t.Helper()
	lf := &LogFile{t: t, Path: filepath.Join(t.TempDir(), name)}
	lf.Create()
	t.Cleanup(func() {
		if lf.file != nil {
			_ = lf.file.Close()
		}
	})
	return lf
}

// Create (re)creates the file at Path and switches writes to it.
func (f *LogFile) Create() {
	f.t.Helper()
	if f.file != nil {
		_ = f.file.Close()
	}
	file, err := os.OpenFile(f.Path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		f.t.Fatalf("create %s: %v", f.Path, err)
	}
	f.file = file
}

// Append writes text verbatim.
func (f *LogFile) Append(text string) {
	f.t.Helper()
	if f.file == nil {
		f.t.Fatalf("append to %s: file is not open", f.Path)
	}
	n, err := f.file.WriteString(text)
	if err != nil {
		f.t.Fatalf("append to %s: %v", f.Path, err)
	}
	if n != len(text) {
		f.t.Fatalf("append to %s: wrote %d of %d bytes", f.Path, n, len(text))
	}
}

// Truncate shrinks the file to zero bytes in place.
func (f *LogFile) Truncate() {
	f.t.Helper()
	if err := f.file.Truncate(0); err != nil {
		f.t.Fatalf("truncate %s: %v", f.Path, err)
	}
}

// Remove unlinks the file and closes the writer.
func (f *LogFile) Remove() {
	f.t.Helper()
	if f.file != nil {
		_ = f.file.Close()
		f.file = nil
	}
	if err := os.Remove(f.Path); err != nil {
		f.t.Fatalf("remove %s: %v", f.Path, err)
	}
}

// Rename moves the file to newName in the same directory and returns the new
// path. The writer keeps pointing at the renamed file until Create is called.
func (f *LogFile) Rename(newName string) string {
	f.t.Helper()
	target := filepath.Join(filepath.Dir(f.Path), newName)
	if err := os.Rename(f.Path, target); err != nil {
		f.t.Fatalf("rename %s: %v", f.Path, err)
	}
	return target
}
