//go:build !unix

package preflight

import "os"

func canRead(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

func canWriteDir(path string) error {
	f, err := os.CreateTemp(path, ".authmon-check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
