package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Install copies the source file to the destination file and sets the
// destination file's permissions to `rwxr-xr-x`. An existing destination is
// replaced atomically.
func Install(src string, dst string) error {
	ifile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = ifile.Close()
	}()

	dstDir := filepath.Dir(dst)
	dstName := filepath.Base(dst)

	// write src to new temporary dst
	dstNew := filepath.Join(dstDir, fmt.Sprintf(".%s.new", dstName))
	ofile, err := os.OpenFile(dstNew, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	done := false
	defer func() {
		_ = ofile.Close()
		if !done {
			_ = os.Remove(dstNew)
		}
	}()

	if _, err := io.Copy(ofile, ifile); err != nil {
		return err
	}

	// the umask may have stripped bits from the mode passed to OpenFile
	if err := ofile.Chmod(0755); err != nil {
		return err
	}
	if err := ofile.Close(); err != nil {
		return err
	}

	if err := os.Rename(dstNew, dst); err != nil {
		return err
	}
	done = true

	return nil
}
