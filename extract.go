package main

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ExtractTarGz extracts a .tar.gz archive into `destDir`.
// Only directories and regular files are extracted; entries that would land
// outside destDir are rejected.
func ExtractTarGz(archive string, destDir string) error {
	in, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() {
		_ = in.Close()
	}()

	gzReader, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("create gzip reader: %w", err)
	}
	defer func() {
		_ = gzReader.Close()
	}()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tarReader := tar.NewReader(gzReader)
	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		if !filepath.IsLocal(header.Name) {
			return fmt.Errorf("illegal file path: %s", header.Name)
		}
		target := filepath.Join(destDir, header.Name)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", header.Name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("create parent dir for %s: %w", header.Name, err)
			}
			if err := writeFile(target, tarReader, header.FileInfo().Mode().Perm()); err != nil {
				return fmt.Errorf("write file %s: %w", header.Name, err)
			}
		default:
			// links and special files never carry the binary
			continue
		}
	}

	return nil
}

func writeFile(path string, r io.Reader, perm fs.FileMode) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// FindBinary returns the path of the regular file called `name` below `dir`.
// A match closer to dir wins over deeper ones.
func FindBinary(dir string, name string) (string, error) {
	var (
		found string
		depth int
	)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || d.Name() != name {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		n := strings.Count(rel, string(filepath.Separator))
		if found == "" || n < depth {
			found, depth = path, n
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("binary %s not found in archive", name)
	}
	return found, nil
}
