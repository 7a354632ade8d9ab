package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Workspace is a temporary directory owning all downloaded bytes of a run.
type Workspace struct {
	Dir string
}

// NewWorkspace creates a new workspace below `root`, or below the default
// temporary directory if root is empty. The caller must Close it.
func NewWorkspace(root string) (*Workspace, error) {
	dir, err := os.MkdirTemp(root, "gw-install-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

// Path returns the path of `name` inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Close removes the workspace and everything in it.
func (w *Workspace) Close() error {
	return os.RemoveAll(w.Dir)
}

// Download retrieves `url` and saves it as `name` in the given directory.
// It returns the local path of the downloaded file. Nothing is left behind
// if the transfer fails.
func Download(ctx context.Context, client *http.Client, url string, dir string, name string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %w", ErrTransfer, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %d - %s", ErrTransfer, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	dst := filepath.Join(dir, name)
	part := dst + ".part"
	file, err := os.Create(part)
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}
	keep := false
	defer func() {
		_ = file.Close()
		if !keep {
			_ = os.Remove(part)
		}
	}()

	if _, err := io.Copy(file, resp.Body); err != nil {
		return "", fmt.Errorf("%w: write output file: %w", ErrTransfer, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close output file: %w", err)
	}
	if err := os.Rename(part, dst); err != nil {
		return "", fmt.Errorf("rename output file: %w", err)
	}
	keep = true

	return dst, nil
}
