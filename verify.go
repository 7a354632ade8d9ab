package main

import (
	"bufio"
	"bytes"
	"context"
	"crypto"
	_ "crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.cluttr.dev/gw-install/internal/metaerr"
)

// Checksummer verifies the files of a directory against a checksum manifest.
// Manifest entries for files that are not present are ignored.
type Checksummer interface {
	Name() string
	Verify(ctx context.Context, dir string, manifest string) error
}

// checksumTools lists the host utilities in order of preference.
var checksumTools = []execChecksummer{
	{name: "sha256sum", args: []string{"--check", "--ignore-missing"}},
	{name: "shasum", args: []string{"-a", "256", "--check", "--ignore-missing"}},
}

// SelectChecksummer returns the checksummer to use for `tool`, which is one of
// "auto", "builtin" or the name of a host utility. Host utilities are looked
// up with `lookPath`.
func SelectChecksummer(tool string, lookPath func(string) (string, error)) (Checksummer, error) {
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	var candidates []execChecksummer
	switch tool {
	case "builtin":
		return builtinChecksummer{}, nil
	case "", "auto":
		candidates = checksumTools
	default:
		for _, c := range checksumTools {
			if c.name == tool {
				candidates = append(candidates, c)
			}
		}
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w: unknown checksum tool: %s", ErrUsage, tool)
		}
	}

	for _, c := range candidates {
		path, err := lookPath(c.name)
		if err != nil {
			continue
		}
		c.path = path
		return c, nil
	}

	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.name)
	}
	return nil, fmt.Errorf("%w: looked for %s", ErrMissingTool, strings.Join(names, ", "))
}

// execChecksummer runs a host checksum utility in check mode.
type execChecksummer struct {
	name string
	path string
	args []string
}

func (c execChecksummer) Name() string {
	return c.name
}

func (c execChecksummer) Verify(ctx context.Context, dir string, manifest string) error {
	args := append(append([]string{}, c.args...), manifest)
	cmd := exec.CommandContext(ctx, c.path, args...)
	cmd.Dir = dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return metaerr.WithMetadata(
			fmt.Errorf("%w: %s exited with status %d", ErrIntegrity, c.name, exitErr.ExitCode()),
			"output", strings.TrimSpace(out.String()),
		)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: run %s: %w", ErrMissingTool, c.name, err)
}

// builtinChecksummer computes SHA-256 digests in-process.
type builtinChecksummer struct{}

func (builtinChecksummer) Name() string {
	return "builtin"
}

func (builtinChecksummer) Verify(ctx context.Context, dir string, manifest string) error {
	entries, err := readManifest(filepath.Join(dir, manifest))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIntegrity, err)
	}

	verified := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		actual, err := digestFile(filepath.Join(dir, e.name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrIntegrity, e.name, err)
		}

		if !strings.EqualFold(actual, e.sum) {
			return metaerr.WithMetadata(
				fmt.Errorf("%w: checksum mismatch: %s", ErrIntegrity, e.name),
				"actual", actual,
				"expected", e.sum,
			)
		}
		verified++
	}

	if verified == 0 {
		return fmt.Errorf("%w: %s: no file was verified", ErrIntegrity, manifest)
	}
	return nil
}

// requireManifestEntry fails unless the manifest at `path` lists `name`.
func requireManifestEntry(path string, name string) error {
	entries, err := readManifest(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIntegrity, err)
	}
	for _, e := range entries {
		if e.name == name {
			return nil
		}
	}
	return fmt.Errorf("%w: %s is not listed in %s", ErrIntegrity, name, filepath.Base(path))
}

type manifestEntry struct {
	sum  string
	name string
}

// readManifest parses a checksum manifest of the form produced by sha256sum:
// "<hex digest>  <filename>" per line, with a '*' marking binary mode.
// Malformed lines and entries pointing outside the directory are skipped.
// Names are cleaned, so "./a.tar.gz" lists "a.tar.gz".
func readManifest(path string) ([]manifestEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open checksum file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	var entries []manifestEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) != 2 {
			continue
		}
		sum, name := parts[0], strings.TrimPrefix(parts[1], "*")
		if _, err := hex.DecodeString(sum); err != nil || len(sum) != 2*crypto.SHA256.Size() {
			continue
		}
		if !filepath.IsLocal(name) {
			continue
		}
		entries = append(entries, manifestEntry{sum: sum, name: filepath.Clean(name)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan checksum file: %w", err)
	}

	return entries, nil
}

func digestFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close()
	}()
	return digest(file)
}

func digest(in io.Reader) (string, error) {
	hash := crypto.SHA256.New()
	if _, err := io.Copy(hash, in); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
