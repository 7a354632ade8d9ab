package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"

	"go.cluttr.dev/gw-install/internal/metaerr"
)

// InstallRequest describes a single installation.
type InstallRequest struct {
	Tool    string
	Version string // empty means latest
	BinDir  string
}

// InstallResult describes a completed installation.
type InstallResult struct {
	Tool    string
	Version string
	Target  Target
	Path    string
	OnPath  bool
}

// Reporter receives progress updates for each stage of an installation.
type Reporter interface {
	Start(msg string) Step
}

// Step is a running stage. Done is called exactly once with the stage's error.
type Step interface {
	Done(err error)
}

// Installer runs the installation pipeline.
type Installer struct {
	Client          *http.Client
	Host            ReleaseHost
	ArchiveTemplate string
	ChecksumTool    string
	Detector        HostDetector
	Reporter        Reporter

	// LookPath finds host checksum utilities. It defaults to exec.LookPath.
	LookPath func(string) (string, error)
	// TempDir is where the workspace is created. It defaults to os.TempDir.
	TempDir string
}

// Run installs the tool described by req. Nothing outside the workspace is
// modified unless the downloaded archive passed verification.
func (in *Installer) Run(ctx context.Context, req InstallRequest) (InstallResult, error) {
	var (
		client   = in.Client
		detector = in.Detector
		reporter = in.Reporter
	)
	if client == nil {
		client = newClient(in.Host.Token)
	}
	if detector == nil {
		detector = hostInfoDetector{}
	}
	if reporter == nil {
		reporter = nopReporter{}
	}

	res := InstallResult{Tool: req.Tool}

	var target Target
	err := stage(reporter, "Detecting platform", func() error {
		rawOS, rawArch, err := detector.Detect(ctx)
		if err != nil {
			return err
		}
		target, err = DetectTarget(rawOS, rawArch)
		return err
	})
	if err != nil {
		return res, err
	}
	res.Target = target
	slog.Debug("detected platform", "target", target.String())

	checksummer, err := SelectChecksummer(in.ChecksumTool, in.LookPath)
	if err != nil {
		return res, err
	}
	slog.Debug("selected checksum tool", "name", checksummer.Name())

	version := req.Version
	err = stage(reporter, "Resolving version", func() error {
		var err error
		version, err = ResolveVersion(ctx, client, in.Host, req.Tool, req.Version)
		return err
	})
	if err != nil {
		return res, err
	}
	res.Version = version
	slog.Debug("resolved version", "version", version)

	artifact, err := LocateArtifact(in.Host, in.ArchiveTemplate, req.Tool, version, target)
	if err != nil {
		return res, err
	}

	ws, err := NewWorkspace(in.TempDir)
	if err != nil {
		return res, err
	}
	defer func() {
		if err := ws.Close(); err != nil {
			slog.Error("failed to remove temporary directory", "dir", ws.Dir, "error", err)
		}
	}()

	var archive string
	err = stage(reporter, "Downloading "+artifact.ArchiveName, func() error {
		var err error
		archive, err = Download(ctx, client, artifact.ArchiveURL, ws.Dir, artifact.ArchiveName)
		if err != nil {
			return metaerr.WithMetadata(fmt.Errorf("download archive: %w", err), "url", artifact.ArchiveURL)
		}
		if _, err := Download(ctx, client, artifact.ManifestURL, ws.Dir, manifestName); err != nil {
			return metaerr.WithMetadata(fmt.Errorf("download checksums: %w", err), "url", artifact.ManifestURL)
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	err = stage(reporter, "Verifying checksums with "+checksummer.Name(), func() error {
		if err := requireManifestEntry(ws.Path(manifestName), artifact.ArchiveName); err != nil {
			return err
		}
		return checksummer.Verify(ctx, ws.Dir, manifestName)
	})
	if err != nil {
		return res, metaerr.WithMetadata(err, "archive", artifact.ArchiveName)
	}

	dst := filepath.Join(req.BinDir, req.Tool)
	err = stage(reporter, "Installing "+dst, func() error {
		if err := os.MkdirAll(req.BinDir, 0755); err != nil {
			return fmt.Errorf("create bin dir: %w", err)
		}

		extractDir := ws.Path("extract")
		if err := ExtractTarGz(archive, extractDir); err != nil {
			return fmt.Errorf("extract archive: %w", err)
		}
		bin, err := FindBinary(extractDir, req.Tool)
		if err != nil {
			return fmt.Errorf("extract archive: %w", err)
		}

		if err := Install(bin, dst); err != nil {
			return fmt.Errorf("install binary: %w", err)
		}
		return nil
	})
	if err != nil {
		return res, metaerr.WithMetadata(err, "path", dst)
	}
	res.Path = dst
	res.OnPath = onPath(req.BinDir, os.Getenv("PATH"))

	return res, nil
}

func stage(r Reporter, msg string, fn func() error) error {
	step := r.Start(msg)
	err := fn()
	step.Done(err)
	return err
}

// onPath reports whether dir is one of the entries of the PATH list `path`.
func onPath(dir string, path string) bool {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	return slices.ContainsFunc(filepath.SplitList(path), func(p string) bool {
		if p == "" {
			return false
		}
		pa, err := filepath.Abs(p)
		return err == nil && pa == abs
	})
}

type nopReporter struct{}

func (nopReporter) Start(string) Step { return nopStep{} }

type nopStep struct{}

func (nopStep) Done(error) {}
