package main

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// Target identifies the platform a release archive is built for.
type Target struct {
	OS   string // e.g. "apple-darwin"
	Arch string // e.g. "aarch64"
}

// String returns the canonical target triple, e.g. "aarch64-apple-darwin".
func (t Target) String() string {
	return t.Arch + "-" + t.OS
}

var targetOS = map[string]string{
	"darwin": "apple-darwin",
	"linux":  "unknown-linux-gnu",
}

var targetArch = map[string]string{
	"x86_64":  "x86_64",
	"amd64":   "x86_64",
	"arm64":   "aarch64",
	"aarch64": "aarch64",
}

// DetectTarget maps raw OS and machine identifiers, as reported by uname or
// the Go runtime, to a release target.
func DetectTarget(rawOS string, rawArch string) (Target, error) {
	osName := normalizePlatform(rawOS)
	osID, ok := targetOS[osName]
	if !ok {
		return Target{}, fmt.Errorf("%w: operating system %q", ErrUnsupportedPlatform, rawOS)
	}

	archName := normalizePlatform(rawArch)
	archID, ok := targetArch[archName]
	if !ok {
		return Target{}, fmt.Errorf("%w: architecture %q", ErrUnsupportedPlatform, rawArch)
	}

	return Target{OS: osID, Arch: archID}, nil
}

func normalizePlatform(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// HostDetector reports the raw OS and machine identifiers of the host.
type HostDetector interface {
	Detect(ctx context.Context) (osName string, arch string, err error)
}

// hostInfoDetector asks the kernel through gopsutil and falls back to the Go
// runtime values when that fails.
type hostInfoDetector struct{}

func (hostInfoDetector) Detect(ctx context.Context) (string, string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return "", "", fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return runtime.GOOS, runtime.GOARCH, nil
	}

	osName, arch := info.OS, info.KernelArch
	if osName == "" {
		osName = runtime.GOOS
	}
	if arch == "" {
		arch = runtime.GOARCH
	}
	return osName, arch, nil
}
