package main

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDetectTarget(t *testing.T) {
	tests := []struct {
		os   string
		arch string
		want string
	}{
		{os: "darwin", arch: "x86_64", want: "x86_64-apple-darwin"},
		{os: "darwin", arch: "amd64", want: "x86_64-apple-darwin"},
		{os: "darwin", arch: "arm64", want: "aarch64-apple-darwin"},
		{os: "darwin", arch: "aarch64", want: "aarch64-apple-darwin"},
		{os: "linux", arch: "x86_64", want: "x86_64-unknown-linux-gnu"},
		{os: "linux", arch: "amd64", want: "x86_64-unknown-linux-gnu"},
		{os: "linux", arch: "arm64", want: "aarch64-unknown-linux-gnu"},
		{os: "linux", arch: "aarch64", want: "aarch64-unknown-linux-gnu"},
		{os: "Darwin", arch: "ARM64", want: "aarch64-apple-darwin"},
		{os: " Linux\n", arch: "x86_64\n", want: "x86_64-unknown-linux-gnu"},
	}
	for _, tt := range tests {
		t.Run(tt.os+"/"+tt.arch, func(t *testing.T) {
			got, err := DetectTarget(tt.os, tt.arch)
			if err != nil {
				t.Fatalf("DetectTarget() failed: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("DetectTarget() = %q, want %q", got.String(), tt.want)
			}
		})
	}
}

func TestDetectTargetUnsupported(t *testing.T) {
	tests := []struct {
		os      string
		arch    string
		mention string
	}{
		{os: "windows", arch: "amd64", mention: "windows"},
		{os: "freebsd", arch: "arm64", mention: "freebsd"},
		{os: "linux", arch: "i686", mention: "i686"},
		{os: "darwin", arch: "armv7l", mention: "armv7l"},
		{os: "", arch: "x86_64", mention: `""`},
	}
	for _, tt := range tests {
		t.Run(tt.os+"/"+tt.arch, func(t *testing.T) {
			_, err := DetectTarget(tt.os, tt.arch)
			if !errors.Is(err, ErrUnsupportedPlatform) {
				t.Fatalf("DetectTarget() error = %v, want %v", err, ErrUnsupportedPlatform)
			}
			if !strings.Contains(err.Error(), tt.mention) {
				t.Errorf("DetectTarget() error %q does not name %q", err, tt.mention)
			}
		})
	}
}

func TestHostInfoDetector(t *testing.T) {
	osName, arch, err := hostInfoDetector{}.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() failed: %v", err)
	}
	if osName == "" || arch == "" {
		t.Errorf("Detect() = (%q, %q), want non-empty values", osName, arch)
	}
}
