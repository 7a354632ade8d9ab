package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInstall(t *testing.T) {
	src := filepath.Join(t.TempDir(), "gw")
	if err := os.WriteFile(src, []byte("new binary"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		existing string
	}{
		{name: "fresh"},
		{name: "overwrite", existing: "old binary"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			binDir := t.TempDir()
			dst := filepath.Join(binDir, "gw")
			if tt.existing != "" {
				if err := os.WriteFile(dst, []byte(tt.existing), 0700); err != nil {
					t.Fatal(err)
				}
			}

			if err := Install(src, dst); err != nil {
				t.Fatalf("Install() failed: %v", err)
			}

			content, err := os.ReadFile(dst)
			if err != nil {
				t.Fatal(err)
			}
			if string(content) != "new binary" {
				t.Errorf("installed content = %q, want %q", content, "new binary")
			}

			info, err := os.Stat(dst)
			if err != nil {
				t.Fatal(err)
			}
			if perm := info.Mode().Perm(); perm != 0755 {
				t.Errorf("installed mode = %v, want %v", perm, os.FileMode(0755))
			}

			entries, err := os.ReadDir(binDir)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 1 {
				t.Errorf("bin dir contains %d entries, want 1", len(entries))
			}
		})
	}
}

func TestInstallMissingSource(t *testing.T) {
	binDir := t.TempDir()
	if err := Install(filepath.Join(t.TempDir(), "missing"), filepath.Join(binDir, "gw")); err == nil {
		t.Fatal("Install() succeeded unexpectedly")
	}
	entries, _ := os.ReadDir(binDir)
	if len(entries) != 0 {
		t.Errorf("bin dir contains %d entries, want 0", len(entries))
	}
}
