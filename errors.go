package main

import "errors"

// Error kinds surfaced by the installer. Every failure returned from a stage
// wraps one of them, cancellation aside.
var (
	ErrUsage               = errors.New("usage error")
	ErrResolution          = errors.New("version resolution failed")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrTransfer            = errors.New("transfer failed")
	ErrIntegrity           = errors.New("integrity check failed")
	ErrMissingTool         = errors.New("no checksum tool available")
)

// exitCode maps an error returned by execute to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		return 2
	default:
		return 1
	}
}
