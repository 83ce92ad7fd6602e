package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// acquireRunLock takes a fail-fast advisory lock scoped to an output root so
// two mutating commands cannot write the same tree concurrently. The returned
// release func must be called when the command finishes.
func acquireRunLock(outputRoot string) (func(), error) {
	lockPath := filepath.Clean(outputRoot) + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("prepare lock directory: %w", err)
	}

	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock %s: %w", lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("another photojobs run is already writing to %s (lock %s held)", outputRoot, lockPath)
	}
	return func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}, nil
}
