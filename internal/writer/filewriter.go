// Package writer exposes sinks for snapshot emission.
package writer

import (
	"fmt"
	"os"
	"path/filepath"
)

// Sink receives a complete serialized snapshot.
type Sink interface {
	WriteSnapshot(buf []byte) error
}

// FileWriter writes snapshot bytes to a filesystem path atomically.
type FileWriter struct {
	Path string
}

// WriteSnapshot writes buf to the configured path atomically via temp file + rename.
func (w *FileWriter) WriteSnapshot(buf []byte) error {
	// same directory so the rename stays atomic
	dir := filepath.Dir(w.Path)
	tmpFile, err := os.CreateTemp(dir, ".regremote-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, writeErr := tmpFile.Write(buf); writeErr != nil {
		return fmt.Errorf("write temp file: %w", writeErr)
	}
	if syncErr := tmpFile.Sync(); syncErr != nil {
		return fmt.Errorf("sync temp file: %w", syncErr)
	}
	if closeErr := tmpFile.Close(); closeErr != nil {
		return fmt.Errorf("close temp file: %w", closeErr)
	}
	tmpFile = nil

	if renameErr := os.Rename(tmpPath, w.Path); renameErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", renameErr)
	}
	return nil
}
