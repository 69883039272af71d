package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// publishedMode keeps the rendered files readable by a static web server.
const publishedMode = 0o644

// writeFileAtomic replaces path with data through a temporary file in the
// same directory, so readers never observe a half written artifact.
// Intermediate directories are created automatically.
// Not atomic on Windows.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("could not create temporary file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		// Already renamed on success.
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("could not write to temporary file: %w", err)
	}
	if err := tmp.Chmod(publishedMode); err != nil {
		return fmt.Errorf("could not set permissions on temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close temporary file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not rename temporary file: %w", err)
	}
	return nil
}
