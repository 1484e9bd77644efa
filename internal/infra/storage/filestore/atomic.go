// Package filestore keeps chat corpora and settings as flat per-chat files:
// <dialogs>/<chatID>.txt with one sample per line and <settings>/<chatID>.json.
package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const filePerm = 0o644

func chatFile(dir string, chatID int64, ext string) string {
	return filepath.Join(dir, strconv.FormatInt(chatID, 10)+ext)
}

// writeFileAtomic replaces path with data via a temp file in the same directory,
// so readers observe either the old or the new content.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err = os.Chmod(tmp.Name(), filePerm); err != nil {
		return fmt.Errorf("chmod temp: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
