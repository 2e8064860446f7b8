// Package util provides common utilities for Vigil.
package util

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// AtomicWriteJSON marshals v with indentation and writes it to path
// atomically. Readers polling the file never observe a partial document:
// they see either the previous contents or the new contents.
func AtomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return AtomicWriteFile(path, data, 0644)
}

// AtomicWriteFile writes data to path via a temporary file in the same
// directory followed by a rename. The rename is atomic on POSIX systems,
// so a crash mid-write leaves the previous file intact.
//
// If the rename fails the temp file is removed best-effort; the rename
// error is what the caller needs, not the cleanup result.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, perm); err != nil {
		return err
	}

	if err := os.Rename(tmpFile, path); err != nil {
		_ = os.Remove(tmpFile)
		return err
	}

	return nil
}

// ReadJSON unmarshals the JSON file at path into v.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
