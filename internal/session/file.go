package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// The file holds a JSON object; the token lives under this one fixed key
const storageKey = "token"

// FileStorage keeps the token in a small JSON file, typically under the user's config dir
type FileStorage struct {
	Path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{Path: path}
}

func (f *FileStorage) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	entries := map[string]string{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return "", fmt.Errorf("decode %s: %w", f.Path, err)
	}

	value := entries[storageKey]
	if value == "" {
		return "", ErrNotFound
	}
	return value, nil
}

// Save writes to a temp file and renames it over the old one, so a crash mid-write
// never leaves a half-written token behind
func (f *FileStorage) Save(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(map[string]string{storageKey: value})
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, f.Path)
}

func (f *FileStorage) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(f.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
