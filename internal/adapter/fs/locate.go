package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

// Locate resolves pattern against root to exactly one regular file. Plain
// paths are returned as-is when they exist; glob patterns such as
// "docs/**/*.pdf" must match a single file.
func Locate(root, pattern string) (FileInfo, error) {
	path := pattern
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return FileInfo{}, fmt.Errorf("%s is a directory", path)
		}
		return FileInfo{Path: path, ModTime: info.ModTime().Unix(), Size: info.Size()}, nil
	}

	if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
		return FileInfo{}, fmt.Errorf("invalid document pattern %q", pattern)
	}

	base, rel := root, filepath.ToSlash(pattern)
	if filepath.IsAbs(pattern) {
		base, rel = doublestar.SplitPattern(filepath.ToSlash(pattern))
	}

	matches, err := doublestar.Glob(os.DirFS(base), rel, doublestar.WithFilesOnly())
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to match %q: %w", pattern, err)
	}

	switch len(matches) {
	case 0:
		return FileInfo{}, fmt.Errorf("no document matches %q", pattern)
	case 1:
	default:
		return FileInfo{}, fmt.Errorf("%d documents match %q, expected one", len(matches), pattern)
	}

	full := filepath.Join(base, filepath.FromSlash(matches[0]))
	info, err := os.Stat(full)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Path: full, ModTime: info.ModTime().Unix(), Size: info.Size()}, nil
}

// Fingerprint returns the hex sha256 of the file contents.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
