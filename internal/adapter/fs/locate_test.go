package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLocate_PlainPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "byelaws.pdf"), "pdf")

	info, err := Locate(root, "byelaws.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if info.Path != filepath.Join(root, "byelaws.pdf") {
		t.Errorf("unexpected path %s", info.Path)
	}
	if info.Size != 3 {
		t.Errorf("expected size 3, got %d", info.Size)
	}
}

func TestLocate_Glob(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "docs", "society", "rules.pdf"), "pdf")
	writeFile(t, filepath.Join(root, "docs", "notes.txt"), "txt")

	info, err := Locate(root, "docs/**/*.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if info.Path != filepath.Join(root, "docs", "society", "rules.pdf") {
		t.Errorf("unexpected path %s", info.Path)
	}
}

func TestLocate_Errors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pdf"), "a")
	writeFile(t, filepath.Join(root, "b.pdf"), "b")

	tests := []struct {
		name    string
		pattern string
	}{
		{"missing", "missing.pdf"},
		{"ambiguous", "*.pdf"},
		{"no match", "**/*.docx"},
		{"directory", "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Locate(root, tt.pattern); err == nil {
				t.Errorf("expected error for %q", tt.pattern)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.pdf")
	b := filepath.Join(root, "b.pdf")
	writeFile(t, a, "same")
	writeFile(t, b, "same")

	fa, err := Fingerprint(a)
	if err != nil {
		t.Fatal(err)
	}
	fb, _ := Fingerprint(b)
	if fa != fb || len(fa) != 64 {
		t.Errorf("unexpected fingerprints %s %s", fa, fb)
	}

	if _, err := Fingerprint(filepath.Join(root, "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
