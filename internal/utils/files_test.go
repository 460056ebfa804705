package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFreePath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "report.md")
	if got := FreePath(p); got != p {
		t.Fatalf("expected unchanged path, got %s", got)
	}
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "report__2.md")
	if got := FreePath(p); got != want {
		t.Fatalf("FreePath = %s, want %s", got, want)
	}
	if err := os.WriteFile(want, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := FreePath(p); got != filepath.Join(dir, "report__3.md") {
		t.Fatalf("expected __3 suffix, got %s", got)
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Aerofit Q3.csv": "aerofit-q3-csv",
		" Sheet_1 ":      "sheet-1",
		"***":            "",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFindUpAndSafeWrite(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := EnsureDir(nested); err != nil {
		t.Fatal(err)
	}
	if err := SafeWriteFile(filepath.Join(root, "run.json"), []byte("{}")); err != nil {
		t.Fatalf("safe write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "run.json.tmp")); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
	got, err := FindUp(nested, "run.json")
	if err != nil {
		t.Fatalf("find up: %v", err)
	}
	if got != root {
		t.Fatalf("FindUp = %s, want %s", got, root)
	}
	if _, err := FindUp(nested, "missing.json"); err == nil {
		t.Fatalf("expected error for missing marker")
	}
}
