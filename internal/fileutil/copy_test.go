package fileutil

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestCopyFile(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "error.pptx")
	dst := filepath.Join(tmpDir, "out", "nested", "error.pptx")

	content := []byte("PK fallback deck")
	if err := os.WriteFile(src, content, 0640); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("failed to read dst: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q, want %q", got, content)
	}

	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0640 {
		t.Errorf("permissions = %v, want 0640", info.Mode().Perm())
	}
}

func TestCopyFile_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("nonexistent source", func(t *testing.T) {
		if err := CopyFile(filepath.Join(tmpDir, "missing"), filepath.Join(tmpDir, "dst")); err == nil {
			t.Error("expected error for nonexistent source")
		}
	})

	t.Run("destination is a directory", func(t *testing.T) {
		src := filepath.Join(tmpDir, "src.txt")
		if err := os.WriteFile(src, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		dstDir := filepath.Join(tmpDir, "dstdir")
		if err := os.Mkdir(dstDir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := CopyFile(src, dstDir); err == nil {
			t.Error("expected error when destination is a directory")
		}
	})

	t.Run("parent is a file", func(t *testing.T) {
		src := filepath.Join(tmpDir, "src.txt")
		blocker := filepath.Join(tmpDir, "blocker")
		if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := CopyFile(src, filepath.Join(blocker, "dst.txt")); err == nil {
			t.Error("expected error when parent is a file")
		}
	})
}

func TestCopyDir(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "skeleton")
	dst := filepath.Join(tmpDir, "build")

	files := map[string]string{
		"_rels/.rels":                       "<Relationships/>",
		"ppt/theme/theme1.xml":              "<a:theme/>",
		"ppt/slideMasters/slideMaster1.xml": "<p:sldMaster/>",
		"ppt/slides/_rels/.keep":            "",
	}
	for name, content := range files {
		p := filepath.Join(src, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if err := CopyDir(src, dst); err != nil {
		t.Fatalf("CopyDir failed: %v", err)
	}

	for name, want := range files {
		got, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(name)))
		if err != nil {
			t.Errorf("missing %s: %v", name, err)
			continue
		}
		if string(got) != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
}

func TestCopyDir_SingleFile(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "single.xml")
	dst := filepath.Join(tmpDir, "copy.xml")
	if err := os.WriteFile(src, []byte("<x/>"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := CopyDir(src, dst); err != nil {
		t.Fatalf("CopyDir on a file failed: %v", err)
	}
	if got, _ := os.ReadFile(dst); string(got) != "<x/>" {
		t.Errorf("content = %q, want %q", got, "<x/>")
	}
}

func TestCopyDir_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("nonexistent source", func(t *testing.T) {
		if err := CopyDir(filepath.Join(tmpDir, "missing"), filepath.Join(tmpDir, "dst")); err == nil {
			t.Error("expected error for nonexistent source")
		}
	})

	t.Run("destination blocked", func(t *testing.T) {
		src := filepath.Join(tmpDir, "src")
		if err := os.MkdirAll(src, 0755); err != nil {
			t.Fatal(err)
		}
		blocker := filepath.Join(tmpDir, "blocker")
		if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := CopyDir(src, filepath.Join(blocker, "sub")); err == nil {
			t.Error("expected error when destination parent is a file")
		}
	})

	t.Run("cannot overwrite directory with file", func(t *testing.T) {
		src := filepath.Join(tmpDir, "src2")
		if err := os.MkdirAll(src, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(src, "part.xml"), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		dst := filepath.Join(tmpDir, "dst2")
		if err := os.MkdirAll(filepath.Join(dst, "part.xml"), 0755); err != nil {
			t.Fatal(err)
		}
		if err := CopyDir(src, dst); err == nil {
			t.Error("expected error when a file would replace a directory")
		}
	})
}

func TestCopyFS(t *testing.T) {
	fsys := fstest.MapFS{
		"skeleton/_rels/.rels":            {Data: []byte("<Relationships/>")},
		"skeleton/ppt/presProps.xml":      {Data: []byte("<p:presentationPr/>")},
		"skeleton/ppt/slides/_rels/.keep": {Data: nil},
		"other/ignored.txt":               {Data: []byte("no")},
	}
	dst := filepath.Join(t.TempDir(), "build")

	if err := CopyFS(fsys, "skeleton", dst); err != nil {
		t.Fatalf("CopyFS failed: %v", err)
	}

	tests := []struct {
		name string
		want string
	}{
		{"_rels/.rels", "<Relationships/>"},
		{"ppt/presProps.xml", "<p:presentationPr/>"},
		{"ppt/slides/_rels/.keep", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(tt.name)))
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("content = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dst, "other")); !os.IsNotExist(err) {
		t.Error("files outside root should not be copied")
	}
	if _, err := os.Stat(filepath.Join(dst, "skeleton")); !os.IsNotExist(err) {
		t.Error("root prefix should be stripped")
	}
}

func TestCopyFS_MissingRoot(t *testing.T) {
	if err := CopyFS(fstest.MapFS{}, "skeleton", t.TempDir()); err == nil {
		t.Error("expected error for missing root")
	}
}
