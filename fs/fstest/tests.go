package fstest

import (
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/jmgilman/go/fs/core"
)

func mustWrite(t *testing.T, filesystem core.FS, name, content string) {
	t.Helper()
	if err := filesystem.WriteFile(name, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%q): setup failed: %v", name, err)
	}
}

func testReadWrite(t *testing.T, filesystem core.FS, _ FSTestConfig) {
	mustWrite(t, filesystem, "org/foo/maven-metadata.xml", "<metadata/>")

	data, err := filesystem.ReadFile("org/foo/maven-metadata.xml")
	if err != nil {
		t.Fatalf("ReadFile(): got error %v, want nil", err)
	}
	if string(data) != "<metadata/>" {
		t.Errorf("ReadFile(): got %q, want %q", data, "<metadata/>")
	}

	f, err := filesystem.Open("org/foo/maven-metadata.xml")
	if err != nil {
		t.Fatalf("Open(): got error %v, want nil", err)
	}
	defer func() { _ = f.Close() }()

	streamed, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll(): got error %v", err)
	}
	if string(streamed) != "<metadata/>" {
		t.Errorf("Open()+ReadAll(): got %q, want %q", streamed, "<metadata/>")
	}

	info, err := filesystem.Stat("org/foo/maven-metadata.xml")
	if err != nil {
		t.Fatalf("Stat(): got error %v", err)
	}
	if info.Size() != int64(len("<metadata/>")) {
		t.Errorf("Stat().Size(): got %d, want %d", info.Size(), len("<metadata/>"))
	}

	mustWrite(t, filesystem, "org/foo/maven-metadata.xml", "<v2/>")
	data, _ = filesystem.ReadFile("org/foo/maven-metadata.xml")
	if string(data) != "<v2/>" {
		t.Errorf("WriteFile() overwrite: got %q, want %q", data, "<v2/>")
	}
}

func testCreateImplicitParents(t *testing.T, filesystem core.FS, _ FSTestConfig) {
	f, err := filesystem.Create("a/b/c/file.jar")
	if err != nil {
		t.Fatalf("Create(): got error %v, want nil", err)
	}
	if _, err := f.Write([]byte("jar-bytes")); err != nil {
		t.Fatalf("Write(): got error %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close(): got error %v", err)
	}

	data, err := filesystem.ReadFile("a/b/c/file.jar")
	if err != nil {
		t.Fatalf("ReadFile(): got error %v", err)
	}
	if string(data) != "jar-bytes" {
		t.Errorf("ReadFile(): got %q, want %q", data, "jar-bytes")
	}
}

func testExists(t *testing.T, filesystem core.FS, _ FSTestConfig) {
	mustWrite(t, filesystem, "dir/present.txt", "x")

	tests := []struct {
		name string
		want bool
	}{
		{"dir/present.txt", true},
		{"dir", true},
		{"dir/absent.txt", false},
		{"nowhere/absent.txt", false},
	}
	for _, tt := range tests {
		got, err := filesystem.Exists(tt.name)
		if err != nil {
			t.Errorf("Exists(%q): got error %v, want nil", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Exists(%q): got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func testReadDirSorted(t *testing.T, filesystem core.FS, _ FSTestConfig) {
	mustWrite(t, filesystem, "list/b.pom", "b")
	mustWrite(t, filesystem, "list/a.jar", "a")
	mustWrite(t, filesystem, "list/1.0/c.pom", "c")

	entries, err := filesystem.ReadDir("list")
	if err != nil {
		t.Fatalf("ReadDir(): got error %v", err)
	}

	want := []struct {
		name  string
		isDir bool
	}{{"1.0", true}, {"a.jar", false}, {"b.pom", false}}
	if len(entries) != len(want) {
		t.Fatalf("ReadDir(): got %d entries, want %d", len(entries), len(want))
	}
	for i, w := range want {
		if entries[i].Name() != w.name || entries[i].IsDir() != w.isDir {
			t.Errorf("ReadDir()[%d]: got (%q, dir=%v), want (%q, dir=%v)",
				i, entries[i].Name(), entries[i].IsDir(), w.name, w.isDir)
		}
	}
}

func testNotExist(t *testing.T, filesystem core.FS, _ FSTestConfig) {
	if _, err := filesystem.ReadFile("missing.txt"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile(missing): got %v, want fs.ErrNotExist", err)
	}
	if _, err := filesystem.Open("missing.txt"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open(missing): got %v, want fs.ErrNotExist", err)
	}
	if _, err := filesystem.Stat("missing.txt"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat(missing): got %v, want fs.ErrNotExist", err)
	}
}

func testRename(t *testing.T, filesystem core.FS, _ FSTestConfig) {
	mustWrite(t, filesystem, ".temp/merge-1", "new")
	mustWrite(t, filesystem, "g/maven-metadata.xml", "old")

	if err := filesystem.Rename(".temp/merge-1", "g/maven-metadata.xml"); err != nil {
		t.Fatalf("Rename(): got error %v, want nil", err)
	}

	data, err := filesystem.ReadFile("g/maven-metadata.xml")
	if err != nil {
		t.Fatalf("ReadFile(): got error %v", err)
	}
	if string(data) != "new" {
		t.Errorf("Rename() replace: got %q, want %q", data, "new")
	}
	if ok, _ := filesystem.Exists(".temp/merge-1"); ok {
		t.Errorf("Rename(): source still exists")
	}
}

func testRemove(t *testing.T, filesystem core.FS, _ FSTestConfig) {
	mustWrite(t, filesystem, "rm/file.txt", "x")

	if err := filesystem.Remove("rm/file.txt"); err != nil {
		t.Fatalf("Remove(): got error %v", err)
	}
	if ok, _ := filesystem.Exists("rm/file.txt"); ok {
		t.Errorf("Remove(): file still exists")
	}
}

func testRemoveAll(t *testing.T, filesystem core.FS, config FSTestConfig) {
	mustWrite(t, filesystem, "tree/a/1.txt", "1")
	mustWrite(t, filesystem, "tree/a/b/2.txt", "2")
	mustWrite(t, filesystem, "keep/3.txt", "3")

	if err := filesystem.RemoveAll("tree"); err != nil {
		t.Fatalf("RemoveAll(): got error %v", err)
	}
	if ok, _ := filesystem.Exists("tree/a/b/2.txt"); ok {
		t.Errorf("RemoveAll(): nested file still exists")
	}
	if !config.VirtualDirectories {
		if ok, _ := filesystem.Exists("tree"); ok {
			t.Errorf("RemoveAll(): directory still exists")
		}
	}
	if ok, _ := filesystem.Exists("keep/3.txt"); !ok {
		t.Errorf("RemoveAll(): removed unrelated file")
	}
	if err := filesystem.RemoveAll("never/existed"); err != nil {
		t.Errorf("RemoveAll(missing): got error %v, want nil", err)
	}
}
