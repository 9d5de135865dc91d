package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fsys := OSFileSystem{}

	if !fsys.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}

	if fsys.Exists("nonexistent_calibration.yaml") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_WriteFileReplaces(t *testing.T) {
	fsys := OSFileSystem{}
	path := filepath.Join(t.TempDir(), "stereo_pose.yaml")

	if err := fsys.WriteFile(path, []byte("first"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := fsys.WriteFile(path, []byte("second"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("expected %q, got %q", "second", data)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestOSFileSystem_WriteFileMissingDir(t *testing.T) {
	fsys := OSFileSystem{}
	path := filepath.Join(t.TempDir(), "missing", "stereo_pose.yaml")

	if err := fsys.WriteFile(path, []byte("x"), 0644); err == nil {
		t.Error("expected error writing into a missing directory")
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	testData := []byte("camera_name: stereo")
	if err := mfs.WriteFile("/calib/stereo_pose.yaml", testData, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := mfs.ReadFile("/calib/stereo_pose.yaml")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != string(testData) {
		t.Errorf("expected %q, got %q", testData, data)
	}

	// Mutating the returned slice must not change stored content.
	data[0] = 'X'
	again, _ := mfs.ReadFile("/calib/stereo_pose.yaml")
	if string(again) != string(testData) {
		t.Errorf("stored content changed: %q", again)
	}
}

func TestMemoryFileSystem_ReadMissing(t *testing.T) {
	mfs := NewMemoryFileSystem()

	_, err := mfs.ReadFile("/nope.yaml")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_ExistsAndRemove(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if err := mfs.MkdirAll("/calib/run1", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if !mfs.Exists("/calib") || !mfs.Exists("/calib/run1") {
		t.Error("expected directories to exist")
	}

	_ = mfs.WriteFile("/calib/run1/a.yaml", []byte("a"), 0644)
	if !mfs.Exists("/calib/run1/./a.yaml") {
		t.Error("expected cleaned path to exist")
	}

	if err := mfs.Remove("/calib/run1/a.yaml"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if mfs.Exists("/calib/run1/a.yaml") {
		t.Error("expected file to be removed")
	}
	if err := mfs.Remove("/calib/run1/a.yaml"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist on second remove, got %v", err)
	}
}

func TestMemoryFileSystem_Files(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.WriteFile("/b.yaml", nil, 0644)
	_ = mfs.WriteFile("/a.yaml", nil, 0644)

	got := mfs.Files()
	if len(got) != 2 || got[0] != "/a.yaml" || got[1] != "/b.yaml" {
		t.Errorf("unexpected file list: %v", got)
	}
}

func TestInterfaceCompliance(t *testing.T) {
	var _ FileSystem = OSFileSystem{}
	var _ FileSystem = NewMemoryFileSystem()
}
