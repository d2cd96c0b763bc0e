//go:build linux

package storage

import "testing"

func TestFilesystemTypeOfTempDir(t *testing.T) {
	t.Parallel()

	fsType, err := filesystemType(t.TempDir())
	if err != nil {
		t.Fatalf("filesystemType: %v", err)
	}
	if fsType == "" {
		t.Fatal("expected a filesystem type")
	}
	if err := ValidateLocalFilesystem(t.TempDir()); err != nil && !isNetworkFilesystem(fsType) {
		t.Fatalf("local temp dir rejected: %v", err)
	}
}
