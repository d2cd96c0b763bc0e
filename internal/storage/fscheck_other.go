//go:build !darwin && !linux

package storage

import "errors"

// filesystemType cannot tell here; ValidateLocalFilesystem lets the path through.
func filesystemType(string) (string, error) {
	return "", errors.New("filesystem type unknown on this platform")
}
