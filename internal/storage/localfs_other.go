//go:build !darwin && !linux

package storage

// filesystemType reports an unknown type, which is treated as local.
func filesystemType(path string) (string, error) {
	return "", nil
}
