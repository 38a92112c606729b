//go:build windows

package scanner

import "os"

// checkReadable reports whether the directory can be opened for listing.
func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
