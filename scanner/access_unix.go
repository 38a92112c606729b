//go:build !windows

package scanner

import (
	"io/fs"

	"golang.org/x/sys/unix"
)

// checkReadable reports whether the directory can be listed and entered.
func checkReadable(path string) error {
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return &fs.PathError{Op: "access", Path: path, Err: err}
	}
	return nil
}
