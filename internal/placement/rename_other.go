//go:build !linux

package placement

import "syscall"

var errCrossDevice error = syscall.EXDEV

func renameNoReplace(src, dst string) error {
	return linkRename(src, dst)
}
