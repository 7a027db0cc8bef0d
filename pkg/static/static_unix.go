//go:build unix

package static

import (
	"errors"
	"syscall"
)

func isNameTooLong(err error) bool {
	return errors.Is(err, syscall.ENAMETOOLONG)
}

func isNotDir(err error) bool {
	return errors.Is(err, syscall.ENOTDIR)
}
