package organizer

import (
	"errors"
	"io/fs"
	"syscall"

	"twinkle/internal/placement"
	"twinkle/internal/services"
)

// unavailableErrors indicate the target filesystem went away mid-operation.
var unavailableErrors = []error{
	syscall.ENODEV,
	syscall.ENOTCONN,
	syscall.EHOSTDOWN,
	syscall.EHOSTUNREACH,
	syscall.ETIMEDOUT,
	syscall.EIO,
	syscall.ESTALE,
}

func isUnavailable(err error) bool {
	for _, target := range unavailableErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// failureHint maps an organize error to operator guidance and user impact.
func failureHint(err error) (hint, impact string) {
	impact = "file left in place"
	switch {
	case errors.Is(err, services.ErrPersistence):
		return "check that the state directory is writable and has free space", "history or stats not updated"
	case placement.IsCrossDevice(err):
		return "organized folders must live on the same filesystem as the watched folder", impact
	case errors.Is(err, fs.ErrPermission):
		return "check write permissions on the watched folder", impact
	case errors.Is(err, syscall.ENOSPC):
		return "free up disk space on the watched folder's filesystem", impact
	case errors.Is(err, fs.ErrNotExist):
		return "the file was moved or deleted before it could be organized", "nothing to organize"
	case errors.Is(err, placement.ErrContended):
		return "too many files with the same name are arriving at once", impact
	case isUnavailable(err):
		return "the watched folder's filesystem is unavailable; check mounts", impact
	default:
		return "check logs for details", impact
	}
}
