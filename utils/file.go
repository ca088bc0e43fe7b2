package utils

import (
	"errors"
	"os"

	"github.com/Trinoooo/eggie_poll/errs"
)

// CheckAndCreateDir makes sure dir exists, creating missing parents.
func CheckAndCreateDir(dir string) error {
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		if err = os.MkdirAll(dir, 0770); err != nil {
			return errs.NewMkdirErr().WithErr(err)
		}
		return nil
	} else if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return errs.NewFileNoPermissionErr().WithErr(err)
		}
		return errs.NewFileStatErr().WithErr(err)
	}

	if !info.IsDir() {
		return errs.NewMkdirErr().WithErr(errors.New(dir + " is not a directory"))
	}
	return nil
}
