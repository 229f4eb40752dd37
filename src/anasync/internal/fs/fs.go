package fs

//go:generate mockgen -source=fs.go -destination=fsmock/fs_mock.go -package=fsmock

import (
	"os"

	"go.uber.org/fx"
)

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// FS wraps the filesystem operations used at startup.
type FS interface {
	MkdirAll(path string) error
	DirExists(path string) (bool, error)
}

type fsImpl struct{}

// New creates a new FS.
func New() FS {
	return fsImpl{}
}

// MkdirAll creates a directory and all its parents.
func (fsImpl) MkdirAll(path string) error { return os.MkdirAll(path, os.ModePerm) }

// DirExists reports whether path is an existing directory.
func (fsImpl) DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
