package file

import "errors"

var (
	// ErrFileNotFound signals that the file could not be located.
	ErrFileNotFound = errors.New("file not found")
	// ErrFileExists is returned by a store when the target name is already taken.
	ErrFileExists = errors.New("file already exists")
	// ErrInvalidName rejects names that could escape the flat store.
	ErrInvalidName = errors.New("invalid file name")
)
