package file

import "errors"

var (
	// ErrFileNotFound signals that the file does not exist or is not owned
	// by the requesting user. The two cases are deliberately identical.
	ErrFileNotFound = errors.New("file not found")
	// ErrEmptyFile rejects uploads without a payload.
	ErrEmptyFile = errors.New("file is empty")
	// ErrTypeNotAllowed rejects uploads outside the MIME allow-list.
	ErrTypeNotAllowed = errors.New("file type not allowed")
	// ErrFileTooLarge rejects uploads above the size ceiling.
	ErrFileTooLarge = errors.New("file too large")
)
