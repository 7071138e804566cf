package core

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is to classify and errors.As to reach the details.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrNoNumericData     = errors.New("no numeric columns to display")
	ErrMalformedFile     = errors.New("malformed file")
	ErrEmptyFile         = errors.New("empty file")
	ErrFileNotFound      = errors.New("file not found")
)

// UnsupportedFormatError names the extension that was rejected.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type: %q", e.Ext)
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// UnknownColumnError names the requested column missing from the table.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column: %q", e.Column)
}

func (e *UnknownColumnError) Is(target error) bool { return target == ErrUnknownColumn }

// MalformedFileError carries the parser failure for a file that could not be
// read, such as the CSV line with too many fields.
type MalformedFileError struct {
	Format Format
	Err    error
}

func (e *MalformedFileError) Error() string {
	return fmt.Sprintf("%v: invalid %s: %v", ErrMalformedFile, e.Format, e.Err)
}

func (e *MalformedFileError) Is(target error) bool { return target == ErrMalformedFile }

func (e *MalformedFileError) Unwrap() error { return e.Err }

// Detail is the parser's own message.
func (e *MalformedFileError) Detail() string { return e.Err.Error() }

func malformed(format Format, err error) error {
	return &MalformedFileError{Format: format, Err: err}
}
