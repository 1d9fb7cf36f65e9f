package converter

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat matches any UnsupportedFormatError.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrDecode matches any DecodeError.
	ErrDecode = errors.New("decode error")
)

// UnsupportedFormatError names an extension or target format outside {csv, xlsx}.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.Ext)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// DecodeError reports input bytes that could not be parsed as the declared format.
type DecodeError struct {
	File   string
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s as %s: %v", e.File, e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}
