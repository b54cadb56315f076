// Package input resolves the code snippet to explain from the command line.
package input

import (
	"errors"
	"os"
)

var ErrUnreadable = errors.New("unreadable input file")

// ReadError reports a file that could not be read. It matches both
// ErrUnreadable and the underlying cause with errors.Is.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return e.Err.Error()
}

func (e *ReadError) Unwrap() []error {
	return []error{ErrUnreadable, e.Err}
}

// Source describes where the code comes from. Exactly one of Text or File is
// meaningful; FromFile selects which.
type Source struct {
	Text     string
	File     string
	FromFile bool
}

// Resolve returns the code named by src. Text is returned verbatim, even
// when empty.
func Resolve(src Source) (string, error) {
	if !src.FromFile {
		return src.Text, nil
	}

	content, err := os.ReadFile(src.File)
	if err != nil {
		return "", &ReadError{Path: src.File, Err: err}
	}
	return string(content), nil
}
