package render

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a screenshot failure by the step that failed.
type ErrorKind int

const (
	BrowserCreate ErrorKind = iota
	TabCreate
	TabOperate
	InvalidFilePath
	ScreenshotCreate
)

func (k ErrorKind) String() string {
	switch k {
	case BrowserCreate:
		return "BrowserBuildErr"
	case TabCreate:
		return "TabCreateErr"
	case TabOperate:
		return "TabOperateErr"
	case InvalidFilePath:
		return "InvalidFilePath"
	case ScreenshotCreate:
		return "ScreenshotCreateErr"
	default:
		return "UnknownErr"
	}
}

// ScreenshotError is returned by Session and Pipeline.
type ScreenshotError struct {
	Kind ErrorKind
	Err  error
}

func (e *ScreenshotError) Error() string {
	if e.Err == nil {
		return e.Kind.String() + ": "
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ScreenshotError) Unwrap() error { return e.Err }

func newError(kind ErrorKind, err error) *ScreenshotError {
	return &ScreenshotError{Kind: kind, Err: err}
}

// IsKind reports whether err is a ScreenshotError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *ScreenshotError
	return errors.As(err, &se) && se.Kind == kind
}
