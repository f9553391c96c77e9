// Package readers fetches document bytes from URLs or local files and
// extracts plain text from the supported formats.
package readers

import (
	"errors"
)

// ErrUnsupportedFormat is returned when no reader recognizes a
// document's name or content type.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Reader extracts plain text from raw document bytes. CanRead decides
// by file name and reported content type; either may be empty.
type Reader interface {
	CanRead(name, contentType string) bool
	ReadText(data []byte) (string, error)
}
