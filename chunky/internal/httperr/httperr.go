// Package httperr holds the error kinds shared between the http1 wire
// codec, the buffered stream, and the public chunky package. It exists
// so that internal/http1 and internal/stream don't need to import the
// parent chunky package just to report a parse failure.
package httperr

import "errors"

var (
	ErrInvalidRequestLine   = errors.New("chunky: invalid request line")
	ErrInvalidRequestHeader = errors.New("chunky: invalid request header")
	ErrUnsupportedVersion   = errors.New("chunky: unsupported HTTP version")
	ErrInvalidContentLength = errors.New("chunky: invalid Content-Length")
	ErrInvalidChunkLength   = errors.New("chunky: invalid chunk length")
	ErrInvalidChunkDelim    = errors.New("chunky: invalid chunk delimiter")
	ErrHeaderTooLarge       = errors.New("chunky: header block exceeds maximum size")
)
