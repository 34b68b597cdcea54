package chunky

import "github.com/shoestringhttp/chunkyhttp/chunky/internal/httperr"

// Error kinds produced by the transaction engine. Parse errors on the
// head are fatal to the connection; errors mid-body are fatal to the
// transaction and disable keep-alive. Cancellation of a pending read or
// write (spec's OperationAborted) is reported as context.Canceled or
// context.DeadlineExceeded instead of a chunky-specific error kind —
// see Server.Serve and internal/stream's BindContext.
var (
	ErrInvalidRequestLine   = httperr.ErrInvalidRequestLine
	ErrInvalidRequestHeader = httperr.ErrInvalidRequestHeader
	ErrUnsupportedVersion   = httperr.ErrUnsupportedVersion
	ErrInvalidContentLength = httperr.ErrInvalidContentLength
	ErrInvalidChunkLength   = httperr.ErrInvalidChunkLength
	ErrInvalidChunkDelim    = httperr.ErrInvalidChunkDelim
	ErrHeaderTooLarge       = httperr.ErrHeaderTooLarge
)
