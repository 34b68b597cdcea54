package http1

import (
	"io"
	"strconv"
	"strings"

	"github.com/shoestringhttp/chunkyhttp/chunky/internal/httperr"
	"github.com/shoestringhttp/chunkyhttp/chunky/internal/stream"
)

// BodyReader streams a request body per spec.md §4.5: length-delimited
// or chunked, folding chunk trailers into the request's header map as
// they are discovered.
type BodyReader struct {
	s             *stream.Stream
	header        Headers
	bodyRemaining int64
	chunksPending bool
	eof           bool
	pending       error
}

// NewBodyReader constructs a BodyReader from the framing decision
// ParseHead already made (including, for chunked bodies, having
// already consumed the first chunk-size line).
func NewBodyReader(s *stream.Stream, header Headers, bodyRemaining int64, chunksPending bool) *BodyReader {
	return &BodyReader{s: s, header: header, bodyRemaining: bodyRemaining, chunksPending: chunksPending}
}

// BodyRemaining and ChunksPending mirror the transaction's request
// metadata (spec.md's I4 terminal state check).
func (b *BodyReader) BodyRemaining() int64  { return b.bodyRemaining }
func (b *BodyReader) ChunksPending() bool   { return b.chunksPending }

// Read implements spec.md §4.5. It drains the delimiter buffer first
// (bytes over-read while parsing headers or a prior chunk header),
// then the stream, decrements BodyRemaining, and — for chunked bodies
// that just exhausted a chunk — consumes the chunk's trailing CRLF and
// advances to the next chunk header (or trailers, on the terminator).
func (b *BodyReader) Read(p []byte) (int, error) {
	if b.eof {
		return 0, io.EOF
	}
	if b.pending != nil {
		err := b.pending
		b.pending = nil
		return 0, err
	}
	if b.bodyRemaining == 0 && !b.chunksPending {
		b.eof = true
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	want := int64(len(p))
	if want > b.bodyRemaining {
		want = b.bodyRemaining
	}

	n := b.s.ReadFullFromBuffer(p[:want])
	if n == 0 {
		rn, err := b.s.ReadSome(p[:want])
		n = rn
		if err != nil {
			if n == 0 {
				return 0, err
			}
			b.pending = err
		}
	}
	b.bodyRemaining -= int64(n)

	if b.chunksPending && b.bodyRemaining == 0 {
		if err := b.advanceChunk(); err != nil {
			if n > 0 {
				// Deliver this chunk's bytes now; the framing error is
				// reported by the next call.
				b.pending = err
				return n, nil
			}
			return n, err
		}
	}
	if b.bodyRemaining == 0 && !b.chunksPending {
		// Nothing more to deliver; the *next* call reports EOF, not
		// this one, so the caller still sees n > 0 for this read.
		if n == 0 {
			b.eof = true
			return 0, io.EOF
		}
	}
	return n, nil
}

// advanceChunk consumes the just-finished chunk's trailing CRLF, reads
// the next chunk-size line, and — on the terminator — parses trailers
// into the request's header map (spec's P5) and clears ChunksPending.
func (b *BodyReader) advanceChunk() error {
	if err := b.s.LoadUntil(crlf); err != nil {
		return err
	}
	line, err := b.s.ReadLine()
	if err != nil {
		return err
	}
	if line != "" {
		return httperr.ErrInvalidChunkDelim
	}

	size, err := readChunkSizeLine(b.s)
	if err != nil {
		return err
	}
	if size == 0 {
		if err := parseHeaderLines(b.s, b.header); err != nil {
			return err
		}
		b.chunksPending = false
		b.bodyRemaining = 0
		return nil
	}
	b.bodyRemaining = size
	return nil
}

// readChunkSizeLine reads one chunk-size line: a hexadecimal length,
// optionally followed by ";"-delimited extensions which are tolerated
// and ignored (spec.md §9 Open Question (b)).
func readChunkSizeLine(s *stream.Stream) (int64, error) {
	if err := s.LoadUntil(crlf); err != nil {
		return 0, err
	}
	line, err := s.ReadLine()
	if err != nil {
		return 0, err
	}
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, httperr.ErrInvalidChunkLength
	}
	n, err := strconv.ParseInt(line, 16, 63)
	if err != nil || n < 0 {
		return 0, httperr.ErrInvalidChunkLength
	}
	return n, nil
}
