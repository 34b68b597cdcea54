package chunky

import (
	"context"
	"io"

	"github.com/shoestringhttp/chunkyhttp/chunky/internal/http1"
	"github.com/shoestringhttp/chunkyhttp/chunky/internal/stream"
)

// txState enumerates spec's I3: a transaction is in exactly one of
// building, streaming-request, streaming-response, finished.
type txState int

const (
	stateBuilding txState = iota
	stateStreamingRequest
	stateStreamingResponse
	stateFinished
)

// Transaction composes the request parser, body reader, and response
// writer (C4–C6) behind one read/write interface, and enforces the
// create → I/O → finish lifecycle (C7). It exclusively borrows the
// buffered stream for its lifetime; Finish returns any over-read bytes
// to the stream's putback buffer so the next Transaction over the same
// stream observes them first (spec's keep-alive putback rule).
type Transaction struct {
	stream  *stream.Stream
	head    *http1.Head
	body    *http1.BodyReader
	resp    *http1.Writer
	req     *Request
	state   txState
	id      string
	ctx     context.Context
	bodyErr error
}

// NewTransaction constructs a transaction over s, scoped to ctx (the
// connection's Server.Serve context). Parsing is deferred to the first
// Read/Request call (spec's dispatcher "issue a zero-byte read to force
// the request-head parse").
func NewTransaction(s *stream.Stream, ctx context.Context) *Transaction {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Transaction{stream: s, state: stateBuilding, id: genID(), ctx: ctx}
}

// ID is this transaction's request identifier, usable as a logging or
// metrics label.
func (tx *Transaction) ID() string { return tx.id }

func (tx *Transaction) ensureHead() error {
	if tx.head != nil {
		return nil
	}
	head, err := http1.ParseHead(tx.stream)
	if err != nil {
		return err
	}
	tx.head = head
	tx.body = http1.NewBodyReader(tx.stream, head.Header, head.BodyRemaining, head.ChunksPending)
	tx.resp = http1.NewWriter(tx.stream, head.Method)
	reqCtx := WithRequestID(tx.ctx, tx.id)
	if corr := head.Header.Get("X-Correlation-ID"); corr != "" {
		reqCtx = WithCorrelationID(reqCtx, corr)
	}
	tx.req = &Request{
		Method:     head.Method,
		Version:    head.Version,
		Resource:   head.Resource,
		Path:       head.Path,
		Query:      head.Query,
		Fragment:   head.Fragment,
		Header:     Header(head.Header),
		Body:       tx.body,
		ID:         tx.id,
		RemoteAddr: tx.stream.Peer(),
		ctx:        reqCtx,
	}
	return nil
}

// Request forces the head parse (if not already done) and returns the
// parsed request.
func (tx *Transaction) Request() (*Request, error) {
	if err := tx.ensureHead(); err != nil {
		return nil, err
	}
	return tx.req, nil
}

// Read forces the head parse (satisfying the dispatcher's zero-byte
// read) and, for a non-empty buffer, streams request body bytes,
// transitioning to streaming-request (I3).
func (tx *Transaction) Read(p []byte) (int, error) {
	if err := tx.ensureHead(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	tx.state = stateStreamingRequest
	n, err := tx.body.Read(p)
	if err != nil && err != io.EOF {
		tx.bodyErr = err
	}
	return n, err
}

// ResponseWriter returns the handler-facing ResponseWriter for this
// transaction. It is only valid after the head has been parsed
// (normally true by the time a Handler runs, since the dispatcher
// parses the head before routing).
func (tx *Transaction) ResponseWriter() ResponseWriter {
	return &txResponseWriter{tx}
}

// WriteInterim sends a 1xx informational response without disturbing
// the real response's status/headers/chunked state (spec's §9 note on
// allowing informational responses).
func (tx *Transaction) WriteInterim(status int) error {
	if err := tx.ensureHead(); err != nil {
		return err
	}
	return tx.resp.WriteInterim(status)
}

// Status reports the status set on the response so far (0 if none).
func (tx *Transaction) Status() int {
	if tx.resp == nil {
		return 0
	}
	return tx.resp.Status()
}

const drainBufSize = 64 << 10 // spec's fixed 64 KiB drain buffer

// Finish implements spec's §4.7 four-step finalization. It is
// idempotent only in the sense spec describes: calling it a second
// time after a genuinely final (status >= 200) response is a
// programming error with unspecified behavior, except for the
// informational carve-out in step 4.
func (tx *Transaction) Finish() error {
	if tx.state == stateFinished {
		return nil
	}
	if err := tx.ensureHead(); err != nil {
		// Head never parsed successfully; nothing to drain or flush.
		return err
	}

	status := tx.resp.Status()
	effective := status
	if effective == 0 {
		effective = 200
	}

	if effective >= 200 {
		buf := make([]byte, drainBufSize)
		for {
			_, err := tx.body.Read(buf)
			if err != nil {
				if err != io.EOF {
					tx.bodyErr = err
				}
				break
			}
		}
	}

	tx.stream.PutBack(tx.stream.Leftover())

	err := tx.resp.Finish()

	if effective < 200 {
		// Step 4: the handler is expected to send a real response
		// next; Finish may be called again.
		return err
	}

	tx.state = stateFinished
	return err
}

// KeepAlive implements spec's §4.8 step 4: false if the final status
// was 101, or if either the request or response Connection header is
// (case-insensitively) exactly "close".
func (tx *Transaction) KeepAlive() bool {
	if tx.bodyErr != nil {
		return false
	}
	if tx.resp != nil && tx.resp.Status() == 101 {
		return false
	}
	if tx.req != nil && connEquals(tx.req.Header.Get("Connection"), "close") {
		return false
	}
	if tx.resp != nil && connEquals(tx.resp.Header().Get("Connection"), "close") {
		return false
	}
	return true
}

func connEquals(v, token string) bool {
	if len(v) != len(token) {
		return false
	}
	for i := 0; i < len(v); i++ {
		a, b := v[i], token[i]
		if a >= 'A' && a <= 'Z' {
			a += 'a' - 'A'
		}
		if b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}

type txResponseWriter struct {
	tx *Transaction
}

func (w *txResponseWriter) Header() Header  { return Header(w.tx.resp.Header()) }
func (w *txResponseWriter) Trailer() Header { return Header(w.tx.resp.Trailer()) }

func (w *txResponseWriter) WriteHeader(status int) {
	w.tx.resp.SetStatus(status)
	if w.tx.state == stateStreamingRequest || w.tx.state == stateBuilding {
		w.tx.state = stateStreamingResponse
	}
}

func (w *txResponseWriter) Write(p []byte) (int, error) {
	w.tx.state = stateStreamingResponse
	return w.tx.resp.WriteSome(p)
}

func (w *txResponseWriter) Flush() error { return nil }

var _ Flusher = (*txResponseWriter)(nil)
