// Package stream implements the buffered stream (putback buffer plus a
// bounded delimiter-seeking buffer) that the transaction engine layers
// over a raw byte-stream transport. It is the Go realization of the
// putback buffer and strand described for the stream wrapper: because
// every connection is driven by exactly one goroutine, the mutex here
// is a safety net against a misbehaving caller rather than the
// serialization mechanism itself — the goroutine already is the strand.
package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/shoestringhttp/chunkyhttp/chunky/internal/httperr"
)

// Transport is the byte-oriented contract the stream needs from the
// underlying connection. Plain TCP and TLS connections both satisfy it
// via net.Conn; this interface exists so tests can supply an in-memory
// double without standing up a socket.
type Transport interface {
	ReadSome(p []byte) (int, error)
	WriteSome(p []byte) (int, error)
	Close() error
}

// PeerIdentifier is implemented by transports that can name their peer
// for logging purposes. net.Conn satisfies it via RemoteAddr.
type PeerIdentifier interface {
	RemoteAddr() net.Addr
}

// Shutdowner is implemented by transports that support a half-close.
type Shutdowner interface {
	Shutdown() error
}

// netConnTransport adapts a net.Conn to Transport.
type netConnTransport struct {
	net.Conn
}

// NewNetConnTransport wraps a net.Conn as a Transport.
func NewNetConnTransport(c net.Conn) Transport {
	return netConnTransport{c}
}

func (t netConnTransport) ReadSome(p []byte) (int, error)  { return t.Conn.Read(p) }
func (t netConnTransport) WriteSome(p []byte) (int, error) { return t.Conn.Write(p) }

// vectoredWriter is implemented by transports that can take several
// buffers in one call. netConnTransport implements it for every
// net.Conn via net.Buffers, which uses a single writev syscall on a
// TCP connection and one Write per buffer on others (TLS included).
// Transports without it get a single concatenated WriteSome instead.
type vectoredWriter interface {
	WriteVectored(bufs net.Buffers) (int64, error)
}

func (t netConnTransport) WriteVectored(bufs net.Buffers) (int64, error) {
	return bufs.WriteTo(t.Conn)
}

const defaultMaxHeadBytes = 10 << 20 // 10 MiB, per spec's default head-buffer cap

// Stream layers a putback buffer and a bounded delimiter-seeking buffer
// over a Transport, and serializes concurrent operations against it.
type Stream struct {
	transport Transport
	mu        sync.Mutex

	putback []byte // pending bytes to serve before hitting the transport

	buf      []byte // delimiter-seek buffer
	bufStart int     // unread cursor into buf
	maxBuf   int    // I5: bound on buf's growth while seeking a delimiter

	peer string
	ctx  context.Context // bound by BindContext; nil until a caller opts in
}

// New returns a Stream over t with the given maximum delimiter-buffer
// size (0 selects the default 10 MiB head-buffer cap).
func New(t Transport, maxBuf int) *Stream {
	if maxBuf <= 0 {
		maxBuf = defaultMaxHeadBytes
	}
	s := &Stream{transport: t, maxBuf: maxBuf}
	if pi, ok := t.(PeerIdentifier); ok {
		s.peer = pi.RemoteAddr().String()
	}
	return s
}

// Peer returns a stable string identifying the remote end, or "" if
// the transport does not expose one.
func (s *Stream) Peer() string { return s.peer }

// BindContext attaches ctx to the stream: any transport error observed
// on a read or write after ctx is done is reported as ctx.Err()
// (context.Canceled or context.DeadlineExceeded) instead of the raw
// transport error, realizing spec's cancellation-propagates-as-
// OperationAborted rule. A Stream with no bound context (the zero
// value) behaves exactly as before — callers that never opt in pay
// nothing for this.
func (s *Stream) BindContext(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx
}

// abortErr reports ctx.Err() if a context was bound and it is done,
// else nil. Called only after a transport operation has already
// failed, so a cancellation that raced with a clean result never
// masks that result.
func (s *Stream) abortErr() error {
	if s.ctx == nil {
		return nil
	}
	return s.ctx.Err()
}

// ReadSome drains the putback buffer first, then falls through to the
// transport. An empty p, or a (0, nil) result from the transport, is
// returned as (0, nil), as io.Reader permits.
func (s *Stream) ReadSome(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.putback) > 0 {
		n := copy(p, s.putback)
		s.putback = s.putback[n:]
		if len(s.putback) == 0 {
			s.putback = nil
		}
		return n, nil
	}
	n, err := s.transport.ReadSome(p)
	if err != nil {
		if aerr := s.abortErr(); aerr != nil {
			return n, aerr
		}
	}
	return n, err
}

// WriteSome writes p to the transport. Concurrent WriteSome/WriteVectored
// calls on the same Stream serialize through mu so that two writers
// never interleave bytes on the wire.
func (s *Stream) WriteSome(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.transport.WriteSome(p)
	if err != nil {
		if aerr := s.abortErr(); aerr != nil {
			return n, aerr
		}
	}
	return n, err
}

// WriteVectored writes bufs as a single logical operation under the
// stream's mutex. When the transport implements vectoredWriter (every
// net.Conn adapter does), the buffers are handed to it in one call;
// otherwise they are concatenated and written with one WriteSome call.
// Either way the result is one total byte count and one error.
func (s *Stream) WriteVectored(bufs ...[]byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if vw, ok := s.transport.(vectoredWriter); ok {
		nb := make(net.Buffers, len(bufs))
		copy(nb, bufs)
		n, err := vw.WriteVectored(nb)
		if err != nil {
			if aerr := s.abortErr(); aerr != nil {
				return n, aerr
			}
		}
		return n, err
	}
	total := 0
	for _, b := range bufs {
		total += len(b)
	}
	joined := make([]byte, 0, total)
	for _, b := range bufs {
		joined = append(joined, b...)
	}
	n, err := s.transport.WriteSome(joined)
	if err != nil {
		if aerr := s.abortErr(); aerr != nil {
			return int64(n), aerr
		}
	}
	return int64(n), err
}

// PutBack prepends b to the bytes that will be served by the next
// ReadSome calls. Used when an upper layer (the delimiter reader, or a
// finishing transaction) has over-read past a boundary it cares about.
func (s *Stream) PutBack(b []byte) {
	if len(b) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	combined := make([]byte, 0, len(b)+len(s.putback))
	combined = append(combined, b...)
	combined = append(combined, s.putback...)
	s.putback = combined
}

// Close releases the underlying transport.
func (s *Stream) Close() error {
	if sh, ok := s.transport.(Shutdowner); ok {
		_ = sh.Shutdown()
	}
	return s.transport.Close()
}

// LoadUntil ensures the delimiter buffer contains delim somewhere at or
// after the unread cursor, reading from the stream as needed. It
// returns httperr.ErrHeaderTooLarge if satisfying the request would
// exceed maxBuf (I5).
func (s *Stream) LoadUntil(delim []byte) error {
	for {
		if i := bytes.Index(s.buf[s.bufStart:], delim); i >= 0 {
			return nil
		}
		if len(s.buf)-s.bufStart >= s.maxBuf {
			return httperr.ErrHeaderTooLarge
		}
		chunk := make([]byte, 4096)
		n, err := s.ReadSome(chunk)
		if n > 0 {
			s.buf = append(s.buf, chunk[:n]...)
		}
		if err != nil {
			if n > 0 {
				continue
			}
			return err
		}
	}
}

// ReadLine finds the next CRLF at or after the unread cursor, consumes
// up to and including it, and returns the line without the terminator.
// The delimiter must already be present (call LoadUntil first); ReadLine
// itself never touches the transport.
func (s *Stream) ReadLine() (string, error) {
	idx := bytes.Index(s.buf[s.bufStart:], crlf)
	if idx < 0 {
		return "", errors.New("stream: ReadLine called without a loaded CRLF")
	}
	line := string(s.buf[s.bufStart : s.bufStart+idx])
	s.bufStart += idx + len(crlf)
	s.compact()
	return line, nil
}

// Leftover returns, and clears, any bytes still sitting unread in the
// delimiter buffer. Used by the transaction at Finish time to return
// over-read bytes to the stream's putback buffer for the next
// transaction (spec.md's keep-alive putback rule).
func (s *Stream) Leftover() []byte {
	left := s.buf[s.bufStart:]
	out := make([]byte, len(left))
	copy(out, left)
	s.buf = nil
	s.bufStart = 0
	return out
}

// BufferedBytes reports how many bytes are currently sitting in the
// delimiter buffer, unread. Mostly useful for tests and diagnostics.
func (s *Stream) BufferedBytes() int { return len(s.buf) - s.bufStart }

func (s *Stream) compact() {
	if s.bufStart > 0 && s.bufStart == len(s.buf) {
		s.buf = nil
		s.bufStart = 0
	}
}

var crlf = []byte("\r\n")

// ReadFullFromBuffer drains up to n bytes already sitting in the
// delimiter buffer into p, without touching the transport. Used by the
// body reader, which prefers bytes already pulled in while parsing
// headers over a fresh transport read.
func (s *Stream) ReadFullFromBuffer(p []byte) int {
	avail := s.buf[s.bufStart:]
	n := copy(p, avail)
	s.bufStart += n
	s.compact()
	return n
}

var _ io.Closer = (*Stream)(nil)
