package http1

import (
	"strconv"
	"strings"
	"time"

	"github.com/shoestringhttp/chunkyhttp/chunky/internal/stream"
)

// rfc1123GMT is spec.md §4.6 step 1's Date format: RFC-1123 in GMT.
const rfc1123GMT = "Mon, 02 Jan 2006 15:04:05 GMT"

// Writer implements the response side of one transaction (C6): it
// defers the status line and header block to the first WriteSome call,
// decides identity-vs-chunked framing, frames each chunk, and emits the
// terminator (with trailers) on Finish.
type Writer struct {
	s      *stream.Stream
	header Headers
	trailer Headers
	method string // request method; governs the bodyless rule

	status       int
	bytesWritten int64
	chunked      bool
	bodyless     bool
	wroteHead    bool
}

// NewWriter returns a Writer for one response to a request with the
// given method.
func NewWriter(s *stream.Stream, method string) *Writer {
	return &Writer{s: s, method: method, header: make(Headers), trailer: make(Headers)}
}

// Header returns the response header map. Per spec's I1, mutating it
// after the first byte has been written has no wire effect; the map
// itself is not write-protected, since there is no such mechanism for
// a plain map short of a wrapper type the handler would have to know
// about — this mirrors the freedom (and the foot-gun) the teacher's
// own Header() accessor offers.
func (w *Writer) Header() Headers { return w.header }

// Trailer returns the response trailer map, emitted after the
// terminating chunk when chunked framing is in use.
func (w *Writer) Trailer() Headers { return w.trailer }

// SetStatus records the status for the eventual prefix. Per I1 it is
// only honored before the first byte is written; once bytesWritten>0
// it is a silent no-op — the caller had their one chance.
func (w *Writer) SetStatus(status int) {
	if w.bytesWritten == 0 && !w.wroteHead {
		w.status = status
	}
}

// Status reports the status that will be (or was) sent.
func (w *Writer) Status() int { return w.status }

// Chunked reports whether chunked framing was selected. Only
// meaningful after the first WriteSome/Finish call, per I2.
func (w *Writer) Chunked() bool { return w.chunked }

// BytesWritten is the count of payload bytes written so far, not
// counting framing bytes (chunk size lines, CRLFs, the header block).
func (w *Writer) BytesWritten() int64 { return w.bytesWritten }

// WriteSome implements spec.md §4.6. On the first call it emits the
// deferred prefix (status line, headers, blank line); if chunked
// framing was selected, each call also frames a chunk header/trailer
// around the payload. All of this goes out as one WriteVectored call.
func (w *Writer) WriteSome(p []byte) (int, error) {
	var bufs [][]byte
	if !w.wroteHead {
		bufs = append(bufs, w.buildPrefix())
		w.wroteHead = true
	}

	if w.bodyless {
		// Body writes to a bodyless response are dropped, not
		// rejected — matching the forgiving behavior handlers expect
		// when they write unconditionally regardless of method/status.
		if len(bufs) == 0 {
			return len(p), nil
		}
		if _, err := w.s.WriteVectored(bufs...); err != nil {
			return 0, err
		}
		return len(p), nil
	}

	if len(p) == 0 {
		if len(bufs) == 0 {
			return 0, nil
		}
		if _, err := w.s.WriteVectored(bufs...); err != nil {
			return 0, err
		}
		return 0, nil
	}

	if w.chunked {
		bufs = append(bufs, []byte(strconv.FormatInt(int64(len(p)), 16)+"\r\n"), p, []byte("\r\n"))
	} else {
		bufs = append(bufs, p)
	}
	if _, err := w.s.WriteVectored(bufs...); err != nil {
		return 0, err
	}
	w.bytesWritten += int64(len(p))
	return len(p), nil
}

// Finish implements the response-framing half of spec.md §4.7's
// finalization: emit the prefix if nothing was ever written (e.g. a
// 204 with no body), then — for chunked responses — the terminating
// zero-length chunk, trailers, and blank line. Identity-framed
// responses have no terminal marker to send. Finishing a 1xx response
// leaves the Writer ready for the final response: SetStatus is honored
// again and the next WriteSome/Finish emits a new prefix.
func (w *Writer) Finish() error {
	if !w.wroteHead {
		prefix := w.buildPrefix()
		w.wroteHead = true
		if _, err := w.s.WriteVectored(prefix); err != nil {
			return err
		}
	}
	if w.status >= 100 && w.status < 200 {
		w.wroteHead = false
		return nil
	}
	if !w.chunked {
		return nil
	}
	bufs := [][]byte{[]byte("0\r\n")}
	for k, v := range w.trailer {
		bufs = append(bufs, []byte(k+": "+sanitizeHeaderValue(v)+"\r\n"))
	}
	bufs = append(bufs, []byte("\r\n"))
	_, err := w.s.WriteVectored(bufs...)
	return err
}

// WriteInterim writes a bodyless 1xx informational response
// (spec.md §4.7 step 4 / §9: "allowing informational responses") and
// does not touch any of the real response's state — status, headers,
// and the chunked decision remain exactly as they were, so the
// handler can call SetStatus/Write normally afterward for the actual
// response.
func (w *Writer) WriteInterim(status int) error {
	reason := ReasonPhrase(status)
	line := "HTTP/1.1 " + strconv.Itoa(status) + " " + reason + "\r\n\r\n"
	_, err := w.s.WriteVectored([]byte(line))
	return err
}

func (w *Writer) buildPrefix() []byte {
	if w.header.Get("Date") == "" {
		w.header.Add("Date", time.Now().UTC().Format(rfc1123GMT))
	}

	status := w.status
	if status == 0 {
		status = 200
	}
	w.bodyless = IsBodyless(status, w.method)

	if !w.bodyless {
		te := w.header.Get("Transfer-Encoding")
		switch {
		case te != "" && !strings.EqualFold(strings.TrimSpace(te), "identity"):
			w.chunked = true
			w.header.Del("Content-Length")
		case w.header.Get("Content-Length") == "":
			w.chunked = true
			w.header.Add("Transfer-Encoding", "chunked")
		default:
			w.chunked = false
		}
	}

	reason := ReasonPhrase(status)
	var b strings.Builder
	b.WriteString("HTTP/1.1 ")
	b.WriteString(strconv.Itoa(status))
	b.WriteByte(' ')
	b.WriteString(reason)
	b.WriteString("\r\n")
	for k, v := range w.header {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(sanitizeHeaderValue(v))
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

// sanitizeHeaderValue strips CR/LF and other control bytes (except
// HTAB) so a handler cannot smuggle an extra header line through a
// value it doesn't control.
func sanitizeHeaderValue(v string) string {
	if v == "" {
		return v
	}
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '\r' || c == '\n' || c == 0x7f {
			continue
		}
		if c < 0x20 && c != '\t' {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
