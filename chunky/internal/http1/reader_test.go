package http1

import (
	"io"
	"testing"

	"github.com/shoestringhttp/chunkyhttp/chunky/internal/stream"
)

func newStream(raw string) *stream.Stream {
	return stream.New(&fakeTransport{in: []byte(raw)}, 0)
}

// fakeTransport is a minimal stream.Transport over a fixed byte slice.
type fakeTransport struct {
	in  []byte
	off int
	out []byte
}

func (t *fakeTransport) ReadSome(p []byte) (int, error) {
	if t.off >= len(t.in) {
		return 0, io.EOF
	}
	n := copy(p, t.in[t.off:])
	t.off += n
	return n, nil
}

func (t *fakeTransport) WriteSome(p []byte) (int, error) {
	t.out = append(t.out, p...)
	return len(p), nil
}

func (t *fakeTransport) Close() error { return nil }

func TestParseHead_SimpleGET(t *testing.T) {
	s := newStream("GET /foo/bar?x=1&y=hi+there#frag HTTP/1.1\r\nHost: example.com\r\nAccept: text/plain\r\n\r\n")
	h, err := ParseHead(s)
	if err != nil {
		t.Fatalf("ParseHead: %v", err)
	}
	if h.Method != "GET" || h.Version != "HTTP/1.1" {
		t.Fatalf("method=%q version=%q", h.Method, h.Version)
	}
	if h.Path != "/foo/bar" {
		t.Fatalf("path=%q", h.Path)
	}
	if h.Query["x"] != "1" || h.Query["y"] != "hi there" {
		t.Fatalf("query=%v", h.Query)
	}
	if h.Fragment != "frag" {
		t.Fatalf("fragment=%q", h.Fragment)
	}
	if h.Header.Get("Host") != "example.com" {
		t.Fatalf("Host header=%q", h.Header.Get("Host"))
	}
	if h.BodyRemaining != 0 || h.ChunksPending {
		t.Fatalf("expected no body, got remaining=%d pending=%v", h.BodyRemaining, h.ChunksPending)
	}
}

func TestParseHead_InvalidRequestLine(t *testing.T) {
	s := newStream("BOGUS LINE\r\n\r\n")
	if _, err := ParseHead(s); err == nil {
		t.Fatal("expected an error for a malformed request line")
	}
}

func TestParseHead_UnsupportedVersion(t *testing.T) {
	s := newStream("GET / HTTP/1.0\r\n\r\n")
	if _, err := ParseHead(s); err == nil {
		t.Fatal("expected an error for HTTP/1.0")
	}
}

func TestParseHead_DuplicateHeadersCoalesce(t *testing.T) {
	s := newStream("GET / HTTP/1.1\r\nX-Thing: a\r\nX-Thing: b\r\n\r\n")
	h, err := ParseHead(s)
	if err != nil {
		t.Fatalf("ParseHead: %v", err)
	}
	if got := h.Header.Get("X-Thing"); got != "a, b" {
		t.Fatalf("X-Thing=%q, want %q", got, "a, b")
	}
}

func TestParseHead_InvalidContentLength(t *testing.T) {
	s := newStream("GET / HTTP/1.1\r\nContent-Length: +5\r\n\r\n")
	if _, err := ParseHead(s); err == nil {
		t.Fatal("expected an error for a non-strict-decimal Content-Length")
	}
}

func TestParseHead_ContentLengthBody(t *testing.T) {
	s := newStream("POST /up HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello")
	h, err := ParseHead(s)
	if err != nil {
		t.Fatalf("ParseHead: %v", err)
	}
	if h.BodyRemaining != 5 || h.ChunksPending {
		t.Fatalf("remaining=%d pending=%v", h.BodyRemaining, h.ChunksPending)
	}
}

func TestParseHead_ChunkedEagerFirstChunk(t *testing.T) {
	s := newStream("POST /up HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n")
	h, err := ParseHead(s)
	if err != nil {
		t.Fatalf("ParseHead: %v", err)
	}
	if !h.ChunksPending || h.BodyRemaining != 5 {
		t.Fatalf("expected pending chunk of 5 bytes, got remaining=%d pending=%v", h.BodyRemaining, h.ChunksPending)
	}
}

func TestParseHead_ChunkedImmediatelyEmpty(t *testing.T) {
	s := newStream("POST /up HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n0\r\nX-Trailer: late\r\n\r\n")
	h, err := ParseHead(s)
	if err != nil {
		t.Fatalf("ParseHead: %v", err)
	}
	if h.ChunksPending || h.BodyRemaining != 0 {
		t.Fatalf("expected a closed body, got remaining=%d pending=%v", h.BodyRemaining, h.ChunksPending)
	}
	if h.Header.Get("X-Trailer") != "late" {
		t.Fatalf("trailer not merged: %v", h.Header)
	}
}

func TestParseQuery_BareKeyIgnored(t *testing.T) {
	_, q, _ := splitResource("/p?a=1&bare&b=2")
	if len(q) != 2 || q["a"] != "1" || q["b"] != "2" {
		t.Fatalf("query=%v", q)
	}
}

func TestParseQuery_LaterKeyWins(t *testing.T) {
	_, q, _ := splitResource("/p?a=1&a=2")
	if q["a"] != "2" {
		t.Fatalf("a=%q, want 2", q["a"])
	}
}

func TestDecodeComponent_PercentDecodesPath(t *testing.T) {
	path, _, _ := splitResource("/a%20b/c%2Fd")
	if path != "/a b/c/d" {
		t.Fatalf("path=%q", path)
	}
}
