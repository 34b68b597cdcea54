package http1

import (
	"strings"
	"testing"

	"github.com/shoestringhttp/chunkyhttp/chunky/internal/stream"
)

func newWriterStream() (*Writer, *fakeTransport) {
	tr := &fakeTransport{}
	s := stream.New(tr, 0)
	return NewWriter(s, "GET"), tr
}

func TestWriter_IdentityFramingWhenContentLengthSet(t *testing.T) {
	w, tr := newWriterStream()
	w.Header().Add("Content-Length", "5")
	w.SetStatus(200)
	if _, err := w.WriteSome([]byte("hello")); err != nil {
		t.Fatalf("WriteSome: %v", err)
	}
	if err := w.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if w.Chunked() {
		t.Fatal("expected identity framing")
	}
	out := string(tr.out)
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("bad status line: %q", out)
	}
	if !strings.HasSuffix(out, "hello") {
		t.Fatalf("body not appended verbatim: %q", out)
	}
}

func TestWriter_ChunkedFramingWhenNoContentLength(t *testing.T) {
	w, tr := newWriterStream()
	w.SetStatus(200)
	if _, err := w.WriteSome([]byte("hi")); err != nil {
		t.Fatalf("WriteSome: %v", err)
	}
	if err := w.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !w.Chunked() {
		t.Fatal("expected chunked framing")
	}
	out := string(tr.out)
	if !strings.Contains(out, "Transfer-Encoding: chunked") {
		t.Fatalf("missing Transfer-Encoding header: %q", out)
	}
	if !strings.Contains(out, "2\r\nhi\r\n") {
		t.Fatalf("missing framed chunk: %q", out)
	}
	if !strings.HasSuffix(out, "0\r\n\r\n") {
		t.Fatalf("missing terminator: %q", out)
	}
}

func TestWriter_BodylessFor204DropsWrites(t *testing.T) {
	w, tr := newWriterStream()
	w.SetStatus(204)
	if _, err := w.WriteSome([]byte("ignored")); err != nil {
		t.Fatalf("WriteSome: %v", err)
	}
	if err := w.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	out := string(tr.out)
	if strings.Contains(out, "ignored") {
		t.Fatalf("body should have been dropped: %q", out)
	}
	if !strings.HasPrefix(out, "HTTP/1.1 204 No Content\r\n") {
		t.Fatalf("bad status line: %q", out)
	}
}

func TestWriter_HEADResponseIsBodyless(t *testing.T) {
	tr := &fakeTransport{}
	s := stream.New(tr, 0)
	w := NewWriter(s, "HEAD")
	w.Header().Add("Content-Length", "100")
	w.SetStatus(200)
	if err := w.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !strings.Contains(string(tr.out), "200 OK") {
		t.Fatalf("missing status line: %q", string(tr.out))
	}
}

func TestWriter_SetStatusIgnoredAfterFirstByte(t *testing.T) {
	w, _ := newWriterStream()
	w.SetStatus(201)
	if _, err := w.WriteSome([]byte("x")); err != nil {
		t.Fatalf("WriteSome: %v", err)
	}
	w.SetStatus(500)
	if w.Status() != 201 {
		t.Fatalf("Status()=%d, want 201 (late SetStatus must be a no-op)", w.Status())
	}
}

func TestWriter_TrailerEmittedAfterTerminator(t *testing.T) {
	w, tr := newWriterStream()
	w.SetStatus(200)
	w.Trailer().Add("X-Done", "yes")
	if _, err := w.WriteSome([]byte("a")); err != nil {
		t.Fatalf("WriteSome: %v", err)
	}
	if err := w.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	out := string(tr.out)
	if !strings.Contains(out, "0\r\nX-Done: yes\r\n\r\n") {
		t.Fatalf("trailer not framed correctly: %q", out)
	}
}

func TestWriter_InterimDoesNotAffectFinalResponse(t *testing.T) {
	w, tr := newWriterStream()
	if err := w.WriteInterim(100); err != nil {
		t.Fatalf("WriteInterim: %v", err)
	}
	w.SetStatus(200)
	if _, err := w.WriteSome([]byte("ok")); err != nil {
		t.Fatalf("WriteSome: %v", err)
	}
	if err := w.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	out := string(tr.out)
	if !strings.HasPrefix(out, "HTTP/1.1 100 Continue\r\n\r\n") {
		t.Fatalf("missing interim prefix: %q", out)
	}
	if !strings.Contains(out, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("missing real status line: %q", out)
	}
}

func TestReasonPhrase_KnownAndUnknown(t *testing.T) {
	if ReasonPhrase(404) != "Not Found" {
		t.Fatalf("404 reason=%q", ReasonPhrase(404))
	}
	if ReasonPhrase(999) != "" {
		t.Fatalf("999 reason=%q, want empty", ReasonPhrase(999))
	}
}

func TestIsBodyless(t *testing.T) {
	cases := []struct {
		status int
		method string
		want   bool
	}{
		{100, "GET", true},
		{204, "GET", true},
		{304, "GET", true},
		{200, "HEAD", true},
		{200, "GET", false},
	}
	for _, c := range cases {
		if got := IsBodyless(c.status, c.method); got != c.want {
			t.Fatalf("IsBodyless(%d, %q)=%v, want %v", c.status, c.method, got, c.want)
		}
	}
}
