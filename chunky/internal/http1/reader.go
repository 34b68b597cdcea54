package http1

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shoestringhttp/chunkyhttp/chunky/internal/httperr"
	"github.com/shoestringhttp/chunkyhttp/chunky/internal/stream"
)

// requestLineRE implements spec.md §6's request-line grammar:
// (method) (resource) (HTTP/\d.\d).
var requestLineRE = regexp.MustCompile("^([-!#$%^&*+._'`|~0-9A-Za-z]+) (\\S+) (HTTP/\\d\\.\\d)$")

var crlfcrlf = []byte("\r\n\r\n")

// Head is everything the parser extracts before the body: the request
// line, decoded resource components, and headers. BodyRemaining and
// ChunksPending are the body-framing decision from spec.md §4.3 step 5.
type Head struct {
	Method  string
	Version string
	Resource string

	Path     string
	Query    map[string]string
	Fragment string

	Header Headers

	BodyRemaining int64
	ChunksPending bool
}

// ParseHead loads and parses one request head from s: the request
// line, headers, and the body-framing decision. The head (method line
// + all header lines) is bounded by the stream's maximum buffer size
// (the maxBuf given to stream.New); a larger head fails with
// ErrHeaderTooLarge.
func ParseHead(s *stream.Stream) (*Head, error) {
	if err := s.LoadUntil(crlfcrlf); err != nil {
		return nil, err
	}

	line, err := s.ReadLine()
	if err != nil {
		return nil, err
	}
	m := requestLineRE.FindStringSubmatch(line)
	if m == nil {
		return nil, httperr.ErrInvalidRequestLine
	}
	method, resource, version := m[1], m[2], m[3]
	if version != "HTTP/1.1" {
		return nil, httperr.ErrUnsupportedVersion
	}

	hdr, err := readHeaderBlock(s)
	if err != nil {
		return nil, err
	}

	path, query, fragment := splitResource(resource)

	h := &Head{
		Method:   method,
		Version:  version,
		Resource: resource,
		Path:     path,
		Query:    query,
		Fragment: fragment,
		Header:   hdr,
	}

	te := hdr.Get("Transfer-Encoding")
	if te != "" && !strings.EqualFold(strings.TrimSpace(te), "identity") {
		// The first chunk header is read eagerly, per spec.md §4.3 step 5.
		size, err := readChunkSizeLine(s)
		if err != nil {
			return nil, err
		}
		if size == 0 {
			if err := parseHeaderLines(s, hdr); err != nil {
				return nil, err
			}
			h.ChunksPending = false
			h.BodyRemaining = 0
		} else {
			h.ChunksPending = true
			h.BodyRemaining = size
		}
	} else if cl := hdr.Get("Content-Length"); cl != "" {
		n, err := parseContentLength(cl)
		if err != nil {
			return nil, err
		}
		h.BodyRemaining = n
	}

	return h, nil
}

// parseContentLength accepts strict decimal digits only, resolving
// spec.md §9 Open Question (a): no leading whitespace, no '+' sign.
func parseContentLength(v string) (int64, error) {
	if v == "" {
		return 0, httperr.ErrInvalidContentLength
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return 0, httperr.ErrInvalidContentLength
		}
	}
	n, err := strconv.ParseInt(v, 10, 63)
	if err != nil || n < 0 {
		return 0, httperr.ErrInvalidContentLength
	}
	return n, nil
}

func readHeaderBlock(s *stream.Stream) (Headers, error) {
	hdr := make(Headers)
	if err := parseHeaderLines(s, hdr); err != nil {
		return nil, err
	}
	return hdr, nil
}

// parseHeaderLines reads "name: value" lines up to (and consuming) the
// terminating blank line, folding each into dst. It is used both for
// the initial header block (fresh dst) and for chunk trailers (dst is
// the request's existing headers, so trailers merge per spec's P5).
// The delimiter for each line must already be loadable; callers are
// expected to have room under the delimiter-buffer cap (I5).
func parseHeaderLines(s *stream.Stream, dst Headers) error {
	for {
		if err := s.LoadUntil(crlf); err != nil {
			return err
		}
		line, err := s.ReadLine()
		if err != nil {
			return err
		}
		if line == "" {
			return nil
		}
		i := strings.IndexByte(line, ':')
		if i <= 0 {
			return httperr.ErrInvalidRequestHeader
		}
		key := line[:i]
		if !isValidToken(key) {
			return httperr.ErrInvalidRequestHeader
		}
		value := strings.TrimLeft(line[i+1:], " \t")
		dst.Add(key, value)
	}
}

var crlf = []byte("\r\n")

// splitResource implements spec.md §4.3 step 3 / §4.4: split on the
// first '?' and first '#', percent-decode path and fragment ('+' is
// kept literally there), and parse the query string per the grammar in
// §4.4.
func splitResource(resource string) (path string, query map[string]string, fragment string) {
	rest := resource
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		fragment = decodeComponent(rest[i+1:], false)
		rest = rest[:i]
	}
	var rawQuery string
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rawQuery = rest[i+1:]
		rest = rest[:i]
	}
	path = decodeComponent(rest, false)
	query = parseQuery(rawQuery)
	return path, query, fragment
}

// parseQuery implements spec.md §4.4: "key=value" pairs separated by
// '&'; bare keys with no '=' are ignored; later keys overwrite earlier
// ones; '+' decodes to space and %HH decodes to its byte, only within
// query components.
func parseQuery(raw string) map[string]string {
	out := make(map[string]string)
	if raw == "" {
		return out
	}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		i := strings.IndexByte(pair, '=')
		if i < 0 {
			continue
		}
		key := decodeComponent(pair[:i], true)
		val := decodeComponent(pair[i+1:], true)
		out[key] = val
	}
	return out
}

// decodeComponent percent-decodes %HH sequences and, when plusAsSpace
// is set (query components only, per §4.4), turns '+' into a space.
// Any byte that isn't part of a valid %HH escape is kept literally.
func decodeComponent(s string, plusAsSpace bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '%' && i+2 < len(s) && isHexDigit(s[i+1]) && isHexDigit(s[i+2]):
			v := hexVal(s[i+1])<<4 | hexVal(s[i+2])
			b.WriteByte(v)
			i += 2
		case c == '+' && plusAsSpace:
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
