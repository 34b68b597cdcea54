package chunky

import "net/textproto"

// Header is a case-insensitive mapping from header name to value.
// Wire occurrences of the same name are coalesced into one entry by
// joining with ", " in arrival order (spec's P2); this is why Header
// stores a single string per key rather than net/http's []string.
type Header map[string]string

func (h Header) canon(key string) string {
	return textproto.CanonicalMIMEHeaderKey(key)
}

// Get performs a case-insensitive lookup, returning "" if absent.
func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	return h[h.canon(key)]
}

// Set replaces any existing value(s) for key with value.
func (h Header) Set(key, value string) {
	if h == nil {
		return
	}
	h[h.canon(key)] = value
}

// Add folds value into key, coalescing with any existing value by
// joining with ", " — the behavior a wire parser needs for duplicate
// header lines (P2). Handler code that wants net/http's append-a-value
// semantics should call Set for single-valued headers and only reach
// for Add when duplicate-and-join is actually the intent.
func (h Header) Add(key, value string) {
	if h == nil {
		return
	}
	k := h.canon(key)
	if existing, ok := h[k]; ok {
		h[k] = existing + ", " + value
	} else {
		h[k] = value
	}
}

// Del removes key, case-insensitively.
func (h Header) Del(key string) {
	if h == nil {
		return
	}
	delete(h, h.canon(key))
}
