package chunky

import "testing"

func TestHeader_GetIsCaseInsensitive(t *testing.T) {
	h := make(Header)
	h.Set("Content-Type", "text/plain")
	if got := h.Get("content-type"); got != "text/plain" {
		t.Fatalf("got %q", got)
	}
}

func TestHeader_AddCoalescesWithComma(t *testing.T) {
	h := make(Header)
	h.Add("X-Thing", "a")
	h.Add("x-thing", "b")
	if got := h.Get("X-Thing"); got != "a, b" {
		t.Fatalf("got %q, want %q", got, "a, b")
	}
}

func TestHeader_SetReplaces(t *testing.T) {
	h := make(Header)
	h.Add("X-Thing", "a")
	h.Set("X-Thing", "b")
	if got := h.Get("X-Thing"); got != "b" {
		t.Fatalf("got %q, want %q", got, "b")
	}
}

func TestHeader_Del(t *testing.T) {
	h := make(Header)
	h.Set("X-Thing", "a")
	h.Del("x-thing")
	if got := h.Get("X-Thing"); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestHeader_NilSafe(t *testing.T) {
	var h Header
	if got := h.Get("X"); got != "" {
		t.Fatalf("Get on nil Header returned %q", got)
	}
	h.Set("X", "y") // must not panic
	h.Add("X", "y") // must not panic
	h.Del("X")      // must not panic
}
