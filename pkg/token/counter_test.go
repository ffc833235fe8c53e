package token

import "testing"

func TestNewCounterUnknownEncoding(t *testing.T) {
	if _, err := NewCounter("no-such-encoding"); err == nil {
		t.Error("expected error for unknown encoding")
	}
}

func TestCounterCount(t *testing.T) {
	c, err := NewCounter("")
	if err != nil {
		t.Skipf("encoding data unavailable: %v", err)
	}

	if c.EncodingName() != DefaultEncoding {
		t.Errorf("EncodingName() = %q, want %q", c.EncodingName(), DefaultEncoding)
	}
	if got := c.Count(""); got != 0 {
		t.Errorf("Count(empty) = %d, want 0", got)
	}
	if got := c.Count("hello world"); got == 0 {
		t.Error("Count(non-empty) = 0, want > 0")
	}

	// Counting is deterministic for a fixed encoding.
	a, b := c.Count("the same text"), c.Count("the same text")
	if a != b {
		t.Errorf("Count not deterministic: %d vs %d", a, b)
	}
}
