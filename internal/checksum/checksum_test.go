package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256 of the empty input.
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %s", got)
	}
	if Sum([]byte("a")) == Sum([]byte("b")) {
		t.Error("different content must not share a digest")
	}
}

func TestETag(t *testing.T) {
	if got := ETag("abc"); got != `"abc"` {
		t.Errorf("ETag = %s", got)
	}
	if got := ETag(""); got != "" {
		t.Errorf("ETag(\"\") = %q", got)
	}
}
