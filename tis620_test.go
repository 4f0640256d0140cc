package main

import "testing"

func TestTIS620RoundTrip(t *testing.T) {
	cases := []string{
		"",
		"hello world",
		"Am G/B C",
		"สวัสดี",
		"สวัสดีครับ ABC 123",
		"ก ข ฃ ๛", // first and last code points of the Thai block
	}
	for _, s := range cases {
		got := DecodeTIS620(EncodeTIS620(s))
		if got != s {
			t.Errorf("round trip of %q = %q", s, got)
		}
	}
}

func TestTIS620BlockBoundaries(t *testing.T) {
	if b := EncodeTIS620("ก"); len(b) != 1 || b[0] != 0xA1 {
		t.Errorf("expected ก to encode to 0xA1, got % X", b)
	}
	if b := EncodeTIS620("๛"); len(b) != 1 || b[0] != 0xFB {
		t.Errorf("expected U+0E5B to encode to 0xFB, got % X", b)
	}
	if s := DecodeTIS620([]byte{0xA1}); s != "ก" {
		t.Errorf("expected 0xA1 to decode to ก, got %q", s)
	}
}

func TestTIS620UnmappableBecomesQuestionMark(t *testing.T) {
	// Outside ASCII and the Thai block.
	if b := EncodeTIS620("héllo"); string(b) != "h?llo" {
		t.Errorf("expected h?llo, got %q", string(b))
	}
	if b := EncodeTIS620("日本"); string(b) != "??" {
		t.Errorf("expected ??, got %q", string(b))
	}
	// Bytes in the undefined gap between ASCII and the Thai range.
	if s := DecodeTIS620([]byte{0x80, 0x9F}); s != "??" {
		t.Errorf("expected ??, got %q", s)
	}
}
