package main

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestImportPipeDelimitedThaiText(t *testing.T) {
	words := ImportLyricText("สวัสดี|ครับ\nผม|ชื่อ|เอ")
	if len(words) != 5 {
		t.Fatalf("expected 5 words, got %d", len(words))
	}

	expected := []struct {
		name      string
		index     int
		lineIndex int
	}{
		{"สวัสดี", 0, 0},
		{"ครับ", 1, 0},
		{"ผม", 2, 1},
		{"ชื่อ", 3, 1},
		{"เอ", 4, 1},
	}
	for i, e := range expected {
		w := words[i]
		if w.Name != e.name || w.Index != e.index || w.LineIndex != e.lineIndex {
			t.Errorf("word %d = {%s %d %d}, expected {%s %d %d}",
				i, w.Name, w.Index, w.LineIndex, e.name, e.index, e.lineIndex)
		}
		if w.Start != nil || w.End != nil || w.Length != 0 {
			t.Errorf("word %d should be untimed", i)
		}
	}
}

func TestImportMixedDelimiters(t *testing.T) {
	words := ImportLyricText("one two|three  ||four\r\nfive")
	names := make([]string, len(words))
	for i, w := range words {
		names[i] = w.Name
	}
	expected := []string{"one", "two", "three", "four", "five"}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("names = %v, expected %v", names, expected)
	}
	if words[3].LineIndex != 0 || words[4].LineIndex != 1 {
		t.Errorf("line indices = %d, %d, expected 0, 1", words[3].LineIndex, words[4].LineIndex)
	}
}

func TestImportIdempotence(t *testing.T) {
	raw := "สวัสดี|ครับ\nผม|ชื่อ|เอ\n\nlast line"
	first := ImportLyricText(raw)
	second := ImportLyricText(raw)
	if !reflect.DeepEqual(first, second) {
		t.Error("importing the same text twice produced different word lists")
	}
}

func TestGroupLinesRoundTrip(t *testing.T) {
	words := ImportLyricText("a b\nc d e")
	lines := GroupLines(words)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if len(lines[0]) != 2 || len(lines[1]) != 3 {
		t.Errorf("line sizes = %d, %d, expected 2, 3", len(lines[0]), len(lines[1]))
	}
	texts := LineTexts(words)
	if texts[0] != "a|b" || texts[1] != "c|d|e" {
		t.Errorf("line texts = %v", texts)
	}
}

func TestExportTimedJSON(t *testing.T) {
	words := []Word{
		{Name: "a", Start: floatPtr(0.12345), End: floatPtr(1.9999), Length: 1.87645, Index: 0},
		{Name: "b", Index: 1}, // untimed, excluded
		{Name: "c", Start: floatPtr(2), End: floatPtr(3), Length: 1, Index: 2},
	}

	var buf bytes.Buffer
	if err := ExportTimedJSON(&buf, "Song", "Artist", words); err != nil {
		t.Fatalf("ExportTimedJSON failed: %v", err)
	}

	var out struct {
		Title  string `json:"title"`
		Artist string `json:"artist"`
		Lyrics []struct {
			Name   string  `json:"name"`
			Start  float64 `json:"start"`
			End    float64 `json:"end"`
			Length float64 `json:"length"`
		} `json:"lyrics"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}

	if out.Title != "Song" || out.Artist != "Artist" {
		t.Errorf("header = %s/%s", out.Title, out.Artist)
	}
	if len(out.Lyrics) != 2 {
		t.Fatalf("expected 2 timed words, got %d", len(out.Lyrics))
	}
	if out.Lyrics[0].Start != 0.123 {
		t.Errorf("start = %v, expected 0.123 (3 decimal places)", out.Lyrics[0].Start)
	}
	if out.Lyrics[0].End != 2.0 {
		t.Errorf("end = %v, expected 2.0", out.Lyrics[0].End)
	}
	if out.Lyrics[0].Length != 1.876 {
		t.Errorf("length = %v, expected 1.876", out.Lyrics[0].Length)
	}
}

func TestExportTimedJSONRejectsUntimedProject(t *testing.T) {
	words := ImportLyricText("a b c")
	var buf bytes.Buffer
	err := ExportTimedJSON(&buf, "t", "a", words)
	if err == nil {
		t.Fatal("expected error for export with no timed words")
	}
	if !strings.Contains(err.Error(), "no timed words") {
		t.Errorf("unexpected error: %v", err)
	}
}
