package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode"
)

// Word is the atomic timed unit of a lyric document. Start and End are nil
// until the word has been timed; their unit is ticks in MIDI mode and
// seconds in audio mode. Index is the global position in document order and
// LineIndex the owning source line.
type Word struct {
	Name      string   `json:"name"`
	Start     *float64 `json:"start"`
	End       *float64 `json:"end"`
	Length    float64  `json:"length"`
	Index     int      `json:"index"`
	LineIndex int      `json:"lineIndex"`
}

// Timed reports whether both timestamps have been captured.
func (w Word) Timed() bool {
	return w.Start != nil && w.End != nil
}

// ImportLyricText tokenizes raw lyric text into an ordered word list.
// Lines are separated by newlines; within a line words are separated by
// whitespace or '|' (the pipe is the legacy word delimiter and is never a
// word itself). Empty lines still advance the line index so the document
// keeps its visual shape. Importing the same text twice yields an
// identical word list.
func ImportLyricText(raw string) []Word {
	var words []Word
	index := 0
	for lineIndex, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		for _, name := range splitLyricLine(line) {
			words = append(words, Word{
				Name:      name,
				Index:     index,
				LineIndex: lineIndex,
			})
			index++
		}
	}
	return words
}

// splitLyricLine splits one lyric line on whitespace or pipe delimiters,
// discarding empty fragments.
func splitLyricLine(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return unicode.IsSpace(r) || r == '|'
	})
}

// GroupLines groups a flat word list back into per-line slices, in document
// order. Line indices are assumed contiguous as produced by the importer.
func GroupLines(words []Word) [][]Word {
	var lines [][]Word
	for _, w := range words {
		for len(lines) <= w.LineIndex {
			lines = append(lines, nil)
		}
		lines[w.LineIndex] = append(lines[w.LineIndex], w)
	}
	return lines
}

// LineWords returns the words belonging to a single line.
func LineWords(words []Word, lineIndex int) []Word {
	var out []Word
	for _, w := range words {
		if w.LineIndex == lineIndex {
			out = append(out, w)
		}
	}
	return out
}

// LineTexts converts grouped words back to pipe-delimited lyric lines, the
// layout used by .lyr files.
func LineTexts(words []Word) []string {
	var texts []string
	for _, line := range GroupLines(words) {
		names := make([]string, len(line))
		for i, w := range line {
			names[i] = w.Name
		}
		texts = append(texts, strings.Join(names, "|"))
	}
	return texts
}

// Project is the serialized working state of a timing session: song
// identity plus the full word list, timed or not.
type Project struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Key    string `json:"key,omitempty"`
	Words  []Word `json:"words"`
}

// ReadProject decodes a project JSON document.
func ReadProject(r io.Reader) (*Project, error) {
	var p Project
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode project: %w", err)
	}
	return &p, nil
}

// WriteProject encodes a project as indented JSON.
func WriteProject(w io.Writer, p *Project) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	return nil
}

type timedWordJSON struct {
	Name   string  `json:"name"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Length float64 `json:"length"`
}

type timedExportJSON struct {
	Title  string          `json:"title"`
	Artist string          `json:"artist"`
	Lyrics []timedWordJSON `json:"lyrics"`
}

// ExportTimedJSON writes the fully-timed words as JSON, with timestamps
// rounded to 3 decimal places. Untimed words are excluded; an export with
// no timed words at all is rejected so callers never produce an empty file.
func ExportTimedJSON(w io.Writer, title, artist string, words []Word) error {
	out := timedExportJSON{Title: title, Artist: artist}
	for _, word := range words {
		if !word.Timed() {
			continue
		}
		out.Lyrics = append(out.Lyrics, timedWordJSON{
			Name:   word.Name,
			Start:  round3(*word.Start),
			End:    round3(*word.End),
			Length: round3(word.Length),
		})
	}
	if len(out.Lyrics) == 0 {
		return fmt.Errorf("no timed words to export")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode timed lyrics: %w", err)
	}
	return nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func floatPtr(v float64) *float64 {
	return &v
}
