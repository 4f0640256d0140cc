package main

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// .lyr files are the legacy plain-text lyric format: CP874-encoded, first
// three lines are title, artist, and key, the fourth line is blank, and
// every following line is one lyric line with pipe-delimited words.

// LyrFile is a decoded .lyr document.
type LyrFile struct {
	Title  string
	Artist string
	Key    string
	Lines  []string
}

// ReadLyrFile decodes a CP874 .lyr stream. Files shorter than the header
// block are rejected.
func ReadLyrFile(r io.Reader) (*LyrFile, error) {
	decoded, err := io.ReadAll(transform.NewReader(r, charmap.Windows874.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("failed to decode lyr file: %w", err)
	}

	lines := strings.Split(strings.ReplaceAll(string(decoded), "\r\n", "\n"), "\n")
	if len(lines) < 4 {
		return nil, fmt.Errorf("lyr file too short: expected header lines and lyrics, got %d lines", len(lines))
	}

	lyr := &LyrFile{
		Title:  strings.TrimSpace(lines[0]),
		Artist: strings.TrimSpace(lines[1]),
		Key:    strings.TrimSpace(lines[2]),
	}
	for _, line := range lines[4:] {
		line = strings.TrimRight(line, " \t")
		if line == "" && len(lyr.Lines) == 0 {
			continue
		}
		lyr.Lines = append(lyr.Lines, line)
	}
	// Drop trailing blank lines left by editors.
	for len(lyr.Lines) > 0 && lyr.Lines[len(lyr.Lines)-1] == "" {
		lyr.Lines = lyr.Lines[:len(lyr.Lines)-1]
	}
	return lyr, nil
}

// Words tokenizes the lyric lines through the standard importer.
func (l *LyrFile) Words() []Word {
	return ImportLyricText(strings.Join(l.Lines, "\n"))
}

// WriteLyrFile encodes a .lyr document as CP874. Characters outside the
// codepage are substituted rather than failing the whole write.
func WriteLyrFile(w io.Writer, lyr *LyrFile) error {
	enc := encoding.ReplaceUnsupported(charmap.Windows874.NewEncoder())
	tw := transform.NewWriter(w, enc)

	var b strings.Builder
	b.WriteString(lyr.Title + "\n")
	b.WriteString(lyr.Artist + "\n")
	b.WriteString(lyr.Key + "\n")
	b.WriteString("\n")
	for _, line := range lyr.Lines {
		b.WriteString(line + "\n")
	}

	if _, err := tw.Write([]byte(b.String())); err != nil {
		return fmt.Errorf("failed to encode lyr file: %w", err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finish lyr file: %w", err)
	}
	return nil
}
