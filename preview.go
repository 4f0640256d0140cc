package main

import (
	"fmt"
	"io"

	"github.com/mattn/go-runewidth"
)

// FormatWordTable prints an aligned word/timing table. Column alignment
// goes through runewidth because Thai combining marks have zero display
// width and fmt's %-*s padding would misalign them.
func FormatWordTable(w io.Writer, words []Word) {
	nameWidth := 4
	for _, word := range words {
		if wd := runewidth.StringWidth(word.Name); wd > nameWidth {
			nameWidth = wd
		}
	}

	fmt.Fprintf(w, "%5s %5s %s %12s %12s %10s\n",
		"idx", "line", runewidth.FillRight("word", nameWidth), "start", "end", "length")

	for _, word := range words {
		fmt.Fprintf(w, "%5d %5d %s %12s %12s %10s\n",
			word.Index,
			word.LineIndex,
			runewidth.FillRight(word.Name, nameWidth),
			formatStamp(word.Start),
			formatStamp(word.End),
			formatLength(word),
		)
	}
}

func formatStamp(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *v)
}

func formatLength(w Word) string {
	if !w.Timed() {
		return "-"
	}
	return fmt.Sprintf("%.3f", w.Length)
}
