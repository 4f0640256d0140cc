package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"math"
)

// Cursor values are the quantized time unit of the legacy karaoke cursor
// file: 24 units per beat, regardless of the MIDI file's tick resolution.
// The quantization is lossy but order-preserving.

// curTerminator ends a .cur file after the last cursor value.
const curTerminator = 0xFF

// TickToCursor converts an absolute tick to a cursor value on the
// 24-units-per-beat grid. ticksPerBeat must be non-zero.
func TickToCursor(tick float64, ticksPerBeat uint32) int {
	return int(math.Round(tick / (float64(ticksPerBeat) / 24.0)))
}

// CursorToTick converts a cursor value back to ticks. The conversion is
// exact only for ticks that were already on the cursor grid.
func CursorToTick(cursor int, ticksPerBeat uint32) float64 {
	return float64(cursor) * (float64(ticksPerBeat) / 24.0)
}

// TicksToCursors converts a sequence of tick timestamps to cursor values.
// A zero ticksPerBeat is degenerate input (an unloaded or broken MIDI
// header); it logs and returns nil rather than dividing by zero.
func TicksToCursors(ticks []float64, ticksPerBeat uint32) []int {
	if ticksPerBeat == 0 {
		log.Printf("Warning: ticksPerBeat is 0, cannot convert ticks to cursors")
		return nil
	}
	cursors := make([]int, len(ticks))
	for i, t := range ticks {
		cursors[i] = TickToCursor(t, ticksPerBeat)
	}
	return cursors
}

// WriteCurFile writes cursor values as little-endian 16-bit unsigned
// integers followed by a single terminator byte. Values outside the uint16
// range are clamped with a warning; playback hardware reads the file as a
// flat uint16 stream and has no wider representation.
func WriteCurFile(w io.Writer, cursors []int) error {
	bw := bufio.NewWriter(w)
	for _, c := range cursors {
		if c < 0 {
			log.Printf("Warning: clamping negative cursor value %d to 0", c)
			c = 0
		} else if c > math.MaxUint16 {
			log.Printf("Warning: clamping cursor value %d to %d", c, math.MaxUint16)
			c = math.MaxUint16
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(c)); err != nil {
			return fmt.Errorf("failed to write cursor value: %w", err)
		}
	}
	if err := bw.WriteByte(curTerminator); err != nil {
		return fmt.Errorf("failed to write terminator: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush cursor data: %w", err)
	}
	return nil
}

// ReadCurFile reads cursor values from a .cur byte stream. Reading stops at
// the terminator byte; a missing terminator is tolerated at EOF since some
// legacy writers omit it.
func ReadCurFile(r io.Reader) ([]int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read cursor data: %w", err)
	}
	if len(data)%2 == 1 {
		if data[len(data)-1] != curTerminator {
			return nil, fmt.Errorf("invalid cursor file: odd length without terminator")
		}
		data = data[:len(data)-1]
	}
	cursors := make([]int, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		cursors = append(cursors, int(binary.LittleEndian.Uint16(data[i:i+2])))
	}
	return cursors, nil
}
