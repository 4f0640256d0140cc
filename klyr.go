package main

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"sort"
	"strings"

	"gitlab.com/gomidi/midi/v2/smf"
)

// Tagged karaoke MIDI files carry their lyric data as a KLyr payload: an
// XML document, TIS-620 encoded, DEFLATE compressed, base64 encoded, and
// stored in a text meta event whose payload starts with a "LyrHdr" token.
// Chords live separately as marker meta events on the tempo track.

const (
	// lyrHeaderToken prefixes the encoded payload when building.
	lyrHeaderToken = "LyrHdr1"

	// lyricTrackName names the appended carrier track.
	lyricTrackName = "@LYRIC"
)

// lyrHeaderPattern matches the payload token of any writer generation.
var lyrHeaderPattern = regexp.MustCompile(`(?i)^LyrHdr\d*`)

// SongInfo holds arbitrary key-value song metadata (title, artist, key)
// embedded in the KLyr payload.
type SongInfo map[string]string

// ChordEvent is a chord marker on its own timeline, independent of word
// boundaries.
type ChordEvent struct {
	Chord string `json:"chord"`
	Tick  uint32 `json:"tick"`
}

// KLyrData is the decoded lyric payload: song info plus per-line timed
// words.
type KLyrData struct {
	Info  SongInfo
	Lines [][]Word
}

// XML document shape of the KLyr payload.
type songLyricXML struct {
	XMLName xml.Name     `xml:"SONG_LYRIC"`
	Info    SongInfo     `xml:"INFO"`
	Lyric   lyricListXML `xml:"LYRIC"`
}

type lyricListXML struct {
	Lines []lyricLineXML `xml:"LINE"`
}

type lyricLineXML struct {
	Words []lyricWordXML `xml:"WORD"`
}

// lyricWordXML is one timed word: TIME is the start tick, VOCAL the end
// tick (0 when the word was never closed), TEXT the literal word.
type lyricWordXML struct {
	Time  int    `xml:"TIME"`
	Text  string `xml:"TEXT"`
	Vocal int    `xml:"VOCAL"`
}

// MarshalXML writes the info keys as child elements in sorted order so
// rebuilding a file is deterministic.
func (si SongInfo) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	keys := make([]string, 0, len(si))
	for k := range si {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		elem := xml.StartElement{Name: xml.Name{Local: k}}
		if err := e.EncodeElement(si[k], elem); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// UnmarshalXML reads every child element as one key-value pair.
func (si *SongInfo) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	out := make(SongInfo)
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var value string
			if err := d.DecodeElement(&value, &t); err != nil {
				return err
			}
			out[t.Name.Local] = value
		case xml.EndElement:
			if t.Name == start.Name {
				*si = out
				return nil
			}
		}
	}
}

// ReadMidiFile opens and parses a Standard MIDI File. A malformed file
// fails the whole call; no partial model is returned.
func ReadMidiFile(filename string) (*smf.SMF, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open MIDI file: %w", err)
	}
	defer file.Close()

	song, err := smf.ReadFrom(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI file: %w", err)
	}
	return song, nil
}

// ExtractKLyr scans a parsed MIDI file for the embedded lyric payload and
// chord markers. Chords are collected from every track; the lyric payload
// comes from the first text event carrying the header token. A malformed
// payload degrades to empty info/lyrics with a logged warning so chord
// extraction still succeeds.
func ExtractKLyr(song *smf.SMF) (KLyrData, []ChordEvent) {
	data := KLyrData{Info: make(SongInfo)}
	var chords []ChordEvent
	payloadSeen := false

	for _, track := range song.Tracks {
		var currentTime uint32
		for _, event := range track {
			currentTime += event.Delta
			msg := event.Message

			var text string
			if msg.GetMetaMarker(&text) {
				chords = append(chords, ChordEvent{
					Chord: DecodeTIS620([]byte(text)),
					Tick:  currentTime,
				})
				continue
			}
			if !payloadSeen && msg.GetMetaText(&text) && lyrHeaderPattern.MatchString(text) {
				payloadSeen = true
				decoded, err := decodeKLyrPayload(text)
				if err != nil {
					log.Printf("Warning: malformed lyric payload, continuing without lyrics: %v", err)
					continue
				}
				data = decoded
			}
		}
	}

	sort.SliceStable(chords, func(i, j int) bool {
		return chords[i].Tick < chords[j].Tick
	})
	return data, chords
}

// decodeKLyrPayload unpacks one text-event payload into song info and
// timed lyric lines.
func decodeKLyrPayload(payload string) (KLyrData, error) {
	rest := lyrHeaderPattern.ReplaceAllString(payload, "")
	rest = strings.TrimSpace(rest)

	raw, err := base64.StdEncoding.DecodeString(rest)
	if err != nil {
		return KLyrData{}, fmt.Errorf("invalid base64 payload: %w", err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return KLyrData{}, fmt.Errorf("invalid compressed payload: %w", err)
	}
	defer zr.Close()

	inflated, err := io.ReadAll(zr)
	if err != nil {
		return KLyrData{}, fmt.Errorf("failed to inflate payload: %w", err)
	}

	xmlText := DecodeTIS620(inflated)

	var doc songLyricXML
	dec := xml.NewDecoder(strings.NewReader(xmlText))
	// The prolog may declare TIS-620 but the text is already UTF-8 here.
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	if err := dec.Decode(&doc); err != nil {
		return KLyrData{}, fmt.Errorf("invalid lyric XML: %w", err)
	}

	data := KLyrData{Info: doc.Info, Lines: make([][]Word, 0, len(doc.Lyric.Lines))}
	if data.Info == nil {
		data.Info = make(SongInfo)
	}
	index := 0
	for lineIndex, line := range doc.Lyric.Lines {
		words := make([]Word, 0, len(line.Words))
		for _, xw := range line.Words {
			w := Word{
				Name:      xw.Text,
				Index:     index,
				LineIndex: lineIndex,
				Start:     floatPtr(float64(xw.Time)),
			}
			if xw.Vocal > 0 {
				w.End = floatPtr(float64(xw.Vocal))
				w.Length = float64(xw.Vocal - xw.Time)
			}
			words = append(words, w)
			index++
		}
		data.Lines = append(data.Lines, words)
	}
	return data, nil
}

// encodeKLyrPayload builds the text-event payload from song info and lyric
// lines: XML, TIS-620, DEFLATE, base64, header token.
func encodeKLyrPayload(info SongInfo, lines [][]Word) (string, error) {
	doc := songLyricXML{Info: info}
	for _, line := range lines {
		var xl lyricLineXML
		for _, w := range line {
			xw := lyricWordXML{Text: w.Name}
			if w.Start != nil {
				xw.Time = int(*w.Start)
			}
			if w.End != nil {
				xw.Vocal = int(*w.End)
			}
			xl.Words = append(xl.Words, xw)
		}
		doc.Lyric.Lines = append(doc.Lyric.Lines, xl)
	}

	var xmlBuf bytes.Buffer
	xmlBuf.WriteString(`<?xml version="1.0" encoding="TIS-620"?>` + "\n")
	enc := xml.NewEncoder(&xmlBuf)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("failed to encode lyric XML: %w", err)
	}

	var deflated bytes.Buffer
	zw := zlib.NewWriter(&deflated)
	if _, err := zw.Write(EncodeTIS620(xmlBuf.String())); err != nil {
		return "", fmt.Errorf("failed to compress payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish payload compression: %w", err)
	}

	return lyrHeaderToken + base64.StdEncoding.EncodeToString(deflated.Bytes()), nil
}

// absEvent is a MIDI event pinned to absolute tick time, the working model
// for track surgery before delta re-derivation.
type absEvent struct {
	Time    uint32
	Message smf.Message
}

// BuildTaggedMidi rebuilds a MIDI file with replacement song info, lyric
// lines, and chords. Existing chord markers and the previous lyric carrier
// are stripped from every track, new chord markers are merged into the
// track holding the tempo events (first track if none), and a fresh
// carrier track is appended with the track name at tick 0 and the encoded
// payload at tick 1. Untouched events keep their original spacing; running
// status compaction on re-serialization is the smf writer's business.
func BuildTaggedMidi(src *smf.SMF, info SongInfo, lines [][]Word, chords []ChordEvent) (*smf.SMF, error) {
	if src == nil {
		return nil, fmt.Errorf("source MIDI data is nil")
	}

	out := smf.NewSMF1()
	out.TimeFormat = src.TimeFormat

	tempoTrack := findTempoTrack(src)

	for i, track := range src.Tracks {
		abs := toAbsolute(track)
		events := stripLyricEvents(abs)

		if i == tempoTrack {
			for _, chord := range chords {
				marker := smf.Message(smf.MetaMarker(string(EncodeTIS620(chord.Chord))))
				events = append(events, absEvent{Time: chord.Tick, Message: marker})
			}
		}

		if len(events) == 0 && len(abs) > 0 && i != tempoTrack {
			// Dropping the old carrier track leaves an empty husk. A track
			// that was already empty in the source is kept as-is.
			continue
		}
		out.Add(toTrack(events))
	}

	payload, err := encodeKLyrPayload(info, lines)
	if err != nil {
		return nil, err
	}

	carrier := []absEvent{
		{Time: 0, Message: smf.Message(smf.MetaTrackSequenceName(lyricTrackName))},
		{Time: 1, Message: smf.Message(smf.MetaText(payload))},
	}
	out.Add(toTrack(carrier))

	return out, nil
}

// WriteMidiFile serializes a MIDI file to disk.
func WriteMidiFile(filename string, song *smf.SMF) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create MIDI file: %w", err)
	}
	defer file.Close()

	if _, err := song.WriteTo(file); err != nil {
		return fmt.Errorf("failed to write MIDI file: %w", err)
	}
	return nil
}

// findTempoTrack returns the index of the first track containing a tempo
// meta event, falling back to the first track.
func findTempoTrack(song *smf.SMF) int {
	for i, track := range song.Tracks {
		for _, event := range track {
			if event.Message.Type() == smf.MetaTempoMsg {
				return i
			}
		}
	}
	return 0
}

// toAbsolute converts a delta-timed track to absolute-timed events,
// dropping the end-of-track terminator (toTrack re-adds it).
func toAbsolute(track smf.Track) []absEvent {
	var events []absEvent
	var currentTime uint32
	for _, event := range track {
		currentTime += event.Delta
		if event.Message.Type() == smf.MetaEndOfTrackMsg {
			continue
		}
		events = append(events, absEvent{Time: currentTime, Message: event.Message})
	}
	return events
}

// stripLyricEvents removes chord markers and the previous lyric carrier
// events (the carrier track name and any payload-bearing text event).
func stripLyricEvents(events []absEvent) []absEvent {
	kept := events[:0]
	for _, event := range events {
		var text string
		if event.Message.GetMetaMarker(&text) {
			continue
		}
		if event.Message.GetMetaTrackName(&text) && text == lyricTrackName {
			continue
		}
		if event.Message.GetMetaText(&text) && lyrHeaderPattern.MatchString(text) {
			continue
		}
		kept = append(kept, event)
	}
	return kept
}

// toTrack sorts absolute events by time, re-derives delta times, and
// terminates the track.
func toTrack(events []absEvent) smf.Track {
	sorted := make([]absEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})

	track := smf.Track{}
	var lastTime uint32
	for _, event := range sorted {
		delta := uint32(0)
		if event.Time > lastTime {
			delta = event.Time - lastTime
			lastTime = event.Time
		}
		track = append(track, smf.Event{Delta: delta, Message: event.Message})
	}
	track = append(track, smf.Event{Delta: 0, Message: smf.EOT})
	return track
}
