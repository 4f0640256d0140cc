package main

import (
	"reflect"
	"testing"
)

func newTestSession() *TimingSession {
	return NewTimingSession(ImportLyricText("สวัสดี|ครับ\nผม|ชื่อ|เอ"))
}

func TestStartAndRecordTiming(t *testing.T) {
	s := newTestSession()

	if !s.StartTiming(5.0) {
		t.Fatal("StartTiming on untimed word should succeed")
	}
	words := s.Words()
	if words[0].Start == nil || *words[0].Start != 5.0 {
		t.Fatalf("word 0 start = %v, expected 5.0", words[0].Start)
	}
	if !s.State().TimingActive {
		t.Error("session should be active after StartTiming")
	}

	result := s.RecordTiming(6.2)
	if result.AtEnd || result.LineComplete {
		t.Errorf("unexpected record result: %+v", result)
	}
	words = s.Words()
	if words[0].End == nil || *words[0].End != 6.2 {
		t.Errorf("word 0 end = %v, expected 6.2", words[0].End)
	}
	if words[0].Length != 1.2000000000000002 && words[0].Length != 1.2 {
		t.Errorf("word 0 length = %v, expected 1.2", words[0].Length)
	}
	// The next word's start is chained to the same instant.
	if words[1].Start == nil || *words[1].Start != 6.2 {
		t.Errorf("word 1 start = %v, expected 6.2", words[1].Start)
	}
}

func TestStartTimingRefusesOverwrite(t *testing.T) {
	s := newTestSession()
	s.StartTiming(1.0)
	s.RecordTiming(2.0)
	s.GoToNextWord()
	s.RecordTiming(3.0)
	s.StopTiming()

	// Word 0 is fully timed and no line edit is open.
	before := s.Words()
	if s.StartTiming(9.0) {
		t.Error("StartTiming should refuse to overwrite a timed word outside a line edit")
	}
	if !reflect.DeepEqual(before, s.Words()) {
		t.Error("refused StartTiming must not mutate the word list")
	}
}

func TestGoToNextWordAtEndForcesIdle(t *testing.T) {
	s := NewTimingSession(ImportLyricText("a b"))
	s.StartTiming(0)
	s.RecordTiming(1)
	s.GoToNextWord()
	s.RecordTiming(2)

	before := s.Words()
	if s.GoToNextWord() {
		t.Error("GoToNextWord at the last word should report false")
	}
	if s.State().TimingActive {
		t.Error("session should be idle after advancing past the end")
	}
	if !reflect.DeepEqual(before, s.Words()) {
		t.Error("word list should be unchanged by the forced exit")
	}
}

func TestRecordTimingAtEnd(t *testing.T) {
	s := NewTimingSession(ImportLyricText("only"))
	s.StartTiming(1.5)
	result := s.RecordTiming(2.5)
	if !result.AtEnd {
		t.Error("recording the last word should report AtEnd")
	}
}

func TestCorrectTimingStep(t *testing.T) {
	s := newTestSession()
	s.StartTiming(1.0)
	s.RecordTiming(2.0)
	s.GoToNextWord()
	s.RecordTiming(3.0)
	s.GoToNextWord() // now at word 2

	preRoll, ok := s.CorrectTimingStep(1)
	if !ok {
		t.Fatal("correction to an earlier word should succeed")
	}
	words := s.Words()
	if words[2].Start != nil {
		t.Error("start of the word being left should be cleared")
	}
	if words[1].End != nil || words[1].Length != 0 {
		t.Error("end of the word being entered should be cleared")
	}
	if s.State().CurrentIndex != 1 {
		t.Errorf("current index = %d, expected 1", s.State().CurrentIndex)
	}
	if s.State().CorrectionIndex != 1 {
		t.Errorf("correction index = %d, expected 1", s.State().CorrectionIndex)
	}
	// No previous line; pre-roll falls back to the end of the nearest
	// earlier timed word.
	if preRoll != 2.0 {
		t.Errorf("pre-roll = %f, expected 2.0", preRoll)
	}
}

func TestCorrectTimingStepNoOps(t *testing.T) {
	s := newTestSession()
	s.StartTiming(1.0)

	before := s.Words()
	if _, ok := s.CorrectTimingStep(-1); ok {
		t.Error("correction below index 0 should be a no-op")
	}
	if _, ok := s.CorrectTimingStep(0); ok {
		t.Error("correction to the current index should be a no-op")
	}
	if _, ok := s.CorrectTimingStep(3); ok {
		t.Error("correction forward should be a no-op")
	}
	if !reflect.DeepEqual(before, s.Words()) {
		t.Error("no-op corrections must leave the word list unchanged")
	}
}

func TestStopTimingIdempotent(t *testing.T) {
	s := newTestSession()
	before := s.State()
	s.StopTiming()
	if s.State() != before {
		t.Error("StopTiming while idle should leave state unchanged")
	}

	s.StartTiming(1.0)
	s.StopTiming()
	if s.State().TimingActive {
		t.Error("session should be idle after StopTiming")
	}
	s.StopTiming() // second stop is a no-op
	if s.State().TimingActive {
		t.Error("repeated StopTiming should stay idle")
	}
}

func TestStartEditLineResetsLine(t *testing.T) {
	s := newTestSession()
	// Time the whole document first.
	stamps := []float64{0, 1, 2, 3, 4, 5}
	s.StartTiming(stamps[0])
	for i := 1; i < len(stamps); i++ {
		s.RecordTiming(stamps[i])
		s.GoToNextWord()
	}

	preRoll, ok := s.StartEditLine(1)
	if !ok {
		t.Fatal("StartEditLine on an existing line should succeed")
	}
	words := s.Words()
	for _, w := range words {
		if w.LineIndex == 1 && (w.Start != nil || w.End != nil || w.Length != 0) {
			t.Errorf("word %d on edited line should be reset", w.Index)
		}
		if w.LineIndex == 0 && !w.Timed() {
			t.Errorf("word %d outside the edited line should stay timed", w.Index)
		}
	}
	if s.State().EditingLine != 1 {
		t.Errorf("editing line = %d, expected 1", s.State().EditingLine)
	}
	if s.State().CurrentIndex != 2 {
		t.Errorf("current index = %d, expected first word of line 1", s.State().CurrentIndex)
	}
	// Previous line is timed; pre-roll is its start.
	if preRoll != 0 {
		t.Errorf("pre-roll = %f, expected start of line 0", preRoll)
	}

	if _, ok := s.StartEditLine(99); ok {
		t.Error("StartEditLine on a missing line should report false")
	}
}

func TestRecordTimingEndsLineEditAtBoundary(t *testing.T) {
	s := newTestSession()
	s.StartEditLine(0)

	s.StartTiming(1.0)
	s.RecordTiming(2.0)
	s.GoToNextWord()

	// Word 1 is the last word of line 0; recording it crosses into line 1.
	result := s.RecordTiming(3.0)
	if !result.LineComplete {
		t.Error("crossing the edited line's boundary should report LineComplete")
	}
	if s.State().TimingActive {
		t.Error("the scoped session should have terminated itself")
	}
	if s.State().EditingLine != noIndex {
		t.Error("editing line should be cleared after auto-termination")
	}
	// The next line's first word still received its chained start.
	words := s.Words()
	if words[2].Start == nil || *words[2].Start != 3.0 {
		t.Errorf("word 2 start = %v, expected 3.0", words[2].Start)
	}
}

func TestUpdatePlayback(t *testing.T) {
	s := NewTimingSession([]Word{
		timedWord("a", 0, 1, 0),
		timedWord("b", 1, 2, 1),
		{Name: "c", Index: 2},
	})

	s.UpdatePlayback(0.5)
	if s.State().PlaybackIndex != 0 {
		t.Errorf("playback index = %d, expected 0", s.State().PlaybackIndex)
	}
	s.UpdatePlayback(1.0)
	if s.State().PlaybackIndex != 1 {
		t.Errorf("playback index = %d, expected 1", s.State().PlaybackIndex)
	}
	s.UpdatePlayback(10)
	if s.State().PlaybackIndex != noIndex {
		t.Errorf("playback index = %d, expected none", s.State().PlaybackIndex)
	}
}

func TestOnChangeNotifications(t *testing.T) {
	s := newTestSession()
	var seen []SessionState
	s.OnChange(func(st SessionState) {
		seen = append(seen, st)
	})

	s.StartTiming(1.0)
	s.RecordTiming(2.0)
	s.GoToNextWord()
	if len(seen) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(seen))
	}
	if !seen[0].TimingActive {
		t.Error("first notification should show an active session")
	}
	if seen[2].CurrentIndex != 1 {
		t.Errorf("last notification index = %d, expected 1", seen[2].CurrentIndex)
	}
}

func TestPreRollFallsBackToZero(t *testing.T) {
	s := newTestSession()
	// Nothing timed at all: editing line 0 has no context to seek to.
	preRoll, ok := s.StartEditLine(0)
	if !ok {
		t.Fatal("StartEditLine failed")
	}
	if preRoll != 0 {
		t.Errorf("pre-roll = %f, expected 0", preRoll)
	}
}
