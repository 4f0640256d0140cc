package main

// TimingSession is the interactive core of the editor: it owns the word
// list and tracks which word is currently being timed while an external
// playback engine pushes time values at it. All transitions are
// synchronous and tolerant: invalid commands are no-ops signalled through
// return values, never panics, because the driving input is a human
// tapping along with live playback.

// noIndex marks an unset word or line index.
const noIndex = -1

// SessionState is a read-only snapshot of the session bookkeeping,
// excluding the word list itself.
type SessionState struct {
	CurrentIndex    int  // word pointer for capture
	TimingActive    bool // a capture session is open
	EditingLine     int  // line under scoped re-edit, noIndex if none
	CorrectionIndex int  // word being corrected, noIndex if none
	PlaybackIndex   int  // word currently audible, noIndex if none
	SelectedLine    int  // line of the current word, for display
}

// TimingSession drives word-level timestamp capture over a word list.
type TimingSession struct {
	words     []Word
	state     SessionState
	listeners []func(SessionState)
}

// RecordResult reports what a RecordTiming call implies for the caller:
// whether the next word starts a new line while a scoped line edit is
// active (in which case the session has already terminated itself), and
// whether the word just recorded was the last one.
type RecordResult struct {
	LineComplete bool
	AtEnd        bool
}

// NewTimingSession creates a session over a copy of the given words. The
// session is the single writer of its word list; callers read through
// Words() snapshots.
func NewTimingSession(words []Word) *TimingSession {
	copied := make([]Word, len(words))
	copy(copied, words)
	return &TimingSession{
		words: copied,
		state: SessionState{
			CurrentIndex:    0,
			EditingLine:     noIndex,
			CorrectionIndex: noIndex,
			PlaybackIndex:   noIndex,
			SelectedLine:    0,
		},
	}
}

// Words returns a snapshot copy of the word list.
func (s *TimingSession) Words() []Word {
	out := make([]Word, len(s.words))
	copy(out, s.words)
	return out
}

// State returns the current session bookkeeping.
func (s *TimingSession) State() SessionState {
	return s.state
}

// OnChange registers a listener invoked after every mutating transition.
// The session never owns the playback time emitter; this is the outbound
// half of the subscription model for whatever UI wraps the core.
func (s *TimingSession) OnChange(fn func(SessionState)) {
	s.listeners = append(s.listeners, fn)
}

func (s *TimingSession) notify() {
	for _, fn := range s.listeners {
		fn(s.state)
	}
}

// StartTiming opens a capture at the current word, stamping its start.
// It refuses to overwrite an already-timed word unless a line-edit session
// is open, so a stray key press cannot clobber finished work.
func (s *TimingSession) StartTiming(now float64) bool {
	if s.state.CurrentIndex < 0 || s.state.CurrentIndex >= len(s.words) {
		return false
	}
	word := &s.words[s.state.CurrentIndex]
	if word.Timed() && s.state.EditingLine == noIndex {
		return false
	}
	word.Start = floatPtr(now)
	s.state.TimingActive = true
	s.state.CorrectionIndex = noIndex
	s.notify()
	return true
}

// RecordTiming stamps the current word's end and chains the next word's
// start to the same instant, so forward capture produces no gaps. When a
// scoped line edit is active and the next word belongs to another line,
// the session terminates itself and reports LineComplete.
func (s *TimingSession) RecordTiming(now float64) RecordResult {
	if !s.state.TimingActive || s.state.CurrentIndex < 0 || s.state.CurrentIndex >= len(s.words) {
		return RecordResult{}
	}
	word := &s.words[s.state.CurrentIndex]
	word.End = floatPtr(now)
	if word.Start != nil {
		word.Length = now - *word.Start
	}

	next := s.state.CurrentIndex + 1
	if next >= len(s.words) {
		s.notify()
		return RecordResult{AtEnd: true}
	}

	s.words[next].Start = floatPtr(now)

	if s.state.EditingLine != noIndex && s.words[next].LineIndex != word.LineIndex {
		s.StopTiming()
		return RecordResult{LineComplete: true}
	}
	s.notify()
	return RecordResult{}
}

// GoToNextWord advances the capture pointer. At the end of the list it
// force-exits to idle and reports false.
func (s *TimingSession) GoToNextWord() bool {
	next := s.state.CurrentIndex + 1
	if next >= len(s.words) {
		s.StopTiming()
		return false
	}
	s.state.CurrentIndex = next
	s.state.SelectedLine = s.words[next].LineIndex
	s.state.CorrectionIndex = noIndex
	s.notify()
	return true
}

// CorrectTimingStep steps backward to target so a mistimed word can be
// recaptured. The start of the word being left and the end of the word
// being entered are cleared; the returned time is the pre-roll position
// playback should seek to for audible context.
func (s *TimingSession) CorrectTimingStep(target int) (float64, bool) {
	if target < 0 || target >= s.state.CurrentIndex || s.state.CurrentIndex >= len(s.words) {
		return 0, false
	}
	s.words[s.state.CurrentIndex].Start = nil
	s.words[target].End = nil
	s.words[target].Length = 0
	s.state.CurrentIndex = target
	s.state.SelectedLine = s.words[target].LineIndex
	s.state.CorrectionIndex = target
	s.notify()
	return s.preRollAt(target), true
}

// StopTiming force-exits to idle from any state. Calling it while already
// idle is a no-op.
func (s *TimingSession) StopTiming() {
	if !s.state.TimingActive && s.state.EditingLine == noIndex && s.state.CorrectionIndex == noIndex {
		return
	}
	s.state.TimingActive = false
	s.state.EditingLine = noIndex
	s.state.CorrectionIndex = noIndex
	s.notify()
}

// StartEditLine resets every word of one line to untimed and opens a
// scoped session over it, leaving the rest of the document untouched. The
// returned time is the pre-roll position for the seek before re-timing.
func (s *TimingSession) StartEditLine(lineIndex int) (float64, bool) {
	first := noIndex
	for i := range s.words {
		if s.words[i].LineIndex == lineIndex {
			if first == noIndex {
				first = i
			}
			s.words[i].Start = nil
			s.words[i].End = nil
			s.words[i].Length = 0
		}
	}
	if first == noIndex {
		return 0, false
	}
	s.state.CurrentIndex = first
	s.state.SelectedLine = lineIndex
	s.state.EditingLine = lineIndex
	s.state.CorrectionIndex = noIndex
	s.state.TimingActive = false
	s.notify()
	return s.preRollAt(first), true
}

// UpdatePlayback maintains the playback highlight from the pushed time
// feed. It is independent of the capture pointer: the audible word may be
// far from the word being edited.
func (s *TimingSession) UpdatePlayback(now float64) {
	idx := noIndex
	for i, w := range s.words {
		if !w.Timed() {
			continue
		}
		if *w.Start <= now && now < *w.End {
			idx = i
			break
		}
	}
	if idx != s.state.PlaybackIndex {
		s.state.PlaybackIndex = idx
		s.notify()
	}
}

// preRollAt computes where playback should seek before (re-)timing the
// word at wordIndex: the start of the previous line if timed, else the
// end of the nearest earlier timed word, else 0.
func (s *TimingSession) preRollAt(wordIndex int) float64 {
	lineIndex := s.words[wordIndex].LineIndex
	if lineIndex > 0 {
		prev := LineWords(s.words, lineIndex-1)
		if len(prev) > 0 && prev[0].Start != nil {
			return *prev[0].Start
		}
	}
	for i := wordIndex - 1; i >= 0; i-- {
		if s.words[i].End != nil {
			return *s.words[i].End
		}
	}
	return 0
}
