package main

// Character interpolation expands word-level timing into per-character
// timestamps for cursor export and sing-along highlighting. Both strategies
// share the same output contract: one sentinel entry equal to the first
// word's start, then one strictly-increasing timestamp per character across
// all words in order.

const (
	// tickCharGap is the minimum spacing between character timestamps in
	// tick mode. Cursor quantization collapses anything tighter.
	tickCharGap = 3.0

	// tickMinStep is the strict-monotonicity floor in tick mode.
	tickMinStep = 1.0

	// clockMinStep is the strict-monotonicity floor in wall-clock mode,
	// one millisecond.
	clockMinStep = 0.001
)

// InterpolateTickEase produces character timestamps in the tick domain
// using a per-word ease-in-ease-out curve. The speed multiplier heuristic
// leaves breathing room at the end of each word: the last word of the set
// is held back the most, long words (more than two beats) slightly less,
// everything else runs at near-full speed.
func InterpolateTickEase(words []Word, ticksPerBeat uint32) []float64 {
	if len(words) == 0 || !allTimed(words) || ticksPerBeat == 0 {
		return nil
	}

	out := []float64{*words[0].Start}

	for i, w := range words {
		duration := *w.End - *w.Start

		mult := 0.95
		if i == len(words)-1 {
			mult = 0.9
		} else if duration > 2*float64(ticksPerBeat) {
			mult = 0.85
		}
		effective := duration * mult / 1.2

		chars := []rune(w.Name)
		for k := range chars {
			t := float64(k+1) / float64(len(chars))
			ts := *w.Start + effective*easeInOutQuad(t)
			// Keep at least tickCharGap between consecutive characters.
			if len(out) > 1 {
				prev := out[len(out)-1]
				if ts < prev+tickCharGap {
					ts = prev + tickCharGap
				}
			}
			out = append(out, ts)
		}
	}

	return repairMonotonic(out, tickMinStep)
}

// InterpolateSpeedBlend produces character timestamps in the wall-clock
// domain. Instead of resetting the typing speed at every word boundary it
// blends each character's speed between the boundary speeds of its word
// (the average of the neighboring word speeds), which keeps the perceived
// highlight speed continuous across boundaries. The raw accumulated
// sequence is then rescaled affinely so its endpoints land exactly on the
// first word's start and the last word's end.
func InterpolateSpeedBlend(words []Word) []float64 {
	if len(words) == 0 || !allTimed(words) {
		return nil
	}

	speeds := make([]float64, len(words))
	for i, w := range words {
		duration := *w.End - *w.Start
		chars := len([]rune(w.Name))
		if duration > 0 && chars > 0 {
			speeds[i] = float64(chars) / duration
		}
	}

	firstStart := *words[0].Start
	lastEnd := *words[len(words)-1].End

	out := []float64{firstStart}
	current := firstStart

	for i, w := range words {
		// Boundary speeds; a missing neighbor contributes the word's own
		// speed, so edge words are not artificially slowed.
		startSpeed := speeds[i]
		if i > 0 {
			startSpeed = (speeds[i-1] + speeds[i]) / 2
		}
		endSpeed := speeds[i]
		if i < len(words)-1 {
			endSpeed = (speeds[i] + speeds[i+1]) / 2
		}

		chars := []rune(w.Name)
		for k := range chars {
			t := (float64(k) + 0.5) / float64(len(chars))
			speed := startSpeed + (endSpeed-startSpeed)*t
			step := clockMinStep
			if speed > 0 {
				step = 1 / speed
			}
			current += step
			out = append(out, current)
		}
	}

	rescale(out, firstStart, lastEnd)
	return repairMonotonic(out, clockMinStep)
}

// easeInOutQuad is the standard quadratic ease-in-ease-out curve over
// [0, 1].
func easeInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - ((-2*t+2)*(-2*t+2))/2
}

// rescale maps the sequence affinely so out[0] == first and
// out[len-1] == last, guarding against drift accumulated by the speed
// integration.
func rescale(out []float64, first, last float64) {
	if len(out) < 2 {
		return
	}
	span := out[len(out)-1] - out[0]
	if span <= 0 {
		return
	}
	scale := (last - first) / span
	origin := out[0]
	for i := range out {
		out[i] = first + (out[i]-origin)*scale
	}
}

// repairMonotonic pushes each timestamp forward until it exceeds its
// predecessor by at least minStep.
func repairMonotonic(out []float64, minStep float64) []float64 {
	for i := 1; i < len(out); i++ {
		if out[i] < out[i-1]+minStep {
			out[i] = out[i-1] + minStep
		}
	}
	return out
}

func allTimed(words []Word) bool {
	for _, w := range words {
		if !w.Timed() {
			return false
		}
	}
	return true
}
