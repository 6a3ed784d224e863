package engine

// recordingContext carries the values a note-on/note-off needs to place
// a quantized event, computed once per MIDI message from the cached
// quantize/loop length of the recording track.
type recordingContext struct {
	track         int
	loopLen       int
	quantize      int
	snapThreshold float64
	rawStep       int
	stepFraction  float64
}

func (e *Engine) newRecordingContext(track int) recordingContext {
	quantize, loopLen := e.cachedQuantize(track)
	ts := e.Tracks[track]
	stepFraction := 0.0
	if e.stepDuration > 0 {
		stepFraction = clampFloat(e.stepTime/e.stepDuration, 0, 1)
	}
	return recordingContext{
		track:         track,
		loopLen:       loopLen,
		quantize:      quantize,
		snapThreshold: float64(e.globalParam(ParamRecSnap)) / 100,
		rawStep:       clampInt(ts.Step, 1, loopLen),
		stepFraction:  stepFraction,
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// recordNoteOn starts tracking a held note for live recording, snapping
// both its quantized insertion step and its effective (unsnapped-grid)
// start for later duration math.
func (e *Engine) recordNoteOn(ctx recordingContext, note, velocity uint8) {
	held := &e.Held[note]
	*held = HeldNote{
		Active:        true,
		Note:          note,
		Velocity:      velocity,
		Track:         ctx.track,
		QuantizedStep: snapToDivisionSubclock(ctx.rawStep, ctx.stepFraction, ctx.quantize, ctx.snapThreshold, ctx.loopLen),
		EffectiveStep: snapStepSubclock(ctx.rawStep, ctx.stepFraction, ctx.snapThreshold, ctx.loopLen),
		Quantize:      ctx.quantize,
		LoopLen:       ctx.loopLen,
		RawStep:       ctx.rawStep,
	}
}

// recordNoteOff completes a held note, computing its duration from the
// gap between its recorded start and the current snapped position, and
// stores the resulting event on the track.
func (e *Engine) recordNoteOff(ctx recordingContext, note uint8) {
	held := &e.Held[note]
	if !held.Active {
		return
	}

	effectiveEnd := snapStepSubclock(ctx.rawStep, ctx.stepFraction, ctx.snapThreshold, held.LoopLen)
	e.storeHeldNote(held, effectiveEnd)
}

// finalizeHeldNotes closes out every still-held note using the track's
// current playback position, used when recording stops mid-note.
func (e *Engine) finalizeHeldNotes() {
	for n := 0; n < 128; n++ {
		held := &e.Held[n]
		if !held.Active {
			continue
		}
		ts := e.Tracks[held.Track]
		currentStep := clampInt(ts.Step, 1, held.LoopLen)
		e.storeHeldNote(held, currentStep)
	}
}

func (e *Engine) storeHeldNote(held *HeldNote, endStep int) {
	duration := endStep - held.EffectiveStep
	if duration < 0 {
		duration += held.LoopLen
	}
	if duration < 1 {
		duration = 1
	}
	duration = quantizeDuration(duration, held.Quantize)

	maxDuration := held.LoopLen - held.QuantizedStep + 1
	if duration > maxDuration {
		duration = maxDuration
	}

	stepIdx := clampInt(held.QuantizedStep-1, 0, MaxSteps-1)
	evs := &e.Tracks[held.Track].Data.Steps[stepIdx]
	evs.add(held.Note, held.Velocity, uint16(duration))

	held.Active = false
}

// clearHeldNotes drops every held note without recording it, used when
// the recording track changes mid-recording.
func (e *Engine) clearHeldNotes() {
	for i := range e.Held {
		e.Held[i].Active = false
	}
}

// stepRecordNoteOn inserts a note at the current step-record cursor on
// note-on, so held chords (multiple note-ons before any note-off) land
// on the same step.
func (e *Engine) stepRecordNoteOn(track int, note, velocity uint8) {
	quantize, loopLen := e.cachedQuantize(track)
	if e.stepRecPos < 1 {
		e.stepRecPos = 1
	}
	stepIdx := (e.stepRecPos-1)*quantize + 1 - 1
	if stepIdx < 0 || stepIdx >= loopLen || stepIdx >= MaxSteps {
		return
	}
	duration := clampInt(quantize, 1, loopLen)
	e.Tracks[track].Data.Steps[stepIdx].add(note, velocity, uint16(duration))
}

// stepRecordNoteOff handles a released note whose inputNotes entry the
// caller has already cleared; once no input notes remain held, the cursor
// advances and wraps to the next division.
func (e *Engine) stepRecordNoteOff(track int, note uint8) {
	for n := range e.inputNotes {
		if e.inputNotes[n] {
			return
		}
	}

	_, loopLen := e.cachedQuantize(track)
	divIdx := clampInt(e.trackRaw(track, TrackDivision), 0, len(quantizeValues)-1)
	quantize := findValidQuantize(loopLen, quantizeValues[divIdx])
	numDivisions := loopLen / quantize
	if numDivisions < 1 {
		numDivisions = 1
	}
	e.stepRecPos++
	if e.stepRecPos > numDivisions {
		e.stepRecPos = 1
	}
}
