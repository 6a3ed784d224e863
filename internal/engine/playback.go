package engine

import "midilooper/internal/scale"

// Trig-condition ratio lookup tables. Index 0 of each pair of tables
// covers periods 2..8; condition codes 1..35 are the positive ratios,
// 36..70 their negation, 71..75 the named specials.
var (
	trigRatioPeriod = [35]int{
		2, 2,
		3, 3, 3,
		4, 4, 4, 4,
		5, 5, 5, 5, 5,
		6, 6, 6, 6, 6, 6,
		7, 7, 7, 7, 7, 7, 7,
		8, 8, 8, 8, 8, 8, 8, 8,
	}
	trigRatioPos = [35]int{
		0, 1,
		0, 1, 2,
		0, 1, 2, 3,
		0, 1, 2, 3, 4,
		0, 1, 2, 3, 4, 5,
		0, 1, 2, 3, 4, 5, 6,
		0, 1, 2, 3, 4, 5, 6, 7,
	}
)

const (
	numTrigRatios = 35

	CondAlways = 0
	CondFirst  = 71
	CondNotFirst = 72
	CondFill     = 73
	CondNotFill  = 74
	CondFixed    = 75
)

// evaluateTrigCondition decides whether the given condition code fires on
// the current loop count, with fillActive reflecting the global Fill
// parameter.
func evaluateTrigCondition(cond, loopCount int, fillActive bool) bool {
	if cond == CondAlways {
		return true
	}
	if cond <= numTrigRatios {
		idx := cond - 1
		return loopCount%trigRatioPeriod[idx] == trigRatioPos[idx]
	}
	if cond <= numTrigRatios*2 {
		idx := cond - numTrigRatios - 1
		return loopCount%trigRatioPeriod[idx] != trigRatioPos[idx]
	}
	switch cond {
	case CondFirst:
		return loopCount == 0
	case CondNotFirst:
		return loopCount != 0
	case CondFill:
		return fillActive
	case CondNotFill:
		return !fillActive
	case CondFixed:
		return true
	default:
		return true
	}
}

// calculateTrackStep runs stage 1 of the step pipeline: Brownian and
// Shuffle carry state across calls and are special-cased here, every
// other direction dispatches through the stateless table.
func (e *Engine) calculateTrackStep(track, loopLen, dir int) int {
	ts := e.Tracks[track]

	switch dir {
	case DirBrownian:
		if ts.ClockCount == 1 {
			ts.BrownianPos = 1
		} else {
			ts.BrownianPos = updateBrownianStep(ts.BrownianPos, loopLen, &ts.Rand)
		}
		return ts.BrownianPos

	case DirShuffle:
		if ts.ShufflePos > loopLen {
			generateShuffleOrder(ts.ShuffleOrder[:], loopLen, &ts.Rand)
			ts.ShufflePos = 1
		}
		step := ts.ShuffleOrder[ts.ShufflePos-1]
		ts.ShufflePos++
		return step

	default:
		return getStepForClock(ts.ClockCount, loopLen, dir, e.trackStride(track), &ts.Rand)
	}
}

// calculateOctaveJump picks a semitone shift for the step about to be
// emitted. Returns 0 when the feature is disabled, bypassed on this play,
// or the probability roll misses.
func (e *Engine) calculateOctaveJump(track int) int {
	octMin := e.trackRaw(track, TrackOctMin)
	octMax := e.trackRaw(track, TrackOctMax)
	if octMin == 0 && octMax == 0 {
		return 0
	}

	ts := e.Tracks[track]
	ts.OctavePlayCount++

	if bypass := e.trackRaw(track, TrackOctBypass); bypass > 0 && ts.OctavePlayCount%bypass == 0 {
		return 0
	}

	prob := e.trackRaw(track, TrackOctProb)
	if float64(ts.Rand.Float01())*100 < float64(prob) {
		return ts.Rand.Range(octMin, octMax) * 12
	}
	return 0
}

// emitNote plays or schedules a single note event, applying velocity
// offset, scale quantization and, on nonzero humanize, a randomized
// delay into the delayed-note pool rather than immediate emission.
func (e *Engine) emitNote(track int, ev NoteEvent, velOffset, humanize, outCh int, dest uint32, noteShift int) {
	ts := e.Tracks[track]
	root, typ := e.scaleParams()

	actualNote := clampInt(int(ev.Note)+noteShift, 0, 127)
	actualNote = scale.Quantize(actualNote, root, typ)
	velocity := clampInt(int(ev.Velocity)+velOffset, 0, 127)

	delay := 0
	if humanize > 0 {
		delay = ts.Rand.Range(0, humanize)
	}

	if delay == 0 {
		e.send(dest, midiNoteOn, outCh, uint8(actualNote), uint8(velocity))
		ts.Playing[actualNote] = PlayingNote{Active: true, Remaining: ev.Duration, OutChannel: outCh, Destination: dest}
		ts.ActiveNotes[actualNote] = uint8(velocity)
		ts.ActiveVelocity = uint8(velocity)
	} else {
		e.scheduleDelayedNote(uint8(actualNote), uint8(velocity), track, outCh, ev.Duration, uint16(delay), dest)
	}
}

// playTrackEvents emits every event stored on finalStep, applying one
// shared octave shift to the whole step (fixed conditions never shift).
func (e *Engine) playTrackEvents(track, finalStep int, velOffset, humanize, outCh int, dest uint32, fixed bool) {
	stepIdx := finalStep - 1
	if stepIdx < 0 || stepIdx >= MaxSteps {
		return
	}
	evs := &e.Tracks[track].Data.Steps[stepIdx]
	if evs.Count == 0 {
		return
	}

	noteShift := 0
	if !fixed {
		noteShift = e.calculateOctaveJump(track)
	}
	for i := 0; i < evs.Count; i++ {
		e.emitNote(track, evs.Events[i], velOffset, humanize, outCh, dest, noteShift)
	}
}

// processTrack runs the full per-clock-tick pipeline for one track: note
// duration countdown, enable/disable transition, the three-stage step
// calculation, wrap/panic handling, and trig-gated emission.
func (e *Engine) processTrack(track int, panicOnWrap bool) {
	ts := e.Tracks[track]
	loopLen := e.trackLength(track)
	outCh := e.trackChannel(track)
	dest := e.trackDestination(track)

	e.processNoteDurations(track)

	enabled := e.trackEnabled(track)
	if !enabled && ts.LastEnabled {
		e.sendTrackNotesOff(track)
	}
	ts.LastEnabled = enabled

	ts.ClockCount++
	prevPos := ts.Step

	dir := e.trackDirection(track)
	baseStep := e.calculateTrackStep(track, loopLen, dir)
	modifiedStep := e.applyContinuousModifiers(track, baseStep, loopLen)
	finalStep := e.applyBinaryModifiers(track, modifiedStep, ts.LastStep, loopLen)

	ts.LastStep = finalStep
	ts.Step = finalStep

	wrapped := detectWrap(prevPos, finalStep, loopLen, dir, ts.ClockCount)
	if wrapped && ts.ClockCount > 1 {
		ts.LoopCount++
	}
	if wrapped && panicOnWrap {
		e.handlePanicOnWrap()
	}

	if !enabled {
		return
	}

	fillActive := e.globalParam(ParamFill) == 1
	stepCond := e.trackRaw(track, TrackStepCond)
	if !evaluateTrigCondition(stepCond, ts.LoopCount, fillActive) {
		return
	}

	condStepA := e.trackRaw(track, TrackCondStepA)
	condStepB := e.trackRaw(track, TrackCondStepB)
	condA := e.trackRaw(track, TrackCondA)
	condB := e.trackRaw(track, TrackCondB)

	stepCondMet := true
	if condStepA > 0 && finalStep == condStepA {
		stepCondMet = evaluateTrigCondition(condA, ts.LoopCount, fillActive)
	}
	if condStepB > 0 && finalStep == condStepB {
		stepCondMet = evaluateTrigCondition(condB, ts.LoopCount, fillActive)
	}
	if !stepCondMet {
		return
	}

	fixed := stepCond == CondFixed
	if condStepA > 0 && finalStep == condStepA && condA == CondFixed {
		fixed = true
	}
	if condStepB > 0 && finalStep == condStepB && condB == CondFixed {
		fixed = true
	}

	prob := e.trackRaw(track, TrackStepProb)
	if condStepA > 0 && finalStep == condStepA {
		prob = e.trackRaw(track, TrackProbA)
	}
	if condStepB > 0 && finalStep == condStepB {
		prob = e.trackRaw(track, TrackProbB)
	}
	if fixed {
		prob = 100
	}

	if prob >= 100 || int(ts.Rand.Float01()*100) < prob {
		e.playTrackEvents(track, finalStep, e.trackVelocityOffset(track), e.trackHumanize(track), outCh, dest, fixed)
	}
}
