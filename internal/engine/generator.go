package engine

import "midilooper/internal/scale"

// Generate runs the generator mode selected by GenMode against track.
// It first emits an all-notes-off for the track, matching the host's
// contract that the generator never runs concurrently with an
// in-progress emission for that track.
func (e *Engine) Generate(track int) {
	if track < 0 || track >= e.NumTracks {
		return
	}
	e.sendTrackNotesOff(track)

	switch e.globalParam(ParamGenMode) {
	case GenModeNew:
		e.generateNew(track)
	case GenModeReorder:
		e.generateReorder(track)
	case GenModeRepitch:
		e.generateRepitch(track)
	case GenModeInvert:
		e.generateInvert(track)
	}
}

func (e *Engine) scaleParams() (root int, typ scale.Type) {
	return e.globalParam(ParamScaleRoot), scale.Type(e.globalParam(ParamScaleType))
}

// generateNew clears the track, then for each division-aligned step rolls
// density and, if accepted, writes a bias±spread note with a
// density/gate-rand duration. A second "ties" pass extends accepted notes
// to reach the next occupied step.
func (e *Engine) generateNew(track int) {
	ts := e.Tracks[track]
	density := e.globalParam(ParamGenDensity)
	bias := e.globalParam(ParamGenBias)
	rng := e.globalParam(ParamGenRange)
	noteRand := e.globalParam(ParamGenNoteRand)
	velVar := e.globalParam(ParamGenVelVar)
	ties := e.globalParam(ParamGenTies)
	gateRand := e.globalParam(ParamGenGateRand)
	root, typ := e.scaleParams()

	quantize, loopLen := e.cachedQuantize(track)
	ts.Data.clear()

	for s := 1; s <= loopLen; s++ {
		if quantize > 1 && (s-1)%quantize != 0 {
			continue
		}
		if ts.Rand.Range(1, 100) > density {
			continue
		}

		spread := rng * noteRand / 100
		note := bias
		if spread > 0 {
			note = bias + ts.Rand.Range(-spread, spread)
		}
		note = clampInt(note, 0, 127)
		note = scale.Quantize(note, root, typ)

		velSpread := 100 * velVar / 200
		vel := 100
		if velSpread > 0 {
			vel = 100 + ts.Rand.Range(-velSpread, velSpread)
		}
		vel = clampInt(vel, 1, 127)

		maxDur := 1
		if quantize > 1 {
			maxDur = quantize
		}
		minDur := maxDur - maxDur*gateRand/100
		if minDur < 1 {
			minDur = 1
		}
		dur := maxDur
		if minDur < maxDur {
			dur = ts.Rand.Range(minDur, maxDur)
		}

		ts.Data.Steps[s-1].add(uint8(note), uint8(vel), uint16(dur))
	}

	if ties <= 0 {
		return
	}
	for s := 0; s < loopLen; s++ {
		evs := &ts.Data.Steps[s]
		if evs.Count == 0 {
			continue
		}
		if ts.Rand.Range(1, 100) > ties {
			continue
		}
		dist := 0
		for d := 1; d <= loopLen-1; d++ {
			if ts.Data.Steps[(s+d)%loopLen].Count > 0 {
				dist = d
				break
			}
		}
		if dist == 0 {
			continue
		}
		for i := 0; i < evs.Count; i++ {
			evs.Events[i].Duration = uint16(dist)
		}
	}
}

type collectedNote struct {
	note, velocity uint8
	duration       uint16
}

// generateReorder collects every event on the track, Fisher-Yates
// shuffles them, and redistributes them back onto the same occupied-step
// positions so the rhythm is preserved but pitches are permuted.
func (e *Engine) generateReorder(track int) {
	ts := e.Tracks[track]
	_, loopLen := e.cachedQuantize(track)

	var collected []collectedNote
	var positions []int
	var counts []int
	for s := 0; s < loopLen; s++ {
		evs := &ts.Data.Steps[s]
		if evs.Count == 0 {
			continue
		}
		positions = append(positions, s)
		counts = append(counts, evs.Count)
		for i := 0; i < evs.Count; i++ {
			collected = append(collected, collectedNote{evs.Events[i].Note, evs.Events[i].Velocity, evs.Events[i].Duration})
		}
	}
	if len(collected) == 0 {
		return
	}

	for i := len(collected) - 1; i > 0; i-- {
		j := ts.Rand.Range(0, i)
		collected[i], collected[j] = collected[j], collected[i]
	}

	ts.Data.clear()
	idx := 0
	for p, s := range positions {
		for c := 0; c < counts[p] && idx < len(collected); c++ {
			n := collected[idx]
			ts.Data.Steps[s].add(n.note, n.velocity, n.duration)
			idx++
		}
	}
}

// generateRepitch overwrites every event's note with a fresh bias±spread
// pick, keeping velocity, duration, and rhythm untouched.
func (e *Engine) generateRepitch(track int) {
	ts := e.Tracks[track]
	bias := e.globalParam(ParamGenBias)
	rng := e.globalParam(ParamGenRange)
	noteRand := e.globalParam(ParamGenNoteRand)
	root, typ := e.scaleParams()
	_, loopLen := e.cachedQuantize(track)

	spread := rng * noteRand / 100

	for s := 0; s < loopLen; s++ {
		evs := &ts.Data.Steps[s]
		for i := 0; i < evs.Count; i++ {
			note := bias
			if spread > 0 {
				note = bias + ts.Rand.Range(-spread, spread)
			}
			note = clampInt(note, 0, 127)
			evs.Events[i].Note = uint8(scale.Quantize(note, root, typ))
		}
	}
}

// generateInvert reverses the step sequence in place, re-clamping every
// event's duration so it never runs past the new end of the loop.
func (e *Engine) generateInvert(track int) {
	ts := e.Tracks[track]
	_, loopLen := e.cachedQuantize(track)

	left, right := 0, loopLen-1
	for left < right {
		ts.Data.Steps[left], ts.Data.Steps[right] = ts.Data.Steps[right], ts.Data.Steps[left]

		clampStepDurations(&ts.Data.Steps[left], loopLen-left)
		clampStepDurations(&ts.Data.Steps[right], loopLen-right)

		left++
		right--
	}
}

func clampStepDurations(evs *StepEvents, maxDur int) {
	for i := 0; i < evs.Count; i++ {
		if int(evs.Events[i].Duration) > maxDur {
			evs.Events[i].Duration = uint16(maxDur)
		}
	}
}
