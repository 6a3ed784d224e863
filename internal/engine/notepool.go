package engine

const (
	midiNoteOff = 0x80
	midiNoteOn  = 0x90
	midiCC      = 0xB0
)

func (e *Engine) send(destination uint32, status uint8, ch int, data1, data2 uint8) {
	if e.Send == nil {
		return
	}
	e.Send(destination, withChannel(status, ch), data1, data2)
}

// isNoteSharedByOtherTrack reports whether some track other than track
// has an active PlayingNote for note on the same output channel and
// destination it was originally emitted with.
func (e *Engine) isNoteSharedByOtherTrack(track int, note uint8, outCh int, dest uint32) bool {
	for t := 0; t < e.NumTracks; t++ {
		if t == track {
			continue
		}
		pn := &e.Tracks[t].Playing[note]
		if pn.Active && pn.OutChannel == outCh && pn.Destination == dest {
			return true
		}
	}
	return false
}

// sendTrackNotesOff silences every active note on track, deactivates its
// playing-note slots, and drops any delayed notes still pending for it.
// Notes shared with another track on the same channel+destination are not
// silenced, so that track's sustain is not orphaned.
func (e *Engine) sendTrackNotesOff(track int) {
	ts := e.Tracks[track]

	for n := 0; n < 128; n++ {
		pn := &ts.Playing[n]
		if pn.Active {
			if !e.isNoteSharedByOtherTrack(track, uint8(n), pn.OutChannel, pn.Destination) {
				e.send(pn.Destination, midiNoteOff, pn.OutChannel, uint8(n), 0)
			}
		}
		ts.ActiveNotes[n] = 0
		pn.Active = false
	}
	ts.ActiveVelocity = 0

	for i := range e.Delayed {
		if e.Delayed[i].Active && e.Delayed[i].Track == track {
			e.Delayed[i].Active = false
		}
	}
}

// sendAllNotesOff broadcasts one CC-123 (all notes off) per track's
// current output channel and destination.
func (e *Engine) sendAllNotesOff() {
	for t := 0; t < e.NumTracks; t++ {
		e.send(e.trackDestination(t), midiCC, e.trackChannel(t), 123, 0)
	}
}

// scheduleDelayedNote finds the first inactive slot in the delayed pool
// and fills it. Returns false (and logs) if the pool is full, matching
// the documented drop+log overflow policy.
func (e *Engine) scheduleDelayedNote(note, velocity uint8, track, outCh int, duration uint16, delayMs uint16, dest uint32) bool {
	for i := range e.Delayed {
		if !e.Delayed[i].Active {
			e.Delayed[i] = DelayedNote{
				Active:      true,
				Note:        note,
				Velocity:    velocity,
				Track:       track,
				OutChannel:  outCh,
				Duration:    duration,
				DelayMs:     delayMs,
				Destination: dest,
			}
			return true
		}
	}
	e.logf("pool", "delayed note pool exhausted, dropping note %d on track %d", note, track)
	return false
}

// processDelayedNotes advances every active delayed note's remaining
// delay by the block duration dt in milliseconds (minimum 1 ms) and emits
// any that have reached zero.
func (e *Engine) processDelayedNotes(dt float64) {
	decrement := int(dt * 1000)
	if decrement < 1 {
		decrement = 1
	}

	for i := range e.Delayed {
		dn := &e.Delayed[i]
		if !dn.Active {
			continue
		}
		if int(dn.DelayMs) <= decrement {
			e.send(dn.Destination, midiNoteOn, dn.OutChannel, dn.Note, dn.Velocity)

			ts := e.Tracks[dn.Track]
			ts.Playing[dn.Note] = PlayingNote{Active: true, Remaining: dn.Duration, OutChannel: dn.OutChannel, Destination: dn.Destination}
			ts.ActiveNotes[dn.Note] = dn.Velocity
			ts.ActiveVelocity = dn.Velocity

			dn.Active = false
		} else {
			dn.DelayMs -= uint16(decrement)
		}
	}
}

// processNoteDurations decrements every playing note on track and emits
// note-off for any that just expired.
func (e *Engine) processNoteDurations(track int) {
	ts := e.Tracks[track]
	for n := 0; n < 128; n++ {
		pn := &ts.Playing[n]
		if !pn.Active {
			continue
		}
		if pn.Remaining <= 1 {
			if !e.isNoteSharedByOtherTrack(track, uint8(n), pn.OutChannel, pn.Destination) {
				e.send(pn.Destination, midiNoteOff, pn.OutChannel, uint8(n), 0)
			}
			pn.Active = false
			ts.ActiveNotes[n] = 0

			hasActive := false
			for m := 0; m < 128; m++ {
				if ts.ActiveNotes[m] > 0 {
					hasActive = true
					break
				}
			}
			if !hasActive {
				ts.ActiveVelocity = 0
			}
		} else {
			pn.Remaining--
		}
	}
}

// handlePanicOnWrap silences every note on every track and clears the
// delayed-note pool.
func (e *Engine) handlePanicOnWrap() {
	e.sendAllNotesOff()
	for t := 0; t < e.NumTracks; t++ {
		ts := e.Tracks[t]
		for n := 0; n < 128; n++ {
			ts.Playing[n].Active = false
			ts.ActiveNotes[n] = 0
		}
		ts.ActiveVelocity = 0
	}
	for i := range e.Delayed {
		e.Delayed[i].Active = false
	}
}
