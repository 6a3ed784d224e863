package engine

import "midilooper/internal/scale"

// MIDIIn is the engine's single MIDI-in entry point. It quantizes
// incoming notes to scale, passes them through to the current record
// track's output when the channels differ, updates held-input display
// state, and routes to step or live recording depending on Record.
func (e *Engine) MIDIIn(status, data1, data2 uint8) {
	msgStatus := status & 0xF0
	channel := int(status & 0x0F)

	channelFilter := e.globalParam(ParamMidiInCh)
	if channelFilter > 0 && channel != channelFilter-1 {
		return
	}

	track := clampInt(e.globalParam(ParamRecTrack), 0, e.NumTracks-1)
	outCh := e.trackChannel(track)
	dest := e.trackDestination(track)

	isNoteOn := msgStatus == midiNoteOn && data2 > 0
	isNoteOff := msgStatus == midiNoteOff || (msgStatus == midiNoteOn && data2 == 0)

	note := data1
	if isNoteOn {
		root, typ := e.scaleParams()
		quantized := uint8(scale.Quantize(int(data1), root, typ))
		e.noteMap[data1] = quantized
		note = quantized
	} else if isNoteOff {
		note = e.noteMap[data1]
	}

	if isNoteOn || isNoteOff {
		inCh := channel + 1
		if inCh != outCh {
			e.send(dest, msgStatus, outCh, note, data2)
		}
	}

	if isNoteOn {
		e.inputNotes[note] = true
		e.InputVelocity = data2
	} else if isNoteOff {
		e.inputNotes[note] = false
		anyHeld := false
		for n := range e.inputNotes {
			if e.inputNotes[n] {
				anyHeld = true
				break
			}
		}
		if !anyHeld {
			e.InputVelocity = 0
		}
	}

	if e.Record == RecStep {
		if isNoteOn {
			e.stepRecordNoteOn(track, note, data2)
		} else if isNoteOff {
			e.stepRecordNoteOff(track, note)
		}
		return
	}

	if e.Record != RecLive {
		return
	}

	ctx := e.newRecordingContext(track)
	if isNoteOn {
		e.recordNoteOn(ctx, note, data2)
	} else if isNoteOff {
		e.recordNoteOff(ctx, note)
	}
}
