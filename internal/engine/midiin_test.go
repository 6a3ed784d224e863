package engine

import "testing"

func TestMIDIInChannelFilterDropsOtherChannels(t *testing.T) {
	var calls int
	e := New(1, 1, func(dest uint32, status, d1, d2 uint8) { calls++ })
	e.Params[ParamMidiInCh] = 2 // only channel 1 (0-based) passes
	e.Params[trackParamIndex(0, TrackChannel)] = 5

	e.MIDIIn(withChannel(midiNoteOn, 3), 60, 100) // channel 2 (0-based), filtered out

	if calls != 0 {
		t.Fatal("message on a filtered channel must be dropped entirely")
	}
}

func TestMIDIInPassesThroughWhenChannelsDiffer(t *testing.T) {
	var calls int
	e := New(1, 1, func(dest uint32, status, d1, d2 uint8) { calls++ })
	e.Params[trackParamIndex(0, TrackChannel)] = 5

	e.MIDIIn(withChannel(midiNoteOn, 1), 60, 100)

	if calls == 0 {
		t.Fatal("note-on with differing in/out channel should pass through")
	}
}

func TestMIDIInQuantizesAndRemembersNoteMapping(t *testing.T) {
	e := New(1, 1, nil)
	e.Params[ParamScaleType] = 1 // Ionian
	e.Params[ParamScaleRoot] = 0

	e.MIDIIn(withChannel(midiNoteOn, 1), 61, 100) // C#, should quantize

	if e.noteMap[61] == 61 {
		t.Fatal("note-on under an active scale should be remapped, not left identity")
	}
}

func TestMIDIInStepRecordRoutesOnRecState(t *testing.T) {
	e := New(1, 1, nil)
	e.Params[trackParamIndex(0, TrackLength)] = 8
	e.Record = RecStep
	e.stepRecPos = 1

	e.MIDIIn(withChannel(midiNoteOn, 1), 60, 100)
	e.MIDIIn(withChannel(midiNoteOff, 1), 60, 0)

	if e.Tracks[0].Data.Steps[0].Count != 1 {
		t.Fatalf("step recording should place exactly one event, got %d", e.Tracks[0].Data.Steps[0].Count)
	}
}

func TestMIDIInLiveRecordHoldsNoteUntilOff(t *testing.T) {
	e := New(1, 1, nil)
	e.Params[trackParamIndex(0, TrackLength)] = 8
	e.Record = RecLive

	e.MIDIIn(withChannel(midiNoteOn, 1), 60, 100)
	if !e.Held[60].Active {
		t.Fatal("live recording should hold the note pending note-off")
	}

	e.MIDIIn(withChannel(midiNoteOff, 1), 60, 0)
	if e.Held[60].Active {
		t.Fatal("matching note-off should close out the held note")
	}
}

func TestMIDIInUpdatesInputVelocityDisplay(t *testing.T) {
	e := New(1, 1, nil)
	e.MIDIIn(withChannel(midiNoteOn, 1), 60, 77)
	if e.InputVelocity != 77 {
		t.Fatalf("input velocity should reflect last note-on, got %d", e.InputVelocity)
	}
	e.MIDIIn(withChannel(midiNoteOff, 1), 60, 0)
	if e.InputVelocity != 0 {
		t.Fatal("input velocity should clear once no notes remain held")
	}
}
