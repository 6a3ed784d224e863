package engine

import "testing"

func TestEvaluateTrigConditionAlways(t *testing.T) {
	if !evaluateTrigCondition(CondAlways, 7, false) {
		t.Fatal("Always must fire on every loop count")
	}
}

func TestEvaluateTrigConditionRatio(t *testing.T) {
	// cond=1 is period 2, position 0: fires on even loop counts.
	for lc := 0; lc < 6; lc++ {
		got := evaluateTrigCondition(1, lc, false)
		want := lc%2 == 0
		if got != want {
			t.Fatalf("cond=1 lc=%d: got %v want %v", lc, got, want)
		}
	}
}

func TestEvaluateTrigConditionNegatedRatio(t *testing.T) {
	positive := evaluateTrigCondition(1, 4, false)
	negated := evaluateTrigCondition(1+numTrigRatios, 4, false)
	if positive == negated {
		t.Fatalf("negated ratio must be the complement of its positive counterpart")
	}
}

func TestEvaluateTrigConditionSpecials(t *testing.T) {
	if !evaluateTrigCondition(CondFirst, 0, false) {
		t.Fatal("First should fire at loopCount 0")
	}
	if evaluateTrigCondition(CondFirst, 1, false) {
		t.Fatal("First should not fire after loop 0")
	}
	if !evaluateTrigCondition(CondFill, 0, true) {
		t.Fatal("Fill should fire when fillActive")
	}
	if evaluateTrigCondition(CondNotFill, 0, true) {
		t.Fatal("!Fill should not fire when fillActive")
	}
	if !evaluateTrigCondition(CondFixed, 99, false) {
		t.Fatal("Fixed always evaluates true")
	}
}

func TestProcessTrackEmitsOnForwardStep(t *testing.T) {
	var sent []uint8
	e := New(1, 1, func(dest uint32, status, d1, d2 uint8) {
		sent = append(sent, status&0xF0)
	})
	e.Params[trackParamIndex(0, TrackEnabled)] = 1
	e.Params[trackParamIndex(0, TrackLength)] = 4
	e.Params[trackParamIndex(0, TrackChannel)] = 1
	e.Params[trackParamIndex(0, TrackStepProb)] = 100
	e.ParameterChanged(trackParamIndex(0, TrackLength))
	e.Tracks[0].Data.Steps[0].add(60, 100, 2)

	e.processTrack(0, false)

	if len(sent) == 0 || sent[0] != midiNoteOn {
		t.Fatalf("expected a note-on on the first step, got %v", sent)
	}
}

func TestProcessTrackDisabledNeverEmits(t *testing.T) {
	var sent int
	e := New(1, 1, func(dest uint32, status, d1, d2 uint8) { sent++ })
	e.Params[trackParamIndex(0, TrackLength)] = 4
	e.Tracks[0].Data.Steps[0].add(60, 100, 2)

	e.processTrack(0, false)

	if sent != 0 {
		t.Fatalf("disabled track must never emit, sent %d messages", sent)
	}
}

func TestProcessTrackWrapIncrementsLoopCount(t *testing.T) {
	e := New(1, 1, nil)
	e.Params[trackParamIndex(0, TrackEnabled)] = 1
	e.Params[trackParamIndex(0, TrackLength)] = 2

	e.processTrack(0, false) // step 1
	e.processTrack(0, false) // step 2
	if e.Tracks[0].LoopCount != 0 {
		t.Fatalf("no wrap yet, loop count should be 0, got %d", e.Tracks[0].LoopCount)
	}
	e.processTrack(0, false) // wraps back to step 1
	if e.Tracks[0].LoopCount != 1 {
		t.Fatalf("expected loop count 1 after wrap, got %d", e.Tracks[0].LoopCount)
	}
}

func TestProcessTrackPanicOnWrapSilencesBothTracks(t *testing.T) {
	var ccSent int
	e := New(2, 1, func(dest uint32, status, d1, d2 uint8) {
		if status&0xF0 == midiCC && d1 == 123 {
			ccSent++
		}
	})
	e.Params[ParamPanicOnWrap] = 1
	e.Params[trackParamIndex(0, TrackEnabled)] = 1
	e.Params[trackParamIndex(0, TrackLength)] = 2
	e.Params[trackParamIndex(1, TrackEnabled)] = 1
	e.Params[trackParamIndex(1, TrackLength)] = 4

	e.Tracks[0].Playing[60] = PlayingNote{Active: true, Remaining: 99, OutChannel: 1}
	e.Tracks[1].Playing[64] = PlayingNote{Active: true, Remaining: 99, OutChannel: 2}
	e.Delayed[0] = DelayedNote{Active: true, Note: 70, Track: 1}

	e.processTrack(0, true) // step 1
	e.processTrack(0, true) // step 2
	if e.Tracks[0].Playing[60].Active != true || e.Tracks[1].Playing[64].Active != true {
		t.Fatal("no wrap yet, panic must not have fired")
	}

	e.processTrack(0, true) // wraps back to step 1, panic fires

	if e.Tracks[0].Playing[60].Active {
		t.Fatal("panic on wrap must silence track 0's playing notes")
	}
	if e.Tracks[1].Playing[64].Active {
		t.Fatal("panic on wrap must silence track 1's playing notes too")
	}
	if e.Delayed[0].Active {
		t.Fatal("panic on wrap must clear the delayed-note pool")
	}
	if ccSent != 2 {
		t.Fatalf("expected one all-notes-off broadcast per track, got %d", ccSent)
	}
}

func TestCalculateTrackStepUsesConfiguredStride(t *testing.T) {
	e := New(1, 1, nil)
	e.Params[trackParamIndex(0, TrackDirection)] = DirStride
	e.Params[trackParamIndex(0, TrackStride)] = 3
	ts := e.Tracks[0]

	ts.ClockCount = 1
	got := e.calculateTrackStep(0, 8, DirStride)
	want := dirStride(1, 8, 3, &ts.Rand)
	if got != want {
		t.Fatalf("calculateTrackStep should use the track's configured stride, got %d want %d", got, want)
	}
}

func TestCalculateOctaveJumpDisabledWhenRangeZero(t *testing.T) {
	e := New(1, 1, nil)
	if got := e.calculateOctaveJump(0); got != 0 {
		t.Fatalf("zero octave range must never shift, got %d", got)
	}
}

func TestCalculateOctaveJumpBypassEveryNth(t *testing.T) {
	e := New(1, 1, nil)
	e.Params[trackParamIndex(0, TrackOctMin)] = 1
	e.Params[trackParamIndex(0, TrackOctMax)] = 1
	e.Params[trackParamIndex(0, TrackOctProb)] = 100
	e.Params[trackParamIndex(0, TrackOctBypass)] = 2

	first := e.calculateOctaveJump(0)
	second := e.calculateOctaveJump(0)
	if first == 0 {
		t.Fatal("first play should not be bypassed")
	}
	if second != 0 {
		t.Fatalf("second play should be bypassed by every-2nd rule, got %d", second)
	}
}
