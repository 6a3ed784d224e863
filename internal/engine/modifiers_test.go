package engine

import "testing"

func TestContinuousModifiersIdentityWhenAllZero(t *testing.T) {
	e := New(1, 1, nil)
	for base := 1; base <= 8; base++ {
		got := e.applyContinuousModifiers(0, base, 8)
		if got != base {
			t.Fatalf("all-zero modifiers changed step %d -> %d", base, got)
		}
	}
}

func TestBinaryModifiersIdentityWhenOff(t *testing.T) {
	e := New(1, 1, nil)
	for step := 1; step <= 8; step++ {
		got := e.applyBinaryModifiers(0, step, step, 8)
		if got != step {
			t.Fatalf("no-repeat off but step %d changed to %d", step, got)
		}
	}
}

func TestNoRepeatAdvancesOnMatch(t *testing.T) {
	e := New(1, 1, nil)
	e.Params[trackParamIndex(0, TrackNoRepeat)] = 1
	got := e.applyBinaryModifiers(0, 3, 3, 8)
	if got != 4 {
		t.Fatalf("no-repeat on matching step: got %d, want 4", got)
	}
}

func TestNoRepeatNoEffectOnLengthOne(t *testing.T) {
	e := New(1, 1, nil)
	e.Params[trackParamIndex(0, TrackNoRepeat)] = 1
	got := e.applyBinaryModifiers(0, 1, 1, 1)
	if got != 1 {
		t.Fatalf("no-repeat with length 1: got %d, want 1", got)
	}
}

func TestStepMaskOddsSkipsEvens(t *testing.T) {
	e := New(1, 1, nil)
	e.Params[trackParamIndex(0, TrackStepMask)] = MaskOdds
	got := e.applyStepMask(0, 2, 8)
	if got%2 != 1 {
		t.Fatalf("odds mask returned even step %d", got)
	}
}

func TestStepMaskAllIsIdentity(t *testing.T) {
	e := New(1, 1, nil)
	e.Params[trackParamIndex(0, TrackStepMask)] = MaskAll
	for s := 1; s <= 8; s++ {
		if got := e.applyStepMask(0, s, 8); got != s {
			t.Fatalf("all mask changed step %d -> %d", s, got)
		}
	}
}
