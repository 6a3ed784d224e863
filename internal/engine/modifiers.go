package engine

import "midilooper/internal/prng"

// applyContinuousModifiers runs the five probabilistic modifiers in their
// fixed order: Stability, Motion, Randomness, Gravity, Pedal. Each may
// override or adjust the step independently; later modifiers see the
// result of earlier ones.
func (e *Engine) applyContinuousModifiers(track, baseStep, loopLen int) int {
	ts := e.Tracks[track]
	step := baseStep

	if stability := e.trackRaw(track, TrackStability); stability > 0 {
		if ts.Rand.Float01()*100 < float32(stability) {
			if ts.LastStep > 0 {
				step = ts.LastStep
			}
		}
	}

	if motion := e.trackRaw(track, TrackMotion); motion > 0 {
		maxJitter := loopLen * motion / 100
		if maxJitter < 1 {
			maxJitter = 1
		}
		jitter := ts.Rand.Range(-maxJitter, maxJitter)
		step = wrapStep(step+jitter, loopLen)
	}

	if randomness := e.trackRaw(track, TrackRandomness); randomness > 0 {
		if ts.Rand.Float01()*100 < float32(randomness) {
			step = ts.Rand.Range(1, loopLen)
		}
	}

	if gravity := e.trackRaw(track, TrackGravity); gravity > 0 {
		if ts.Rand.Float01()*100 < float32(gravity) {
			anchor := e.trackGravityAnchor(track, loopLen)
			diff := anchor - step
			if diff != 0 {
				if diff > 0 {
					step++
				} else {
					step--
				}
				step = wrapStep(step, loopLen)
			}
		}
	}

	if pedal := e.trackRaw(track, TrackPedal); pedal > 0 {
		if ts.Rand.Float01()*100 < float32(pedal) {
			step = e.trackPedalStep(track, loopLen)
		}
	}

	return step
}

// wrapStep wraps a 1-based step into [1, loopLen], accepting values that
// have drifted arbitrarily far below 1 (motion/gravity jitter).
func wrapStep(step, loopLen int) int {
	return (step-1+loopLen*100)%loopLen + 1
}

// applyBinaryModifiers runs the deterministic accept/reject filters:
// No-Repeat then Step Mask. prevStep is the previous cycle's final step.
func (e *Engine) applyBinaryModifiers(track, step, prevStep, loopLen int) int {
	if e.trackRaw(track, TrackNoRepeat) == 1 && step == prevStep && loopLen > 1 {
		step = step%loopLen + 1
	}

	step = e.applyStepMask(track, step, loopLen)
	return step
}

// applyStepMask scans forward cyclically from step until it lands on a
// step allowed by the track's mask pattern.
func (e *Engine) applyStepMask(track, step, loopLen int) int {
	mask := e.trackRaw(track, TrackStepMask)
	ts := e.Tracks[track]
	for i := 0; i < loopLen; i++ {
		candidate := (step-1+i)%loopLen + 1
		if stepAllowed(mask, candidate, loopLen, &ts.Rand) {
			return candidate
		}
	}
	return step
}

func stepAllowed(mask, step, loopLen int, rnd *prng.State) bool {
	switch mask {
	case MaskAll:
		return true
	case MaskOdds:
		return step%2 == 1
	case MaskEvens:
		return step%2 == 0
	case MaskFirstHalf:
		return step*2 <= loopLen
	case MaskSecondHalf:
		return step*2 > loopLen
	case MaskSparse:
		return step%MaskSparseDivisor == 1
	case MaskDense:
		return step%MaskDenseDivisor != 0
	case MaskRandom:
		return rnd.Float01() < MaskRandomThreshold
	default:
		return true
	}
}
