package engine

import "midilooper/internal/prng"

// dirFn computes the 1-based step for a clock tick under a stateless
// direction mode.
type dirFn func(clockCount, loopLen, stride int, rnd *prng.State) int

func dirForward(clockCount, loopLen, _ int, _ *prng.State) int {
	return (clockCount-1)%loopLen + 1
}

func dirReverse(clockCount, loopLen, _ int, _ *prng.State) int {
	return loopLen - (clockCount-1)%loopLen
}

func dirPendulum(clockCount, loopLen, _ int, _ *prng.State) int {
	cycle := 2 * (loopLen - 1)
	pos := (clockCount - 1) % cycle
	if pos < loopLen {
		return pos + 1
	}
	return 2*loopLen - 1 - pos
}

func dirPingPong(clockCount, loopLen, _ int, _ *prng.State) int {
	cycle := 2 * loopLen
	pos := (clockCount - 1) % cycle
	if pos < loopLen {
		return pos + 1
	}
	return 2*loopLen - pos
}

func dirStride(clockCount, loopLen, stride int, _ *prng.State) int {
	return (clockCount-1)*stride%loopLen + 1
}

func dirOddEven(clockCount, loopLen, _ int, _ *prng.State) int {
	pos := (clockCount-1)%loopLen + 1
	numOdds := (loopLen + 1) / 2
	if pos <= numOdds {
		return (pos-1)*2 + 1
	}
	return (pos - numOdds) * 2
}

func dirHopscotch(clockCount, loopLen, _ int, _ *prng.State) int {
	pos := (clockCount-1)%(loopLen*2) + 1
	stepIndex := (pos + 1) / 2
	if pos%2 == 1 {
		return (stepIndex-1)%loopLen + 1
	}
	nextForward := stepIndex%loopLen + 1
	return nextForward
}

func dirConverge(clockCount, loopLen, _ int, _ *prng.State) int {
	pos := (clockCount-1)%loopLen + 1
	pairIndex := (pos + 1) / 2
	if pos%2 == 1 {
		return pairIndex
	}
	return loopLen - pairIndex + 1
}

func dirDiverge(clockCount, loopLen, _ int, _ *prng.State) int {
	pos := (clockCount-1)%loopLen + 1
	mid := (loopLen + 1) / 2
	pairIndex := (pos + 1) / 2
	if pos%2 == 1 {
		return mid - pairIndex + 1
	}
	return mid + pairIndex
}

func dirRandom(_, loopLen, _ int, rnd *prng.State) int {
	return rnd.Range(1, loopLen)
}

// dirStatelessPlaceholder stands in for Brownian/Shuffle in the dispatch
// table; both are handled specially by calculateTrackStep because they
// carry state across calls.
func dirStatelessPlaceholder(clockCount, loopLen, _ int, _ *prng.State) int {
	return (clockCount-1)%loopLen + 1
}

var directionTable = [numDirections]dirFn{
	DirForward:   dirForward,
	DirReverse:   dirReverse,
	DirPendulum:  dirPendulum,
	DirPingPong:  dirPingPong,
	DirStride:    dirStride,
	DirOddEven:   dirOddEven,
	DirHopscotch: dirHopscotch,
	DirConverge:  dirConverge,
	DirDiverge:   dirDiverge,
	DirBrownian:  dirStatelessPlaceholder,
	DirRandom:    dirRandom,
	DirShuffle:   dirStatelessPlaceholder,
}

// getStepForClock dispatches to a stateless direction mode. Out-of-range
// dir codes fall back to Forward.
func getStepForClock(clockCount, loopLen, dir, stride int, rnd *prng.State) int {
	if loopLen == 1 {
		return 1
	}
	if clockCount < 1 {
		return 0
	}
	if dir < 0 || dir >= numDirections {
		return dirForward(clockCount, loopLen, stride, rnd)
	}
	return directionTable[dir](clockCount, loopLen, stride, rnd)
}

// updateBrownianStep advances a Brownian walk by a delta in
// [BrownianDeltaMin, BrownianDeltaMax], forcing a zero delta to +1 so the
// walk always moves, then wraps into [1, loopLen].
func updateBrownianStep(pos, loopLen int, rnd *prng.State) int {
	delta := rnd.Range(BrownianDeltaMin, BrownianDeltaMax)
	if delta == 0 {
		delta = 1
	}
	newPos := pos + delta
	return (newPos-1+loopLen*100)%loopLen + 1
}

// generateShuffleOrder fills order[0:loopLen] with a Fisher-Yates
// permutation of 1..loopLen.
func generateShuffleOrder(order []int, loopLen int, rnd *prng.State) {
	for i := 0; i < loopLen; i++ {
		order[i] = i + 1
	}
	for i := loopLen - 1; i >= 1; i-- {
		j := rnd.Range(0, i)
		order[i], order[j] = order[j], order[i]
	}
}

// wrapFn reports whether currPos completes a full cycle given the
// previous position and clock count.
type wrapFn func(prevPos, currPos, loopLen, clockCount int) bool

func wrapForward(prevPos, currPos, loopLen, _ int) bool {
	return currPos == 1 && prevPos == loopLen
}

func wrapReverse(prevPos, currPos, loopLen, _ int) bool {
	return currPos == loopLen && prevPos == 1
}

func wrapPendulum(prevPos, currPos, loopLen, _ int) bool {
	return (currPos == 1 && prevPos == 2) || (currPos == loopLen && prevPos == loopLen-1)
}

func wrapPingPong(_, _, loopLen, clockCount int) bool {
	cycle := 2 * loopLen
	return (clockCount-1)%cycle == 0
}

func wrapStride(_, currPos, _, clockCount int) bool {
	return clockCount > 1 && currPos == 1
}

func wrapCyclic(_, _, loopLen, clockCount int) bool {
	return clockCount > 1 && (clockCount-1)%loopLen == 0
}

func wrapHopscotch(_, _, loopLen, clockCount int) bool {
	return clockCount > 1 && (clockCount-1)%(loopLen*2) == 0
}

var wrapTable = [numDirections]wrapFn{
	DirForward:   wrapForward,
	DirReverse:   wrapReverse,
	DirPendulum:  wrapPendulum,
	DirPingPong:  wrapPingPong,
	DirStride:    wrapStride,
	DirOddEven:   wrapCyclic,
	DirHopscotch: wrapHopscotch,
	DirConverge:  wrapCyclic,
	DirDiverge:   wrapCyclic,
	DirBrownian:  wrapCyclic,
	DirRandom:    wrapCyclic,
	DirShuffle:   wrapCyclic,
}

// detectWrap reports whether the most recent step transition completed a
// full cycle for direction mode dir.
func detectWrap(prevPos, currPos, loopLen, dir, clockCount int) bool {
	if prevPos < 1 {
		return false
	}
	if loopLen <= 1 {
		return currPos == 1
	}
	if dir < 0 || dir >= numDirections {
		return wrapForward(prevPos, currPos, loopLen, clockCount)
	}
	return wrapTable[dir](prevPos, currPos, loopLen, clockCount)
}
