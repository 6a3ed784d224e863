package engine

// Process runs one audio block through the dispatcher. busFrames is laid
// out frames*numBuses, bus-major (bus b, frame f at b*numFrames+f).
// sampleRate is in Hz. This is the engine's single per-block entry point;
// the host is responsible for serializing calls to it, MIDIIn and
// ParameterChanged on the audio thread.
func (e *Engine) Process(busFrames []float32, numFrames, numBuses, sampleRate int) {
	if numFrames <= 0 || sampleRate <= 0 {
		return
	}
	dt := float64(numFrames) / float64(sampleRate)

	gateVal := e.busLastSample(busFrames, numFrames, numBuses, e.globalParam(ParamRunBus))
	clockVal := e.busLastSample(busFrames, numFrames, numBuses, e.globalParam(ParamClockBus))

	gateHigh := gateVal > GateThresholdHigh
	gateLow := gateVal < GateThresholdLow
	clockHigh := clockVal > GateThresholdHigh
	clockLow := clockVal < GateThresholdLow

	if gateHigh && !e.prevGateHigh {
		e.handleTransportStart()
	} else if gateLow && e.prevGateHigh {
		e.handleTransportStop()
	}
	e.prevGateHigh = gateHigh && !gateLow

	clockRising := clockHigh && !e.prevClockHigh
	e.prevClockHigh = clockHigh && !clockLow

	e.processLatchedParams()

	e.stepTime += dt
	e.processDelayedNotes(dt)

	e.stepRecorderStateMachine()

	if clockRising && e.Transport == TransportRunning {
		if e.stepTime > 1e-6 {
			e.stepDuration = e.stepTime
		}
		e.stepTime = 0

		panicOnWrap := e.globalParam(ParamPanicOnWrap) == 1
		for t := 0; t < e.NumTracks; t++ {
			ts := e.Tracks[t]
			ts.DivCounter++
			if ts.DivCounter >= e.trackClockDiv(t) {
				ts.DivCounter = 0
				e.processTrack(t, panicOnWrap)
			}
		}
	}
}

func (e *Engine) busLastSample(busFrames []float32, numFrames, numBuses, bus int) float64 {
	if bus <= 0 || bus > numBuses {
		return 0
	}
	idx := (bus-1)*numFrames + numFrames - 1
	if idx < 0 || idx >= len(busFrames) {
		return 0
	}
	return float64(busFrames[idx])
}

// processLatchedParams detects rising edges on Clear Track, Clear All and
// Generate, each firing at most once per edge.
func (e *Engine) processLatchedParams() {
	clearTrack := e.globalParam(ParamClearTrack)
	if clearTrack != int(e.lastClearTrack) {
		if clearTrack == 1 {
			track := e.globalParam(ParamRecTrack)
			if track >= 0 && track < e.NumTracks {
				e.sendTrackNotesOff(track)
				e.Tracks[track].Data.clear()
			}
		}
		e.lastClearTrack = int16(clearTrack)
	}

	clearAll := e.globalParam(ParamClearAll)
	if clearAll != int(e.lastClearAll) {
		if clearAll == 1 {
			for t := 0; t < e.NumTracks; t++ {
				e.sendTrackNotesOff(t)
				e.Tracks[t].Data.clear()
			}
		}
		e.lastClearAll = int16(clearAll)
	}

	generate := e.globalParam(ParamGenerate)
	if generate != int(e.lastGenerate) {
		if generate == 1 {
			e.Generate(e.globalParam(ParamRecTrack))
		}
		e.lastGenerate = int16(generate)
	}
}

// stepRecorderStateMachine advances the Record state per §4.8, consuming
// the Record/RecMode edges and handling recording-track changes.
func (e *Engine) stepRecorderStateMachine() {
	record := e.globalParam(ParamRecord)
	recMode := e.globalParam(ParamRecMode)
	recTrack := e.globalParam(ParamRecTrack)
	isStepMode := recMode == RecModeStep

	if recTrack != int(e.lastTrack) {
		e.clearHeldNotes()
		if e.Record == RecStep {
			e.stepRecPos = 1
		}
		e.lastTrack = int16(recTrack)
	}

	recordChanged := record != int(e.lastRecord)

	switch e.Record {
	case RecIdle:
		if recordChanged && record == 1 {
			if isStepMode {
				e.stepRecPos = 1
				e.Record = RecStep
			} else if e.Transport == TransportRunning {
				if recMode == RecModeReplace {
					e.Tracks[recTrack].Data.clear()
				}
				e.Record = RecLive
			} else {
				e.Record = RecLivePending
			}
		}

	case RecLive:
		if recordChanged && record == 0 {
			e.finalizeHeldNotes()
			e.Record = RecIdle
		} else if isStepMode {
			e.finalizeHeldNotes()
			e.stepRecPos = 1
			e.Record = RecStep
		}

	case RecStep:
		if recordChanged && record == 0 {
			e.stepRecPos = 0
			e.Record = RecIdle
		} else if !isStepMode {
			e.stepRecPos = 0
			if e.Transport == TransportRunning {
				if recMode == RecModeReplace {
					e.Tracks[recTrack].Data.clear()
				}
				e.Record = RecLive
			} else {
				e.Record = RecLivePending
			}
		}

	case RecLivePending:
		if recordChanged && record == 0 {
			e.Record = RecIdle
		} else if isStepMode {
			e.stepRecPos = 1
			e.Record = RecStep
		} else if e.Transport == TransportRunning {
			if recMode == RecModeReplace {
				e.Tracks[recTrack].Data.clear()
			}
			e.Record = RecLive
		}
	}

	e.lastRecord = int16(record)
}
