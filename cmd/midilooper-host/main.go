// Command midilooper-host runs the sequencing engine against real MIDI
// ports instead of the Eurorack module's CV hardware. It stands in for
// the host firmware: a software clock drives the gate/clock buses the
// engine's Process expects, real MIDI in/out ports carry note traffic,
// and a project is loaded/saved through internal/persist the way the
// module's SD card would.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"midilooper/internal/config"
	"midilooper/internal/debug"
	"midilooper/internal/engine"
	"midilooper/internal/midi"
	"midilooper/internal/persist"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "list" {
		listPorts()
		return
	}

	var (
		inName   = flag.String("in", "", "MIDI input port name substring")
		outName  = flag.String("out", "", "MIDI output port name substring")
		project  = flag.String("project", "untitled", "project name to load/save")
		bpm      = flag.Float64("bpm", 120, "internal clock tempo")
		division = flag.Int("ppq", 4, "clock pulses per quarter note driving the engine's clock bus")
		debugLog = flag.Bool("debug", false, "enable debug logging to ~/.config/midilooper/debug.log")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		cfg = config.DefaultConfig()
	}
	if *debugLog || cfg.DebugLog {
		if err := debug.Enable(); err != nil {
			fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	var sendFn engine.MIDIOut
	out, err := midi.OpenOutput(firstNonEmpty(*outName, cfg.OutputPort.Name))
	if err != nil {
		fmt.Fprintf(os.Stderr, "output port: %v (running without MIDI out)\n", err)
	} else {
		defer out.Close()
		sendFn = out.Send
		fmt.Printf("output: %s\n", out.String())
	}

	e := engine.New(cfg.NumTracks, uint32(time.Now().UnixNano()), sendFn)

	if err := persist.Load(e, *project, ""); err != nil {
		fmt.Printf("project %q: starting empty (%v)\n", *project, err)
	} else {
		fmt.Printf("loaded project %q\n", *project)
	}

	in, err := midi.OpenInput(firstNonEmpty(*inName, cfg.InputPort.Name), e)
	if err != nil {
		fmt.Fprintf(os.Stderr, "input port: %v (running without MIDI in)\n", err)
	} else {
		defer in.Close()
		fmt.Printf("input: %s\n", in.String())
	}

	e.Params[engine.ParamRunBus] = 1
	e.Params[engine.ParamClockBus] = 2

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	fmt.Printf("running at %.1f bpm, %d ppq; Ctrl+C to stop and save\n", *bpm, *division)
	runClock(e, *bpm, *division, sigCh)

	if path, err := persist.Save(e, *project); err != nil {
		fmt.Fprintf(os.Stderr, "save: %v\n", err)
	} else {
		fmt.Printf("saved %s\n", path)
	}
}

// runClock drives e.Process with a software gate/clock pair: the gate
// bus goes high for the duration of the run (transport running) and the
// clock bus pulses once per division, standing in for the CV clock edge
// the real module reads from hardware.
func runClock(e *engine.Engine, bpm float64, ppq int, stop <-chan os.Signal) {
	if ppq < 1 {
		ppq = 1
	}
	pulseInterval := time.Minute / time.Duration(bpm*float64(ppq))
	const sampleRate = 1000
	const numBuses = 2

	ticker := time.NewTicker(pulseInterval)
	defer ticker.Stop()

	gateFrames := []float32{1, 1}
	clockHigh := []float32{1, 1}
	clockLow := []float32{0, 0}

	started := false
	for {
		select {
		case <-stop:
			silence := make([]float32, numBuses*2)
			e.Process(silence, 2, numBuses, sampleRate)
			return
		case <-ticker.C:
			if !started {
				bus := interleave(gateFrames, clockHigh)
				e.Process(bus, 2, numBuses, sampleRate)
				bus = interleave(gateFrames, clockLow)
				e.Process(bus, 2, numBuses, sampleRate)
				started = true
				continue
			}
			bus := interleave(gateFrames, clockHigh)
			e.Process(bus, 2, numBuses, sampleRate)
			bus = interleave(gateFrames, clockLow)
			e.Process(bus, 2, numBuses, sampleRate)
		}
	}
}

// interleave lays out two single-bus frame slices bus-major, matching
// Process's expected (bus, frame) layout for numBuses=2.
func interleave(bus1, bus2 []float32) []float32 {
	out := make([]float32, len(bus1)+len(bus2))
	copy(out, bus1)
	copy(out[len(bus1):], bus2)
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func listPorts() {
	ins, outs := midi.ListPorts()
	fmt.Println("inputs:")
	for _, name := range ins {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println("outputs:")
	for _, name := range outs {
		fmt.Printf("  %s\n", name)
	}
	if len(ins) == 0 && len(outs) == 0 {
		fmt.Println("(none found)")
	}
}
