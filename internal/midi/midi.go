// Package midi wires the engine's abstract three-byte send/receive
// contract to real MIDI hardware or virtual ports via gomidi/v2.
package midi

import (
	"fmt"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"midilooper/internal/engine"
)

// Port pairs an opened output send function with the driver port it
// came from, so it can be closed on shutdown.
type Port struct {
	out  drivers.Out
	send func(gomidi.Message) error
}

// OpenOutput opens the first output port whose name contains substr
// (case-insensitive). An empty substr opens the first available port.
func OpenOutput(substr string) (*Port, error) {
	outs := gomidi.GetOutPorts()
	idx := findPort(outs, substr)
	if idx < 0 {
		return nil, fmt.Errorf("midi: no output port matching %q", substr)
	}

	send, err := gomidi.SendTo(outs[idx])
	if err != nil {
		return nil, fmt.Errorf("midi: open output %q: %w", outs[idx].String(), err)
	}
	return &Port{out: outs[idx], send: send}, nil
}

func (p *Port) Close() error {
	return p.out.Close()
}

func (p *Port) String() string {
	return p.out.String()
}

// Send adapts a Port to engine.MIDIOut. destination is accepted but
// ignored: a Port is a single physical/virtual wire, and every message
// goes out on it whatever its destination mask.
func (p *Port) Send(destination uint32, statusWithChannel, data1, data2 uint8) {
	msg := rawMessage(statusWithChannel, data1, data2)
	_ = p.send(msg)
}

func rawMessage(status, data1, data2 uint8) gomidi.Message {
	switch status & 0xF0 {
	case 0x80:
		return gomidi.NoteOff(status&0x0F, data1)
	case 0x90:
		return gomidi.NoteOn(status&0x0F, data1, data2)
	case 0xB0:
		return gomidi.ControlChange(status&0x0F, data1, data2)
	default:
		return gomidi.Message{status, data1, data2}
	}
}

// Input listens on the first input port matching substr and forwards
// every note on/off and CC message to e.MIDIIn as raw three-byte
// triplets, exactly as the engine's MIDI-in contract expects.
type Input struct {
	in   drivers.In
	stop func()
}

// OpenInput opens and starts listening on the first input port whose
// name contains substr.
func OpenInput(substr string, e *engine.Engine) (*Input, error) {
	ins := gomidi.GetInPorts()
	idx := findPort(ins, substr)
	if idx < 0 {
		return nil, fmt.Errorf("midi: no input port matching %q", substr)
	}

	stop, err := gomidi.ListenTo(ins[idx], func(msg gomidi.Message, _ int32) {
		raw := msg.Bytes()
		if len(raw) < 3 {
			return
		}
		e.MIDIIn(raw[0], raw[1], raw[2])
	})
	if err != nil {
		return nil, fmt.Errorf("midi: open input %q: %w", ins[idx].String(), err)
	}

	return &Input{in: ins[idx], stop: stop}, nil
}

func (i *Input) Close() error {
	i.stop()
	return i.in.Close()
}

func (i *Input) String() string {
	return i.in.String()
}

type namedPort interface {
	String() string
}

func findPort[T namedPort](ports []T, substr string) int {
	if substr == "" && len(ports) > 0 {
		return 0
	}
	needle := strings.ToLower(substr)
	for i, p := range ports {
		if strings.Contains(strings.ToLower(p.String()), needle) {
			return i
		}
	}
	return -1
}

// ListPorts returns the names of every available input and output port,
// for CLI port-selection prompts.
func ListPorts() (ins, outs []string) {
	for _, p := range gomidi.GetInPorts() {
		ins = append(ins, p.String())
	}
	for _, p := range gomidi.GetOutPorts() {
		outs = append(outs, p.String())
	}
	return ins, outs
}
