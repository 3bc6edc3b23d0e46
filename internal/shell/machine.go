package shell

import (
	"strings"
	"unicode/utf8"
)

// State is the lifecycle state of a shell session.
type State int

const (
	StateStarting State = iota
	StatePrompting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StatePrompting:
		return "prompting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Control bytes recognised by the input machine.
const (
	keyInterrupt = 0x03 // Ctrl-C
	keyBackspace = 0x08
	keyTab       = 0x09
	keyNewline   = '\n'
	keyReturn    = '\r'
	keyEscape    = 0x1b
	keyDelete    = 0x7f
)

// EffectKind names an output action requested by the machine.
type EffectKind int

const (
	// EffectWelcome clears the screen and prints the welcome block.
	EffectWelcome EffectKind = iota
	// EffectPrompt prints the prompt.
	EffectPrompt
	// EffectEcho writes Text back to the client.
	EffectEcho
	// EffectErase removes the last visible character from the client's line.
	EffectErase
	// EffectDispatch runs the command named by Text. Text is trimmed and
	// lower-cased and may be empty.
	EffectDispatch
	// EffectClose says goodbye and closes the channel.
	EffectClose
)

// Effect is one output action. Effects must be applied in order.
type Effect struct {
	Kind EffectKind
	Text string
}

type escapeState int

const (
	escNone escapeState = iota
	escStart
	escCSI
	escSS3
)

// Machine is the keystroke state machine for one session. It is a value
// type: Step returns the next Machine and never mutates its receiver, so it
// can be driven by tests without a network connection.
type Machine struct {
	state  State
	buffer string
	escape escapeState
	lastCR bool
}

// NewMachine returns a Machine in StateStarting.
func NewMachine() Machine {
	return Machine{state: StateStarting}
}

// State reports the current lifecycle state.
func (m Machine) State() State { return m.state }

// Buffer returns the characters typed since the last completed line.
func (m Machine) Buffer() string { return m.buffer }

// Open moves a starting machine to StatePrompting, requesting the welcome
// block and the first prompt. Any other state is returned unchanged.
func (m Machine) Open() (Machine, []Effect) {
	if m.state != StateStarting {
		return m, nil
	}
	m.state = StatePrompting
	return m, []Effect{{Kind: EffectWelcome}, {Kind: EffectPrompt}}
}

// Close moves the machine to StateClosed without requesting any effects.
func (m Machine) Close() Machine {
	m.state = StateClosed
	m.buffer = ""
	return m
}

// Step feeds one input byte to the machine.
//
// The interrupt byte always closes the session. A carriage return completes
// the line, and a newline directly after it is swallowed so CRLF clients do
// not dispatch twice; a lone newline also completes the line. Backspace and
// delete erase the last character, escape sequences (cursor keys and the
// like) are consumed silently, other control bytes are ignored, and
// everything else is appended to the buffer and echoed.
func Step(m Machine, b byte) (Machine, []Effect) {
	if m.state == StateClosed {
		return m, nil
	}
	if b == keyInterrupt {
		return m.Close(), []Effect{{Kind: EffectClose}}
	}
	if m.state != StatePrompting {
		return m, nil
	}

	if m.escape != escNone {
		m.escape = nextEscape(m.escape, b)
		return m, nil
	}

	afterCR := m.lastCR
	m.lastCR = false

	switch {
	case b == keyReturn:
		// Raw-mode clients such as OpenSSH send a bare CR for Enter.
		m.lastCR = true
		return m.completeLine()
	case b == keyNewline:
		if afterCR {
			return m, nil
		}
		return m.completeLine()
	case b == keyBackspace || b == keyDelete:
		if m.buffer == "" {
			return m, nil
		}
		_, size := utf8.DecodeLastRuneInString(m.buffer)
		m.buffer = m.buffer[:len(m.buffer)-size]
		return m, []Effect{{Kind: EffectErase}}
	case b == keyEscape:
		m.escape = escStart
		return m, nil
	case b == keyTab:
		b = ' '
	case b < 0x20:
		return m, nil
	}

	m.buffer += string([]byte{b})
	return m, []Effect{{Kind: EffectEcho, Text: string([]byte{b})}}
}

// Feed runs Step over every byte of p and collects the effects in order.
func Feed(m Machine, p []byte) (Machine, []Effect) {
	var effects []Effect
	for _, b := range p {
		var e []Effect
		m, e = Step(m, b)
		effects = append(effects, e...)
	}
	return m, effects
}

func (m Machine) completeLine() (Machine, []Effect) {
	line := Normalize(m.buffer)
	m.buffer = ""
	return m, []Effect{
		{Kind: EffectEcho, Text: "\n"},
		{Kind: EffectDispatch, Text: line},
		{Kind: EffectPrompt},
	}
}

// nextEscape advances the escape-sequence decoder. CSI sequences end at a
// final byte in 0x40..0x7e, SS3 sequences after one byte.
func nextEscape(s escapeState, b byte) escapeState {
	switch s {
	case escStart:
		switch b {
		case '[':
			return escCSI
		case 'O':
			return escSS3
		}
		return escNone
	case escCSI:
		if b >= 0x40 && b <= 0x7e {
			return escNone
		}
		return escCSI
	default:
		return escNone
	}
}

// Normalize trims surrounding whitespace and lower-cases a typed line.
func Normalize(line string) string {
	return strings.ToLower(strings.TrimSpace(line))
}
