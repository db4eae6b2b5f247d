package pchat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type EventKind int8

const (
	Joined EventKind = iota
	Message
	Left
)

func (k EventKind) String() string {
	switch k {
	case Joined:
		return "Joined"
	case Message:
		return "Message"
	case Left:
		return "Left"
	default:
		return "Unknown"
	}
}

const (
	SystemSender = "SYSTEM"

	ConnectedBody    = "Connected"
	DisconnectedBody = "Disconnected"
)

// ChatEvent is the unit of record and broadcast.
type ChatEvent struct {
	Identity   string    `json:"identity"`
	Kind       EventKind `json:"kind"`
	Body       string    `json:"body"`
	Timestamp  time.Time `json:"timestamp"`
	SequenceID int64     `json:"sequenceId"`
}

// Sender is the prefix of the wire line: SYSTEM for joins and leaves, the identity otherwise.
func (ev ChatEvent) Sender() string {
	if ev.Kind == Message {
		return ev.Identity
	}
	return SystemSender
}

// String renders the event as a brace-delimited list of labelled fields.
func (ev ChatEvent) String() string {
	var sb strings.Builder
	sb.WriteString("{identity='")
	sb.WriteString(quote(ev.Identity))
	sb.WriteString("', body='")
	sb.WriteString(quote(ev.Body))
	sb.WriteString("', timestamp=")
	sb.WriteString(ev.Timestamp.Format(time.RFC3339Nano))
	sb.WriteString(", sequenceId=")
	sb.WriteString(strconv.FormatInt(ev.SequenceID, 10))
	sb.WriteString("}")
	return sb.String()
}

// Wire is the text line delivered to every connection.
func (ev ChatEvent) Wire() []byte {
	return []byte(ev.Sender() + ": " + ev.String())
}

var ErrMalformedWire = errors.New("malformed wire line")

// ParseWire splits a wire line back into its sender and event.
func ParseWire(line string) (string, ChatEvent, error) {
	sender, rendered, ok := strings.Cut(line, ": {")
	if !ok || !strings.HasSuffix(rendered, "}") {
		return "", ChatEvent{}, ErrMalformedWire
	}
	p := fieldParser{s: rendered[:len(rendered)-1]}

	var ev ChatEvent
	var err error
	if ev.Identity, err = p.quoted("identity"); err != nil {
		return "", ChatEvent{}, err
	}
	if err = p.separator(); err != nil {
		return "", ChatEvent{}, err
	}
	if ev.Body, err = p.quoted("body"); err != nil {
		return "", ChatEvent{}, err
	}
	if err = p.separator(); err != nil {
		return "", ChatEvent{}, err
	}
	ts, err := p.bare("timestamp")
	if err != nil {
		return "", ChatEvent{}, err
	}
	if ev.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return "", ChatEvent{}, fmt.Errorf("%w: timestamp: %w", ErrMalformedWire, err)
	}
	if err = p.separator(); err != nil {
		return "", ChatEvent{}, err
	}
	seq, err := p.bare("sequenceId")
	if err != nil {
		return "", ChatEvent{}, err
	}
	if ev.SequenceID, err = strconv.ParseInt(seq, 10, 64); err != nil {
		return "", ChatEvent{}, fmt.Errorf("%w: sequenceId: %w", ErrMalformedWire, err)
	}
	if p.s != "" {
		return "", ChatEvent{}, fmt.Errorf("%w: trailing %q", ErrMalformedWire, p.s)
	}

	switch {
	case sender != SystemSender:
		ev.Kind = Message
	case ev.Body == ConnectedBody:
		ev.Kind = Joined
	case ev.Body == DisconnectedBody:
		ev.Kind = Left
	default:
		return "", ChatEvent{}, fmt.Errorf("%w: unknown system body %q", ErrMalformedWire, ev.Body)
	}
	return sender, ev, nil
}

var quoter = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quote(s string) string {
	return quoter.Replace(s)
}

type fieldParser struct {
	s string
}

func (p *fieldParser) label(name string) error {
	prefix := name + "="
	if !strings.HasPrefix(p.s, prefix) {
		return fmt.Errorf("%w: expected %s", ErrMalformedWire, name)
	}
	p.s = p.s[len(prefix):]
	return nil
}

func (p *fieldParser) separator() error {
	if !strings.HasPrefix(p.s, ", ") {
		return fmt.Errorf("%w: expected separator", ErrMalformedWire)
	}
	p.s = p.s[2:]
	return nil
}

func (p *fieldParser) bare(name string) (string, error) {
	if err := p.label(name); err != nil {
		return "", err
	}
	end := strings.Index(p.s, ", ")
	if end < 0 {
		end = len(p.s)
	}
	v := p.s[:end]
	p.s = p.s[end:]
	return v, nil
}

func (p *fieldParser) quoted(name string) (string, error) {
	if err := p.label(name); err != nil {
		return "", err
	}
	if !strings.HasPrefix(p.s, "'") {
		return "", fmt.Errorf("%w: %s is not quoted", ErrMalformedWire, name)
	}
	var sb strings.Builder
	for i := 1; i < len(p.s); i++ {
		switch c := p.s[i]; c {
		case '\\':
			if i+1 >= len(p.s) {
				return "", fmt.Errorf("%w: dangling escape in %s", ErrMalformedWire, name)
			}
			i++
			sb.WriteByte(p.s[i])
		case '\'':
			p.s = p.s[i+1:]
			return sb.String(), nil
		default:
			sb.WriteByte(c)
		}
	}
	return "", fmt.Errorf("%w: unterminated %s", ErrMalformedWire, name)
}
