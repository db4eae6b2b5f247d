package pchat

type SessionState int8

const (
	Unopened SessionState = iota
	Open
	Closed
)

func (s SessionState) String() string {
	switch s {
	case Unopened:
		return "Unopened"
	case Open:
		return "Open"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}
