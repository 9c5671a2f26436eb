package client

// State is the lifecycle of a Connection.
type State int

const (
	// StateDisconnected is the initial state and the state after a clean stop.
	StateDisconnected State = iota
	// StateConnecting covers session setup, waiting for the IRC server and
	// retrying after transport failures.
	StateConnecting
	// StateConnected means the relay reported an established IRC connection.
	StateConnected
	// StateError is terminal: retries were exhausted or the session is gone.
	StateError
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
