package console

// State is the connection state of a Session.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateAwaitingUsername
	StateAwaitingPassword
	StateAuthenticated
	StatePromptReady
	StateBusy
	StateFailed
	StateClosed
)

var stateNames = map[State]string{
	StateDisconnected:     "disconnected",
	StateConnecting:       "connecting",
	StateAwaitingUsername: "awaiting-username",
	StateAwaitingPassword: "awaiting-password",
	StateAuthenticated:    "authenticated",
	StatePromptReady:      "prompt-ready",
	StateBusy:             "busy",
	StateFailed:           "failed",
	StateClosed:           "closed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// terminal reports whether no further transition is allowed except to Closed.
func (s State) terminal() bool {
	return s == StateFailed || s == StateClosed
}
