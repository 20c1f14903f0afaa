package bot

import "time"

const (
	initUninitialized int32 = iota
	initInProgress
	initDone
)

// State is the connection lifecycle as seen by the status server.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	Initialized
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Initialized:
		return "initialized"
	default:
		return "disconnected"
	}
}

// Status is a point-in-time summary of the bot.
type Status struct {
	State       string        `json:"state"`
	Initialized bool          `json:"initialized"`
	Extensions  []string      `json:"extensions"`
	Commands    []string      `json:"commands"`
	Latency     time.Duration `json:"latency_ns"`
	Uptime      time.Duration `json:"uptime_ns"`
}

// State reports the lifecycle state. A connected bot that has finished its
// startup sequence is Initialized.
func (b *Bot) State() State {
	s := State(b.connState.Load())
	if s == Connected && b.Initialized() {
		return Initialized
	}
	return s
}

// Status summarizes the bot for the status server.
func (b *Bot) Status() Status {
	cmds := b.router.Commands()
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return Status{
		State:       b.State().String(),
		Initialized: b.Initialized(),
		Extensions:  b.Extensions(),
		Commands:    names,
		Latency:     b.transport.HeartbeatLatency(),
		Uptime:      time.Since(b.startedAt),
	}
}
