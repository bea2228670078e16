package monitor

import (
	"time"

	"github.com/CosmoTheDev/hashms/internal/notify"
	"github.com/CosmoTheDev/hashms/internal/probe"
)

// Reason says why Run returned.
type Reason int

const (
	// ReasonNotRunning: the process was not running when monitoring began.
	ReasonNotRunning Reason = iota
	// ReasonProcessChanged: the watched process exited or was replaced.
	ReasonProcessChanged
	// ReasonCancelled: the context was cancelled (Ctrl+C).
	ReasonCancelled
)

func (r Reason) String() string {
	switch r {
	case ReasonNotRunning:
		return "not running"
	case ReasonProcessChanged:
		return "process changed"
	case ReasonCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result summarises a finished Run.
type Result struct {
	Reason Reason
	Budget Budget
	Ticks  int
}

// EventKind classifies monitor events.
type EventKind int

const (
	EventStarted EventKind = iota
	EventTick
	EventNotified
	EventSuppressed
	EventStopped
)

// Event is a snapshot of monitor state handed to an Observer.
type Event struct {
	Kind     EventKind
	Time     time.Time
	Handle   probe.Handle
	Progress probe.Progress
	Baseline probe.Progress
	Budget   Budget
	Message  string
	Outcomes []notify.Outcome
	Next     time.Time
	Reason   Reason
}

// Observer receives events from the monitor goroutine. It must not block.
type Observer func(Event)
