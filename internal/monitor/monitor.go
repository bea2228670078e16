package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/CosmoTheDev/hashms/internal/notify"
	"github.com/CosmoTheDev/hashms/internal/probe"
)

// TestMessage is sent by test mode.
const TestMessage = "hashms test message."

// Configuration errors returned by New.
var (
	ErrNoProcessName = errors.New("monitor: process name is required")
	ErrNoSchedule    = errors.New("monitor: schedule is required")
	ErrInvalidLimit  = errors.New("monitor: notification limit must be at least 1")
)

const checkedAtLayout = "Monday 02 January 2006 at 15:04"

// ProcessProber reports which processes currently run under a name.
type ProcessProber interface {
	Probe(ctx context.Context, name string) probe.Handle
}

// ProgressProber reports the progress signal of the output file.
type ProgressProber interface {
	Probe(path string) probe.Progress
}

// Notifier delivers a message to every enabled channel.
type Notifier interface {
	Dispatch(ctx context.Context, message string) []notify.Outcome
}

// Sleeper waits for d or until ctx is done, returning ctx.Err() in that case.
type Sleeper func(ctx context.Context, d time.Duration) error

// Options configure a Monitor.
type Options struct {
	ProcessName string
	Outfile     string
	Limit       int
	Schedule    cron.Schedule

	Processes ProcessProber
	Progress  ProgressProber
	Notifier  Notifier

	// Optional.
	Sleep    Sleeper
	Now      func() time.Time
	Observer Observer
	Logger   *slog.Logger
}

// Monitor polls a process and its output file and notifies on new results.
// A Monitor is single use and not safe for concurrent Run calls.
type Monitor struct {
	opts     Options
	log      *slog.Logger
	budget   Budget
	start    probe.Handle
	baseline probe.Progress
	ticks    int
}

// Every returns a fixed-delay schedule of minutes (fractions allowed).
// Sub-second delays are rounded up to one second.
func Every(minutes float64) cron.Schedule {
	return cron.Every(time.Duration(minutes * float64(time.Minute)))
}

// ParseSchedule parses a standard five-field cron expression or descriptor.
func ParseSchedule(expr string) (cron.Schedule, error) {
	return cron.ParseStandard(expr)
}

// New validates opts and returns a Monitor.
func New(opts Options) (*Monitor, error) {
	if opts.ProcessName == "" {
		return nil, ErrNoProcessName
	}
	if opts.Schedule == nil {
		return nil, ErrNoSchedule
	}
	if opts.Limit < 1 {
		return nil, ErrInvalidLimit
	}
	if opts.Processes == nil || opts.Progress == nil || opts.Notifier == nil {
		return nil, errors.New("monitor: probes and notifier are required")
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		opts:   opts,
		log:    log.With("process", opts.ProcessName),
		budget: Budget{Limit: opts.Limit},
	}, nil
}

// Budget returns the current notification budget.
func (m *Monitor) Budget() Budget { return m.budget }

// Run checks that the process is alive, records the starting baseline and
// then ticks until the process changes or ctx is cancelled. Cancellation is
// only observed between ticks; a notification already being sent completes.
func (m *Monitor) Run(ctx context.Context) Result {
	m.start = m.opts.Processes.Probe(ctx, m.opts.ProcessName)
	if m.start.Absent() {
		msg := fmt.Sprintf("%s is no longer running", m.opts.ProcessName)
		m.log.Warn(msg + ". Exiting.")
		outcomes := m.opts.Notifier.Dispatch(context.WithoutCancel(ctx), msg)
		m.emit(Event{Kind: EventNotified, Message: msg, Outcomes: outcomes})
		return m.stop(ReasonNotRunning)
	}
	m.log.Info("watching process", "pid", string(m.start))

	m.baseline = m.opts.Progress.Probe(m.opts.Outfile)
	if m.baseline.Present {
		m.log.Info("outfile exists", "path", m.opts.Outfile, "lines", m.baseline.Count)
	}
	m.emit(Event{Kind: EventStarted, Handle: m.start, Progress: m.baseline})

	for {
		if ctx.Err() != nil {
			return m.cancelled()
		}
		if !m.tick(ctx) {
			return m.stop(ReasonProcessChanged)
		}

		now := m.opts.Now()
		next := m.opts.Schedule.Next(now)
		m.log.Info("sleeping", "until", next.Format(time.Kitchen), "wait", next.Sub(now).Round(time.Second))
		m.emit(Event{Kind: EventTick, Handle: m.start, Progress: m.baseline, Next: next})
		if err := m.opts.Sleep(ctx, next.Sub(now)); err != nil {
			return m.cancelled()
		}
	}
}

// tick runs one probe/compare/act step. It returns false when the loop must
// end because the process is gone or has been replaced.
func (m *Monitor) tick(ctx context.Context) bool {
	m.ticks++
	current := m.opts.Processes.Probe(ctx, m.opts.ProcessName)
	progress := m.opts.Progress.Probe(m.opts.Outfile)
	checked := m.opts.Now().Format(checkedAtLayout)

	switch {
	case current != m.start:
		m.log.Warn("original process stopped. Exiting.", "was", string(m.start), "now", string(current))
		return false
	case !progress.Present:
		m.log.Info("outfile does not exist. Monitoring for file creation.", "path", m.opts.Outfile, "checked", checked)
	case progress == m.baseline:
		m.log.Info("no more hashes cracked yet", "lines", progress.Count, "checked", checked)
	case m.budget.Exhausted():
		m.log.Info("additional hashes cracked, notification limit already reached",
			"lines", progress.Count, "sent", m.budget.Sent, "limit", m.budget.Limit, "checked", checked)
		prev := m.baseline
		m.baseline = progress
		m.emit(Event{Kind: EventSuppressed, Handle: current, Progress: progress, Baseline: prev})
	default:
		m.log.Info("additional hashes cracked!", "lines", progress.Count, "checked", checked)
		msg := fmt.Sprintf("%d hashes have been cracked. Notification %d of %d.",
			progress.Count, m.budget.Sent+1, m.budget.Limit)
		// An interrupt arriving mid-send must not abort the fan-out.
		outcomes := m.opts.Notifier.Dispatch(context.WithoutCancel(ctx), msg)
		m.budget.Spend()
		prev := m.baseline
		m.baseline = progress
		m.log.Info(fmt.Sprintf("sent %d out of %d notifications", m.budget.Sent, m.budget.Limit),
			"failed_channels", notify.Failures(outcomes))
		if m.budget.Exhausted() {
			m.log.Info("notification limit reached. Happy hunting.")
		}
		m.emit(Event{Kind: EventNotified, Handle: current, Progress: progress, Baseline: prev, Message: msg, Outcomes: outcomes})
	}
	return true
}

func (m *Monitor) cancelled() Result {
	m.log.Info("interrupt received. Exiting.")
	return m.stop(ReasonCancelled)
}

func (m *Monitor) stop(reason Reason) Result {
	m.emit(Event{Kind: EventStopped, Handle: m.start, Progress: m.baseline, Reason: reason})
	return Result{Reason: reason, Budget: m.budget, Ticks: m.ticks}
}

func (m *Monitor) emit(evt Event) {
	if m.opts.Observer == nil {
		return
	}
	if evt.Time.IsZero() {
		evt.Time = m.opts.Now()
	}
	evt.Budget = m.budget
	m.opts.Observer(evt)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SendTest sends TestMessage through every enabled channel. It does not
// touch any notification budget.
func SendTest(ctx context.Context, n Notifier) []notify.Outcome {
	return n.Dispatch(ctx, TestMessage)
}
