package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/CosmoTheDev/hashms/internal/config"
)

// Dispatcher fans a message out to all enabled channels.
type Dispatcher struct {
	channels []Channel
	log      *slog.Logger
}

// NewDispatcher creates a Dispatcher from the given config.
// Channels are always tried in the order SMS, Slack, Teams, and only channels
// with IsConfigured() == true take part.
func NewDispatcher(cfg config.NotifyConfig) *Dispatcher {
	return NewDispatcherWithChannels(
		NewSMS(cfg.SMS),
		NewSlack(cfg.Slack),
		NewTeams(cfg.Teams),
	)
}

// NewDispatcherWithChannels builds a Dispatcher over an explicit channel list,
// keeping the given order and dropping unconfigured channels.
func NewDispatcherWithChannels(channels ...Channel) *Dispatcher {
	d := &Dispatcher{log: slog.Default()}
	for _, ch := range channels {
		if ch != nil && ch.IsConfigured() {
			d.channels = append(d.channels, ch)
		}
	}
	return d
}

// WithLogger routes the per-channel outcome lines to l instead of the
// default logger.
func (d *Dispatcher) WithLogger(l *slog.Logger) *Dispatcher {
	if l != nil {
		d.log = l
	}
	return d
}

// IsAnyConfigured returns true if at least one channel is ready to send.
func (d *Dispatcher) IsAnyConfigured() bool {
	return len(d.channels) > 0
}

// Channels returns the names of the active channels in dispatch order.
func (d *Dispatcher) Channels() []string {
	names := make([]string, len(d.channels))
	for i, ch := range d.channels {
		names[i] = ch.Name()
	}
	return names
}

// Dispatch sends message to every active channel and returns one Outcome per
// channel, in dispatch order. A failing channel never stops the others and
// failures are never returned as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, message string) []Outcome {
	outcomes := make([]Outcome, 0, len(d.channels))
	for _, ch := range d.channels {
		o := send(ctx, ch, message)
		if o.OK() {
			d.log.Info("notify: sent", "channel", o.Channel, "detail", o.Detail)
		} else {
			d.log.Warn("notify: channel send failed", "channel", o.Channel, "error", o.Err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}

func send(ctx context.Context, ch Channel, message string) (o Outcome) {
	o.Channel = ch.Name()
	defer func() {
		if r := recover(); r != nil {
			o.Detail = ""
			o.Err = fmt.Errorf("%s: panic during send: %v", o.Channel, r)
		}
	}()
	o.Detail, o.Err = ch.Send(ctx, message)
	return o
}

// Failures counts the outcomes that did not go through.
func Failures(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.OK() {
			n++
		}
	}
	return n
}
