package notify

import (
	"context"
	"fmt"
)

// Channel is implemented by each notification provider.
//
// Send makes exactly one delivery attempt. On success it returns a
// human-readable description of what happened (quota left, HTTP status).
type Channel interface {
	Name() string
	IsConfigured() bool
	Send(ctx context.Context, message string) (string, error)
}

// Outcome is the result of one channel's send attempt.
type Outcome struct {
	Channel string
	Detail  string
	Err     error
}

// OK reports whether the send went through.
func (o Outcome) OK() bool { return o.Err == nil }

func (o Outcome) String() string {
	if o.Err != nil {
		return fmt.Sprintf("[-] %s: %v", o.Channel, o.Err)
	}
	return fmt.Sprintf("[*] %s: %s", o.Channel, o.Detail)
}

// mention prefixes message with an addressee token when one is configured.
func mention(format, user, message string) string {
	if user == "" {
		return message
	}
	return fmt.Sprintf(format, user, message)
}
