// Package notify delivers operator alerts to every configured channel.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/fd1az/options-arb/internal/apperror"
	"github.com/fd1az/options-arb/internal/logger"
)

// Sender is one alert channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier fans an alert out to all senders. One failing sender does not
// stop delivery to the rest.
type Notifier struct {
	senders []Sender
	logger  logger.LoggerInterface
}

// NewNotifier creates a Notifier. Nil senders are dropped.
func NewNotifier(log logger.LoggerInterface, senders ...Sender) *Notifier {
	n := &Notifier{logger: log}
	for _, s := range senders {
		if s != nil {
			n.senders = append(n.senders, s)
		}
	}
	return n
}

// Enabled reports whether any sender is configured.
func (n *Notifier) Enabled() bool {
	return len(n.senders) > 0
}

// Senders returns the configured sender names.
func (n *Notifier) Senders() []string {
	names := make([]string, len(n.senders))
	for i, s := range n.senders {
		names[i] = s.Name()
	}
	return names
}

// Notify sends title and message to every sender and returns the combined
// error of those that failed.
func (n *Notifier) Notify(ctx context.Context, title, message string) error {
	var errs error
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.Error(ctx, "alert delivery failed", "sender", s.Name(), "error", err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		n.logger.Debug(ctx, "alert sent", "sender", s.Name(), "title", title)
	}
	if errs != nil {
		return apperror.New(apperror.CodeNotifyFailed, apperror.WithCause(errs))
	}
	return nil
}
