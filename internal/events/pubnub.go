package events

import (
	"context"
	"fmt"
	"log/slog"

	pubnub "github.com/pubnub/go/v7"
)

// PubNubBus publishes events to a PubNub channel shared with the
// crowdfunding and tipping subsystems.
type PubNubBus struct {
	pn      *pubnub.PubNub
	channel string
}

func NewPubNubBus(pn *pubnub.PubNub, channel string) *PubNubBus {
	return &PubNubBus{pn: pn, channel: channel}
}

func (b *PubNubBus) Send(_ context.Context, e Event) error {
	_, _, err := b.pn.Publish().
		Channel(b.channel).
		Message(e).
		Execute()
	if err != nil {
		return fmt.Errorf("publish %s event: %w", e.EventKind(), err)
	}
	return nil
}

// LogBus stands in for PubNub when no keys are configured. Events are
// logged and dropped.
type LogBus struct{}

func (LogBus) Send(_ context.Context, e Event) error {
	slog.Info("outbound event (log bus)", "kind", e.EventKind(), "event", e)
	return nil
}
