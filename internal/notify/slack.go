// Package notify forwards bridge responses to Slack.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	slackgo "github.com/slack-go/slack"

	"github.com/vatsalai/vatsal/internal/bridge"
	"github.com/vatsalai/vatsal/internal/shared/stringutils"
)

const (
	queueSize     = 256
	maxResultText = 500
)

// Poster is the slack-go call the notifier uses; *slackgo.Client satisfies it.
type Poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackgo.MsgOption) (string, string, error)
}

// SlackNotifier posts delivered responses to one Slack channel. Notify never
// blocks the bridge monitor: frames are queued and posted by Run.
type SlackNotifier struct {
	poster       Poster
	channel      string
	onlyFailures bool

	queue   chan bridge.Delivery
	dropped atomic.Uint64
	posted  atomic.Uint64
}

// NewSlackNotifier builds a notifier around a slack-go client for token.
func NewSlackNotifier(token, channel string, onlyFailures bool) *SlackNotifier {
	return NewNotifier(slackgo.New(token), channel, onlyFailures)
}

// NewNotifier builds a notifier around any Poster.
func NewNotifier(p Poster, channel string, onlyFailures bool) *SlackNotifier {
	return &SlackNotifier{
		poster:       p,
		channel:      channel,
		onlyFailures: onlyFailures,
		queue:        make(chan bridge.Delivery, queueSize),
	}
}

// Notify is the bridge subscriber.
func (n *SlackNotifier) Notify(d bridge.Delivery) error {
	if n.onlyFailures && d.Status() != bridge.StatusError {
		return nil
	}
	select {
	case n.queue <- d:
		return nil
	default:
		n.dropped.Add(1)
		return fmt.Errorf("notify: slack queue full, dropped %s", d.RequestID())
	}
}

// Run posts queued responses until ctx is cancelled.
func (n *SlackNotifier) Run(ctx context.Context) error {
	slog.Info("notify: slack notifier started", "channel", n.channel, "only_failures", n.onlyFailures)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d := <-n.queue:
			_, _, err := n.poster.PostMessageContext(ctx, n.channel,
				slackgo.MsgOptionText(formatDelivery(d), false))
			if err != nil {
				slog.Error("notify: slack post failed", "request_id", d.RequestID(), "err", err)
				continue
			}
			n.posted.Add(1)
		}
	}
}

// Posted returns how many messages reached Slack.
func (n *SlackNotifier) Posted() uint64 { return n.posted.Load() }

// Dropped returns how many responses were discarded on a full queue.
func (n *SlackNotifier) Dropped() uint64 { return n.dropped.Load() }

func formatDelivery(d bridge.Delivery) string {
	icon := ":white_check_mark:"
	if d.Status() == bridge.StatusError {
		icon = ":x:"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s *%s* `%s`", icon, d.Status(), d.RequestID())
	if cmd := d.Text("command"); cmd != "" {
		fmt.Fprintf(&sb, "\n> %s", cmd)
	}
	if res := d.Text("result"); res != "" {
		res = stringutils.Truncate(res, maxResultText, "…")
		fmt.Fprintf(&sb, "\n```%s```", res)
	}
	return sb.String()
}
