package notifications

import (
	"context"
	"fmt"

	"github.com/gimlet-io/runstatus/pkg/status"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

var sent = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "runstatus_notifications_total",
	Help: "Notification calls by operation and result",
}, []string{"operation", "result"})

// NotificationState is the message currently showing the run status,
// empty until the first message is posted
type NotificationState struct {
	Ref MessageRef
}

// Notifier keeps exactly one status message up to date
type Notifier struct {
	transport Transport
	channel   string
	state     NotificationState
}

// NewNotifier returns a notifier that posts to channel. If messageID is set
// the notifier keeps updating that message instead of posting a new one
func NewNotifier(transport Transport, channel string, messageID string) *Notifier {
	n := &Notifier{
		transport: transport,
		channel:   channel,
	}
	if messageID != "" {
		n.state.Ref = MessageRef{ID: messageID, Channel: channel}
	}
	return n
}

func (n *Notifier) State() NotificationState {
	return n.state
}

// Send renders the snapshot and updates the live message. With republish the
// live message is deleted and the snapshot is posted as a new message
func (n *Notifier) Send(ctx context.Context, s status.Snapshot, republish bool) error {
	msg := NewMessage(s)

	if republish && !n.state.Ref.Empty() {
		err := n.transport.Delete(ctx, n.state.Ref)
		record("delete", err)
		if err != nil {
			return fmt.Errorf("cannot delete status message: %w", err)
		}
		n.state = NotificationState{}
	}

	if !n.state.Ref.Empty() {
		err := n.transport.Update(ctx, n.state.Ref, msg)
		record("update", err)
		if err != nil {
			return fmt.Errorf("cannot update status message: %w", err)
		}
		return nil
	}

	ref, err := n.transport.Post(ctx, n.channel, msg)
	record("post", err)
	if err != nil {
		return fmt.Errorf("cannot post status message: %w", err)
	}
	if ref.Channel == "" {
		ref.Channel = n.channel
	}
	n.state.Ref = ref
	n.channel = ref.Channel
	logrus.Debugf("status message posted: %+v", ref)

	return nil
}

func record(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	sent.WithLabelValues(operation, result).Inc()
}
