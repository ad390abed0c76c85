package notifications

import "context"

// MessageRef identifies a message that was already sent
type MessageRef struct {
	ID      string
	Channel string
}

func (r MessageRef) Empty() bool {
	return r.ID == ""
}

// Transport is a chat platform that can post, edit and remove messages
type Transport interface {
	Post(ctx context.Context, channel string, msg *Message) (MessageRef, error)
	Update(ctx context.Context, ref MessageRef, msg *Message) error
	Delete(ctx context.Context, ref MessageRef) error
}
