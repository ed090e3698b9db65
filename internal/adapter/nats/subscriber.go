package nats

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

const subscriptionBuffer = 64

type Subscriber struct {
	conn *nats.Conn
}

func NewSubscriber(conn *nats.Conn) (*Subscriber, error) {
	if conn == nil {
		return nil, fmt.Errorf("NATS connection cannot be nil")
	}
	return &Subscriber{conn: conn}, nil
}

// Subscribe delivers message payloads on subject until ctx is done, then
// unsubscribes and closes the returned channel. A consumer that falls behind
// loses messages rather than blocking the connection.
func (s *Subscriber) Subscribe(ctx context.Context, subject string) (<-chan []byte, error) {
	msgs := make(chan *nats.Msg, subscriptionBuffer)
	sub, err := s.conn.ChanSubscribe(subject, msgs)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to NATS subject %s: %w", subject, err)
	}

	out := make(chan []byte, subscriptionBuffer)
	go func() {
		defer close(out)
		defer func() { _ = sub.Unsubscribe() }()
		for {
			select {
			case <-ctx.Done():
				return
			case m := <-msgs:
				select {
				case out <- m.Data:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
