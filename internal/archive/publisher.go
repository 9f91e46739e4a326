package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/multierr"

	"github.com/peovukea-bbd/laser-tag/internal/engine"
	"github.com/peovukea-bbd/laser-tag/internal/pubsub"
)

// Publisher puts lobby events on the bus. It satisfies lobby.EventSink.
type Publisher struct {
	pub pubsub.Publisher
}

func NewPublisher(pub pubsub.Publisher) *Publisher {
	return &Publisher{pub: pub}
}

func (p *Publisher) Publish(ctx context.Context, lobbyID string, events []engine.Event) error {
	var err error
	for _, e := range events {
		payload, merr := json.Marshal(e)
		if merr != nil {
			err = multierr.Append(err, fmt.Errorf("encode event %s: %w", e.ID, merr))
			continue
		}
		err = multierr.Append(err, p.pub.Publish(ctx, pubsub.Message{
			Topic:    Topic,
			LobbyID:  lobbyID,
			Payload:  payload,
			Metadata: map[string]string{"event_type": string(e.Type)},
		}))
	}
	return err
}
