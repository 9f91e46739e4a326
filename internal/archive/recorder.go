package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/peovukea-bbd/laser-tag/internal/engine"
	"github.com/peovukea-bbd/laser-tag/internal/pubsub"
)

// Recorder consumes the event topic and writes every event to a Store.
type Recorder struct {
	store Store
	log   *zap.Logger
}

func NewRecorder(store Store, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{store: store, log: log.Named("archive")}
}

func (r *Recorder) Start(ctx context.Context, sub pubsub.Subscriber) error {
	if err := sub.Subscribe(ctx, Topic, r.Handle); err != nil {
		return fmt.Errorf("subscribe %s: %w", Topic, err)
	}
	return nil
}

func (r *Recorder) Handle(ctx context.Context, msg pubsub.Message) error {
	var e engine.Event
	if err := json.Unmarshal(msg.Payload, &e); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	rec, err := newRecord(msg.LobbyID, e)
	if err != nil {
		return err
	}
	if err := r.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("save event %s: %w", e.ID, err)
	}
	r.log.Debug("event archived",
		zap.String("lobby_id", msg.LobbyID),
		zap.String("event_id", e.ID),
		zap.String("type", rec.Type))
	return nil
}
