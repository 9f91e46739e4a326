package pubsub

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"
)

// WatermillBridge implements Publisher and Subscriber on watermill's GoChannel.
type WatermillBridge struct {
	pub message.Publisher
	sub message.Subscriber
	log *zap.Logger
	wg  sync.WaitGroup
}

const (
	// Metadata keys used to carry Message fields through a watermill message.
	metaKeyLobbyID = "lobby_id"
	metaKeyTopic   = "topic"
)

func NewWatermillBridge(log *zap.Logger) *WatermillBridge {
	if log == nil {
		log = zap.NewNop()
	}
	// Publish hands each message to subscribers on their own goroutines, so a
	// slow subscriber never stalls the publishing lobby.
	goChannel := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		NewZapLogger(log),
	)

	return &WatermillBridge{
		pub: goChannel,
		sub: goChannel,
		log: log,
	}
}

func mapToWatermillMessage(msg Message) *message.Message {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)
	for k, v := range msg.Metadata {
		wmMsg.Metadata.Set(k, v)
	}
	wmMsg.Metadata.Set(metaKeyLobbyID, msg.LobbyID)
	wmMsg.Metadata.Set(metaKeyTopic, msg.Topic)
	return wmMsg
}

func mapToPubSubMessage(wmMsg *message.Message) Message {
	metadata := make(map[string]string, len(wmMsg.Metadata))
	for k, v := range wmMsg.Metadata {
		if k != metaKeyLobbyID && k != metaKeyTopic {
			metadata[k] = v
		}
	}
	return Message{
		Topic:    wmMsg.Metadata.Get(metaKeyTopic),
		LobbyID:  wmMsg.Metadata.Get(metaKeyLobbyID),
		Payload:  wmMsg.Payload,
		Metadata: metadata,
	}
}

func (wb *WatermillBridge) Publish(ctx context.Context, msg Message) error {
	wmMsg := mapToWatermillMessage(msg)
	wmMsg.SetContext(ctx)
	return wb.pub.Publish(msg.Topic, wmMsg)
}

// Subscribe consumes topic on a background goroutine until ctx ends or the
// bridge is closed.
func (wb *WatermillBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := wb.sub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	wb.wg.Add(1)
	go func() {
		defer wb.wg.Done()
		for wmMsg := range messages {
			msg := mapToPubSubMessage(wmMsg)
			if err := handler(ctx, msg); err != nil {
				// GoChannel redelivers nacked messages forever; a failed
				// handler is logged and the message dropped instead.
				wb.log.Error("failed to handle message",
					zap.String("topic", topic),
					zap.String("msg_id", wmMsg.UUID),
					zap.Error(err))
			}
			wmMsg.Ack()
		}
		wb.log.Debug("subscription ended", zap.String("topic", topic))
	}()
	return nil
}

// Close stops every subscription and waits for in-flight handlers.
func (wb *WatermillBridge) Close() error {
	err := wb.sub.Close()
	wb.wg.Wait()
	return err
}
