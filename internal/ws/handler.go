package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peovukea-bbd/laser-tag/internal/hub"
	"github.com/peovukea-bbd/laser-tag/internal/types"
)

const (
	DefaultOutboxSize   = 64
	DefaultWriteTimeout = 3 * time.Second
	DefaultPingInterval = 30 * time.Second
)

type Options struct {
	Logger       *zap.Logger
	OutboxSize   int
	WriteTimeout time.Duration
	// PingInterval is how often the server checks the peer is alive. Zero disables it.
	PingInterval   time.Duration
	OriginPatterns []string
}

func (o *Options) defaults() {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.OutboxSize <= 0 {
		o.OutboxSize = DefaultOutboxSize
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
}

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	opts.defaults()

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			opts.Logger.Debug("websocket accept failed", zap.Error(err))
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		c := newClient(uuid.NewString(), opts.OutboxSize, cancel)
		log := opts.Logger.With(zap.String("conn_id", c.id))
		log.Info("client connected", zap.String("remote_addr", r.RemoteAddr))

		defer func() {
			h.Disconnect(c.id)
			c.close()

			status, reason := websocket.StatusNormalClosure, "bye"
			if c.overflowed.Load() {
				status, reason = websocket.StatusPolicyViolation, "slow consumer"
			}
			_ = conn.Close(status, reason)
			log.Info("client disconnected", zap.Bool("slow_consumer", c.overflowed.Load()))
		}()

		// Writer goroutine
		go func() {
			defer cancel()
			for {
				select {
				case msg, ok := <-c.queue:
					if !ok {
						return
					}
					wctx, wcancel := context.WithTimeout(ctx, opts.WriteTimeout)
					err := wsjson.Write(wctx, conn, msg)
					wcancel()
					if err != nil {
						log.Debug("write failed", zap.Error(err))
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		if opts.PingInterval > 0 {
			go keepAlive(ctx, conn, opts.PingInterval, cancel)
		}

		d := dispatcher{hub: h, client: c, log: log}

		// Reader loop
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("read ended", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				c.Push(types.ErrorMessage("malformed message"))
				continue
			}
			d.dispatch(cm)
		}
	}
}

// keepAlive pings the peer every interval; a missed pong ends the connection.
// Ping needs the concurrent reader above to see the pong.
func keepAlive(ctx context.Context, conn *websocket.Conn, interval time.Duration, stop context.CancelFunc) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, interval)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				stop()
				return
			}
		}
	}
}
