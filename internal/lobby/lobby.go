package lobby

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/peovukea-bbd/laser-tag/internal/catalog"
	"github.com/peovukea-bbd/laser-tag/internal/engine"
	"github.com/peovukea-bbd/laser-tag/internal/types"
)

var ErrLobbyClosed = errors.New("lobby closed")

const DefaultHistoryLimit = 100

// Outbox receives every push addressed to one connection. Push must not block.
type Outbox interface {
	Push(msg types.ServerMessage)
}

// EventSink is told about every batch of events a lobby emits.
type EventSink interface {
	Publish(ctx context.Context, lobbyID string, events []engine.Event) error
}

type Msg interface{ isLobbyMsg() }

// Join adds a player (Player set) or a spectator (Spectator set).
type Join struct {
	ConnID    string
	Player    *engine.Player
	Spectator *engine.Spectator
	Outbox    Outbox
	Reply     chan error
}

func (Join) isLobbyMsg() {}

type Leave struct{ ConnID string }

func (Leave) isLobbyMsg() {}

type FromClient struct {
	ConnID string
	Cmd    engine.Command
}

func (FromClient) isLobbyMsg() {}

type respawnDue struct {
	timerID  int
	playerID string
	deaths   int
}

func (respawnDue) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type View struct {
	Version    int
	NumClients int
	State      engine.State
	Events     []engine.Event
}

// Summary is a cheap, possibly slightly stale description used for listings.
type Summary struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Players    int              `json:"players"`
	MaxPlayers int              `json:"maxPlayers"`
	Spectators int              `json:"spectators"`
	GameState  engine.GameState `json:"gameState"`
	GameMode   engine.GameMode  `json:"gameMode"`
}

type Options struct {
	Logger       *zap.Logger
	Catalog      *catalog.Catalog
	Sink         EventSink
	HistoryLimit int
	// OnEmpty runs on the lobby goroutine once the last player has left.
	OnEmpty func(id string)
}

type member struct {
	playerID    string
	spectatorID string
	outbox      Outbox
}

type Lobby struct {
	id      string
	inbox   chan Msg
	state   engine.State
	version int
	members map[string]*member
	history []engine.Event
	timers  map[int]*time.Timer
	timerID int
	summary atomic.Pointer[Summary]

	catalog *catalog.Catalog
	sink    EventSink
	limit   int
	onEmpty func(string)
	log     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLobby(parent context.Context, initial engine.State, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}

	l := &Lobby{
		id:      initial.ID,
		inbox:   make(chan Msg, 64), // Small buffer
		state:   initial,
		members: make(map[string]*member),
		timers:  make(map[int]*time.Timer),
		catalog: opts.Catalog,
		sink:    opts.Sink,
		limit:   opts.HistoryLimit,
		onEmpty: opts.OnEmpty,
		log:     opts.Logger.With(zap.String("lobby_id", initial.ID)),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	l.refreshSummary()

	go l.loop()
	return l
}

func (l *Lobby) ID() string { return l.id }

// Done is closed once the lobby goroutine has exited.
func (l *Lobby) Done() <-chan struct{} { return l.done }

func (l *Lobby) Summary() Summary { return *l.summary.Load() }

// Send queues msg for the lobby. It reports false once the lobby is closed.
func (l *Lobby) Send(msg Msg) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.inbox <- msg:
		return true
	case <-l.done:
		return false
	}
}

// Join blocks until the lobby has accepted or rejected j.
func (l *Lobby) Join(j Join) error {
	j.Reply = make(chan error, 1)
	if !l.Send(j) {
		return ErrLobbyClosed
	}
	select {
	case err := <-j.Reply:
		return err
	case <-l.done:
		select {
		case err := <-j.Reply:
			return err
		default:
			return ErrLobbyClosed
		}
	}
}

// View returns a consistent copy of the lobby's state.
func (l *Lobby) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if !l.Send(GetState{Reply: reply}) {
		return View{}, ErrLobbyClosed
	}
	select {
	case v := <-reply:
		return v, nil
	case <-l.done:
		return View{}, ErrLobbyClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

func (l *Lobby) loop() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.handleJoin(msg)
				if len(l.state.Players) == 0 {
					l.closeEmpty()
					return
				}

			case Leave:
				l.handleLeave(msg)
				if len(l.state.Players) == 0 {
					l.closeEmpty()
					return
				}

			case FromClient:
				mem, ok := l.members[msg.ConnID]
				if !ok || mem.playerID == "" {
					// Spectators and strangers never mutate the lobby.
					l.log.Debug("ignoring command from non-player", zap.String("conn_id", msg.ConnID))
					break
				}
				l.apply(msg.Cmd)

			case respawnDue:
				delete(l.timers, msg.timerID)
				l.apply(engine.Command{Type: engine.CmdRespawn, PlayerID: msg.playerID, Deaths: msg.deaths})

			case GetState:
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.members),
					State:      l.state.Clone(),
					Events:     slices.Clone(l.history),
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) handleJoin(msg Join) {
	var err error
	if msg.Player != nil {
		err = l.state.AddPlayer(msg.Player)
	} else if msg.Spectator != nil {
		err = l.state.AddSpectator(*msg.Spectator)
	} else {
		err = engine.ErrPreconditionNotMet
	}
	if err != nil {
		l.log.Debug("join rejected", zap.String("conn_id", msg.ConnID), zap.Error(err))
		msg.Reply <- err
		return
	}

	m := &member{outbox: msg.Outbox}
	if msg.Player != nil {
		m.playerID = msg.Player.ID
	} else {
		m.spectatorID = msg.Spectator.ID
	}
	l.members[msg.ConnID] = m
	l.version++
	l.refreshSummary()

	snap := l.state.Clone()
	msg.Outbox.Push(types.ServerMessage{
		Type:     types.TypeLobbyJoined,
		Version:  l.version,
		LobbyID:  l.state.ID,
		PlayerID: m.playerID,
		Lobby:    &snap,
	})
	l.broadcastSnapshot(msg.ConnID)
	msg.Reply <- nil

	l.log.Info("member joined",
		zap.String("conn_id", msg.ConnID),
		zap.String("player_id", m.playerID),
		zap.Int("players", len(l.state.Players)))
}

func (l *Lobby) handleLeave(msg Leave) {
	m, ok := l.members[msg.ConnID]
	if !ok {
		return
	}
	delete(l.members, msg.ConnID)
	if m.playerID != "" {
		l.state.RemovePlayer(m.playerID)
	} else {
		l.state.RemoveSpectator(m.spectatorID)
	}
	l.version++
	l.refreshSummary()

	l.log.Info("member left",
		zap.String("conn_id", msg.ConnID),
		zap.String("player_id", m.playerID),
		zap.Int("players", len(l.state.Players)))

	if len(l.state.Players) > 0 {
		l.broadcastSnapshot("")
	}
}

// apply runs one command under the lobby's exclusive ownership of its state.
func (l *Lobby) apply(cmd engine.Command) {
	o, err := engine.Resolve(&l.state, l.catalog, cmd)
	if err != nil {
		l.log.Debug("command ignored",
			zap.String("command", string(cmd.Type)),
			zap.String("player_id", cmd.PlayerID),
			zap.Error(err))
		return
	}
	if len(o.Events) == 0 {
		return
	}

	l.version++
	for _, e := range o.Events {
		if e.Type == engine.EvtPlayerEliminated {
			l.scheduleRespawn(e.TargetID)
		}
	}
	l.record(o.Events)
	l.broadcastEvents(o)
	l.broadcastSnapshot("")
	l.refreshSummary()
}

func (l *Lobby) scheduleRespawn(playerID string) {
	p := l.state.Player(playerID)
	if p == nil {
		return
	}
	l.timerID++
	due := respawnDue{timerID: l.timerID, playerID: p.ID, deaths: p.Deaths}
	// The fire re-enters through the inbox; membership is re-checked there.
	l.timers[due.timerID] = time.AfterFunc(l.state.Settings.RespawnDelay(), func() {
		l.Send(due)
	})
}

func (l *Lobby) record(events []engine.Event) {
	l.history = append(l.history, events...)
	if over := len(l.history) - l.limit; over > 0 {
		l.history = slices.Delete(l.history, 0, over)
	}

	if l.sink == nil {
		return
	}
	if err := l.sink.Publish(l.ctx, l.state.ID, events); err != nil {
		l.log.Warn("failed to publish events", zap.Int("count", len(events)), zap.Error(err))
	}
}

func (l *Lobby) refreshSummary() {
	l.summary.Store(&Summary{
		ID:         l.state.ID,
		Name:       l.state.Name,
		Players:    len(l.state.Players),
		MaxPlayers: l.state.MaxPlayers,
		Spectators: len(l.state.Spectators),
		GameState:  l.state.GameState,
		GameMode:   l.state.GameMode,
	})
}

// closeEmpty tears the lobby down after its last player left.
func (l *Lobby) closeEmpty() {
	l.log.Info("lobby empty, closing")
	if l.onEmpty != nil {
		l.onEmpty(l.state.ID)
	}
	l.shutdown()
}

func (l *Lobby) shutdown() {
	for id, t := range l.timers {
		t.Stop()
		delete(l.timers, id)
	}
	closed := types.ServerMessage{Type: types.TypeLobbyClosed, LobbyID: l.state.ID}
	for id, m := range l.members {
		m.outbox.Push(closed) // Tell remaining members no more pushes are coming
		delete(l.members, id)
	}
	l.cancel()
}
