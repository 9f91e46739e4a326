package hub

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/peovukea-bbd/laser-tag/internal/catalog"
	"github.com/peovukea-bbd/laser-tag/internal/engine"
	"github.com/peovukea-bbd/laser-tag/internal/lobby"
	"github.com/peovukea-bbd/laser-tag/internal/types"
)

var (
	ErrLobbyNotFound = errors.New("lobby not found")
	ErrPlayerIDInUse = errors.New("player id already in use")
	ErrNotInLobby    = errors.New("connection is not in a lobby")
)

const DefaultLobbyName = "Default Lobby"

// joinAttempts bounds retries against lobbies that close while we are joining them.
const joinAttempts = 3

type Options struct {
	Logger        *zap.Logger
	Catalog       *catalog.Catalog
	Sink          lobby.EventSink
	Settings      engine.Settings
	MaxPlayers    int
	MaxSpectators int
	HistoryLimit  int
}

type binding struct {
	lobby     *lobby.Lobby
	memberID  string
	spectator bool
}

// Hub owns the id -> lobby and connection -> member maps. Lobbies are created on
// first join or via CreateLobby and removed when the last player leaves.
//
// Calls for one connection id are expected to come from a single goroutine.
type Hub struct {
	mu      sync.RWMutex
	lobbies map[string]*lobby.Lobby
	conns   map[string]binding
	members map[string]string // player/spectator id -> conn id

	opts   Options
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, opts Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Settings == (engine.Settings{}) {
		opts.Settings = engine.DefaultSettings()
	}
	if opts.MaxPlayers <= 0 {
		opts.MaxPlayers = engine.DefaultMaxPlayers
	}
	if opts.MaxSpectators <= 0 {
		opts.MaxSpectators = engine.DefaultMaxSpectators
	}
	return &Hub{
		lobbies: make(map[string]*lobby.Lobby),
		conns:   make(map[string]binding),
		members: make(map[string]string),
		opts:    opts,
		log:     opts.Logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (h *Hub) Catalog() *catalog.Catalog { return h.opts.Catalog }

// CreateLobby allocates a fresh lobby and joins connID to it as its first player.
func (h *Hub) CreateLobby(connID string, out lobby.Outbox, name string, info types.PlayerInfo) (string, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		name = DefaultLobbyName
	}
	return h.join(connID, out, "", name, info, false)
}

// JoinLobby joins connID to lobbyID. An unknown id behaves like a create with the
// default name, except for spectators, who get ErrLobbyNotFound.
func (h *Hub) JoinLobby(connID string, out lobby.Outbox, lobbyID string, info types.PlayerInfo, spectate bool) (string, error) {
	return h.join(connID, out, lobbyID, DefaultLobbyName, info, spectate)
}

func (h *Hub) join(connID string, out lobby.Outbox, lobbyID, name string, info types.PlayerInfo, spectate bool) (string, error) {
	info = info.Normalize()
	if info.ID == "" {
		info.ID = uuid.NewString()
	}

	h.mu.RLock()
	prev, bound := h.conns[connID]
	h.mu.RUnlock()

	if err := h.reserve(info.ID, connID); err != nil {
		return "", err
	}

	// A connection is in at most one lobby. The old seat is only given up once
	// the new join has succeeded, except when rejoining the same lobby, where it
	// has to be freed first.
	if bound && lobbyID != "" && prev.lobby.ID() == lobbyID {
		h.detach(connID, prev, info.ID)
		bound = false
	}
	abort := func() {
		if !bound || prev.memberID != info.ID {
			h.release(info.ID, connID)
		}
	}

	var (
		lb  *lobby.Lobby
		err error
	)
	for range joinAttempts {
		lb, err = h.resolve(lobbyID, name, spectate)
		if err != nil {
			break
		}
		err = lb.Join(h.joinMsg(connID, out, info, spectate))
		if !errors.Is(err, lobby.ErrLobbyClosed) {
			break
		}
		h.log.Debug("lobby closed during join, retrying", zap.String("lobby_id", lb.ID()))
	}
	if err != nil {
		abort()
		return "", err
	}

	if !h.bind(connID, binding{lobby: lb, memberID: info.ID, spectator: spectate}) {
		lb.Send(lobby.Leave{ConnID: connID})
		abort()
		return "", ErrLobbyNotFound
	}
	if bound {
		h.detach(connID, prev, info.ID)
	}

	h.log.Info("connection joined lobby",
		zap.String("conn_id", connID),
		zap.String("lobby_id", lb.ID()),
		zap.String("member_id", info.ID),
		zap.Bool("spectator", spectate))
	return lb.ID(), nil
}

// bind records that connID is now b.memberID in b.lobby. It refuses when the
// lobby has already been removed from the registry, which can happen to a
// spectator whose lobby emptied while the join was in flight.
func (h *Hub) bind(connID string, b binding) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lobbies[b.lobby.ID()] != b.lobby {
		return false
	}
	h.conns[connID] = b
	if _, ok := h.members[b.memberID]; !ok {
		h.members[b.memberID] = connID
	}
	return true
}

func (h *Hub) joinMsg(connID string, out lobby.Outbox, info types.PlayerInfo, spectate bool) lobby.Join {
	j := lobby.Join{ConnID: connID, Outbox: out}
	if spectate {
		j.Spectator = &engine.Spectator{ID: info.ID, Name: info.Name}
	} else {
		j.Player = engine.NewPlayer(info.ID, info.Name, info.Team, h.opts.Settings, h.opts.Catalog.StarterWeapon())
	}
	return j
}

// resolve returns the lobby for id, creating a fresh one when id is empty or unknown.
func (h *Hub) resolve(id, name string, spectate bool) (*lobby.Lobby, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if lb, ok := h.lobbies[id]; ok && id != "" {
		return lb, nil
	}
	if spectate {
		return nil, ErrLobbyNotFound
	}
	return h.newLobbyLocked(name), nil
}

func (h *Hub) newLobbyLocked(name string) *lobby.Lobby {
	state := engine.NewState(uuid.NewString(), name, h.opts.Settings)
	state.MaxPlayers = h.opts.MaxPlayers
	state.MaxSpectators = h.opts.MaxSpectators

	lb := lobby.NewLobby(h.ctx, state, lobby.Options{
		Logger:       h.log,
		Catalog:      h.opts.Catalog,
		Sink:         h.opts.Sink,
		HistoryLimit: h.opts.HistoryLimit,
		OnEmpty:      h.removeLobby,
	})
	h.lobbies[state.ID] = lb
	h.log.Info("lobby created", zap.String("lobby_id", state.ID), zap.String("name", name))
	return lb
}

// removeLobby runs on the closing lobby's goroutine. Spectators still bound to it
// lose their binding; they have already been told the lobby closed.
func (h *Hub) removeLobby(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	lb, ok := h.lobbies[id]
	if !ok {
		return
	}
	delete(h.lobbies, id)
	for connID, b := range h.conns {
		if b.lobby != lb {
			continue
		}
		delete(h.conns, connID)
		if h.members[b.memberID] == connID {
			delete(h.members, b.memberID)
		}
	}
	h.log.Info("lobby removed", zap.String("lobby_id", id))
}

func (h *Hub) reserve(memberID, connID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if owner, ok := h.members[memberID]; ok && owner != connID {
		return ErrPlayerIDInUse
	}
	h.members[memberID] = connID
	return nil
}

func (h *Hub) release(memberID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.members[memberID] == connID {
		delete(h.members, memberID)
	}
}

// Leave removes connID's member from its lobby. Calling it again, or for a
// connection that never joined, does nothing.
func (h *Hub) Leave(connID string) {
	h.mu.RLock()
	b, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.detach(connID, b, "")
}

// detach takes connID out of b.lobby and frees b.memberID unless it is keep.
func (h *Hub) detach(connID string, b binding, keep string) {
	h.mu.Lock()
	if cur, ok := h.conns[connID]; ok && cur.lobby == b.lobby {
		delete(h.conns, connID)
	}
	h.mu.Unlock()

	// The id stays reserved until the lobby has the Leave queued, so a rejoin
	// under the same id always lands after it.
	b.lobby.Send(lobby.Leave{ConnID: connID})
	if b.memberID != keep {
		h.release(b.memberID, connID)
	}

	h.log.Info("connection left lobby",
		zap.String("conn_id", connID),
		zap.String("lobby_id", b.lobby.ID()),
		zap.String("member_id", b.memberID))
}

// Disconnect is the transport's notification that connID is gone.
func (h *Hub) Disconnect(connID string) { h.Leave(connID) }

// Submit forwards a game command from connID to its lobby. The acting player is
// always the one bound to the connection; commands naming another player, and
// any command from a spectator, are dropped.
func (h *Hub) Submit(connID string, cmd engine.Command) error {
	h.mu.RLock()
	b, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return ErrNotInLobby
	}
	if b.spectator {
		h.log.Debug("dropping command from spectator", zap.String("conn_id", connID))
		return nil
	}
	if cmd.PlayerID == "" {
		cmd.PlayerID = b.memberID
	}
	if cmd.PlayerID != b.memberID {
		h.log.Debug("dropping command for foreign player",
			zap.String("conn_id", connID),
			zap.String("player_id", cmd.PlayerID))
		return nil
	}
	if !b.lobby.Send(lobby.FromClient{ConnID: connID, Cmd: cmd}) {
		return lobby.ErrLobbyClosed
	}
	return nil
}

func (h *Hub) Lookup(id string) (*lobby.Lobby, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	lb, ok := h.lobbies[id]
	return lb, ok
}

// List returns a summary of every live lobby, ordered by name then id.
func (h *Hub) List() []lobby.Summary {
	h.mu.RLock()
	out := make([]lobby.Summary, 0, len(h.lobbies))
	for _, lb := range h.lobbies {
		out = append(out, lb.Summary())
	}
	h.mu.RUnlock()

	slices.SortFunc(out, func(a, b lobby.Summary) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Shutdown stops every lobby and waits for their goroutines, or for ctx.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	lobbies := make([]*lobby.Lobby, 0, len(h.lobbies))
	for _, lb := range h.lobbies {
		lobbies = append(lobbies, lb)
	}
	h.mu.Unlock()

	h.cancel()
	for _, lb := range lobbies {
		select {
		case <-lb.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	h.log.Info("hub stopped", zap.Int("lobbies", len(lobbies)))
	return nil
}
