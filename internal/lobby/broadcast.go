package lobby

import (
	"github.com/peovukea-bbd/laser-tag/internal/engine"
	"github.com/peovukea-bbd/laser-tag/internal/types"
)

// broadcastSnapshot pushes the full lobby (not a diff) to every member except skip.
func (l *Lobby) broadcastSnapshot(skip string) {
	snap := l.state.Clone()
	l.broadcast(types.ServerMessage{
		Type:    types.TypeLobbyUpdated,
		Version: l.version,
		LobbyID: l.state.ID,
		Lobby:   &snap,
	}, skip)
}

// broadcastEvents delivers each event followed by the leaderboard as of that event.
// All pushes for one action go out before the next inbox message is read,
// so a second action can never interleave with them.
func (l *Lobby) broadcastEvents(o engine.Outcome) {
	for i := range o.Events {
		l.broadcast(types.ServerMessage{
			Type:    types.TypeGameEvent,
			Version: l.version,
			LobbyID: l.state.ID,
			Event:   &o.Events[i],
		}, "")
		l.broadcast(types.ServerMessage{
			Type:        types.TypeLeaderboardUpdate,
			Version:     l.version,
			LobbyID:     l.state.ID,
			Leaderboard: o.Standings[i],
		}, "")
	}
}

func (l *Lobby) broadcast(msg types.ServerMessage, skip string) {
	for id, m := range l.members {
		if id == skip {
			continue
		}
		m.outbox.Push(msg)
	}
}
