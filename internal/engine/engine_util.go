package engine

import (
	"fmt"
	"slices"
	"sort"

	"github.com/peovukea-bbd/laser-tag/internal/catalog"
)

const (
	DefaultMaxPlayers    = 10
	DefaultMaxSpectators = 50
)

func DefaultSettings() Settings {
	return Settings{
		GameDuration:     10,
		RespawnTime:      5,
		StartingHealth:   100,
		StartingPoints:   100,
		WeaponSpawnRate:  0.1,
		PowerUpSpawnRate: 0.05,
	}
}

func NewState(id, name string, settings Settings) State {
	return State{
		ID:            id,
		Name:          name,
		Players:       []*Player{},
		Spectators:    []Spectator{},
		MaxPlayers:    DefaultMaxPlayers,
		MaxSpectators: DefaultMaxSpectators,
		GameState:     GameWaiting,
		GameMode:      ModeFreeForAll,
		Settings:      settings,
	}
}

// NewPlayer builds a fresh player from the lobby settings, armed with starter.
func NewPlayer(id, name, team string, settings Settings, starter catalog.Weapon) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		Health:    settings.StartingHealth,
		MaxHealth: settings.StartingHealth,
		Points:    settings.StartingPoints,
		IsAlive:   settings.StartingHealth > 0,
		Weapons:   []catalog.Weapon{starter},
		PowerUps:  []catalog.PowerUp{},
		Team:      team,
	}
}

func (s *State) Player(id string) *Player {
	if id == "" {
		return nil
	}
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// AddPlayer rejects rather than truncates when the lobby is at capacity.
func (s *State) AddPlayer(p *Player) error {
	if s.Player(p.ID) != nil {
		return fmt.Errorf("%w: %q", ErrDuplicatePlayer, p.ID)
	}
	if len(s.Players) >= s.MaxPlayers {
		return ErrLobbyFull
	}
	s.Players = append(s.Players, p)
	return nil
}

func (s *State) RemovePlayer(id string) bool {
	i := slices.IndexFunc(s.Players, func(p *Player) bool { return p.ID == id })
	if i < 0 {
		return false
	}
	s.Players = slices.Delete(s.Players, i, i+1)
	return true
}

func (s *State) AddSpectator(sp Spectator) error {
	if len(s.Spectators) >= s.MaxSpectators {
		return ErrSpectatorsFull
	}
	s.Spectators = append(s.Spectators, sp)
	return nil
}

func (s *State) RemoveSpectator(id string) bool {
	i := slices.IndexFunc(s.Spectators, func(sp Spectator) bool { return sp.ID == id })
	if i < 0 {
		return false
	}
	s.Spectators = slices.Delete(s.Spectators, i, i+1)
	return true
}

// Clone returns a deep copy that shares nothing mutable with s.
func (s *State) Clone() State {
	c := *s
	c.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp := clonePlayer(p)
		c.Players[i] = &cp
	}
	c.Spectators = slices.Clone(s.Spectators)
	if c.Spectators == nil {
		c.Spectators = []Spectator{}
	}
	if s.StartTime != nil {
		t := *s.StartTime
		c.StartTime = &t
	}
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	return c
}

func clonePlayer(p *Player) Player {
	cp := *p
	cp.Weapons = append([]catalog.Weapon{}, p.Weapons...)
	cp.PowerUps = append([]catalog.PowerUp{}, p.PowerUps...)
	return cp
}

// Leaderboard orders players by points, highest first. Ties keep join order.
func Leaderboard(players []*Player) []Player {
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = clonePlayer(p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Points > out[j].Points })
	return out
}

// CheckInvariants reports the first player whose committed state is inconsistent.
func (s *State) CheckInvariants() error {
	if len(s.Players) > s.MaxPlayers {
		return fmt.Errorf("lobby %s: %d players exceeds max %d", s.ID, len(s.Players), s.MaxPlayers)
	}
	for _, p := range s.Players {
		switch {
		case p.IsAlive != (p.Health > 0):
			return fmt.Errorf("player %s: isAlive=%v with health %d", p.ID, p.IsAlive, p.Health)
		case p.Health < 0 || p.Health > p.MaxHealth:
			return fmt.Errorf("player %s: health %d outside 0..%d", p.ID, p.Health, p.MaxHealth)
		case p.Points < 0:
			return fmt.Errorf("player %s: negative points %d", p.ID, p.Points)
		}
	}
	return nil
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

func EventTypes(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
