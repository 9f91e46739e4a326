package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPlayer_RejectsWhenFull(t *testing.T) {
	s := NewState("l", "L", DefaultSettings())
	s.MaxPlayers = 2

	require.NoError(t, s.AddPlayer(NewPlayer("a", "A", "", s.Settings, cat.StarterWeapon())))
	require.NoError(t, s.AddPlayer(NewPlayer("b", "B", "", s.Settings, cat.StarterWeapon())))

	err := s.AddPlayer(NewPlayer("c", "C", "", s.Settings, cat.StarterWeapon()))
	assert.ErrorIs(t, err, ErrLobbyFull)
	assert.Len(t, s.Players, 2)
}

func TestAddPlayer_RejectsDuplicateID(t *testing.T) {
	s := NewState("l", "L", DefaultSettings())
	require.NoError(t, s.AddPlayer(NewPlayer("a", "A", "", s.Settings, cat.StarterWeapon())))

	err := s.AddPlayer(NewPlayer("a", "Again", "", s.Settings, cat.StarterWeapon()))
	assert.ErrorIs(t, err, ErrDuplicatePlayer)
}

func TestNewPlayer_FromSettings(t *testing.T) {
	settings := DefaultSettings()
	settings.StartingHealth = 80
	settings.StartingPoints = 40

	p := NewPlayer("id", "Name", "red", settings, cat.StarterWeapon())
	assert.Equal(t, 80, p.Health)
	assert.Equal(t, 80, p.MaxHealth)
	assert.Equal(t, 40, p.Points)
	assert.True(t, p.IsAlive)
	require.Len(t, p.Weapons, 1)
	assert.Equal(t, "pistol", p.Weapons[0].ID)
	assert.NotNil(t, p.PowerUps)
}

func TestRemovePlayerAndSpectator(t *testing.T) {
	s := NewState("l", "L", DefaultSettings())
	require.NoError(t, s.AddPlayer(NewPlayer("a", "A", "", s.Settings, cat.StarterWeapon())))
	require.NoError(t, s.AddSpectator(Spectator{ID: "s1", Name: "Watcher"}))

	assert.True(t, s.RemovePlayer("a"))
	assert.False(t, s.RemovePlayer("a"))
	assert.True(t, s.RemoveSpectator("s1"))
	assert.False(t, s.RemoveSpectator("s1"))
}

func TestAddSpectator_RejectsWhenFull(t *testing.T) {
	s := NewState("l", "L", DefaultSettings())
	s.MaxSpectators = 1
	require.NoError(t, s.AddSpectator(Spectator{ID: "s1"}))
	assert.ErrorIs(t, s.AddSpectator(Spectator{ID: "s2"}), ErrSpectatorsFull)
}

func TestLeaderboard_SortsByPointsStableOnTies(t *testing.T) {
	players := []*Player{
		{ID: "a", Points: 50},
		{ID: "b", Points: 120},
		{ID: "c", Points: 50},
		{ID: "d", Points: 120},
		{ID: "e", Points: 10},
	}

	board := Leaderboard(players)

	ids := make([]string, len(board))
	for i, p := range board {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"b", "d", "a", "c", "e"}, ids)
	// input order untouched
	assert.Equal(t, "a", players[0].ID)
}

func TestClone_IsDeep(t *testing.T) {
	s := NewState("l", "L", DefaultSettings())
	require.NoError(t, s.AddPlayer(NewPlayer("a", "A", "", s.Settings, cat.StarterWeapon())))

	c := s.Clone()
	c.Players[0].Health = 1
	c.Players[0].Weapons[0].Damage = 999

	assert.Equal(t, 100, s.Players[0].Health)
	assert.Equal(t, 25, s.Players[0].Weapons[0].Damage)
}

func TestCheckInvariants(t *testing.T) {
	s := NewState("l", "L", DefaultSettings())
	require.NoError(t, s.AddPlayer(NewPlayer("a", "A", "", s.Settings, cat.StarterWeapon())))
	require.NoError(t, s.CheckInvariants())

	s.Players[0].Health = 0
	assert.Error(t, s.CheckInvariants())

	s.Players[0].IsAlive = false
	require.NoError(t, s.CheckInvariants())

	s.Players[0].Points = -1
	assert.Error(t, s.CheckInvariants())
}

func TestSettings_RespawnDelay(t *testing.T) {
	assert.Equal(t, "5s", DefaultSettings().RespawnDelay().String())
	assert.Equal(t, "250ms", Settings{RespawnTime: 0.25}.RespawnDelay().String())
}
