package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"

	"github.com/peovukea-bbd/laser-tag/internal/engine"
)

// Client -> Server message types.
const (
	TypeCreateLobby     = "create_lobby"
	TypeJoinLobby       = "join_lobby"
	TypeLeaveLobby      = "leave_lobby"
	TypeScanTag         = "scan_tag"
	TypeShootPlayer     = "shoot_player"
	TypePurchaseWeapon  = "purchase_weapon"
	TypePurchasePowerUp = "purchase_powerup"
)

// Server -> Client message types.
const (
	TypeLobbyJoined       = "lobby_joined"
	TypeLobbyUpdated      = "lobby_updated"
	TypeLobbyClosed       = "lobby_closed"
	TypeGameEvent         = "game_event"
	TypeLeaderboardUpdate = "leaderboard_update"
	TypeError             = "error"
)

type PlayerInfo struct {
	ID   string `json:"id,omitempty" validate:"omitempty,max=64,printascii"`
	Name string `json:"name" validate:"required,max=32"`
	Team string `json:"team,omitempty" validate:"omitempty,max=32"`
}

// Normalize trims and NFC-normalizes the free-text fields.
func (p PlayerInfo) Normalize() PlayerInfo {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = norm.NFC.String(strings.TrimSpace(p.Name))
	p.Team = norm.NFC.String(strings.TrimSpace(p.Team))
	return p
}

type ClientMessage struct {
	Type       string             `json:"type"`
	LobbyID    string             `json:"lobbyId,omitempty"`
	LobbyName  string             `json:"lobbyName,omitempty" validate:"max=64"`
	Player     *PlayerInfo        `json:"player,omitempty"`
	Spectate   bool               `json:"spectate,omitempty"`
	PlayerID   string             `json:"playerId,omitempty"`
	ShooterID  string             `json:"shooterId,omitempty"`
	TargetID   string             `json:"targetId,omitempty"`
	WeaponID   string             `json:"weaponId,omitempty"`
	PowerUpID  string             `json:"powerUpId,omitempty"`
	ScanResult *engine.ScanResult `json:"scanResult,omitempty"`
	Raw        string             `json:"raw,omitempty"`
}

type ServerMessage struct {
	Type        string          `json:"type"`
	Version     int             `json:"version,omitempty"`
	LobbyID     string          `json:"lobbyId,omitempty"`
	PlayerID    string          `json:"playerId,omitempty"`
	Lobby       *engine.State   `json:"lobby,omitempty"`
	Event       *engine.Event   `json:"event,omitempty"`
	Leaderboard []engine.Player `json:"leaderboard,omitempty"`
	Message     string          `json:"message,omitempty"`
}

func ErrorMessage(msg string) ServerMessage {
	return ServerMessage{Type: TypeError, Message: msg}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the join/create payload fields, including the nested player.
// The player is checked as it will be stored, so a whitespace-only name is missing.
func (m ClientMessage) Validate() error {
	if m.Player != nil {
		p := m.Player.Normalize()
		m.Player = &p
	}
	return validate.Struct(m)
}
