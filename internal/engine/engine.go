package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/peovukea-bbd/laser-tag/internal/catalog"
)

var ErrUnknownCatalogItem = errors.New("unknown catalog item")
var ErrUnknownTag = errors.New("unknown tag type")
var ErrInsufficientFunds = errors.New("insufficient funds")
var ErrPreconditionNotMet = errors.New("precondition not met")
var ErrUnsupportedCommand = errors.New("unsupported command")
var ErrLobbyFull = errors.New("lobby is full")
var ErrSpectatorsFull = errors.New("spectator slots are full")
var ErrDuplicatePlayer = errors.New("player already in lobby")

const (
	HitReward         = 10
	EliminationReward = 50
	LifeTagReward     = 50
)

type GameState string

const (
	GameWaiting  GameState = "waiting"
	GameStarting GameState = "starting"
	GameActive   GameState = "active"
	GamePaused   GameState = "paused"
	GameEnded    GameState = "ended"
)

type GameMode string

const (
	ModeFreeForAll     GameMode = "free_for_all"
	ModeTeamDeathmatch GameMode = "team_deathmatch"
	ModeTreasureHunt   GameMode = "treasure_hunt"
)

type TagType string

const (
	TagPlayer   TagType = "player"
	TagWeapon   TagType = "weapon"
	TagPowerUp  TagType = "powerup"
	TagLife     TagType = "life"
	TagBoundary TagType = "boundary"
)

type Settings struct {
	GameDuration     int     `json:"gameDuration"` // minutes
	RespawnTime      float64 `json:"respawnTime"`  // seconds
	StartingHealth   int     `json:"startingHealth"`
	StartingPoints   int     `json:"startingPoints"`
	WeaponSpawnRate  float64 `json:"weaponSpawnRate"`
	PowerUpSpawnRate float64 `json:"powerUpSpawnRate"`
}

// RespawnDelay converts the configured respawn time into a duration.
func (s Settings) RespawnDelay() time.Duration {
	return time.Duration(s.RespawnTime * float64(time.Second))
}

// Player is owned by the lobby that contains it. Weapons[0] is the equipped weapon.
type Player struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Health    int               `json:"health"`
	MaxHealth int               `json:"maxHealth"`
	Points    int               `json:"points"`
	IsAlive   bool              `json:"isAlive"`
	Weapons   []catalog.Weapon  `json:"weapons"`
	PowerUps  []catalog.PowerUp `json:"powerUps"`
	Team      string            `json:"team,omitempty"`
	Deaths    int               `json:"deaths"`
}

type Spectator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// State is a lobby's full game state. It is mutated only by the lobby that owns it.
type State struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Players       []*Player   `json:"players"`
	Spectators    []Spectator `json:"spectators"`
	MaxPlayers    int         `json:"maxPlayers"`
	MaxSpectators int         `json:"maxSpectators"`
	GameState     GameState   `json:"gameState"`
	GameMode      GameMode    `json:"gameMode"`
	StartTime     *time.Time  `json:"startTime,omitempty"`
	EndTime       *time.Time  `json:"endTime,omitempty"`
	Settings      Settings    `json:"settings"`
}

type ScanResult struct {
	TagID     string         `json:"tagId"`
	TagType   TagType        `json:"tagType"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// Field returns the string stored under key in the tag payload, or "".
func (r ScanResult) Field(key string) string {
	v, _ := r.Data[key].(string)
	return v
}

type CommandType string

const (
	CmdScanTag         CommandType = "ScanTag"
	CmdShoot           CommandType = "Shoot"
	CmdPurchaseWeapon  CommandType = "PurchaseWeapon"
	CmdPurchasePowerUp CommandType = "PurchasePowerUp"
	CmdRespawn         CommandType = "Respawn"
)

/*
	CmdScanTag         -> EvtWeaponCollected | EvtPowerUpCollected | nothing
	CmdShoot           -> EvtPlayerShot -> EvtPlayerHit [-> EvtPlayerEliminated]
	CmdPurchaseWeapon  -> EvtWeaponPurchased
	CmdPurchasePowerUp -> EvtPowerUpPurchased
	CmdRespawn         -> EvtPlayerRespawned
*/

type Command struct {
	Type     CommandType
	PlayerID string // acting player (shooter for CmdShoot)
	TargetID string
	ItemID   string
	Scan     ScanResult
	Deaths   int // CmdRespawn: death count at elimination time
}

type EventType string

const (
	EvtPlayerShot       EventType = "PLAYER_SHOT"
	EvtPlayerHit        EventType = "PLAYER_HIT"
	EvtPlayerEliminated EventType = "PLAYER_ELIMINATED"
	EvtPlayerRespawned  EventType = "PLAYER_RESPAWNED"
	EvtWeaponCollected  EventType = "WEAPON_COLLECTED"
	EvtPowerUpCollected EventType = "POWERUP_COLLECTED"
	EvtWeaponPurchased  EventType = "WEAPON_PURCHASED"
	EvtPowerUpPurchased EventType = "POWERUP_PURCHASED"
)

// Event is immutable once emitted.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	PlayerID  string         `json:"playerId"`
	TargetID  string         `json:"targetId,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// Outcome is what one command produced.
type Outcome struct {
	Events []Event
	// Standings[i] is the leaderboard as it stood right after Events[i].
	Standings [][]Player
}

func (o *Outcome) emit(s *State, e Event) {
	o.Events = append(o.Events, e)
	o.Standings = append(o.Standings, Leaderboard(s.Players))
}

// Apply resolves cmd against s. On error s is left untouched and no events are returned.
func Apply(s *State, cat *catalog.Catalog, cmd Command) ([]Event, error) {
	o, err := Resolve(s, cat, cmd)
	return o.Events, err
}

// Resolve is Apply keeping the per-event standings.
func Resolve(s *State, cat *catalog.Catalog, cmd Command) (Outcome, error) {
	var o Outcome
	var err error
	switch cmd.Type {
	case CmdScanTag:
		err = resolveScan(&o, s, cat, cmd.PlayerID, cmd.Scan)
	case CmdShoot:
		err = resolveShot(&o, s, cmd.PlayerID, cmd.TargetID)
	case CmdPurchaseWeapon:
		err = resolveWeaponPurchase(&o, s, cat, cmd.PlayerID, cmd.ItemID)
	case CmdPurchasePowerUp:
		err = resolvePowerUpPurchase(&o, s, cat, cmd.PlayerID, cmd.ItemID)
	case CmdRespawn:
		err = resolveRespawn(&o, s, cmd.PlayerID, cmd.Deaths)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedCommand, cmd.Type)
	}
	if err != nil {
		return Outcome{}, err
	}
	return o, nil
}

func resolveScan(o *Outcome, s *State, cat *catalog.Catalog, playerID string, scan ScanResult) error {
	p := s.Player(playerID)
	if p == nil {
		return fmt.Errorf("%w: player %q not in lobby", ErrPreconditionNotMet, playerID)
	}

	switch scan.TagType {
	case TagWeapon:
		w, ok := cat.Weapon(scan.Field("weaponId"))
		if !ok {
			return fmt.Errorf("%w: weapon %q", ErrUnknownCatalogItem, scan.Field("weaponId"))
		}
		// Duplicates are allowed; pickups never replace the equipped weapon.
		p.Weapons = append(p.Weapons, w)
		o.emit(s, newEvent(EvtWeaponCollected, p.ID, "", map[string]any{"weaponId": w.ID, "weaponName": w.Name}))
		return nil

	case TagPowerUp:
		pu, ok := cat.PowerUp(scan.Field("powerUpId"))
		if !ok {
			return fmt.Errorf("%w: power-up %q", ErrUnknownCatalogItem, scan.Field("powerUpId"))
		}
		if err := applyPowerUp(p, pu); err != nil {
			return err
		}
		o.emit(s, newEvent(EvtPowerUpCollected, p.ID, "", map[string]any{"powerUpId": pu.ID, "powerUpName": pu.Name}))
		return nil

	case TagLife:
		p.Points += LifeTagReward
		o.emit(s, newEvent(EvtPowerUpCollected, p.ID, "", map[string]any{"powerUpName": "Extra Life"}))
		return nil

	case TagPlayer, TagBoundary:
		// Player tags are resolved by the client as a shot; boundaries carry no game effect.
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownTag, scan.TagType)
	}
}

func resolveShot(o *Outcome, s *State, shooterID, targetID string) error {
	shooter := s.Player(shooterID)
	target := s.Player(targetID)
	if shooter == nil || target == nil {
		return fmt.Errorf("%w: shooter or target not in lobby", ErrPreconditionNotMet)
	}
	if shooter == target {
		return fmt.Errorf("%w: cannot shoot yourself", ErrPreconditionNotMet)
	}
	if !shooter.IsAlive || !target.IsAlive {
		return fmt.Errorf("%w: shooter and target must be alive", ErrPreconditionNotMet)
	}
	if len(shooter.Weapons) == 0 {
		return fmt.Errorf("%w: shooter is unarmed", ErrPreconditionNotMet)
	}

	// Each event is emitted once its own effects are applied, so the
	// standings after PLAYER_HIT never include the elimination bonus.
	weapon := shooter.Weapons[0]
	o.emit(s, newEvent(EvtPlayerShot, shooter.ID, target.ID, map[string]any{"weapon": weapon.Name, "damage": weapon.Damage}))

	target.Health -= weapon.Damage
	shooter.Points += HitReward
	if target.Health <= 0 {
		target.Health = 0
		target.IsAlive = false
	}
	o.emit(s, newEvent(EvtPlayerHit, shooter.ID, target.ID, map[string]any{"damage": weapon.Damage}))

	if !target.IsAlive {
		target.Deaths++
		shooter.Points += EliminationReward
		o.emit(s, newEvent(EvtPlayerEliminated, shooter.ID, target.ID, map[string]any{}))
	}
	return nil
}

func resolveRespawn(o *Outcome, s *State, playerID string, deaths int) error {
	p := s.Player(playerID)
	if p == nil {
		return fmt.Errorf("%w: player %q left before respawn", ErrPreconditionNotMet, playerID)
	}
	if p.IsAlive || p.Deaths != deaths {
		return fmt.Errorf("%w: stale respawn for %q", ErrPreconditionNotMet, playerID)
	}

	p.IsAlive = true
	p.Health = p.MaxHealth
	o.emit(s, newEvent(EvtPlayerRespawned, p.ID, "", map[string]any{}))
	return nil
}

func resolveWeaponPurchase(o *Outcome, s *State, cat *catalog.Catalog, playerID, weaponID string) error {
	p := s.Player(playerID)
	if p == nil {
		return fmt.Errorf("%w: player %q not in lobby", ErrPreconditionNotMet, playerID)
	}
	w, ok := cat.Weapon(weaponID)
	if !ok {
		return fmt.Errorf("%w: weapon %q", ErrUnknownCatalogItem, weaponID)
	}
	if p.Points < w.Cost {
		return fmt.Errorf("%w: %d < %d", ErrInsufficientFunds, p.Points, w.Cost)
	}

	p.Points -= w.Cost
	// A purchase is a loadout swap, not an addition.
	p.Weapons = []catalog.Weapon{w}
	o.emit(s, newEvent(EvtWeaponPurchased, p.ID, "", map[string]any{"weaponId": w.ID, "weaponName": w.Name, "cost": w.Cost}))
	return nil
}

func resolvePowerUpPurchase(o *Outcome, s *State, cat *catalog.Catalog, playerID, powerUpID string) error {
	p := s.Player(playerID)
	if p == nil {
		return fmt.Errorf("%w: player %q not in lobby", ErrPreconditionNotMet, playerID)
	}
	pu, ok := cat.PowerUp(powerUpID)
	if !ok {
		return fmt.Errorf("%w: power-up %q", ErrUnknownCatalogItem, powerUpID)
	}
	if p.Points < pu.Cost {
		return fmt.Errorf("%w: %d < %d", ErrInsufficientFunds, p.Points, pu.Cost)
	}
	if err := applyPowerUp(p, pu); err != nil {
		return err
	}

	p.Points -= pu.Cost
	o.emit(s, newEvent(EvtPowerUpPurchased, p.ID, "", map[string]any{"powerUpId": pu.ID, "powerUpName": pu.Name, "cost": pu.Cost}))
	return nil
}

// applyPowerUp consumes health boosts on the spot and stores everything else.
func applyPowerUp(p *Player, pu catalog.PowerUp) error {
	if pu.Kind != catalog.PowerUpHealthBoost {
		p.PowerUps = append(p.PowerUps, pu)
		return nil
	}
	// Healing a dead player would break isAlive == (health > 0).
	if !p.IsAlive {
		return fmt.Errorf("%w: cannot heal an eliminated player", ErrPreconditionNotMet)
	}
	p.Health = min(p.MaxHealth, p.Health+pu.Effect.HealthRestore)
	return nil
}

// Overridden in tests.
var (
	newEventID = uuid.NewString
	now        = time.Now
)

func newEvent(typ EventType, playerID, targetID string, data map[string]any) Event {
	return Event{
		ID:        newEventID(),
		Type:      typ,
		PlayerID:  playerID,
		TargetID:  targetID,
		Timestamp: now().UTC(),
		Data:      data,
	}
}
