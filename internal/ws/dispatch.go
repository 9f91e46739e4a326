package ws

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/peovukea-bbd/laser-tag/internal/engine"
	"github.com/peovukea-bbd/laser-tag/internal/hub"
	"github.com/peovukea-bbd/laser-tag/internal/scan"
	"github.com/peovukea-bbd/laser-tag/internal/types"
)

var errMissingPlayer = errors.New("player is required")

var now = time.Now

type dispatcher struct {
	hub    *hub.Hub
	client *client
	log    *zap.Logger
}

func (d dispatcher) dispatch(cm types.ClientMessage) {
	if err := cm.Validate(); err != nil {
		d.fail(cm.Type, err)
		return
	}

	switch cm.Type {
	case types.TypeCreateLobby:
		if cm.Player == nil {
			d.fail(cm.Type, errMissingPlayer)
			return
		}
		if _, err := d.hub.CreateLobby(d.client.id, d.client, cm.LobbyName, *cm.Player); err != nil {
			d.fail(cm.Type, err)
		}

	case types.TypeJoinLobby:
		info := types.PlayerInfo{}
		if cm.Player != nil {
			info = *cm.Player
		} else if !cm.Spectate {
			d.fail(cm.Type, errMissingPlayer)
			return
		}
		if _, err := d.hub.JoinLobby(d.client.id, d.client, cm.LobbyID, info, cm.Spectate); err != nil {
			d.fail(cm.Type, err)
		}

	case types.TypeLeaveLobby:
		d.hub.Leave(d.client.id)

	default:
		cmd, ok := toEngineCommand(cm)
		if !ok {
			d.client.Push(types.ErrorMessage("unknown message type"))
			return
		}
		// Game commands are fire-and-forget; rejections are never echoed back.
		if err := d.hub.Submit(d.client.id, cmd); err != nil {
			d.log.Debug("command dropped", zap.String("type", cm.Type), zap.Error(err))
		}
	}
}

func (d dispatcher) fail(msgType string, err error) {
	d.log.Debug("request rejected", zap.String("type", msgType), zap.Error(err))
	d.client.Push(types.ErrorMessage(errorText(err)))
}

func errorText(err error) string {
	switch {
	case errors.Is(err, engine.ErrLobbyFull):
		return "Lobby is full"
	case errors.Is(err, engine.ErrSpectatorsFull):
		return "Spectator slots are full"
	case errors.Is(err, hub.ErrLobbyNotFound):
		return "Lobby not found"
	case errors.Is(err, hub.ErrPlayerIDInUse):
		return "Player id already in use"
	case errors.Is(err, errMissingPlayer):
		return "Player is required"
	default:
		return "Invalid request"
	}
}

func toEngineCommand(m types.ClientMessage) (engine.Command, bool) {
	switch m.Type {
	case types.TypeScanTag:
		var res engine.ScanResult
		switch {
		case m.ScanResult != nil:
			res = *m.ScanResult
			if res.Timestamp.IsZero() {
				res.Timestamp = now()
			}
		case m.Raw != "":
			res = scan.Decode(m.Raw, now())
		default:
			return engine.Command{}, false
		}
		return engine.Command{Type: engine.CmdScanTag, PlayerID: m.PlayerID, Scan: res}, true
	case types.TypeShootPlayer:
		return engine.Command{Type: engine.CmdShoot, PlayerID: m.ShooterID, TargetID: m.TargetID}, true
	case types.TypePurchaseWeapon:
		return engine.Command{Type: engine.CmdPurchaseWeapon, PlayerID: m.PlayerID, ItemID: m.WeaponID}, true
	case types.TypePurchasePowerUp:
		return engine.Command{Type: engine.CmdPurchasePowerUp, PlayerID: m.PlayerID, ItemID: m.PowerUpID}, true
	default:
		return engine.Command{}, false
	}
}
