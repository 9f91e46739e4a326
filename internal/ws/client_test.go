package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peovukea-bbd/laser-tag/internal/engine"
	"github.com/peovukea-bbd/laser-tag/internal/types"
)

func TestClient_OverflowStopsOnce(t *testing.T) {
	stops := 0
	c := newClient("c1", 1, func() { stops++ })

	c.Push(types.ServerMessage{Type: types.TypeLobbyUpdated})
	c.Push(types.ServerMessage{Type: types.TypeLobbyUpdated})
	c.Push(types.ServerMessage{Type: types.TypeLobbyUpdated})

	assert.True(t, c.overflowed.Load())
	assert.Equal(t, 1, stops)
	assert.Len(t, c.queue, 1)
}

func TestClient_PushAfterCloseIsNoop(t *testing.T) {
	c := newClient("c1", 4, func() {})
	c.close()
	c.close()

	assert.NotPanics(t, func() { c.Push(types.ErrorMessage("late")) })
	_, ok := <-c.queue
	assert.False(t, ok)
}

func TestToEngineCommand(t *testing.T) {
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })

	cases := []struct {
		name string
		msg  types.ClientMessage
		want engine.Command
		ok   bool
	}{
		{
			name: "shoot",
			msg:  types.ClientMessage{Type: types.TypeShootPlayer, ShooterID: "p1", TargetID: "p2"},
			want: engine.Command{Type: engine.CmdShoot, PlayerID: "p1", TargetID: "p2"},
			ok:   true,
		},
		{
			name: "purchase weapon",
			msg:  types.ClientMessage{Type: types.TypePurchaseWeapon, PlayerID: "p1", WeaponID: "rifle"},
			want: engine.Command{Type: engine.CmdPurchaseWeapon, PlayerID: "p1", ItemID: "rifle"},
			ok:   true,
		},
		{
			name: "purchase power-up",
			msg:  types.ClientMessage{Type: types.TypePurchasePowerUp, PlayerID: "p1", PowerUpID: "extra_life"},
			want: engine.Command{Type: engine.CmdPurchasePowerUp, PlayerID: "p1", ItemID: "extra_life"},
			ok:   true,
		},
		{
			name: "structured scan gets a timestamp",
			msg: types.ClientMessage{Type: types.TypeScanTag, PlayerID: "p1", ScanResult: &engine.ScanResult{
				TagID: "t", TagType: engine.TagLife,
			}},
			want: engine.Command{Type: engine.CmdScanTag, PlayerID: "p1", Scan: engine.ScanResult{
				TagID: "t", TagType: engine.TagLife, Timestamp: fixed,
			}},
			ok: true,
		},
		{
			name: "raw scan is decoded",
			msg:  types.ClientMessage{Type: types.TypeScanTag, PlayerID: "p1", Raw: "p9"},
			want: engine.Command{Type: engine.CmdScanTag, PlayerID: "p1", Scan: engine.ScanResult{
				TagID: "p9", TagType: engine.TagPlayer, Data: map[string]any{"id": "p9", "playerId": "p9"}, Timestamp: fixed,
			}},
			ok: true,
		},
		{name: "scan without payload", msg: types.ClientMessage{Type: types.TypeScanTag, PlayerID: "p1"}},
		{name: "unknown", msg: types.ClientMessage{Type: "start_game"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toEngineCommand(tc.msg)
			require.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
