package types

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peovukea-bbd/laser-tag/internal/engine"
)

func TestClientMessage_Validate(t *testing.T) {
	cases := []struct {
		name    string
		msg     ClientMessage
		wantErr bool
	}{
		{name: "no player", msg: ClientMessage{Type: TypeLeaveLobby}},
		{name: "valid player", msg: ClientMessage{Type: TypeJoinLobby, Player: &PlayerInfo{Name: "Ada"}}},
		{name: "missing name", msg: ClientMessage{Type: TypeJoinLobby, Player: &PlayerInfo{}}, wantErr: true},
		{name: "blank name", msg: ClientMessage{Type: TypeJoinLobby, Player: &PlayerInfo{Name: " \t "}}, wantErr: true},
		{name: "padded name fits once trimmed", msg: ClientMessage{Type: TypeJoinLobby, Player: &PlayerInfo{Name: "  " + strings.Repeat("x", 32) + "  "}}},
		{name: "name too long", msg: ClientMessage{Type: TypeJoinLobby, Player: &PlayerInfo{Name: strings.Repeat("x", 33)}}, wantErr: true},
		{name: "lobby name too long", msg: ClientMessage{Type: TypeCreateLobby, LobbyName: strings.Repeat("x", 65)}, wantErr: true},
		{name: "non ascii id", msg: ClientMessage{Type: TypeJoinLobby, Player: &PlayerInfo{ID: "ïd", Name: "A"}}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClientMessage_ValidateLeavesPlayerUntouched(t *testing.T) {
	p := &PlayerInfo{Name: " Ada "}
	require.NoError(t, ClientMessage{Type: TypeJoinLobby, Player: p}.Validate())
	assert.Equal(t, " Ada ", p.Name)
}

func TestPlayerInfo_Normalize(t *testing.T) {
	// "e" + combining acute accent composes to a single rune under NFC.
	p := PlayerInfo{ID: " p1 ", Name: "  Rene\u0301 ", Team: " red"}.Normalize()
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "Ren\u00e9", p.Name)
	assert.Equal(t, "red", p.Team)
}

func TestClientMessage_DecodesWireShape(t *testing.T) {
	raw := `{"type":"scan_tag","playerId":"p1","scanResult":{"tagId":"t","tagType":"weapon","data":{"weaponId":"rifle"},"timestamp":"2026-10-19T10:00:00Z"}}`

	var m ClientMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	assert.Equal(t, TypeScanTag, m.Type)
	require.NotNil(t, m.ScanResult)
	assert.Equal(t, engine.TagWeapon, m.ScanResult.TagType)
	assert.Equal(t, "rifle", m.ScanResult.Field("weaponId"))
}
