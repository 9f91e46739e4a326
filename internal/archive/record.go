// Package archive keeps a write-only history of every game event emitted by
// any lobby. It is never read back to restore lobby state.
package archive

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/peovukea-bbd/laser-tag/internal/engine"
)

// Topic is the bus topic lobbies publish their events on.
const Topic = "game.events"

type EventRecord struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	LobbyID    string    `gorm:"index;not null;type:varchar(64)" json:"lobby_id"`
	Type       string    `gorm:"index;not null;type:varchar(32)" json:"type"`
	PlayerID   string    `gorm:"index;type:varchar(64)" json:"player_id"`
	TargetID   string    `gorm:"type:varchar(64)" json:"target_id,omitempty"`
	OccurredAt time.Time `gorm:"index;not null" json:"occurred_at"`
	Data       string    `gorm:"type:text" json:"data"`
	CreatedAt  time.Time `json:"created_at"`
}

func (EventRecord) TableName() string { return "game_events" }

func newRecord(lobbyID string, e engine.Event) (EventRecord, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return EventRecord{}, fmt.Errorf("encode event data: %w", err)
	}
	return EventRecord{
		ID:         e.ID,
		LobbyID:    lobbyID,
		Type:       string(e.Type),
		PlayerID:   e.PlayerID,
		TargetID:   e.TargetID,
		OccurredAt: e.Timestamp,
		Data:       string(data),
	}, nil
}
