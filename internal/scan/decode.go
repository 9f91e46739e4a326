// Package scan turns the raw text of a scanned tag into an engine.ScanResult.
//
// Printed tags carry JSON of the form {"id": "...", "type": "weapon", "data": {...}}.
// Anything that is not a JSON object is treated as a bare player tag.
package scan

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/peovukea-bbd/laser-tag/internal/engine"
)

type tagPayload struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Decode never fails: the coordinator trusts the shape of decoded tags and
// only rejects unknown catalog ids later on.
func Decode(raw string, at time.Time) engine.ScanResult {
	raw = strings.TrimSpace(raw)

	var tag tagPayload
	if err := json.Unmarshal([]byte(raw), &tag); err != nil || !strings.HasPrefix(raw, "{") {
		return engine.ScanResult{
			TagID:     raw,
			TagType:   engine.TagPlayer,
			Data:      map[string]any{"id": raw, "playerId": raw},
			Timestamp: at,
		}
	}

	res := engine.ScanResult{
		TagID:     tag.ID,
		TagType:   engine.TagType(tag.Type),
		Data:      tag.Data,
		Timestamp: at,
	}
	if res.TagID == "" {
		res.TagID = raw
	}
	if res.TagType == "" {
		res.TagType = engine.TagPlayer
	}
	if res.Data == nil {
		// Flat tags keep their ids at the top level.
		var flat map[string]any
		_ = json.Unmarshal([]byte(raw), &flat)
		res.Data = flat
	}
	return res
}
