package searchindex

import (
	"encoding/json"
	"time"
)

// Index implementations store flat string metadata; the record model carries
// map[string]interface{}. The whole metadata map travels as one JSON value
// under a reserved key so arbitrary caller metadata round-trips.
const (
	metaKey      = "meta"
	createdAtKey = "created_at"
)

func encodeMeta(meta map[string]interface{}, createdAt time.Time) map[string]string {
	out := map[string]string{
		createdAtKey: createdAt.UTC().Format(time.RFC3339Nano),
	}
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			out[metaKey] = string(b)
		}
	}
	return out
}

func decodeMeta(stored map[string]string) (map[string]interface{}, time.Time) {
	var meta map[string]interface{}
	if raw, ok := stored[metaKey]; ok && raw != "" {
		_ = json.Unmarshal([]byte(raw), &meta)
	}
	ts, _ := time.Parse(time.RFC3339Nano, stored[createdAtKey])
	return meta, ts
}
