package persist

import (
	"encoding/json"
	"fmt"
	"sort"
)

// SnapshotVersion is stamped into snapshot metadata on save.
const SnapshotVersion = "2.0"

// Row is one persisted record: an opaque identifier plus one value per
// column name. On the wire it is flattened: {"id": ..., "<column>": ...}.
type Row struct {
	ID     string
	Values map[string]any
}

// MarshalJSON flattens the row with "id" first and column keys sorted, so
// serialized snapshots are deterministic and diffable.
func (r Row) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(r.Values))
	for k := range r.Values {
		if k == "id" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := []byte(`{"id":`)
	id, err := json.Marshal(r.ID)
	if err != nil {
		return nil, err
	}
	buf = append(buf, id...)
	for _, k := range keys {
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.Values[k])
		if err != nil {
			return nil, fmt.Errorf("row %s: marshal %q: %w", r.ID, k, err)
		}
		buf = append(buf, ',')
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	return append(buf, '}'), nil
}

// UnmarshalJSON splits the flattened form back into ID and Values.
func (r *Row) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if id, ok := m["id"].(string); ok {
		r.ID = id
	}
	delete(m, "id")
	r.Values = m
	return nil
}

// Metadata describes a snapshot.
type Metadata struct {
	RowCount  int    `json:"rowCount"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// Snapshot is the serialized state of one table at a point in time.
type Snapshot struct {
	TableID  string             `json:"tableId"`
	Rows     []Row              `json:"rows"`
	Totals   map[string]float64 `json:"totals"`
	Metadata Metadata           `json:"metadata"`
}

// Marshal serializes the snapshot. Row keys are sorted; map ordering of
// totals is handled by encoding/json's key sorting.
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// ParseSnapshot decodes and structurally checks a snapshot document.
// A missing tableId or a rows field that is not an array is an error.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var shape struct {
		TableID string          `json:"tableId"`
		Rows    json.RawMessage `json:"rows"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if shape.TableID == "" {
		return nil, fmt.Errorf("snapshot: tableId is required")
	}
	if len(shape.Rows) == 0 || shape.Rows[0] != '[' {
		return nil, fmt.Errorf("snapshot: rows must be an array")
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return &s, nil
}
