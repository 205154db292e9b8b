package cache

import (
	"encoding/json"
	"errors"
	"fmt"
)

// TableVersion is the current schema version of the serialized table.
const TableVersion = 1

// ErrTableCorrupted indicates the persisted table could not be decoded.
var ErrTableCorrupted = errors.New("cache table corrupted")

// Table is the whole cache, serialized as a single document.
type Table struct {
	Version int                    `json:"version"`
	Entries map[Fingerprint]*Entry `json:"entries"`
}

func newTable() *Table {
	return &Table{Version: TableVersion, Entries: make(map[Fingerprint]*Entry)}
}

// decodeTable parses raw. An unsupported version or any entry without a
// timestamp counts as corruption.
func decodeTable(raw string) (*Table, error) {
	var t Table
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTableCorrupted, err)
	}
	if t.Version != TableVersion {
		return nil, fmt.Errorf("%w: unsupported version %d (expected %d)", ErrTableCorrupted, t.Version, TableVersion)
	}
	if t.Entries == nil {
		t.Entries = make(map[Fingerprint]*Entry)
	}
	for k, e := range t.Entries {
		if e == nil || e.StoredAt.IsZero() {
			return nil, fmt.Errorf("%w: entry %s has no timestamp", ErrTableCorrupted, k.Short())
		}
	}
	return &t, nil
}

func (t *Table) encode() (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("marshaling cache table: %w", err)
	}
	return string(data), nil
}
