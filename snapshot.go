package hooks

import (
	"encoding/json"
	"time"
)

// Snapshot captures the slot layout of an instance and the values of its state
// slots, for persistence, inspection and hydration.
type Snapshot struct {
	InstanceID string       `json:"instance_id" yaml:"instance_id"`
	Component  string       `json:"component,omitempty" yaml:"component,omitempty"`
	Pass       uint64       `json:"pass" yaml:"pass"`
	Slots      []SlotRecord `json:"slots" yaml:"slots"`
	TakenAt    time.Time    `json:"taken_at" yaml:"taken_at"`
}

// SlotRecord describes one slot. Value is only set for state slots.
type SlotRecord struct {
	Index int    `json:"index" yaml:"index"`
	Kind  string `json:"kind" yaml:"kind"`
	Value any    `json:"value,omitempty" yaml:"value,omitempty"`
}

// Record returns the record for index.
func (s Snapshot) Record(index int) (SlotRecord, bool) {
	for _, record := range s.Slots {
		if record.Index == index {
			return record, true
		}
	}
	return SlotRecord{}, false
}

// Values returns the state slot values keyed by slot index.
func (s Snapshot) Values() map[int]any {
	out := map[int]any{}
	for _, record := range s.Slots {
		if ParseSlotKind(record.Kind) == SlotState {
			out[record.Index] = record.Value
		}
	}
	return out
}

// ToJSON serialises the snapshot.
func (s Snapshot) ToJSON() ([]byte, error) {
	type alias Snapshot
	return json.Marshal(alias(s))
}

// SnapshotFromJSON deserialises a payload previously produced by ToJSON.
func SnapshotFromJSON(payload []byte) (Snapshot, error) {
	type alias Snapshot
	var snap alias
	if err := json.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, err
	}
	return Snapshot(snap), nil
}

func (s Snapshot) clone() Snapshot {
	out := s
	if len(s.Slots) > 0 {
		out.Slots = append([]SlotRecord(nil), s.Slots...)
	}
	return out
}
