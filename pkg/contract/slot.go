package contract

import (
	"strings"

	"github.com/matzehuels/lovecontract/pkg/errors"
)

// Slot identifies one of the two parties that sign the contract.
type Slot uint8

const (
	// SlotUnknown is the zero value and never valid.
	SlotUnknown Slot = iota
	// SlotA is the first party (the author of the contract).
	SlotA
	// SlotB is the second party. Saving this slot starts the celebration.
	SlotB
)

// Slots lists the valid slots in display order.
var Slots = []Slot{SlotA, SlotB}

// FieldNames are the logical record fields backing one slot.
type FieldNames struct {
	Image    string
	SignedAt string
}

type slotInfo struct {
	name   string
	party  string
	fields FieldNames
}

var slotTable = [...]slotInfo{
	SlotA: {name: "a", party: "Vik", fields: FieldNames{Image: "signatureA", SignedAt: "signatureA_at"}},
	SlotB: {name: "b", party: "Shalom", fields: FieldNames{Image: "signatureB", SignedAt: "signatureB_at"}},
}

// slotAliases maps accepted spellings to slots. The party names are kept so
// links shared before the a/b naming keep working.
var slotAliases = map[string]Slot{
	"a":           SlotA,
	"vik":         SlotA,
	"b":           SlotB,
	"shalom":      SlotB,
	"decentcrook": SlotB,
}

// ParseSlot parses a slot name case-insensitively.
func ParseSlot(s string) (Slot, error) {
	if slot, ok := slotAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return slot, nil
	}
	return SlotUnknown, errors.New(errors.ErrCodeInvalidSlot, "unknown slot %q (want a or b)", s)
}

// Valid reports whether s is SlotA or SlotB.
func (s Slot) Valid() bool { return s == SlotA || s == SlotB }

// String returns "a" or "b", or "unknown".
func (s Slot) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return slotTable[s].name
}

// Party returns the display name of the signing party.
func (s Slot) Party() string {
	if !s.Valid() {
		return ""
	}
	return slotTable[s].party
}

// Fields returns the logical record field names for the slot.
// It returns the zero FieldNames for an invalid slot.
func (s Slot) Fields() FieldNames {
	if !s.Valid() {
		return FieldNames{}
	}
	return slotTable[s].fields
}

// index maps a valid slot to its position in per-slot arrays.
func (s Slot) index() int { return int(s) - 1 }

// MarshalText implements encoding.TextMarshaler.
func (s Slot) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidSlot, "cannot marshal invalid slot %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Slot) UnmarshalText(text []byte) error {
	slot, err := ParseSlot(string(text))
	if err != nil {
		return err
	}
	*s = slot
	return nil
}
