package contract

import (
	"time"

	"github.com/matzehuels/lovecontract/pkg/errors"
)

// Signature is one signature slot. It is either empty (both fields zero) or
// signed (both fields set).
type Signature struct {
	Image    Blob
	SignedAt *time.Time
}

// Signed reports whether the slot holds an image.
func (s Signature) Signed() bool { return !s.Image.IsZero() }

// consistent reports whether the fully-empty/fully-populated invariant holds.
func (s Signature) consistent() bool {
	return s.Image.IsZero() == (s.SignedAt == nil)
}

// Acceptance records the one-way acceptance of the proposal.
type Acceptance struct {
	Accepted   bool
	AcceptedAt *time.Time
}

// Document is the in-memory aggregate of the singleton contract record.
type Document struct {
	ID         string
	signatures [2]Signature
	Acceptance Acceptance
}

// NewDocument returns an empty document: no signatures, not accepted.
// This is also how a missing record is interpreted.
func NewDocument(id string) Document {
	return Document{ID: id}
}

// Signature returns the slot's signature. Invalid slots read as empty.
func (d Document) Signature(slot Slot) Signature {
	if !slot.Valid() {
		return Signature{}
	}
	return d.signatures[slot.index()]
}

// Signed reports whether the slot holds an image.
func (d Document) Signed(slot Slot) bool { return d.Signature(slot).Signed() }

// BothSigned reports whether every slot is populated.
func (d Document) BothSigned() bool {
	for _, slot := range Slots {
		if !d.Signed(slot) {
			return false
		}
	}
	return true
}

// SetSignature populates a slot. Both fields are set together.
func (d *Document) SetSignature(slot Slot, image Blob, at time.Time) error {
	if !slot.Valid() {
		return errors.New(errors.ErrCodeInvalidSlot, "invalid slot %d", uint8(slot))
	}
	if image.IsZero() {
		return errors.New(errors.ErrCodeInvalidInput, "signature image for slot %s is empty", slot)
	}
	at = at.UTC()
	d.signatures[slot.index()] = Signature{Image: image, SignedAt: &at}
	return nil
}

// ClearSignature resets a slot to empty. Clearing an empty slot is a no-op.
func (d *Document) ClearSignature(slot Slot) {
	if slot.Valid() {
		d.signatures[slot.index()] = Signature{}
	}
}

// Accept marks the contract accepted at the given time. Acceptance is never
// revoked; calling Accept again only moves the timestamp.
func (d *Document) Accept(at time.Time) {
	at = at.UTC()
	d.Acceptance = Acceptance{Accepted: true, AcceptedAt: &at}
}

// Validate checks the per-slot invariant and the acceptance record.
func (d Document) Validate() error {
	for _, slot := range Slots {
		if !d.Signature(slot).consistent() {
			return errors.New(errors.ErrCodeInvalidDocument,
				"slot %s is partially set (image and signed-at must be set together)", slot)
		}
	}
	if !d.Acceptance.Accepted && d.Acceptance.AcceptedAt != nil {
		return errors.New(errors.ErrCodeInvalidDocument, "accepted_at set on a pending contract")
	}
	return nil
}
