package contract

import "time"

// Record is the flat logical record shared by every store backend and the
// HTTP API. Empty images and nil timestamps are stored as null.
type Record struct {
	ID           string     `json:"id" bson:"_id"`
	SignatureA   *string    `json:"signatureA" bson:"signatureA"`
	SignatureAAt *time.Time `json:"signatureA_at" bson:"signatureA_at"`
	SignatureB   *string    `json:"signatureB" bson:"signatureB"`
	SignatureBAt *time.Time `json:"signatureB_at" bson:"signatureB_at"`
	Accepted     bool       `json:"accepted" bson:"accepted"`
	AcceptedAt   *time.Time `json:"accepted_at" bson:"accepted_at"`
}

// slotAccessor exposes the two record fields of one slot.
type slotAccessor struct {
	image    func(*Record) **string
	signedAt func(*Record) **time.Time
}

var recordAccessors = [...]slotAccessor{
	SlotA: {
		image:    func(r *Record) **string { return &r.SignatureA },
		signedAt: func(r *Record) **time.Time { return &r.SignatureAAt },
	},
	SlotB: {
		image:    func(r *Record) **string { return &r.SignatureB },
		signedAt: func(r *Record) **time.Time { return &r.SignatureBAt },
	},
}

// Signature reads a slot out of the record.
func (r *Record) Signature(slot Slot) Signature {
	if !slot.Valid() {
		return Signature{}
	}
	acc := recordAccessors[slot]
	var sig Signature
	if img := *acc.image(r); img != nil {
		sig.Image = Blob(*img)
	}
	if at := *acc.signedAt(r); at != nil {
		t := at.UTC()
		sig.SignedAt = &t
	}
	return sig
}

// SetSignature writes a slot into the record. A zero signature stores nulls.
func (r *Record) SetSignature(slot Slot, sig Signature) {
	if !slot.Valid() {
		return
	}
	acc := recordAccessors[slot]
	if sig.Image.IsZero() {
		*acc.image(r) = nil
	} else {
		img := string(sig.Image)
		*acc.image(r) = &img
	}
	if sig.SignedAt == nil {
		*acc.signedAt(r) = nil
	} else {
		t := sig.SignedAt.UTC()
		*acc.signedAt(r) = &t
	}
}

// Document converts the record to the in-memory aggregate.
func (r Record) Document() Document {
	doc := NewDocument(r.ID)
	for _, slot := range Slots {
		doc.signatures[slot.index()] = r.Signature(slot)
	}
	doc.Acceptance.Accepted = r.Accepted
	if r.AcceptedAt != nil {
		t := r.AcceptedAt.UTC()
		doc.Acceptance.AcceptedAt = &t
	}
	return doc
}

// Record flattens the document into the logical record.
func (d Document) Record() Record {
	r := Record{ID: d.ID, Accepted: d.Acceptance.Accepted}
	for _, slot := range Slots {
		r.SetSignature(slot, d.Signature(slot))
	}
	if d.Acceptance.AcceptedAt != nil {
		t := d.Acceptance.AcceptedAt.UTC()
		r.AcceptedAt = &t
	}
	return r
}
