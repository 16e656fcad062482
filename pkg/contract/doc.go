// Package contract defines the persisted shape of the love contract.
//
// The contract is a singleton [Document] identified by [DocumentID]. It holds
// exactly two signature slots ([SlotA] and [SlotB]) and one one-way acceptance
// flag. Each slot is either fully empty or fully populated: an image blob and
// the time it was signed are always set or cleared together.
//
// # Slots
//
// [Slot] is a closed enum. Anything that needs a per-slot field name or
// accessor goes through the lookup tables in this package ([Slot.Fields],
// [Record.Signature]) rather than building names at runtime:
//
//	slot, err := contract.ParseSlot("b")
//	fields := slot.Fields() // {Image: "signatureB", SignedAt: "signatureB_at"}
//
// # Records
//
// [Record] is the flat logical record every store backend persists:
//
//	{ id, signatureA, signatureA_at, signatureB, signatureB_at, accepted, accepted_at }
//
// [Document] is the in-memory aggregate built from it with [Record.Document].
package contract
