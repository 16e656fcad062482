package session

import (
	"strings"
	"time"

	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/errors"
)

// View is the page a session is looking at.
type View uint8

const (
	ViewContract View = iota
	ViewEnvelope
	ViewCelebration
)

var viewNames = [...]string{
	ViewContract:    "contract",
	ViewEnvelope:    "envelope",
	ViewCelebration: "celebration",
}

func (v View) String() string {
	if int(v) < len(viewNames) {
		return viewNames[v]
	}
	return "unknown"
}

// ParseView parses a view name, case-insensitively. Page numbers 1-3 are
// accepted as well.
func ParseView(s string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "contract", "1":
		return ViewContract, nil
	case "envelope", "2":
		return ViewEnvelope, nil
	case "celebration", "3":
		return ViewCelebration, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown view %q", s)
}

func (v View) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *View) UnmarshalText(text []byte) error {
	parsed, err := ParseView(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// EnvelopeState is the reveal animation state.
type EnvelopeState uint8

const (
	EnvelopeClosed EnvelopeState = iota
	EnvelopeOpening
	EnvelopeOpen
)

func (e EnvelopeState) String() string {
	switch e {
	case EnvelopeClosed:
		return "closed"
	case EnvelopeOpening:
		return "opening"
	case EnvelopeOpen:
		return "open"
	}
	return "unknown"
}

func (e EnvelopeState) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// Op names a persistence call.
type Op string

const (
	OpLoad   Op = "load"
	OpSave   Op = "save_signature"
	OpClear  Op = "clear_signature"
	OpAccept Op = "accept"
	OpDecode Op = "decode"
)

// Result reports the outcome of one persistence call.
type Result struct {
	Op   Op
	Slot contract.Slot
	Err  error

	// RolledBack is set when the in-memory update was reverted after Err.
	RolledBack bool
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Notice is a non-blocking message about a failed background operation.
type Notice struct {
	At      time.Time     `json:"at"`
	Op      Op            `json:"op"`
	Slot    contract.Slot `json:"slot,omitempty"`
	Code    errors.Code   `json:"code"`
	Message string        `json:"message"`
}

// Snapshot is an immutable copy of a coordinator's state.
type Snapshot struct {
	Document    contract.Document
	View        View
	Envelope    EnvelopeState
	Celebration bool

	// CaptureSlot is the slot being signed, or SlotUnknown when no capture
	// interaction is open.
	CaptureSlot contract.Slot
	Drawing     bool

	// Pending notices, oldest first. Reading a snapshot does not drain them.
	Notices []Notice
}

// Capturing reports whether a capture interaction is open.
func (s Snapshot) Capturing() bool { return s.CaptureSlot.Valid() }

// CelebrationReachable reports whether the third view can be navigated to.
func (s Snapshot) CelebrationReachable() bool { return s.Document.BothSigned() }
