package session

import (
	"context"
	"image"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/lovecontract/pkg/blob"
	"github.com/matzehuels/lovecontract/pkg/canvas"
	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/errors"
	"github.com/matzehuels/lovecontract/pkg/observability"
	"github.com/matzehuels/lovecontract/pkg/store"
)

// Task names on the coordinator's scheduler.
const (
	TaskEnvelope    = "envelope"
	TaskCelebration = "celebration"
)

// DefaultMaxNotices bounds the notice queue; older notices are dropped.
const DefaultMaxNotices = 20

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock sets the clock used for timestamps and timers.
func WithClock(c clock.Clock) Option { return func(co *Coordinator) { co.clock = c } }

// WithLogger sets the logger for persistence and decode failures.
func WithLogger(l *log.Logger) Option { return func(co *Coordinator) { co.logger = l } }

// WithKey sets the record key. Defaults to contract.DocumentID.
func WithKey(key string) Option { return func(co *Coordinator) { co.key = key } }

// WithRollback reverts in-memory updates whose persistence failed.
func WithRollback() Option { return func(co *Coordinator) { co.rollback = true } }

// WithDelays overrides the envelope delay and celebration duration.
func WithDelays(envelope, celebration time.Duration) Option {
	return func(co *Coordinator) {
		co.envelopeDelay = envelope
		co.celebrationDuration = celebration
	}
}

// WithMaxNotices bounds the notice queue.
func WithMaxNotices(n int) Option { return func(co *Coordinator) { co.maxNotices = n } }

type capture struct {
	slot    contract.Slot
	surface *canvas.Surface

	// saving is set while the store write of this capture is in flight.
	saving bool
}

// Coordinator is the state of one signing session. It is safe for concurrent
// use; store calls run without holding the lock.
type Coordinator struct {
	store  store.Store
	key    string
	clock  clock.Clock
	logger *log.Logger

	rollback            bool
	envelopeDelay       time.Duration
	celebrationDuration time.Duration
	maxNotices          int

	sched  *Scheduler
	loader *blob.Loader

	mu          sync.Mutex
	doc         contract.Document
	view        View
	envelope    EnvelopeState
	celebration bool
	capture     *capture
	renderer    *canvas.Renderer
	displays    map[contract.Slot]*canvas.Surface
	notices     []Notice
	closed      bool
}

// New creates a coordinator over s with an empty document. Call Load to
// replay the stored record.
func New(s store.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:               s,
		key:                 contract.DocumentID,
		envelopeDelay:       contract.EnvelopeDelay,
		celebrationDuration: contract.CelebrationDuration,
		maxNotices:          DefaultMaxNotices,
		loader:              blob.NewLoader(),
		renderer:            canvas.NewRenderer(),
		displays:            make(map[contract.Slot]*canvas.Surface, len(contract.Slots)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.clock == nil {
		c.clock = clock.New()
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	c.sched = NewScheduler(c.clock)
	c.doc = contract.NewDocument(c.key)
	for _, slot := range contract.Slots {
		c.displays[slot] = canvas.NewSurface(contract.DisplayWidth, contract.DisplayHeight)
	}
	observability.Session().OnSessionOpen(context.Background())
	return c
}

// Key returns the record key this session reads and writes.
func (c *Coordinator) Key() string { return c.key }

// =============================================================================
// Loading
// =============================================================================

// Load reads the stored record and replays both signatures into the display
// surfaces. A missing record is an empty document. Load returns once every
// replayed image has been decoded; decode failures become notices and the
// slot keeps its stored value.
func (c *Coordinator) Load(ctx context.Context) error {
	doc, err := c.store.Read(ctx, c.key)
	if store.IsNotFound(err) {
		doc, err = contract.NewDocument(c.key), nil
	}
	if err != nil {
		c.mu.Lock()
		c.failLocked(OpLoad, contract.SlotUnknown, err)
		c.mu.Unlock()
		return err
	}
	if verr := doc.Validate(); verr != nil {
		c.logger.Warn("stored record is inconsistent", "key", c.key, "err", verr)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.doc = doc
	for _, slot := range contract.Slots {
		c.displays[slot].Clear()
		c.replayLocked(ctx, slot, doc.Signature(slot).Image)
	}
	c.mu.Unlock()

	c.loader.Wait()
	c.logger.Debug("loaded contract", "key", c.key, "a", doc.Signed(contract.SlotA),
		"b", doc.Signed(contract.SlotB), "accepted", doc.Acceptance.Accepted)
	return nil
}

// replayLocked starts decoding img into the slot's display surface. An empty
// image only cancels pending decodes for the slot.
func (c *Coordinator) replayLocked(ctx context.Context, slot contract.Slot, img contract.Blob) {
	if img.IsZero() {
		c.loader.Invalidate(slot.String())
		return
	}
	c.loader.Load(context.WithoutCancel(ctx), slot.String(), img, c.applyDecoded)
}

func (c *Coordinator) applyDecoded(r blob.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.loader.Current(r.Key, r.Gen) {
		return
	}
	slot, err := contract.ParseSlot(r.Key)
	if err != nil {
		return
	}
	if r.Err != nil {
		c.failLocked(OpDecode, slot, r.Err)
		return
	}
	display := c.displays[slot]
	display.Clear()
	display.DrawImage(r.Image)
}

// =============================================================================
// Views, envelope, celebration, acceptance
// =============================================================================

// Navigate switches the view. The celebration view is refused with
// VIEW_LOCKED unless both slots are signed. Staying on a view is always allowed.
func (c *Coordinator) Navigate(v View) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v {
	case ViewContract, ViewEnvelope:
	case ViewCelebration:
		if c.view != ViewCelebration && !c.doc.BothSigned() {
			return errors.New(errors.ErrCodeViewLocked, "both parties must sign before the %s view", v)
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown view %d", uint8(v))
	}
	c.view = v
	return nil
}

// OpenEnvelope starts the reveal. The envelope becomes Open after the
// envelope delay. It reports whether the call changed anything.
func (c *Coordinator) OpenEnvelope() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.envelope != EnvelopeClosed {
		return false
	}
	c.envelope = EnvelopeOpening
	c.sched.Schedule(TaskEnvelope, c.envelopeDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.envelope == EnvelopeOpening {
			c.envelope = EnvelopeOpen
		}
	})
	return true
}

// DismissCelebration hides the celebration overlay early.
func (c *Coordinator) DismissCelebration() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.celebration = false
	c.sched.Cancel(TaskCelebration)
}

func (c *Coordinator) celebrateLocked() {
	if c.closed {
		return
	}
	c.celebration = true
	c.sched.Schedule(TaskCelebration, c.celebrationDuration, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.celebration = false
	})
}

// Accept marks the contract accepted and persists it. Calling it again
// persists again with a new timestamp; acceptance itself is never reverted.
func (c *Coordinator) Accept(ctx context.Context) Result {
	now := c.clock.Now()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Result{Op: OpAccept, Err: errClosed()}
	}
	prev := c.doc.Acceptance
	c.doc.Accept(now)
	c.mu.Unlock()

	err := c.store.SetAccepted(ctx, c.key, now)
	res := Result{Op: OpAccept, Err: err}
	if err != nil {
		c.mu.Lock()
		// Only a first acceptance is reverted; a repeated accept stays accepted.
		if c.rollback && !prev.Accepted {
			c.doc.Acceptance = prev
			res.RolledBack = true
		}
		c.failLocked(OpAccept, contract.SlotUnknown, err)
		c.mu.Unlock()
		observability.Session().OnPersistFailure(ctx, string(OpAccept), "", res.RolledBack)
	}
	return res
}

// =============================================================================
// Slots
// =============================================================================

// ClearSlot wipes a slot's display, resets it in memory and clears it in the
// store.
func (c *Coordinator) ClearSlot(ctx context.Context, slot contract.Slot) Result {
	res := Result{Op: OpClear, Slot: slot}
	if !slot.Valid() {
		res.Err = errors.New(errors.ErrCodeInvalidSlot, "invalid slot %d", uint8(slot))
		return res
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		res.Err = errClosed()
		return res
	}
	prev := c.doc.Signature(slot)
	c.displays[slot].Clear()
	c.loader.Invalidate(slot.String())
	c.doc.ClearSignature(slot)
	c.mu.Unlock()

	res.Err = c.store.ClearSignature(ctx, c.key, slot)
	if res.Err != nil {
		c.mu.Lock()
		if c.rollback && prev.Signed() && prev.SignedAt != nil && !c.doc.Signed(slot) {
			_ = c.doc.SetSignature(slot, prev.Image, *prev.SignedAt)
			c.replayLocked(ctx, slot, prev.Image)
			res.RolledBack = true
		}
		c.failLocked(OpClear, slot, res.Err)
		c.mu.Unlock()
		observability.Session().OnPersistFailure(ctx, string(OpClear), slot.String(), res.RolledBack)
	}
	return res
}

// Display returns a copy of a slot's display surface.
func (c *Coordinator) Display(slot contract.Slot) (*image.RGBA, error) {
	if !slot.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidSlot, "invalid slot %d", uint8(slot))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displays[slot].Snapshot(), nil
}

// =============================================================================
// State
// =============================================================================

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		Document:    c.doc,
		View:        c.view,
		Envelope:    c.envelope,
		Celebration: c.celebration,
		Drawing:     c.renderer.Drawing(),
		Notices:     append([]Notice(nil), c.notices...),
	}
	if c.capture != nil {
		s.CaptureSlot = c.capture.slot
	}
	return s
}

// Notices returns pending notices and clears the queue.
func (c *Coordinator) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.notices
	c.notices = nil
	return out
}

func errClosed() error {
	return errors.New(errors.ErrCodeSessionNotFound, "session is closed")
}

// Close cancels scheduled tasks, discards any capture and waits for pending
// decodes. Further state changes are refused or ignored. Close is idempotent.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.sched.Close()
	c.capture = nil
	c.renderer.Unbind()
	c.mu.Unlock()

	c.loader.Wait()
	observability.Session().OnSessionClose(context.Background())
	return nil
}

// failLocked logs err and queues a notice.
func (c *Coordinator) failLocked(op Op, slot contract.Slot, err error) {
	keyvals := []any{"op", op, "key", c.key, "err", err}
	if slot.Valid() {
		keyvals = append(keyvals, "slot", slot)
	}
	c.logger.Error("operation failed", keyvals...)

	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	c.notices = append(c.notices, Notice{
		At:      c.clock.Now(),
		Op:      op,
		Slot:    slot,
		Code:    code,
		Message: errors.UserMessage(err),
	})
	if n := len(c.notices) - c.maxNotices; c.maxNotices > 0 && n > 0 {
		c.notices = append([]Notice(nil), c.notices[n:]...)
	}
}
