package session

import (
	"context"
	"image"

	"github.com/matzehuels/lovecontract/pkg/blob"
	"github.com/matzehuels/lovecontract/pkg/canvas"
	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/errors"
	"github.com/matzehuels/lovecontract/pkg/observability"
)

// OpenCapture opens a signing interaction for slot on a fresh, cleared
// capture surface. It is a no-op when the slot is already signed or another
// capture is open (including one that is being saved), and reports whether
// a capture was opened.
func (c *Coordinator) OpenCapture(slot contract.Slot) (bool, error) {
	if !slot.Valid() {
		return false, errors.New(errors.ErrCodeInvalidSlot, "invalid slot %d", uint8(slot))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.capture != nil || c.doc.Signed(slot) {
		return false, nil
	}

	surface := canvas.NewSurface(contract.CaptureWidth, contract.CaptureHeight)
	surface.Clear()
	c.capture = &capture{slot: slot, surface: surface}
	c.renderer.Bind(surface)
	return true, nil
}

// BeginStroke starts a stroke on the capture surface. Without an open
// capture, or while it is being saved, it does nothing.
func (c *Coordinator) BeginStroke(p canvas.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editableLocked() == nil {
		c.renderer.BeginStroke(p)
	}
}

// ExtendStroke draws a segment to p if a stroke is in progress.
func (c *Coordinator) ExtendStroke(p canvas.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editableLocked() == nil {
		c.renderer.ExtendStroke(p)
	}
}

// EndStroke finishes the current stroke.
func (c *Coordinator) EndStroke() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderer.EndStroke()
}

// Stroke draws a whole stroke through points. It returns NO_CAPTURE when no
// capture is open and SAVE_IN_PROGRESS while the capture is being saved.
func (c *Coordinator) Stroke(points []canvas.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	c.renderer.DrawStroke(points)
	return nil
}

// PasteCapture draws img onto the capture surface at its native size.
func (c *Coordinator) PasteCapture(img image.Image) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	c.capture.surface.DrawImage(img)
	return nil
}

// ClearCapture wipes the capture surface and keeps the capture open.
func (c *Coordinator) ClearCapture() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	c.renderer.EndStroke()
	c.capture.surface.Clear()
	return nil
}

// CancelCapture discards the capture surface without saving. A capture that
// is being saved cannot be cancelled; the save decides its fate.
func (c *Coordinator) CancelCapture() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capture != nil && c.capture.saving {
		return
	}
	c.closeCaptureLocked()
}

// editableLocked reports why the capture cannot be drawn on, if it cannot.
func (c *Coordinator) editableLocked() error {
	switch {
	case c.capture == nil:
		return errors.New(errors.ErrCodeNoCapture, "no signature capture is open")
	case c.capture.saving:
		return errors.New(errors.ErrCodeSaveInProgress, "the %s signature is being saved", c.capture.slot)
	}
	return nil
}

func (c *Coordinator) closeCaptureLocked() {
	c.capture = nil
	c.renderer.Unbind()
}

// CaptureImage returns a copy of the capture surface.
func (c *Coordinator) CaptureImage() (*image.RGBA, contract.Slot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capture == nil {
		return nil, contract.SlotUnknown, errors.New(errors.ErrCodeNoCapture, "no signature capture is open")
	}
	return c.capture.surface.Snapshot(), c.capture.slot, nil
}

// SaveCapture serializes the capture surface, persists it and mirrors it into
// the slot's display surface. The capture is closed afterwards. Saving slot B
// shows the celebration overlay.
//
// While the write is in flight the capture is marked as saving: it cannot be
// drawn on, cancelled or replaced, so the completion always applies to the
// capture it was started from. A second save of the same capture returns
// SAVE_IN_PROGRESS. If the slot was signed by the time the save starts, the
// capture is closed and ALREADY_SIGNED is returned without writing.
//
// When the store fails the in-memory update is kept and reported in the
// Result. A coordinator configured with WithRollback leaves memory and the
// display untouched instead and keeps the capture open for another attempt.
func (c *Coordinator) SaveCapture(ctx context.Context) Result {
	c.mu.Lock()
	cur := c.capture
	if cur == nil {
		c.mu.Unlock()
		return Result{Op: OpSave, Err: errors.New(errors.ErrCodeNoCapture, "no signature capture is open")}
	}
	res := Result{Op: OpSave, Slot: cur.slot}
	if cur.saving {
		c.mu.Unlock()
		res.Err = errors.New(errors.ErrCodeSaveInProgress, "the %s signature is being saved", cur.slot)
		return res
	}
	if c.doc.Signed(cur.slot) {
		c.closeCaptureLocked()
		c.mu.Unlock()
		res.Err = errors.New(errors.ErrCodeAlreadySigned, "%s has already signed", cur.slot.Party())
		return res
	}
	c.renderer.EndStroke()
	cur.saving = true
	pixels := cur.surface.Snapshot()
	c.mu.Unlock()

	b, err := blob.Encode(pixels)
	if err != nil {
		res.Err = err
		c.mu.Lock()
		cur.saving = false
		c.failLocked(OpSave, cur.slot, err)
		c.mu.Unlock()
		return res
	}

	now := c.clock.Now()
	res.Err = c.store.UpsertSignature(ctx, c.key, cur.slot, b, now)

	c.mu.Lock()
	defer c.mu.Unlock()
	cur.saving = false
	if c.closed || c.capture != cur {
		return res
	}

	prev := c.doc.Signature(cur.slot)
	if res.Err != nil {
		c.failLocked(OpSave, cur.slot, res.Err)
		if c.rollback {
			res.RolledBack = true
			observability.Session().OnPersistFailure(ctx, string(OpSave), cur.slot.String(), true)
			return res
		}
		observability.Session().OnPersistFailure(ctx, string(OpSave), cur.slot.String(), false)
	}

	_ = c.doc.SetSignature(cur.slot, b, now)
	c.loader.Invalidate(cur.slot.String())
	display := c.displays[cur.slot]
	display.Clear()
	display.DrawImage(pixels)
	c.closeCaptureLocked()
	if cur.slot == contract.SlotB {
		c.celebrateLocked()
	}
	if res.Err == nil {
		c.logger.Info("signature saved", "slot", cur.slot, "bytes", b.Size(), "replaced", prev.Signed())
		observability.Session().OnSignatureSaved(ctx, cur.slot.String())
	}
	return res
}
