package sheet

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/matzehuels/lovecontract/pkg/blob"
	"github.com/matzehuels/lovecontract/pkg/canvas"
	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/errors"
)

// DefaultWidth is the page width in pixels. The height follows the ISO 216
// aspect ratio.
const DefaultWidth = 840

// DateLayout formats signed-at and accepted-at dates on the page.
const DateLayout = "January 2, 2006"

// Title is printed at the top of the page.
const Title = "Valentine's Contract"

// Clauses are printed between the title and the signature blocks.
var Clauses = []string{
	"The undersigned agree to be each other's Valentine,",
	"to share chocolate without keeping score,",
	"and to honor this agreement with at least one hug per day.",
}

var (
	ink   = color.NRGBA{0x33, 0x33, 0x33, 0xFF}
	faint = color.NRGBA{0x99, 0x99, 0x99, 0xFF}
)

// Input is everything printed on the page.
type Input struct {
	Document contract.Document

	// Signatures holds the display surface of each signed slot. Missing
	// slots print as an empty signature line.
	Signatures map[contract.Slot]image.Image
}

// Option configures rendering.
type Option func(*renderer)

type renderer struct {
	width int
	title string
}

// WithWidth sets the page width in pixels.
func WithWidth(w int) Option { return func(r *renderer) { r.width = w } }

// WithTitle replaces the page title.
func WithTitle(t string) Option { return func(r *renderer) { r.title = t } }

// FromDocument decodes the stored signatures of doc into display-size
// images. A signature that fails to decode is a DECODE_ERROR.
func FromDocument(ctx context.Context, doc contract.Document) (Input, error) {
	in := Input{Document: doc, Signatures: make(map[contract.Slot]image.Image)}
	for _, slot := range contract.Slots {
		sig := doc.Signature(slot)
		if !sig.Signed() {
			continue
		}
		display := canvas.NewSurface(contract.DisplayWidth, contract.DisplayHeight)
		if err := blob.Restore(ctx, sig.Image, display); err != nil {
			code := errors.GetCode(err)
			if code == "" {
				code = errors.ErrCodeDecode
			}
			return Input{}, errors.Wrap(code, err, "signature %s", slot)
		}
		in.Signatures[slot] = display.Image()
	}
	return in, nil
}

// Render draws the page.
func Render(in Input, opts ...Option) *image.NRGBA {
	r := renderer{width: DefaultWidth, title: Title}
	for _, opt := range opts {
		opt(&r)
	}
	if r.width < 2*contract.DisplayWidth {
		r.width = 2 * contract.DisplayWidth
	}
	return r.render(in)
}

func (r renderer) render(in Input) *image.NRGBA {
	w := r.width
	h := int(math.Round(float64(w) * math.Sqrt2))
	page := imaging.New(w, h, color.White)

	// Signature images are pasted first so the text layer stays on top.
	margin := w / 12
	colW := (w - 3*margin) / 2
	sigTop := h / 2
	sigH := colW * contract.DisplayHeight / contract.DisplayWidth
	for i, slot := range contract.Slots {
		img, ok := in.Signatures[slot]
		if !ok || img == nil {
			continue
		}
		fitted := imaging.Fit(img, colW, sigH, imaging.Lanczos)
		x := margin + i*(colW+margin)
		page = imaging.Overlay(page, fitted, image.Pt(x, sigTop+sigH-fitted.Bounds().Dy()), 1.0)
	}

	dc := gg.NewContextForImage(page)
	cx := float64(w) / 2

	dc.SetColor(contract.StrokeColor)
	dc.DrawStringAnchored(r.title, cx, float64(margin), 0.5, 0.5)
	dc.SetLineWidth(1)
	dc.DrawLine(float64(margin), float64(margin)+16, float64(w-margin), float64(margin)+16)
	dc.Stroke()

	dc.SetColor(ink)
	y := float64(margin) + 60
	for _, line := range Clauses {
		dc.DrawStringAnchored(line, cx, y, 0.5, 0.5)
		y += 24
	}

	lineY := float64(sigTop + sigH + 6)
	for i, slot := range contract.Slots {
		x := float64(margin + i*(colW+margin))
		sig := in.Document.Signature(slot)

		dc.SetColor(ink)
		dc.SetLineWidth(1)
		dc.DrawLine(x, lineY, x+float64(colW), lineY)
		dc.Stroke()
		dc.DrawString(slot.Party(), x, lineY+20)

		dc.SetColor(faint)
		dc.DrawString(signedCaption(sig), x, lineY+38)
	}

	if acc := in.Document.Acceptance; acc.Accepted {
		r.stamp(dc, cx, lineY+float64(h)/8, acc.AcceptedAt)
	}
	return imaging.Clone(dc.Image())
}

func signedCaption(sig contract.Signature) string {
	if !sig.Signed() || sig.SignedAt == nil {
		return "Awaiting signature"
	}
	return "Signed " + sig.SignedAt.Format(DateLayout)
}

// stamp draws a tilted "ACCEPTED" box centered on (x, y).
func (r renderer) stamp(dc *gg.Context, x, y float64, at *time.Time) {
	label := "ACCEPTED"
	if at != nil {
		label = fmt.Sprintf("ACCEPTED %s", at.Format(DateLayout))
	}
	tw, _ := dc.MeasureString(label)

	dc.Push()
	defer dc.Pop()
	dc.RotateAbout(gg.Radians(-8), x, y)
	dc.SetColor(contract.StrokeColor)
	dc.SetLineWidth(contract.StrokeWidth)
	dc.DrawRoundedRectangle(x-tw/2-16, y-18, tw+32, 36, 6)
	dc.Stroke()
	dc.DrawStringAnchored(label, x, y, 0.5, 0.5)
}

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}
