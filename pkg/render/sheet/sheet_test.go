package sheet

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/matzehuels/lovecontract/pkg/blob"
	"github.com/matzehuels/lovecontract/pkg/canvas"
	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/errors"
)

func signedDocument(t *testing.T) contract.Document {
	t.Helper()
	s := canvas.NewSurface(contract.CaptureWidth, contract.CaptureHeight)
	r := canvas.NewRenderer()
	r.Bind(s)
	for y := 10.0; y < 90; y += 6 {
		r.DrawStroke([]canvas.Point{canvas.Pt(10, y), canvas.Pt(270, y)})
	}
	b, err := blob.Encode(s.Image())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	doc := contract.NewDocument(contract.DocumentID)
	at := time.Date(2025, 2, 14, 18, 0, 0, 0, time.UTC)
	for _, slot := range contract.Slots {
		if err := doc.SetSignature(slot, b, at); err != nil {
			t.Fatalf("SetSignature: %v", err)
		}
	}
	doc.Accept(at)
	return doc
}

func differs(a, b *image.NRGBA) int {
	n := 0
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			n++
		}
	}
	return n
}

func TestRenderPageSize(t *testing.T) {
	img := Render(Input{Document: contract.NewDocument(contract.DocumentID)})
	if got := img.Bounds().Dx(); got != DefaultWidth {
		t.Errorf("width = %d, want %d", got, DefaultWidth)
	}
	want := int(math.Round(DefaultWidth * math.Sqrt2))
	if got := img.Bounds().Dy(); got != want {
		t.Errorf("height = %d, want %d", got, want)
	}

	narrow := Render(Input{}, WithWidth(10))
	if narrow.Bounds().Dx() != 2*contract.DisplayWidth {
		t.Errorf("narrow width = %d, want the minimum %d", narrow.Bounds().Dx(), 2*contract.DisplayWidth)
	}
}

func TestRenderShowsSignaturesAndStamp(t *testing.T) {
	ctx := context.Background()
	empty := Render(Input{Document: contract.NewDocument(contract.DocumentID)})

	in, err := FromDocument(ctx, signedDocument(t))
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	if len(in.Signatures) != 2 {
		t.Fatalf("decoded %d signatures, want 2", len(in.Signatures))
	}
	for slot, img := range in.Signatures {
		if img.Bounds().Dx() != contract.DisplayWidth || img.Bounds().Dy() != contract.DisplayHeight {
			t.Errorf("slot %s decoded to %v, want display size", slot, img.Bounds())
		}
	}

	signed := Render(in)
	if differs(empty, signed) == 0 {
		t.Error("a signed, accepted contract should not render like an empty one")
	}

	unaccepted := in
	unaccepted.Document.Acceptance = contract.Acceptance{}
	if differs(signed, Render(unaccepted)) == 0 {
		t.Error("the acceptance stamp should change the page")
	}
}

func TestFromDocumentRejectsBrokenSignature(t *testing.T) {
	doc := contract.NewDocument(contract.DocumentID)
	if err := doc.SetSignature(contract.SlotA, "data:image/png;base64,aGVsbG8=", time.Now()); err != nil {
		t.Fatal(err)
	}
	_, err := FromDocument(context.Background(), doc)
	if !errors.Is(err, errors.ErrCodeDecode) {
		t.Errorf("FromDocument = %v, want DECODE_ERROR", err)
	}
}

func TestEncodeWritesPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, Render(Input{}, WithTitle("Test"))); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	cfg, err := png.DecodeConfig(&buf)
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != DefaultWidth {
		t.Errorf("width = %d", cfg.Width)
	}
}

func TestSignedCaption(t *testing.T) {
	at := time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC)
	if got := signedCaption(contract.Signature{}); got != "Awaiting signature" {
		t.Errorf("empty caption = %q", got)
	}
	if got := signedCaption(contract.Signature{Image: "x", SignedAt: &at}); got != "Signed February 14, 2025" {
		t.Errorf("signed caption = %q", got)
	}
}
