package blob

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/lovecontract/pkg/canvas"
	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/errors"
	"github.com/matzehuels/lovecontract/pkg/observability"
)

func drawnSurface() *canvas.Surface {
	s := canvas.NewSurface(contract.CaptureWidth, contract.CaptureHeight)
	r := canvas.NewRenderer()
	r.Bind(s)
	r.DrawStroke([]canvas.Point{canvas.Pt(20, 30), canvas.Pt(200, 120), canvas.Pt(420, 60)})
	r.DrawStroke([]canvas.Point{canvas.Pt(100, 250), canvas.Pt(580, 280)})
	return s
}

func TestEncodeProducesSelfDescribingBlob(t *testing.T) {
	b, err := Encode(drawnSurface().Image())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.HasPrefix(string(b), "data:image/png;base64,") {
		t.Errorf("blob prefix = %q", b.String())
	}
	mt, err := MediaType(b)
	if err != nil || mt != MediaTypePNG {
		t.Errorf("MediaType = %q, %v", mt, err)
	}
}

func TestRoundTripReproducesPixels(t *testing.T) {
	src := drawnSurface()
	b, err := Encode(src.Image())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	fresh := canvas.NewSurface(contract.CaptureWidth, contract.CaptureHeight)
	if err := Restore(context.Background(), b, fresh); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	want, got := src.Image().Pix, fresh.Image().Pix
	for i := range want {
		// Premultiplied edges may shift by a rounding step through NRGBA.
		if d := int(want[i]) - int(got[i]); d < -2 || d > 2 {
			t.Fatalf("pixel byte %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestRestoreIntoSmallerSurfaceClips(t *testing.T) {
	src := canvas.NewSurface(contract.CaptureWidth, contract.CaptureHeight)
	src.Image().Set(5, 5, color.Black)
	src.Image().Set(500, 250, color.Black)
	b, err := Encode(src.Image())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	display := canvas.NewSurface(contract.DisplayWidth, contract.DisplayHeight)
	if err := Restore(context.Background(), b, display); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if display.Image().RGBAAt(5, 5).A != 0xFF {
		t.Error("pixel inside the display area should be restored at native position")
	}
	if display.Width() != contract.DisplayWidth {
		t.Error("display surface must keep its size")
	}
}

func TestDecodeAcceptsJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	b := contract.Blob("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()))

	got, err := Decode(context.Background(), b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Bounds().Dx() != 8 {
		t.Errorf("width = %d, want 8", got.Bounds().Dx())
	}
}

func TestDecodeRejectsMalformedBlobs(t *testing.T) {
	valid, _ := Encode(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	payload := strings.TrimPrefix(string(valid), "data:image/png;base64,")

	tests := []struct {
		name string
		blob contract.Blob
		code errors.Code
	}{
		{"empty", "", errors.ErrCodeDecode},
		{"not a data url", "https://example.com/sig.png", errors.ErrCodeDecode},
		{"no separator", "data:image/png;base64", errors.ErrCodeDecode},
		{"no media type", contract.Blob("data:;base64," + payload), errors.ErrCodeDecode},
		{"unsupported type", contract.Blob("data:image/bmp;base64," + payload), errors.ErrCodeDecode},
		{"bad base64", "data:image/png;base64,!!!!", errors.ErrCodeDecode},
		{"corrupt png", "data:image/png;base64,aGVsbG8=", errors.ErrCodeDecode},
		{"truncated png", contract.Blob("data:image/png;base64," + payload[:len(payload)/2]), errors.ErrCodeDecode},
		{"too large", contract.Blob("data:image/png;base64," + strings.Repeat("A", MaxBytes)), errors.ErrCodeBlobTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(context.Background(), tt.blob)
			if err == nil {
				t.Fatalf("Decode succeeded with %T", img)
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("Decode code = %v, want %v (%v)", errors.GetCode(err), tt.code, err)
			}
		})
	}
}

func TestDecodeHonorsCanceledContext(t *testing.T) {
	valid, _ := Encode(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Decode(ctx, valid); err != context.Canceled {
		t.Errorf("Decode with canceled ctx = %v, want context.Canceled", err)
	}
}

func TestRestoreLeavesTargetOnError(t *testing.T) {
	target := canvas.NewSurface(4, 4)
	target.Image().Set(1, 1, color.Black)

	if err := Restore(context.Background(), "data:image/png;base64,aGVsbG8=", target); err == nil {
		t.Fatal("Restore of a corrupt blob should fail")
	}
	if target.Image().RGBAAt(1, 1).A != 0xFF {
		t.Error("failed Restore must not touch the target")
	}
}

// grayBlob encodes a blank grayscale PNG of the given size. Blank rows
// compress to almost nothing, so the blob stays tiny whatever its dimensions.
func grayBlob(t *testing.T, w, h int) contract.Blob {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return contract.Blob("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()))
}

func TestDecodeRejectsOversizedDimensions(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"too wide", MaxWidth + 1, 1},
		{"too tall", 1, MaxHeight + 1},
		{"far too wide", 100000, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := grayBlob(t, tt.w, tt.h)
			if b.Size() > MaxBytes {
				t.Fatalf("test blob is %d bytes, should fit under MaxBytes", b.Size())
			}
			img, err := Decode(context.Background(), b)
			if err == nil {
				t.Fatalf("Decode accepted a %v image", img.Bounds())
			}
			if !errors.Is(err, errors.ErrCodeBlobTooLarge) {
				t.Errorf("Decode code = %v, want %v (%v)", errors.GetCode(err), errors.ErrCodeBlobTooLarge, err)
			}
		})
	}
}

func TestDecodeAcceptsLargestDimensions(t *testing.T) {
	img, err := Decode(context.Background(), grayBlob(t, MaxWidth, MaxHeight))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := img.Bounds().Size(); got.X != MaxWidth || got.Y != MaxHeight {
		t.Errorf("size = %v, want %dx%d", got, MaxWidth, MaxHeight)
	}
}

type encodeEvent struct {
	size int
	err  error
}

type recordingCodecHooks struct {
	observability.NoopCodecHooks
	mu     sync.Mutex
	events []encodeEvent
}

func (h *recordingCodecHooks) OnEncode(_ context.Context, size int, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, encodeEvent{size: size, err: err})
}

func TestEncodeReportsEveryOutcome(t *testing.T) {
	hooks := &recordingCodecHooks{}
	observability.SetCodecHooks(hooks)
	t.Cleanup(observability.Reset)

	b, err := Encode(drawnSurface().Image())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := Encode(image.NewRGBA(image.Rect(0, 0, 0, 0))); err == nil {
		t.Fatal("Encode of an empty image should fail")
	}

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if len(hooks.events) != 2 {
		t.Fatalf("OnEncode called %d times, want 2", len(hooks.events))
	}
	if ev := hooks.events[0]; ev.err != nil || ev.size != b.Size() {
		t.Errorf("success event = %+v, want size %d", ev, b.Size())
	}
	if ev := hooks.events[1]; ev.err == nil || ev.size != 0 {
		t.Errorf("failure event = %+v, want an error and size 0", ev)
	}
}
