package contract

import (
	"image/color"
	"time"
)

// DocumentID is the fixed key of the singleton contract record.
const DocumentID = "love-contract"

// Surface dimensions in pixels.
const (
	CaptureWidth  = 600
	CaptureHeight = 300
	DisplayWidth  = 280
	DisplayHeight = 100
)

// Scheduled transition delays.
const (
	// EnvelopeDelay is how long the envelope stays in the opening state.
	EnvelopeDelay = 1500 * time.Millisecond

	// CelebrationDuration is how long the overlay shows after the second party signs.
	CelebrationDuration = 10 * time.Second
)

// Stroke style. It is fixed for every signature.
const (
	StrokeColorHex = "#8B2942"
	StrokeWidth    = 3.0
)

// StrokeColor is [StrokeColorHex] as a color value.
var StrokeColor = color.NRGBA{R: 0x8B, G: 0x29, B: 0x42, A: 0xFF}

// Blob is a self-describing encoded raster image, normally a data URL such as
// "data:image/png;base64,...". The zero value means "no image".
type Blob string

// IsZero reports whether the blob is empty.
func (b Blob) IsZero() bool { return b == "" }

// Size returns the encoded length in bytes.
func (b Blob) Size() int { return len(b) }

// String returns a shortened form for logs; blobs are large.
func (b Blob) String() string {
	const head = 32
	if len(b) <= head {
		return string(b)
	}
	return string(b[:head]) + "..."
}
