package blob

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/url"
	"strings"
	"time"

	"golang.org/x/image/webp"

	"github.com/matzehuels/lovecontract/pkg/canvas"
	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/errors"
	"github.com/matzehuels/lovecontract/pkg/observability"
)

// MaxBytes is the largest blob Decode accepts. A 600x300 signature encodes
// to a few tens of kilobytes.
const MaxBytes = 2 << 20

// Largest image dimensions Decode accepts. Compressed formats can declare
// far more pixels than their byte size suggests, so the header is checked
// before any pixel buffer is allocated.
const (
	MaxWidth  = 4 * contract.CaptureWidth
	MaxHeight = 4 * contract.CaptureHeight
)

// MediaTypePNG is the media type produced by Encode.
const MediaTypePNG = "image/png"

const dataPrefix = "data:"

type format struct {
	decode func(io.Reader) (image.Image, error)
	config func(io.Reader) (image.Config, error)
}

var (
	pngFormat  = format{png.Decode, png.DecodeConfig}
	jpegFormat = format{jpeg.Decode, jpeg.DecodeConfig}
)

var decoders = map[string]format{
	"image/png":  pngFormat,
	"image/jpeg": jpegFormat,
	"image/jpg":  jpegFormat,
	"image/gif":  {gif.Decode, gif.DecodeConfig},
	"image/webp": {webp.Decode, webp.DecodeConfig},
}

var encoder = png.Encoder{CompressionLevel: png.BestCompression}

// Encode serializes img as a base64 PNG data URL.
func Encode(img image.Image) (contract.Blob, error) {
	start := time.Now()
	b, err := encode(img)
	observability.Codec().OnEncode(context.Background(), b.Size(), time.Since(start), err)
	return b, err
}

func encode(img image.Image) (contract.Blob, error) {
	var buf bytes.Buffer
	buf.WriteString(dataPrefix + MediaTypePNG + ";base64,")

	enc := base64.NewEncoder(base64.StdEncoding, &buf)
	if err := encoder.Encode(enc, img); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	if err := enc.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "flush base64")
	}
	return contract.Blob(buf.String()), nil
}

// MediaType returns the media type declared by a data URL, lower-cased.
func MediaType(b contract.Blob) (string, error) {
	mediaType, _, _, err := split(b)
	return mediaType, err
}

// Decode parses a data URL and decodes the image it carries.
func Decode(ctx context.Context, b contract.Blob) (image.Image, error) {
	start := time.Now()
	img, mediaType, err := decode(ctx, b)
	observability.Codec().OnDecode(ctx, mediaType, b.Size(), time.Since(start), err)
	return img, err
}

func decode(ctx context.Context, b contract.Blob) (image.Image, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if b.Size() > MaxBytes {
		return nil, "", errors.New(errors.ErrCodeBlobTooLarge, "blob is %d bytes (max %d)", b.Size(), MaxBytes)
	}

	mediaType, isBase64, payload, err := split(b)
	if err != nil {
		return nil, mediaType, err
	}
	f, ok := decoders[mediaType]
	if !ok {
		return nil, mediaType, errors.New(errors.ErrCodeDecode, "unsupported media type %q", mediaType)
	}

	var raw []byte
	if isBase64 {
		raw, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some encoders strip padding.
			raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
	} else {
		var s string
		s, err = url.PathUnescape(payload)
		raw = []byte(s)
	}
	if err != nil {
		return nil, mediaType, errors.Decode(err, "invalid %s payload", mediaType)
	}

	cfg, err := f.config(bytes.NewReader(raw))
	if err != nil {
		return nil, mediaType, errors.Decode(err, "decode %s header", mediaType)
	}
	if cfg.Width > MaxWidth || cfg.Height > MaxHeight {
		return nil, mediaType, errors.New(errors.ErrCodeBlobTooLarge,
			"image is %dx%d pixels (max %dx%d)", cfg.Width, cfg.Height, MaxWidth, MaxHeight)
	}

	img, err := f.decode(bytes.NewReader(raw))
	if err != nil {
		return nil, mediaType, errors.Decode(err, "decode %s", mediaType)
	}
	if err := ctx.Err(); err != nil {
		return nil, mediaType, err
	}
	return img, mediaType, nil
}

// split breaks "data:<type>[;params][;base64],<payload>" into its parts.
func split(b contract.Blob) (mediaType string, isBase64 bool, payload string, err error) {
	s := string(b)
	if len(s) < len(dataPrefix) || !strings.EqualFold(s[:len(dataPrefix)], dataPrefix) {
		return "", false, "", errors.New(errors.ErrCodeDecode, "blob is not a data URL")
	}
	header, payload, ok := strings.Cut(s[len(dataPrefix):], ",")
	if !ok {
		return "", false, "", errors.New(errors.ErrCodeDecode, "data URL has no payload separator")
	}

	params := strings.Split(header, ";")
	mediaType = strings.ToLower(strings.TrimSpace(params[0]))
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}
	if mediaType == "" {
		return "", isBase64, payload, errors.New(errors.ErrCodeDecode, "data URL has no media type")
	}
	return mediaType, isBase64, payload, nil
}

// Draw paints img onto target at its native size.
func Draw(img image.Image, target *canvas.Surface) {
	target.DrawImage(img)
}

// Restore decodes b and draws it onto target.
// The target is only touched when decoding succeeds.
func Restore(ctx context.Context, b contract.Blob, target *canvas.Surface) error {
	img, err := Decode(ctx, b)
	if err != nil {
		return err
	}
	Draw(img, target)
	return nil
}
