// Package blob converts signature surfaces to and from portable data URLs.
//
// A blob is a self-describing string: the media type travels with the payload,
// so a stored signature can be decoded without any other context.
//
//	b, err := blob.Encode(surface.Image())  // "data:image/png;base64,iVBOR..."
//	img, err := blob.Decode(ctx, b)
//
// Encoding is always lossless PNG. Decoding accepts PNG, JPEG, GIF and WebP so
// blobs produced by other clients can be displayed too.
//
// # Errors
//
// Malformed input never blocks: [Decode] returns an error with code
// DECODE_ERROR (see package errors) for a bad prefix, an unknown media type,
// invalid base64 or a corrupt image, and BLOB_TOO_LARGE for inputs above
// [MaxBytes].
//
// # Restoring surfaces
//
// [Draw] paints a decoded image at its native size; a 600x300 capture drawn
// into a 280x100 display surface shows its top-left corner. [Loader] runs
// decodes in the background and tags each request with a generation so callers
// can drop results that were superseded while decoding.
package blob
