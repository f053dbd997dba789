// Package resample turns an arbitrary source image into a small, fixed-format
// pixel buffer for cover art.
//
// The transform is pure: a file path and a size go in, a Buffer comes out.
// Nothing is cached and nothing is known about the item the cover belongs to.
//
// # Size rules
//
// The requested side is clamped to [MinSide, longer source side], so covers
// are never upscaled and never shrink below a usable floor. The longer source
// side maps to the clamped value and the shorter side keeps the aspect ratio,
// rounded to the nearest integer and at least 1:
//
//	4000x2000 @ 200 -> 200x100
//	 100x400  @ 200 ->  50x200
//	4000x2000 @  10 ->  32x16
//
// # Output layout
//
// Buffers hold 8-bit BGRA pixels (non-premultiplied alpha), row-major, top row
// first, with len(Pix) == Width*Height*4. Buffer.Image converts to an
// *image.NRGBA for encoding.
//
// # Filtering
//
// Scaling uses the Catmull-Rom cubic kernel from golang.org/x/image/draw with
// the Src operator. The kernel never samples outside the source rectangle, so
// edges are replicated instead of wrapping around.
//
// # Sources
//
// A Resampler reads from any go-billy filesystem (osfs by default, memfs in
// tests). Files are sniffed with h2non/filetype before decoding; JPEG, PNG,
// GIF, BMP, TIFF and WebP decoders are registered.
//
// # Errors
//
// Every failure is reported as ErrSourceNotFound, ErrDecodeFailed or
// ErrCancelled joined with its cause, so callers match with errors.Is and never
// need to inspect filesystem error types. The context is checked before
// decoding, before drawing and before pixel extraction; a cancelled call
// returns no partial data.
package resample
