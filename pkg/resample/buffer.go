package resample

import "image"

// BytesPerPixel is the size of one pixel in a Buffer.
const BytesPerPixel = 4

// Buffer is a decoded, downscaled image in the canonical layout:
// 8-bit BGRA (blue, green, red, alpha; alpha not premultiplied),
// row-major with row 0 at the top and a stride of Width*4.
//
// A Buffer must not be modified once constructed.
type Buffer struct {
	Width  int
	Height int
	Pix    []byte
}

// NewBuffer wraps pix as a Buffer after checking len(pix) == width*height*4.
func NewBuffer(width, height int, pix []byte) (*Buffer, error) {
	if width <= 0 || height <= 0 || len(pix) != width*height*BytesPerPixel {
		return nil, ErrInvalidBuffer
	}
	return &Buffer{Width: width, Height: height, Pix: pix}, nil
}

// Stride returns the number of bytes per row.
func (b *Buffer) Stride() int {
	return b.Width * BytesPerPixel
}

// Image returns an RGBA-ordered copy of the buffer suitable for the image encoders.
func (b *Buffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for i := 0; i+3 < len(b.Pix); i += BytesPerPixel {
		img.Pix[i+0] = b.Pix[i+2]
		img.Pix[i+1] = b.Pix[i+1]
		img.Pix[i+2] = b.Pix[i+0]
		img.Pix[i+3] = b.Pix[i+3]
	}
	return img
}

// fromNRGBA swizzles a top-down NRGBA image into a new BGRA buffer.
func fromNRGBA(src *image.NRGBA) *Buffer {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	pix := make([]byte, w*h*BytesPerPixel)
	for y := range h {
		row := src.Pix[y*src.Stride : y*src.Stride+w*BytesPerPixel]
		out := pix[y*w*BytesPerPixel : (y+1)*w*BytesPerPixel]
		for x := 0; x < len(row); x += BytesPerPixel {
			out[x+0] = row[x+2]
			out[x+1] = row[x+1]
			out[x+2] = row[x+0]
			out[x+3] = row[x+3]
		}
	}
	return &Buffer{Width: w, Height: h, Pix: pix}
}
