package texture

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"

	"github.com/dmitrymomot/coverkit/pkg/resample"
)

var (
	// ErrReleased is returned when pixels are requested after Release.
	ErrReleased = errors.New("texture: released")

	// ErrNilBuffer is returned by New for a nil buffer.
	ErrNilBuffer = errors.New("texture: nil buffer")
)

// Texture is a host-side image built from a resampled buffer.
// Release frees the pixel data immediately; it is safe to call more than once.
type Texture struct {
	mu       sync.RWMutex
	width    int
	height   int
	pix      []byte
	released bool
}

// New wraps buf. The texture takes ownership of buf.Pix.
func New(buf *resample.Buffer) (*Texture, error) {
	if buf == nil {
		return nil, ErrNilBuffer
	}
	if _, err := resample.NewBuffer(buf.Width, buf.Height, buf.Pix); err != nil {
		return nil, err
	}
	return &Texture{width: buf.Width, height: buf.Height, pix: buf.Pix}, nil
}

// Placeholder returns a size x size texture filled with c,
// used as the default cover when nothing can be loaded.
func Placeholder(size int, c color.NRGBA) *Texture {
	size = max(size, 1)
	pix := make([]byte, size*size*resample.BytesPerPixel)
	for i := 0; i < len(pix); i += resample.BytesPerPixel {
		pix[i+0] = c.B
		pix[i+1] = c.G
		pix[i+2] = c.R
		pix[i+3] = c.A
	}
	return &Texture{width: size, height: size, pix: pix}
}

func (t *Texture) Width() int  { return t.width }
func (t *Texture) Height() int { return t.height }

// Release drops the pixel data.
func (t *Texture) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pix = nil
	t.released = true
}

func (t *Texture) Released() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.released
}

// Image returns an RGBA-ordered copy of the pixels.
func (t *Texture) Image() (*image.NRGBA, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.released {
		return nil, ErrReleased
	}
	buf := resample.Buffer{Width: t.width, Height: t.height, Pix: t.pix}
	return buf.Image(), nil
}

// EncodePNG writes the texture as a PNG image.
func (t *Texture) EncodePNG(w io.Writer) error {
	img, err := t.Image()
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
