package resample

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"math"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// MinSide is the smallest long side a cover is scaled to.
	MinSide = 32

	// DefaultMaxPixels caps the decoded size of a source at 64 megapixels.
	DefaultMaxPixels = 64 << 20

	// sniffLen is how many leading bytes filetype needs to classify a file.
	sniffLen = 262
)

// Resampler decodes cover images from a filesystem and scales them down.
// It keeps no state between calls and is safe for concurrent use.
type Resampler struct {
	fs        billy.Basic
	kernel    *draw.Kernel
	maxPixels int
}

// Option configures a Resampler.
type Option func(*Resampler)

// WithKernel replaces the default Catmull-Rom kernel.
func WithKernel(k *draw.Kernel) Option {
	return func(r *Resampler) {
		if k != nil {
			r.kernel = k
		}
	}
}

// WithMaxPixels rejects sources whose width*height exceeds n before their
// pixels are decoded. It panics if n < 1.
func WithMaxPixels(n int) Option {
	if n < 1 {
		panic("resample: max pixels must be positive")
	}
	return func(r *Resampler) { r.maxPixels = n }
}

// ParseKernel maps a kernel name to a scaling kernel: "catmullrom" (also the
// empty string) or "bilinear".
func ParseKernel(name string) (*draw.Kernel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "catmullrom", "catmull-rom", "bicubic":
		return draw.CatmullRom, nil
	case "bilinear":
		return draw.BiLinear, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKernel, name)
	}
}

// New returns a Resampler reading sources from fsys.
// A nil fsys means the local OS filesystem.
func New(fsys billy.Basic, opts ...Option) *Resampler {
	if fsys == nil {
		fsys = osfs.Default
	}
	r := &Resampler{fs: fsys, kernel: draw.CatmullRom, maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultResampler = New(nil)

// Resample decodes the file at path on the local filesystem and scales it.
// See Resampler.Resample.
func Resample(ctx context.Context, path string, maxSide int) (*Buffer, error) {
	return defaultResampler.Resample(ctx, path, maxSide)
}

// Resample decodes the image at path and scales it so its longer side equals
// maxSide, clamped to [MinSide, longer source side]. The aspect ratio is kept.
//
// Errors are always one of ErrSourceNotFound, ErrDecodeFailed or ErrCancelled,
// joined with the underlying cause. A source over the pixel limit fails with
// ErrDecodeFailed and ErrTooLarge.
func (r *Resampler) Resample(ctx context.Context, path string, maxSide int) (*Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(ErrCancelled, err)
	}

	img, err := r.decode(path)
	if err != nil {
		return nil, err
	}

	return r.Scale(ctx, img, maxSide)
}

// Scale resamples an already decoded image. It applies the same size rules
// and cancellation checks as Resample.
func (r *Resampler) Scale(ctx context.Context, img image.Image, maxSide int) (*Buffer, error) {
	src := img.Bounds()
	if src.Empty() {
		return nil, errors.Join(ErrDecodeFailed, errors.New("image has no pixels"))
	}

	w, h := Dimensions(src.Dx(), src.Dy(), maxSide)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	if err := ctx.Err(); err != nil {
		return nil, errors.Join(ErrCancelled, err)
	}

	// The kernel only samples inside src, so border pixels are clamped
	// rather than wrapped.
	r.kernel.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)

	if err := ctx.Err(); err != nil {
		return nil, errors.Join(ErrCancelled, err)
	}

	return fromNRGBA(dst), nil
}

func (r *Resampler) decode(path string) (image.Image, error) {
	info, err := r.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Join(ErrSourceNotFound, err)
		}
		return nil, errors.Join(ErrDecodeFailed, err)
	}
	if info.IsDir() {
		return nil, errors.Join(ErrSourceNotFound, errors.New("path is a directory"))
	}

	f, err := r.fs.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Join(ErrSourceNotFound, err)
		}
		return nil, errors.Join(ErrDecodeFailed, err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrDecodeFailed, err)
	}
	head = head[:n]

	if !filetype.IsImage(head) {
		kind, _ := filetype.Match(head)
		return nil, errors.Join(ErrDecodeFailed, fmt.Errorf("not an image (detected %q)", kind.Extension))
	}

	// Only the header is read here, so oversized sources are rejected
	// before any pixel memory is allocated.
	cfg, _, err := image.DecodeConfig(io.MultiReader(bytes.NewReader(head), f))
	if err != nil {
		return nil, errors.Join(ErrDecodeFailed, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(r.maxPixels) {
		return nil, errors.Join(ErrDecodeFailed, ErrTooLarge,
			fmt.Errorf("%dx%d exceeds %d pixels", cfg.Width, cfg.Height, r.maxPixels))
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Join(ErrDecodeFailed, err)
	}
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Join(ErrDecodeFailed, err)
	}
	return img, nil
}

// Dimensions returns the output size for a srcW x srcH source.
// The longer side becomes maxSide clamped to [MinSide, max(srcW, srcH)];
// the shorter side is scaled proportionally and rounded, never below 1.
// Sources smaller than MinSide are never upscaled.
func Dimensions(srcW, srcH, maxSide int) (width, height int) {
	long := max(srcW, srcH)
	if long <= 0 {
		return 0, 0
	}
	side := min(max(maxSide, MinSide), long)

	scale := func(short int) int {
		return max(int(math.Round(float64(short)*float64(side)/float64(long))), 1)
	}

	if srcW >= srcH {
		return side, scale(srcH)
	}
	return scale(srcW), side
}
