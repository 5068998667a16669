package libio

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	"github.com/golang/glog"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// FrameExt marks frame captures; everything else is written as png.
const FrameExt = ".frame.lz4"

// DecodeImage decodes any registered format into RGBA with the origin at (0,0).
func DecodeImage(r io.Reader) (*image.RGBA, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", err
	}
	return clone.AsRGBA(img), format, nil
}

func LoadImage(path string) (*image.RGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, format, err := DecodeImage(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	glog.Infof("loaded %s (%s, %dx%d)", path, format, img.Rect.Dx(), img.Rect.Dy())
	return img, nil
}

// FitSize scales (width, height) down to fit maxSize on the long side, keeping the
// aspect. maxSize <= 0 disables the limit.
func FitSize(width, height, maxSize int) (int, int) {
	long := width
	if height > long {
		long = height
	}
	if maxSize <= 0 || long <= maxSize {
		return width, height
	}
	scale := float64(maxSize) / float64(long)
	w := int(float64(width)*scale + 0.5)
	h := int(float64(height)*scale + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// Downscale resizes img so that its long side is at most maxSize.
func Downscale(img *image.RGBA, maxSize int) *image.RGBA {
	w, h := FitSize(img.Rect.Dx(), img.Rect.Dy(), maxSize)
	if w == img.Rect.Dx() && h == img.Rect.Dy() {
		return img
	}
	glog.V(1).Infof("downscale %dx%d to %dx%d", img.Rect.Dx(), img.Rect.Dy(), w, h)
	return transform.Resize(img, w, h, transform.Linear)
}

func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}

// SaveFrame writes frame as png, or as a frame capture when path ends in FrameExt.
func SaveFrame(path string, frame Frame) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	if strings.HasSuffix(strings.ToLower(path), FrameExt) {
		err = EncodeFrame(file, frame, FrameCompressionPlanarLz4)
	} else {
		err = EncodePNG(file, frame.Image)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	glog.Infof("wrote %s", path)
	return nil
}
