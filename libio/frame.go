package libio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"

	"github.com/pierrec/lz4/v4"
)

// Frame captures hold one rendered RGBA8 frame. The lz4 variant stores the channels as
// separate planes, which compresses flat sketch output much better than interleaved
// pixels.
const MagicNumberFrame = 0x534b4652

type FrameVersion uint32

const FrameVersion1 = FrameVersion(1_000_000)

type FrameCompression uint32

const (
	FrameCompressionNone = FrameCompression(iota)
	FrameCompressionPlanarLz4
)

type FrameHeader struct {
	Check         uint32
	Version       FrameVersion
	Width, Height uint32
	// Passes is the number of swap chain passes that produced the frame.
	Passes      uint32
	Compression FrameCompression
	Unused      [8]uint8
}

type Frame struct {
	Image  *image.RGBA
	Passes int
}

func EncodeFrame(w io.Writer, frame Frame, compression FrameCompression) error {
	img := frame.Image
	width, height := img.Rect.Dx(), img.Rect.Dy()
	bw := &BinaryWriter{Dst: w, Order: binary.LittleEndian}

	header := FrameHeader{
		Check:       MagicNumberFrame,
		Version:     FrameVersion1,
		Width:       uint32(width),
		Height:      uint32(height),
		Passes:      uint32(frame.Passes),
		Compression: compression,
	}
	if !bw.WriteRef(header) {
		return fmt.Errorf("could not write frame header: %w", bw.Err)
	}

	pix := packRows(img)
	switch compression {
	case FrameCompressionNone:
	case FrameCompressionPlanarLz4:
		var buf bytes.Buffer
		lzw := lz4.NewWriter(&buf)
		if err := lzw.Apply(lz4.CompressionLevelOption(lz4.Fast)); err != nil {
			return err
		}
		if _, err := lzw.Write(toPlanes(pix, 4)); err != nil {
			return fmt.Errorf("could not compress frame: %w", err)
		}
		if err := lzw.Close(); err != nil {
			return fmt.Errorf("could not compress frame: %w", err)
		}
		pix = buf.Bytes()
	default:
		return fmt.Errorf("unknown frame compression %d", compression)
	}

	if !bw.WriteBytes(pix) {
		return fmt.Errorf("could not write frame pixels: %w", bw.Err)
	}
	return nil
}

func DecodeFrame(r io.Reader) (Frame, error) {
	br := &BinaryReader{Src: r, Order: binary.LittleEndian}

	header := FrameHeader{}
	if !br.ReadRef(&header) {
		return Frame{}, fmt.Errorf("expected frame header; byte 0x%08x: %w", br.LastIndex, br.Err)
	}
	if header.Check != MagicNumberFrame {
		return Frame{}, fmt.Errorf("frame header is corrupt; byte 0x%08x", br.LastIndex)
	}
	if header.Version != FrameVersion1 {
		return Frame{}, fmt.Errorf("frame version %d unsupported; byte 0x%08x", header.Version, br.LastIndex)
	}

	width, height := int(header.Width), int(header.Height)
	pix := make([]byte, width*height*4)
	switch header.Compression {
	case FrameCompressionNone:
		if !br.ReadFull(pix) {
			return Frame{}, fmt.Errorf("could not read frame pixels: %w", br.Err)
		}
	case FrameCompressionPlanarLz4:
		planes := make([]byte, len(pix))
		if _, err := io.ReadFull(lz4.NewReader(br.Src), planes); err != nil {
			return Frame{}, fmt.Errorf("could not decompress frame pixels: %w", err)
		}
		pix = fromPlanes(planes, 4)
	default:
		return Frame{}, fmt.Errorf("unknown frame compression %d", header.Compression)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, pix)
	return Frame{Image: img, Passes: int(header.Passes)}, nil
}

// packRows drops any stride padding.
func packRows(img *image.RGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if img.Stride == w*4 && img.Rect.Min == (image.Point{}) {
		return img.Pix[:w*h*4]
	}
	pix := make([]byte, 0, w*h*4)
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		i := img.PixOffset(img.Rect.Min.X, y)
		pix = append(pix, img.Pix[i:i+w*4]...)
	}
	return pix
}

func toPlanes(pix []byte, channels int) []byte {
	count := len(pix) / channels
	planes := make([]byte, len(pix))
	for i := 0; i < count; i++ {
		for c := 0; c < channels; c++ {
			planes[c*count+i] = pix[i*channels+c]
		}
	}
	return planes
}

func fromPlanes(planes []byte, channels int) []byte {
	count := len(planes) / channels
	pix := make([]byte, len(planes))
	for i := 0; i < count; i++ {
		for c := 0; c < channels; c++ {
			pix[i*channels+c] = planes[c*count+i]
		}
	}
	return pix
}
