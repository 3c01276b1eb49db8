package main

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

type imageFormat int

const (
	formatPNG imageFormat = iota
	formatBMP
)

// scaleImage enlarges src by an integer factor with nearest-neighbour
// sampling so pixels stay sharp.
func scaleImage(src *image.RGBA, factor int) *image.RGBA {
	if factor <= 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func encodeImage(w io.Writer, format imageFormat, img image.Image) error {
	switch format {
	case formatBMP:
		return bmp.Encode(w, img)
	default:
		return png.Encode(w, img)
	}
}

func writeScreenshot(path string, format imageFormat, src *image.RGBA, factor int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encodeImage(f, format, scaleImage(src, factor)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// parseRange parses "start:end" with hexadecimal addresses, optionally
// prefixed with $ or 0x.
func parseRange(s string) (uint16, uint16, error) {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("range %q: expected start:end", s)
	}
	start, err := parseAddr(lo)
	if err != nil {
		return 0, 0, err
	}
	end, err := parseAddr(hi)
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, fmt.Errorf("range %q: end before start", s)
	}
	return start, end, nil
}

func parseAddr(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("address %q: %w", s, err)
	}
	return uint16(v), nil
}
