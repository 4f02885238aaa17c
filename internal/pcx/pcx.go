// Package pcx writes 8-bit palette-indexed PCX images, the screenshot
// format of the host engine.
package pcx

import (
	"encoding/binary"
	"fmt"
	"io"

	"fisheye-renderer/internal/palette"
)

// header is the 128-byte PCX header, version 5, 256 colors, one plane.
type header struct {
	Manufacturer uint8
	Version      uint8
	Encoding     uint8
	BitsPerPixel uint8
	XMin, YMin   uint16
	XMax, YMax   uint16
	HRes, VRes   uint16
	Palette      [48]uint8
	Reserved     uint8
	ColorPlanes  uint8
	BytesPerLine uint16
	PaletteType  uint16
	Filler       [58]uint8
}

// Encode writes pixels (row-major width x height palette indexes) as a
// run-length encoded PCX with the 256-color palette appended. Every byte
// is emitted as a run of one: bytes with the two top bits set get the
// 0xc1 count prefix, everything else is literal.
func Encode(w io.Writer, pixels []uint8, width, height int, pal palette.Palette) error {
	if len(pixels) < width*height {
		return fmt.Errorf("pcx: %d pixels for %dx%d image", len(pixels), width, height)
	}

	h := header{
		Manufacturer: 0x0a,
		Version:      5,
		Encoding:     1,
		BitsPerPixel: 8,
		XMax:         uint16(width - 1),
		YMax:         uint16(height - 1),
		HRes:         uint16(width),
		VRes:         uint16(height),
		ColorPlanes:  1,
		BytesPerLine: uint16(width),
		PaletteType:  2,
	}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("pcx: header: %w", err)
	}

	// Worst case doubles every byte; a whole-image buffer keeps the
	// writer call count down.
	data := make([]uint8, 0, 2*width*height+769)
	for _, col := range pixels[:width*height] {
		if col&0xc0 == 0xc0 {
			data = append(data, 0xc1)
		}
		data = append(data, col)
	}

	data = append(data, 0x0c) // palette ID byte
	for _, c := range pal {
		data = append(data, c[0], c[1], c[2])
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("pcx: data: %w", err)
	}
	return nil
}
