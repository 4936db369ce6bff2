// Package pixmap holds the fixed assignments of pixel and sync bits to the
// serial LVDS lanes for the supported data formats.
package pixmap

import (
	"errors"
	"fmt"
)

// Pixel identifies the source of one serial bit. The value is the 5-bit code
// written to the data mapping registers.
type Pixel uint8

const (
	R0 Pixel = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	G0
	G1
	G2
	G3
	G4
	G5
	G6
	G7
	B0
	B1
	B2
	B3
	B4
	B5
	B6
	B7
	HSync
	VSync
	DataEnable
	ControlEnable
	ControlInternal
	Toggle
	One
	Zero
)

// MaxPixel is the largest valid code.
const MaxPixel = Zero

var pixelNames = [...]string{
	"R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7",
	"G0", "G1", "G2", "G3", "G4", "G5", "G6", "G7",
	"B0", "B1", "B2", "B3", "B4", "B5", "B6", "B7",
	"HS", "VS", "DE", "CE", "CI", "TOG", "1", "0",
}

func (p Pixel) String() string {
	if p > MaxPixel {
		return fmt.Sprintf("Pixel(%d)", uint8(p))
	}
	return pixelNames[p]
}

// DataFormat selects a bit mapping.
type DataFormat int

const (
	VESA24 DataFormat = iota
	JEIDA24
)

// Configuration tokens for each format.
const (
	TokenVESA24  = "vesa-24"
	TokenJEIDA24 = "jeida-24"
)

var ErrUnsupportedFormat = errors.New("unsupported data format")

func (f DataFormat) String() string {
	switch f {
	case VESA24:
		return TokenVESA24
	case JEIDA24:
		return TokenJEIDA24
	default:
		return fmt.Sprintf("DataFormat(%d)", int(f))
	}
}

// ParseDataFormat maps a configuration token to a DataFormat.
func ParseDataFormat(token string) (DataFormat, error) {
	switch token {
	case TokenVESA24:
		return VESA24, nil
	case TokenJEIDA24:
		return JEIDA24, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, token)
}

// ParseDataFormatLenient is ParseDataFormat with unknown tokens mapped to VESA24.
func ParseDataFormatLenient(token string) DataFormat {
	f, err := ParseDataFormat(token)
	if err != nil {
		return VESA24
	}
	return f
}

// Rows and Cols are the table dimensions: one row per lane, one column per
// serial bit, bit 6 first.
const (
	Rows = 5
	Cols = 7
)

// Table is a complete lane mapping.
type Table [Rows][Cols]Pixel

// Expected VESA-RGB888 data, sent LSB first.
var vesa24 = Table{
	{One, One, Zero, Zero, Zero, One, One},
	{G0, R5, R4, R3, R2, R1, R0},
	{B1, B0, G5, G4, G3, G2, G1},
	{DataEnable, VSync, HSync, B5, B4, B3, B2},
	{ControlEnable, B7, B6, G7, G6, R7, R6},
}

// Expected JEIDA-RGB888 data, sent LSB first.
var jeida24 = Table{
	{One, One, Zero, Zero, Zero, One, One},
	{G2, R7, R6, R5, R4, R3, R2},
	{B3, B2, G7, G6, G5, G4, G3},
	{DataEnable, VSync, HSync, B7, B6, B5, B4},
	{ControlEnable, B1, B0, G1, G0, R1, R0},
}

// MapFor returns the table for f. Tables are returned by value so callers
// cannot alter the shared copies.
func MapFor(f DataFormat) (Table, error) {
	switch f {
	case VESA24:
		return vesa24, nil
	case JEIDA24:
		return jeida24, nil
	}
	return Table{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
}

// MapForLenient returns the table for f, or the VESA24 table when f is not a
// known format.
func MapForLenient(f DataFormat) Table {
	t, err := MapFor(f)
	if err != nil {
		return vesa24
	}
	return t
}
