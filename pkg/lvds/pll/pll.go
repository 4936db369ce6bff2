// Package pll derives divider settings for the LVDS PHY phase-locked loop.
package pll

import (
	"errors"
	"fmt"
)

// Divider bounds accepted by the PHY.
const (
	NDivMin = 2
	NDivMax = 6
	BDivMin = 2
	BDivMax = 6
	MDivMin = 1
	MDivMax = 1023
)

// BitsPerPixel is the number of serial bits sent per lane for each pixel clock.
const BitsPerPixel = 7

var (
	ErrInvalidInput = errors.New("invalid clock input")
	ErrNoSolution   = errors.New("no divider setting within bounds")
)

// Dividers is one PLL setting: fout = fref * MDiv / (NDiv * BDiv).
type Dividers struct {
	NDiv uint32 `json:"ndiv"`
	BDiv uint32 `json:"bdiv"`
	MDiv uint32 `json:"mdiv"`
}

// RateKHz returns the rate produced from refKHz. It is 0 for a zero divisor.
func (d Dividers) RateKHz(refKHz uint32) uint32 {
	divisor := uint64(d.NDiv) * uint64(d.BDiv)
	if divisor == 0 {
		return 0
	}
	return uint32(uint64(refKHz) * uint64(d.MDiv) / divisor)
}

// Valid reports whether every divider is within its bounds.
func (d Dividers) Valid() bool {
	return d.NDiv >= NDivMin && d.NDiv <= NDivMax &&
		d.BDiv >= BDivMin && d.BDiv <= BDivMax &&
		d.MDiv >= MDivMin && d.MDiv <= MDivMax
}

func (d Dividers) String() string {
	return fmt.Sprintf("ndiv=%d bdiv=%d mdiv=%d", d.NDiv, d.BDiv, d.MDiv)
}

// Solve searches the divider space for the setting closest to targetKHz.
//
// NDiv is scanned in the outer loop and BDiv in the inner loop, both ascending,
// and only a strictly better deviation replaces the current best, so ties go to
// the first setting found. An exact match ends the search.
func Solve(refKHz, targetKHz uint32) (Dividers, error) {
	if refKHz == 0 || targetKHz == 0 {
		return Dividers{}, fmt.Errorf("%w: reference %d kHz, target %d kHz", ErrInvalidInput, refKHz, targetKHz)
	}

	var (
		best      Dividers
		bestDelta uint32
		found     bool
	)

	for n := uint32(NDivMin); n <= NDivMax; n++ {
		for b := uint32(BDivMin); b <= BDivMax; b++ {
			m := divRoundClosest(uint64(n)*uint64(b)*uint64(targetKHz), uint64(refKHz))
			if m < MDivMin || m > MDivMax {
				continue
			}

			d := Dividers{NDiv: n, BDiv: b, MDiv: uint32(m)}
			delta := absDiff(d.RateKHz(refKHz), targetKHz)
			if !found || delta < bestDelta {
				best, bestDelta, found = d, delta, true
			}
			if delta == 0 {
				return best, nil
			}
		}
	}

	if !found {
		return Dividers{}, fmt.Errorf("%w: reference %d kHz, target %d kHz", ErrNoSolution, refKHz, targetKHz)
	}
	return best, nil
}

func divRoundClosest(x, d uint64) uint64 {
	return (x + d/2) / d
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
