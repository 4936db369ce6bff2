package pixmap

import "fmt"

// LaneWords are the two data mapping register values of one lane.
type LaneWords struct {
	LSB uint32 `json:"lsb"` // columns 0..3
	MSB uint32 `json:"msb"` // columns 4..6
}

const (
	fieldBits = 5
	fieldMask = 1<<fieldBits - 1

	lsbMask = 1<<(4*fieldBits) - 1
	msbMask = 1<<(3*fieldBits) - 1
)

// Encode packs t into register words.
func (t Table) Encode() [Rows]LaneWords {
	var out [Rows]LaneWords
	for i, row := range t {
		out[i].LSB = uint32(row[0]) |
			uint32(row[1])<<5 |
			uint32(row[2])<<10 |
			uint32(row[3])<<15
		out[i].MSB = uint32(row[4]) |
			uint32(row[5])<<5 |
			uint32(row[6])<<10
	}
	return out
}

// Decode unpacks register words read back from the hardware.
func Decode(words [Rows]LaneWords) (Table, error) {
	var t Table
	for i, w := range words {
		if w.LSB&^lsbMask != 0 || w.MSB&^msbMask != 0 {
			return Table{}, fmt.Errorf("lane %d: stray bits in %#x/%#x", i, w.LSB, w.MSB)
		}
		for c := 0; c < 4; c++ {
			t[i][c] = Pixel(w.LSB >> (fieldBits * c) & fieldMask)
		}
		for c := 0; c < 3; c++ {
			t[i][4+c] = Pixel(w.MSB >> (fieldBits * c) & fieldMask)
		}
	}
	return t, nil
}
