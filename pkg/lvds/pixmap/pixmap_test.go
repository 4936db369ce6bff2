package pixmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapForIdempotent(t *testing.T) {
	for _, f := range []DataFormat{VESA24, JEIDA24} {
		t.Run(f.String(), func(t *testing.T) {
			a, err := MapFor(f)
			require.NoError(t, err)
			b, err := MapFor(f)
			require.NoError(t, err)
			assert.Equal(t, a, b)
		})
	}
}

func TestMapForReturnsCopy(t *testing.T) {
	a, err := MapFor(VESA24)
	require.NoError(t, err)
	a[1][0] = Zero

	b, err := MapFor(VESA24)
	require.NoError(t, err)
	assert.Equal(t, G0, b[1][0])
}

func TestTablesDiffer(t *testing.T) {
	v, _ := MapFor(VESA24)
	j, _ := MapFor(JEIDA24)

	// clock lane and sync lane layout are shared, colour depth ordering is not
	assert.Equal(t, v[0], j[0])
	assert.Equal(t, []Pixel{DataEnable, VSync, HSync}, v[3][:3])
	assert.Equal(t, []Pixel{DataEnable, VSync, HSync}, j[3][:3])
	assert.Equal(t, []Pixel{R7, R6}, j[1][1:3])
	assert.Equal(t, []Pixel{R5, R4}, v[1][1:3])
}

func TestMapForUnknown(t *testing.T) {
	_, err := MapFor(DataFormat(7))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	v, _ := MapFor(VESA24)
	assert.Equal(t, v, MapForLenient(DataFormat(7)))
}

func TestParseDataFormat(t *testing.T) {
	tests := []struct {
		token   string
		want    DataFormat
		wantErr bool
	}{
		{token: "vesa-24", want: VESA24},
		{token: "jeida-24", want: JEIDA24},
		{token: "jeida-18", wantErr: true},
		{token: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseDataFormat(tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				assert.Equal(t, VESA24, ParseDataFormatLenient(tt.token))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeVESA(t *testing.T) {
	v, _ := MapFor(VESA24)
	words := v.Encode()

	// lane 0 is the clock pattern 1100011
	assert.Equal(t, uint32(0x1E|0x1E<<5|0x1F<<10|0x1F<<15), words[0].LSB)
	assert.Equal(t, uint32(0x1F|0x1E<<5|0x1E<<10), words[0].MSB)

	// lane 1: G0 R5 R4 R3 | R2 R1 R0
	assert.Equal(t, uint32(0x08|0x05<<5|0x04<<10|0x03<<15), words[1].LSB)
	assert.Equal(t, uint32(0x02|0x01<<5|0x00<<10), words[1].MSB)
}

func TestDecodeRoundTrip(t *testing.T) {
	j, _ := MapFor(JEIDA24)
	got, err := Decode(j.Encode())
	require.NoError(t, err)
	assert.Equal(t, j, got)
}

func TestDecodeStrayBits(t *testing.T) {
	var words [Rows]LaneWords
	words[2].MSB = 1 << 15
	_, err := Decode(words)
	assert.Error(t, err)
}

func TestPixelString(t *testing.T) {
	assert.Equal(t, "G7", G7.String())
	assert.Equal(t, "DE", DataEnable.String())
	assert.Equal(t, "Pixel(40)", Pixel(40).String())
}
