package duallink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	even = PortTag{EvenPixels: true}
	odd  = PortTag{OddPixels: true}
	both = PortTag{EvenPixels: true, OddPixels: true}
)

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name    string
		ports   *Ports
		want    Topology
		wantErr error
	}{
		{name: "no descriptor", ports: nil, want: Single},
		{name: "even odd", ports: &Ports{Tags: []PortTag{even, odd}}, want: Topology{Dual: true, Order: EvenOdd}},
		{name: "odd even", ports: &Ports{Tags: []PortTag{odd, even}}, want: Topology{Dual: true, Order: OddEven}},
		{name: "untagged second port is odd", ports: &Ports{Tags: []PortTag{even, {}}}, want: Topology{Dual: true, Order: EvenOdd}},
		{name: "extra ports ignored", ports: &Ports{Tags: []PortTag{even, odd, even}}, want: Topology{Dual: true, Order: EvenOdd}},
		{name: "both even", ports: &Ports{Tags: []PortTag{even, even}}, wantErr: ErrInconsistentPixelOrder},
		{name: "both odd", ports: &Ports{Tags: []PortTag{odd, odd}}, wantErr: ErrInconsistentPixelOrder},
		{name: "both untagged", ports: &Ports{Tags: []PortTag{{}, {}}}, wantErr: ErrInconsistentPixelOrder},
		{name: "ambiguous first", ports: &Ports{Tags: []PortTag{both, odd}}, wantErr: ErrAmbiguousTag},
		{name: "ambiguous second", ports: &Ports{Tags: []PortTag{even, both}}, wantErr: ErrAmbiguousTag},
		{name: "one port", ports: &Ports{Tags: []PortTag{even}}, wantErr: ErrMissingPort},
		{name: "empty descriptor", ports: &Ports{}, wantErr: ErrMissingPort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Negotiate(tt.ports)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTopologyHelpers(t *testing.T) {
	assert.Equal(t, 1, Single.Multiplier())
	assert.Equal(t, "single", Single.String())

	dual := Topology{Dual: true, Order: OddEven}
	assert.Equal(t, 2, dual.Multiplier())
	assert.Equal(t, "dual/odd-even", dual.String())
	assert.True(t, OddEven.LinkPhase())
	assert.False(t, EvenOdd.LinkPhase())
}
