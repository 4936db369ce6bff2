// Package duallink decides whether a panel is driven over one or two LVDS
// links and which link carries the even pixels.
package duallink

import (
	"errors"
	"fmt"
)

var (
	ErrMissingPort            = errors.New("dual link port missing")
	ErrAmbiguousTag           = errors.New("port tagged both even and odd pixels")
	ErrInconsistentPixelOrder = errors.New("dual link ports do not carry complementary pixels")
)

// PortTag holds the pixel markers of one panel input port.
type PortTag struct {
	EvenPixels bool `json:"even_pixels" yaml:"even_pixels" toml:"even_pixels"`
	OddPixels  bool `json:"odd_pixels" yaml:"odd_pixels" toml:"odd_pixels"`
}

// Ports is the port-pair descriptor of a panel. A panel without one is
// driven over a single link.
type Ports struct {
	Tags []PortTag
}

// Order is the dual link pixel order.
type Order int

const (
	// EvenOdd sends even pixels on the first link and odd pixels on the second.
	EvenOdd Order = iota + 1
	// OddEven sends odd pixels on the first link and even pixels on the second.
	OddEven
)

func (o Order) String() string {
	switch o {
	case EvenOdd:
		return "even-odd"
	case OddEven:
		return "odd-even"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// LinkPhase reports the value of the link phase control bit for o.
func (o Order) LinkPhase() bool {
	return o == OddEven
}

// Topology is the negotiated link layout.
type Topology struct {
	Dual  bool
	Order Order
}

// Single is the single link topology.
var Single = Topology{}

func (t Topology) String() string {
	if !t.Dual {
		return "single"
	}
	return "dual/" + t.Order.String()
}

// Multiplier is the number of links the pixel stream is spread over.
func (t Topology) Multiplier() int {
	if t.Dual {
		return 2
	}
	return 1
}

// Negotiate derives the topology from the panel port descriptor. Only the
// first two ports are considered.
func Negotiate(ports *Ports) (Topology, error) {
	if ports == nil {
		return Single, nil
	}

	if len(ports.Tags) < 2 {
		return Topology{}, fmt.Errorf("%w: found %d of 2 ports", ErrMissingPort, len(ports.Tags))
	}

	first, err := portOrder(0, ports.Tags[0])
	if err != nil {
		return Topology{}, err
	}
	second, err := portOrder(1, ports.Tags[1])
	if err != nil {
		return Topology{}, err
	}

	if first == second {
		return Topology{}, fmt.Errorf("%w: both ports %s", ErrInconsistentPixelOrder, first)
	}

	return Topology{Dual: true, Order: first}, nil
}

// portOrder maps a port to the order it implies. A port without the even
// marker is taken as the odd one.
func portOrder(idx int, tag PortTag) (Order, error) {
	if tag.EvenPixels && tag.OddPixels {
		return 0, fmt.Errorf("%w: port %d", ErrAmbiguousTag, idx)
	}
	if tag.EvenPixels {
		return EvenOdd, nil
	}
	return OddEven, nil
}
