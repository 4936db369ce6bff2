// Package lvds brings an LVDS display transmitter from reset to a locked,
// enabled output: it negotiates the link topology, programs and locks one or
// two PHY PLLs and commits the pixel data mapping.
package lvds

import (
	"fmt"
	"log"
	"time"

	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/duallink"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/phy"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/pixmap"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/pll"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/regs"
)

// Polarity marks active-low control signals.
type Polarity struct {
	HSyncLow bool `json:"hsync_low"`
	VSyncLow bool `json:"vsync_low"`
	DELow    bool `json:"de_low"`
}

// Config is everything one bring-up needs.
type Config struct {
	Clock    pll.ClockSpec     `json:"clock"`
	Format   pixmap.DataFormat `json:"format"`
	Ports    *duallink.Ports   `json:"ports,omitempty"`
	Polarity Polarity          `json:"polarity"`

	// LenientFormat maps an unknown Format to VESA24 instead of failing.
	LenientFormat bool `json:"lenient_format,omitempty"`
}

// Transmitter is a display bridge that can be brought up once.
type Transmitter interface {
	BringUp(cfg Config) (*Report, error)

	transmitter()
}

// Controller drives the LVDS transmitter behind a register bus.
type Controller struct {
	bus      regs.Bus
	logger   *log.Logger
	clock    phy.Clock
	interval time.Duration
	timeout  time.Duration
	observer phy.Observer
}

var _ Transmitter = (*Controller)(nil)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithClock sets the time source of the lock wait.
func WithClock(clock phy.Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithPolling sets the lock poll interval and timeout. A non-positive
// interval selects phy.DefaultPollInterval.
func WithPolling(interval, timeout time.Duration) Option {
	return func(c *Controller) {
		if interval <= 0 {
			interval = phy.DefaultPollInterval
		}
		c.interval = interval
		c.timeout = timeout
	}
}

// WithObserver receives the PHY transitions as they happen.
func WithObserver(fn phy.Observer) Option {
	return func(c *Controller) { c.observer = fn }
}

// New returns a controller for the transmitter behind bus. The controller
// assumes exclusive access to the register window for the whole bring-up.
func New(bus regs.Bus, opts ...Option) *Controller {
	c := &Controller{
		bus:      bus,
		clock:    phy.SystemClock{},
		interval: phy.DefaultPollInterval,
		timeout:  phy.DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

func (c *Controller) transmitter() {}

// BringUp negotiates the topology, locks the PHYs (slave first in dual link)
// and commits the data mapping. Any error leaves the output disabled.
func (c *Controller) BringUp(cfg Config) (*Report, error) {
	report := &Report{Format: cfg.Format, Start: c.clock.Now()}
	counter := &phy.Counter{}
	defer func() { report.End = c.clock.Now() }()

	if err := cfg.Clock.Validate(); err != nil {
		return report, err
	}

	topo, err := duallink.Negotiate(cfg.Ports)
	if err != nil {
		return report, fmt.Errorf("failed to negotiate link topology: %w", err)
	}
	report.Topology = topo

	clock := cfg.Clock
	if clock.LinkMultiplier != 0 && clock.LinkMultiplier != topo.Multiplier() {
		c.logger.Printf("lvds: link multiplier %d does not match %s topology, using %d",
			clock.LinkMultiplier, topo, topo.Multiplier())
	}
	clock.LinkMultiplier = topo.Multiplier()

	table, err := c.table(cfg)
	if err != nil {
		return report, err
	}

	ids := []phy.ID{phy.Master}
	if topo.Dual {
		ids = []phy.ID{phy.Slave, phy.Master}
	}

	for _, id := range ids {
		rec, err := c.bringUpPHY(id, clock, counter, report)
		report.PHYs = append(report.PHYs, rec)
		if err != nil {
			return report, fmt.Errorf("failed to bring up %s PHY: %w", id, err)
		}
	}

	c.commit(cfg, topo, table)
	report.Enabled = true

	c.logger.Printf("lvds: %s link enabled, %s, %d kHz serial clock", topo, cfg.Format, clock.SerialKHz())
	return report, nil
}

func (c *Controller) table(cfg Config) (pixmap.Table, error) {
	if cfg.LenientFormat {
		if _, err := pixmap.MapFor(cfg.Format); err != nil {
			c.logger.Printf("lvds: %v, falling back to %s", err, pixmap.VESA24)
		}
		return pixmap.MapForLenient(cfg.Format), nil
	}
	return pixmap.MapFor(cfg.Format)
}

func (c *Controller) bringUpPHY(id phy.ID, clock pll.ClockSpec, counter *phy.Counter, report *Report) (PHYRecord, error) {
	rec := PHYRecord{
		PHY:       id,
		TargetKHz: clock.SerialKHz(),
	}

	d, err := pll.Solve(clock.ReferenceKHz(), rec.TargetKHz)
	if err != nil {
		rec.State = phy.Failed
		rec.Error = err.Error()
		return rec, err
	}
	rec.Dividers = d
	rec.AchievedKHz = d.RateKHz(clock.ReferenceKHz())

	seq := phy.New(c.bus, id,
		phy.WithClock(c.clock),
		phy.WithPolling(c.interval, c.timeout),
		phy.WithCounter(counter),
		phy.WithObserver(func(t phy.Transition) {
			report.Transitions = append(report.Transitions, t)
			if c.observer != nil {
				c.observer(t)
			}
		}),
	)

	start := c.clock.Now()
	err = seq.Run(d)
	rec.LockTime = c.clock.Now().Sub(start)
	rec.State = seq.State()
	rec.Polls = seq.Polls()
	if err != nil {
		rec.Error = err.Error()
		return rec, err
	}

	c.logger.Printf("lvds: %s PHY locked (%s, %d kHz for %d kHz) after %d polls",
		id, d, rec.AchievedKHz, rec.TargetKHz, rec.Polls)
	return rec, nil
}

// commit writes the data mapping, channel distribution and control register.
// LVDSEN is the last bit written.
func (c *Controller) commit(cfg Config, topo duallink.Topology, table pixmap.Table) {
	regs.Clear(c.bus, regs.CDL1CR, regs.CDLCRDistrMask)
	regs.Clear(c.bus, regs.CDL2CR, regs.CDLCRDistrMask)

	var cr uint32
	cdl1 := uint32(regs.CDL1CRDefault)
	var cdl2 uint32
	if topo.Dual {
		cr |= regs.CRLKMOD
		cdl2 = regs.CDL2CRDefault
		if topo.Order.LinkPhase() {
			cr |= regs.CRLKPHA
		}
	}

	if cfg.Polarity.DELow {
		cr |= regs.CRDEPOL
	}
	if cfg.Polarity.HSyncLow {
		cr |= regs.CRHSPOL
	}
	if cfg.Polarity.VSyncLow {
		cr |= regs.CRVSPOL
	}

	for i, w := range table.Encode() {
		c.bus.Write(regs.DMLCR(i), w.LSB)
		c.bus.Write(regs.DMMCR(i), w.MSB)
	}

	regs.Set(c.bus, regs.CR, cr)
	c.bus.Write(regs.CDL1CR, cdl1)
	c.bus.Write(regs.CDL2CR, cdl2)
	regs.Set(c.bus, regs.CR, regs.CRLVDSEN)
}
