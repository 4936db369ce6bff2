// Package phy drives one LVDS PHY from reset to a locked, committed PLL.
package phy

import (
	"errors"
	"fmt"
	"time"

	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/pll"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/regs"
)

// ID names a physical PHY.
type ID int

const (
	Master ID = iota
	Slave
)

// Base returns the register offset of the PHY block.
func (id ID) Base() uint32 {
	if id == Slave {
		return regs.PHYSlave
	}
	return regs.PHYMaster
}

func (id ID) String() string {
	switch id {
	case Master:
		return "master"
	case Slave:
		return "slave"
	default:
		return fmt.Sprintf("ID(%d)", int(id))
	}
}

// State is a step of the bring-up sequence.
type State int

const (
	Reset State = iota
	DividersProgrammed
	BiasPowered
	PllEnabled
	Locked
	Committed
	Failed
)

var stateNames = [...]string{
	"reset", "dividers-programmed", "bias-powered", "pll-enabled", "locked", "committed", "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Lock wait defaults.
const (
	DefaultPollInterval = time.Millisecond
	DefaultLockTimeout  = 20 * time.Second
)

var (
	ErrLockTimeout = errors.New("pll lock timeout")
	ErrOutOfOrder  = errors.New("bring-up step out of order")
)

// Clock is the time source used by the lock wait.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// Transition records a state change.
type Transition struct {
	PHY  ID        `json:"phy"`
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`

	// Seq orders transitions of every sequencer sharing a Counter.
	Seq uint64 `json:"seq"`
}

// Counter numbers transitions. Share one between the sequencers of a
// bring-up to order their transitions without relying on the clock.
type Counter struct {
	n uint64
}

func (c *Counter) next() uint64 {
	c.n++
	return c.n
}

// Observer receives every transition of a sequencer.
type Observer func(Transition)

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Sequencer) { s.clock = c }
}

// WithPolling sets the lock poll interval and total timeout. A non-positive
// interval selects DefaultPollInterval.
func WithPolling(interval, timeout time.Duration) Option {
	return func(s *Sequencer) {
		if interval <= 0 {
			interval = DefaultPollInterval
		}
		s.interval = interval
		s.timeout = timeout
	}
}

// WithCounter numbers transitions from c instead of a private counter.
func WithCounter(c *Counter) Option {
	return func(s *Sequencer) { s.counter = c }
}

// WithObserver registers fn for state transitions.
func WithObserver(fn Observer) Option {
	return func(s *Sequencer) { s.observer = fn }
}

// Sequencer is the bring-up state machine of one PHY. It is not safe for
// concurrent use and assumes exclusive ownership of the PHY registers.
type Sequencer struct {
	bus      regs.Bus
	id       ID
	base     uint32
	clock    Clock
	interval time.Duration
	timeout  time.Duration
	observer Observer
	counter  *Counter

	state State
	polls int
	err   error
}

// New returns a sequencer for PHY id in the Reset state.
func New(bus regs.Bus, id ID, opts ...Option) *Sequencer {
	s := &Sequencer{
		bus:      bus,
		id:       id,
		base:     id.Base(),
		clock:    SystemClock{},
		interval: DefaultPollInterval,
		timeout:  DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.counter == nil {
		s.counter = &Counter{}
	}
	return s
}

// ID returns the PHY driven by s.
func (s *Sequencer) ID() ID { return s.id }

// State returns the current state.
func (s *Sequencer) State() State { return s.state }

// Polls returns the number of lock status reads so far.
func (s *Sequencer) Polls() int { return s.polls }

// Err returns the failure that moved s to Failed, if any.
func (s *Sequencer) Err() error { return s.err }

// Run takes the PHY through every step up to Committed.
func (s *Sequencer) Run(d pll.Dividers) error {
	steps := []func() error{
		func() error { return s.Program(d) },
		s.PowerBias,
		s.EnablePLL,
		s.WaitLock,
		s.Commit,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// Program releases the PHY from reset and loads the PLL dividers in integer mode.
func (s *Sequencer) Program(d pll.Dividers) error {
	if err := s.expect(Reset); err != nil {
		return err
	}
	if !d.Valid() {
		return s.fail(fmt.Errorf("%w: %s: dividers out of range (%s)", pll.ErrInvalidInput, s.id, d))
	}

	b := s.base
	regs.Set(s.bus, regs.PxGCR(b), regs.GCRDivRSTN|regs.GCRRSTZ)

	s.bus.Write(regs.PxPLLCR2(b), d.NDiv<<16)
	regs.Set(s.bus, regs.PxPLLCR2(b), d.BDiv)
	s.bus.Write(regs.PxPLLSDCR1(b), d.MDiv)
	s.bus.Write(regs.PxPLLTESTCR(b), regs.TestDiv<<16)

	regs.Clear(s.bus, regs.PxPLLCR1(b), regs.PLLCR1EnTWG|regs.PLLCR1EnSD)

	s.enter(DividersProgrammed)
	return nil
}

// PowerBias enables the current mode, bias and digital blocks. The order is
// fixed and must complete before the PLL is enabled.
func (s *Sequencer) PowerBias() error {
	if err := s.expect(DividersProgrammed); err != nil {
		return err
	}

	b := s.base
	regs.Set(s.bus, regs.PxDCR(b), regs.POWEROK)

	regs.Set(s.bus, regs.PxCMCR1(b), regs.CMENDL)
	regs.Set(s.bus, regs.PxCMCR2(b), regs.CMENDL4)

	regs.Set(s.bus, regs.PxPLLCPCR(b), 0x1)
	regs.Set(s.bus, regs.PxBCR3(b), regs.VMENDL)
	regs.Set(s.bus, regs.PxBCR1(b), regs.ENBIAS)
	regs.Set(s.bus, regs.PxCFGCR(b), regs.ENDIGDL)

	s.bus.Write(regs.PxMPLCR(b), regs.MPLCRUnmask)
	s.bus.Write(regs.PxBCR2(b), regs.BIASEN)

	regs.Set(s.bus, regs.PxGCR(b), regs.GCRDPClkOut|regs.GCRLSClkOut|regs.GCRBitClkOut)

	regs.Set(s.bus, regs.PxPLLTESTCR(b), regs.PLLTESTCRDivEn)
	regs.Set(s.bus, regs.PxPLLCR1(b), regs.PLLCR1DividersEn)

	regs.Set(s.bus, regs.PxSCR(b), regs.SCRSerDataOK)

	s.enter(BiasPowered)
	return nil
}

// EnablePLL starts the PLL.
func (s *Sequencer) EnablePLL() error {
	if err := s.expect(BiasPowered); err != nil {
		return err
	}
	regs.Set(s.bus, regs.PxPLLCR1(s.base), regs.PLLCR1En)
	s.enter(PllEnabled)
	return nil
}

// WaitLock polls the lock status until it is set or the timeout expires. A
// timeout leaves the PHY in Failed.
func (s *Sequencer) WaitLock() error {
	if err := s.expect(PllEnabled); err != nil {
		return err
	}

	start := s.clock.Now()
	deadline := start.Add(s.timeout)
	for {
		s.polls++
		if s.bus.Read(regs.PxPLLSR(s.base))&regs.PLLSRLock != 0 {
			s.enter(Locked)
			return nil
		}
		if !s.clock.Now().Before(deadline) {
			break
		}
		s.clock.Sleep(s.interval)
	}

	return s.fail(fmt.Errorf("%w: %s PHY not locked after %s (%d polls)", ErrLockTimeout, s.id, s.timeout, s.polls))
}

// Commit selects this PHY's clock as the pixel clock.
func (s *Sequencer) Commit() error {
	if err := s.expect(Locked); err != nil {
		return err
	}
	s.bus.Write(regs.WCLKCR, regs.WCLKCRSlvClkPixSel)
	regs.Set(s.bus, regs.PxPLLTESTCR(s.base), regs.PLLTESTCRClkSel)
	s.enter(Committed)
	return nil
}

func (s *Sequencer) expect(want State) error {
	if s.state != want {
		return fmt.Errorf("%w: %s PHY is %s, want %s", ErrOutOfOrder, s.id, s.state, want)
	}
	return nil
}

func (s *Sequencer) enter(to State) {
	t := Transition{PHY: s.id, From: s.state, To: to, At: s.clock.Now(), Seq: s.counter.next()}
	s.state = to
	if s.observer != nil {
		s.observer(t)
	}
}

func (s *Sequencer) fail(err error) error {
	s.err = err
	s.enter(Failed)
	return err
}
