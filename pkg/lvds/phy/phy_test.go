package phy

import (
	"testing"
	"time"

	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/pll"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/regs"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dividers = pll.Dividers{NDiv: 2, BDiv: 3, MDiv: 90}

func newClock() *sim.Clock {
	return sim.NewClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Microsecond)
}

func TestRunLocks(t *testing.T) {
	bus := sim.New(sim.Options{LockAfter: 5})
	clock := newClock()

	var seen []State
	s := New(bus, Master, WithClock(clock), WithObserver(func(tr Transition) {
		assert.Equal(t, Master, tr.PHY)
		seen = append(seen, tr.To)
	}))

	require.NoError(t, s.Run(dividers))
	assert.Equal(t, Committed, s.State())
	assert.Equal(t, 6, s.Polls())
	assert.Equal(t, 5*DefaultPollInterval, clock.Slept())
	assert.Equal(t, []State{DividersProgrammed, BiasPowered, PllEnabled, Locked, Committed}, seen)

	assert.Equal(t, uint32(2<<16|3), bus.Peek(regs.PxPLLCR2(regs.PHYMaster)))
	assert.Equal(t, uint32(90), bus.Peek(regs.PxPLLSDCR1(regs.PHYMaster)))
	assert.Equal(t, uint32(regs.WCLKCRSlvClkPixSel), bus.Peek(regs.WCLKCR))
	assert.NotZero(t, bus.Peek(regs.PxGCR(regs.PHYMaster))&regs.GCRRSTZ)
	assert.False(t, bus.SequenceViolation(regs.PHYMaster))
}

func TestSlaveUsesSlaveBank(t *testing.T) {
	bus := sim.New(sim.Options{})
	s := New(bus, Slave, WithClock(newClock()))

	require.NoError(t, s.Run(dividers))
	assert.Equal(t, uint32(90), bus.Peek(regs.PxPLLSDCR1(regs.PHYSlave)))
	assert.Zero(t, bus.Peek(regs.PxPLLSDCR1(regs.PHYMaster)))
}

func TestLockTimeout(t *testing.T) {
	bus := sim.New(sim.Options{NeverLock: []uint32{regs.PHYMaster}})
	clock := sim.NewClock(time.Unix(0, 0), 0)
	s := New(bus, Master, WithClock(clock))

	err := s.Run(dividers)
	require.ErrorIs(t, err, ErrLockTimeout)

	assert.Equal(t, Failed, s.State())
	assert.ErrorIs(t, s.Err(), ErrLockTimeout)
	assert.GreaterOrEqual(t, clock.Slept(), DefaultLockTimeout)
	assert.Equal(t, int(DefaultLockTimeout/DefaultPollInterval)+1, s.Polls())

	// failed is terminal
	assert.ErrorIs(t, s.Commit(), ErrOutOfOrder)
	assert.ErrorIs(t, s.WaitLock(), ErrOutOfOrder)
}

func TestCustomPolling(t *testing.T) {
	bus := sim.New(sim.Options{NeverLock: []uint32{regs.PHYMaster}})
	clock := sim.NewClock(time.Unix(0, 0), 0)
	s := New(bus, Master, WithClock(clock), WithPolling(10*time.Millisecond, 100*time.Millisecond))

	require.ErrorIs(t, s.Run(dividers), ErrLockTimeout)
	assert.Equal(t, 11, s.Polls())
}

func TestZeroIntervalUsesDefault(t *testing.T) {
	bus := sim.New(sim.Options{NeverLock: []uint32{regs.PHYMaster}})
	clock := sim.NewClock(time.Unix(0, 0), 0)
	s := New(bus, Master, WithClock(clock), WithPolling(0, 5*time.Millisecond))

	require.ErrorIs(t, s.Run(dividers), ErrLockTimeout)
	assert.Equal(t, 6, s.Polls())
	assert.Equal(t, 5*DefaultPollInterval, clock.Slept())
}

func TestSharedCounterOrdersSequencers(t *testing.T) {
	bus := sim.New(sim.Options{})
	clock := sim.NewClock(time.Unix(0, 0), 0)
	counter := &Counter{}

	var seqs []uint64
	observe := WithObserver(func(tr Transition) { seqs = append(seqs, tr.Seq) })

	require.NoError(t, New(bus, Slave, WithClock(clock), WithCounter(counter), observe).Run(dividers))
	require.NoError(t, New(bus, Master, WithClock(clock), WithCounter(counter), observe).Run(dividers))

	require.Len(t, seqs, 10)
	for i, seq := range seqs {
		assert.Equal(t, uint64(i+1), seq)
	}
}

func TestStepsOutOfOrder(t *testing.T) {
	bus := sim.New(sim.Options{})
	s := New(bus, Master, WithClock(newClock()))

	assert.ErrorIs(t, s.EnablePLL(), ErrOutOfOrder)
	assert.ErrorIs(t, s.WaitLock(), ErrOutOfOrder)
	assert.Equal(t, Reset, s.State())

	require.NoError(t, s.Program(dividers))
	assert.ErrorIs(t, s.Program(dividers), ErrOutOfOrder)
	assert.ErrorIs(t, s.EnablePLL(), ErrOutOfOrder)
}

func TestInvalidDividers(t *testing.T) {
	bus := sim.New(sim.Options{})
	s := New(bus, Master, WithClock(newClock()))

	err := s.Run(pll.Dividers{NDiv: 1, BDiv: 3, MDiv: 90})
	assert.ErrorIs(t, err, pll.ErrInvalidInput)
	assert.Equal(t, Failed, s.State())
	assert.Empty(t, bus.Log())
}

func TestBiasBeforePLL(t *testing.T) {
	bus := sim.New(sim.Options{})
	s := New(bus, Master, WithClock(newClock()))
	require.NoError(t, s.Run(dividers))

	var biasAt, pllAt int
	for i, a := range bus.Log() {
		if !a.Write {
			continue
		}
		if a.Off == regs.PxBCR2(regs.PHYMaster) && a.Val&regs.BIASEN != 0 && biasAt == 0 {
			biasAt = i
		}
		if a.Off == regs.PxPLLCR1(regs.PHYMaster) && a.Val&regs.PLLCR1En != 0 && pllAt == 0 {
			pllAt = i
		}
	}
	require.NotZero(t, biasAt)
	require.NotZero(t, pllAt)
	assert.Less(t, biasAt, pllAt)
}

func TestSimRejectsPLLBeforeBias(t *testing.T) {
	bus := sim.New(sim.Options{})
	regs.Set(bus, regs.PxPLLCR1(regs.PHYMaster), regs.PLLCR1En)
	assert.True(t, bus.SequenceViolation(regs.PHYMaster))
	assert.Zero(t, bus.Read(regs.PxPLLSR(regs.PHYMaster))&regs.PLLSRLock)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pll-enabled", PllEnabled.String())
	assert.Equal(t, "State(42)", State(42).String())
	assert.Equal(t, "slave", Slave.String())
}
