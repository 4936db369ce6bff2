package bench

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	_ "github.com/4ms/u-boot-stm32mp25/pkg/backend/sim"

	"github.com/4ms/u-boot-stm32mp25/pkg/backend"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/phy"
	"github.com/4ms/u-boot-stm32mp25/pkg/panel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func params(t *testing.T, name string) Params {
	t.Helper()
	p, err := panel.Get(name)
	require.NoError(t, err)
	cfg, err := p.Config(false)
	require.NoError(t, err)
	return Params{
		Panel:   name,
		Backend: "sim",
		Config:  cfg,
		Logger:  log.New(io.Discard, "", 0),
	}
}

func TestRunDual(t *testing.T) {
	p := params(t, panel.FHDDual)
	p.Options = backend.Options{LockAfter: 4}

	var seen int
	p.Observer = func(phy.Transition) { seen++ }

	result, err := Run(context.Background(), p)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Empty(t, result.Error)
	require.NotNil(t, result.Report)
	assert.Equal(t, 10, seen)

	assert.Equal(t, 2.0, result.Metrics["links"])
	assert.Equal(t, 1.0, result.Metrics["enabled"])
	assert.Equal(t, 5.0, result.Metrics["slave.lock_polls"])
	assert.Equal(t, 5.0, result.Metrics["master.lock_polls"])
	assert.Equal(t, 519750.0, result.Metrics["master.target_khz"])
	assert.Contains(t, result.Metrics, "slave.deviation_khz")
	assert.False(t, result.EndTime.Before(result.StartTime))
}

func TestRunTimeout(t *testing.T) {
	p := params(t, panel.WSVGASingle)
	p.Options = backend.Options{NeverLock: []phy.ID{phy.Master}}
	p.PollInterval = time.Millisecond
	p.LockTimeout = 50 * time.Millisecond

	result, err := Run(context.Background(), p)
	require.ErrorIs(t, err, phy.ErrLockTimeout)

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Equal(t, 0.0, result.Metrics["enabled"])
	assert.Greater(t, result.Metrics["master.lock_polls"], 1.0)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Run(ctx, params(t, panel.WSVGASingle))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result.Report)
	assert.Empty(t, result.Metrics)
}

func TestRunUnknownBackend(t *testing.T) {
	p := params(t, panel.WSVGASingle)
	p.Backend = "nope"

	result, err := Run(context.Background(), p)
	assert.Error(t, err)
	assert.Contains(t, result.Error, "not found")
}
