package bench

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/4ms/u-boot-stm32mp25/pkg/backend"
	"github.com/4ms/u-boot-stm32mp25/pkg/db"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/phy"
	"github.com/4ms/u-boot-stm32mp25/pkg/panel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnit(t *testing.T) {
	assert.Equal(t, "count", Unit("links"))
	assert.Equal(t, "kHz", Unit("master.deviation_khz"))
	assert.Equal(t, "ms", Unit("slave.lock_time_ms"))
	assert.Equal(t, "", Unit("master.unknown"))
	assert.Equal(t, "", Unit("lock_polls"))
}

func TestSave(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "lvds.db"))
	require.NoError(t, err)
	defer database.Close()

	p := params(t, panel.FHDDual)
	p.Options = backend.Options{NeverLock: []phy.ID{phy.Master}}
	p.LockTimeout = 5 * time.Millisecond

	run, err := Begin(database, p)
	require.NoError(t, err)
	assert.Equal(t, panel.FHDDual, run.Panel)
	assert.Equal(t, "sim", run.Params["backend"])

	result, runErr := Run(context.Background(), p)
	require.Error(t, runErr)
	require.NoError(t, Save(database, run, result, "bench-01"))

	got, err := database.GetRun(run.ID)
	require.NoError(t, err)
	assert.False(t, got.Success)
	assert.Equal(t, "dual/even-odd", got.Topology)
	assert.Equal(t, "jeida-24", got.Format)
	assert.Equal(t, "bench-01", got.Host)
	assert.Contains(t, got.Error, "pll lock timeout")

	phys, err := database.GetPHYs(run.ID)
	require.NoError(t, err)
	require.Len(t, phys, 2)
	assert.Equal(t, "slave", phys[0].PHY)
	assert.Equal(t, "committed", phys[0].State)
	assert.Equal(t, "master", phys[1].PHY)
	assert.Equal(t, "failed", phys[1].State)

	results, err := database.ListResults(db.ResultFilter{RunID: &run.ID, Metric: "links"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "count", results[0].Unit)
}

func TestHostInfo(t *testing.T) {
	assert.NotEmpty(t, HostInfo())
}
