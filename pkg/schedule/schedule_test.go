package schedule

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/4ms/u-boot-stm32mp25/pkg/backend/sim"

	"github.com/4ms/u-boot-stm32mp25/pkg/db"
	"github.com/4ms/u-boot-stm32mp25/pkg/panel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "lvds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func newSchedule(name, panelName string) *Schedule {
	return &Schedule{
		Name:     name,
		CronExpr: "*/5 * * * *",
		Panel:    panelName,
		Backend:  "sim",
		Params:   db.JSONData{"options": map[string]interface{}{"lock_after": 2}},
		Enabled:  true,
	}
}

func TestStoreLifecycle(t *testing.T) {
	store := NewStore(openTestDB(t))

	s := newSchedule("soak-fhd", panel.FHDDual)
	require.NoError(t, store.Create(s))
	assert.NotZero(t, s.ID)
	require.NotNil(t, s.NextRunTime)
	assert.True(t, s.NextRunTime.After(time.Now()))

	dup := newSchedule("soak-fhd", panel.FHDDual)
	assert.Error(t, store.Create(dup))

	bad := newSchedule("bad", panel.FHDDual)
	bad.CronExpr = "every tuesday"
	assert.ErrorContains(t, store.Create(bad), "invalid cron expression")

	got, err := store.GetByName("soak-fhd")
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "sim", got.Backend)

	p, err := got.DecodeParams()
	require.NoError(t, err)
	assert.Equal(t, 2, p.Options.LockAfter)

	require.NoError(t, store.Disable(s.ID))
	enabled := true
	list, err := store.List(ScheduleFilter{Enabled: &enabled})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, store.Enable(s.ID))
	list, err = store.List(ScheduleFilter{Panel: panel.FHDDual})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Enabled)

	got.CronExpr = "0 * * * *"
	got.Description = "hourly"
	require.NoError(t, store.Update(got))
	got, err = store.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "hourly", got.Description)

	require.NoError(t, store.Delete(s.ID))
	_, err = store.Get(s.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.ErrorIs(t, store.Delete(s.ID), db.ErrNotFound)
}

func TestGetDue(t *testing.T) {
	store := NewStore(openTestDB(t))
	s := newSchedule("soak", panel.WSVGASingle)
	require.NoError(t, store.Create(s))

	due, err := store.GetDue(time.Now())
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = store.GetDue(time.Now().Add(24 * time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "soak", due[0].Name)
}

func TestScheduleFlags(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	s := &Schedule{Enabled: true}
	assert.True(t, s.ShouldRun())

	s.LastRunTime = &past
	s.NextRunTime = &past
	assert.True(t, s.IsOverdue())
	assert.True(t, s.ShouldRun())

	s.Enabled = false
	assert.False(t, s.ShouldRun())
	assert.False(t, s.IsOverdue())
}

func quietRunner(t *testing.T, database *db.DB) *Runner {
	t.Helper()
	r := NewRunner(database, log.New(io.Discard, "", 0))
	t.Cleanup(r.Stop)
	return r
}

func TestRunOnceRecordsRun(t *testing.T) {
	database := openTestDB(t)
	r := quietRunner(t, database)

	s := newSchedule("soak-fhd", panel.FHDDual)
	require.NoError(t, r.Store().Create(s))

	run, err := r.RunOnce(s.ID)
	require.NoError(t, err)
	require.NotNil(t, run)

	got, err := database.GetRun(run.ID)
	require.NoError(t, err)
	assert.True(t, got.Success)
	assert.Equal(t, panel.FHDDual, got.Panel)
	assert.Equal(t, "dual/even-odd", got.Topology)

	phys, err := database.GetPHYs(run.ID)
	require.NoError(t, err)
	require.Len(t, phys, 2)
	assert.Equal(t, 3, phys[0].Polls)

	after, err := r.Store().Get(s.ID)
	require.NoError(t, err)
	require.NotNil(t, after.LastRunID)
	assert.Equal(t, run.ID, *after.LastRunID)
}

func TestRunOnceRecordsFailure(t *testing.T) {
	database := openTestDB(t)
	r := quietRunner(t, database)

	s := newSchedule("never-locks", panel.WSVGASingle)
	s.Params = db.JSONData{
		"options":      map[string]interface{}{"never_lock": []int{0}},
		"lock_timeout": int64(10 * time.Millisecond),
	}
	require.NoError(t, r.Store().Create(s))

	run, err := r.RunOnce(s.ID)
	require.NoError(t, err)

	got, err := database.GetRun(run.ID)
	require.NoError(t, err)
	assert.False(t, got.Success)
	assert.Contains(t, got.Error, "pll lock timeout")
}

func TestRunOnceUnknownPanel(t *testing.T) {
	r := quietRunner(t, openTestDB(t))
	s := newSchedule("ghost", "no-such-panel")
	require.NoError(t, r.Store().Create(s))

	_, err := r.RunOnce(s.ID)
	assert.ErrorIs(t, err, panel.ErrNotFound)
}

const watchedPanels = `panels:
  - name: bench-panel
    data_mapping: vesa-24
    reference_hz: 24000000
    pixel_hz: %d
`

func writePanels(t *testing.T, path string, pixelHz int) {
	t.Helper()
	content := []byte(fmt.Sprintf(watchedPanels, pixelHz))
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, content, 0o644))
	require.NoError(t, os.Rename(tmp, path))
}

func TestWatchProfilesReloads(t *testing.T) {
	database := openTestDB(t)
	r := quietRunner(t, database)

	path := filepath.Join(t.TempDir(), "panels.yaml")
	writePanels(t, path, 50000000)
	require.NoError(t, r.WatchProfiles(path))

	s := newSchedule("file-panel", "bench-panel")
	require.NoError(t, r.Store().Create(s))

	run, err := r.RunOnce(s.ID)
	require.NoError(t, err)
	phys, err := database.GetPHYs(run.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(350000), phys[0].TargetKHz)

	writePanels(t, path, 60000000)
	require.Eventually(t, func() bool {
		ps := r.Profiles()
		return len(ps) == 1 && ps[0].PixelHz == 60000000
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatchProfilesDropsRemovedPanel(t *testing.T) {
	database := openTestDB(t)
	r := quietRunner(t, database)

	path := filepath.Join(t.TempDir(), "panels.yaml")
	writePanels(t, path, 50000000)
	require.NoError(t, r.WatchProfiles(path))

	s := newSchedule("file-panel", "bench-panel")
	require.NoError(t, r.Store().Create(s))

	renamed := []byte(`panels:
  - name: other-panel
    data_mapping: vesa-24
    reference_hz: 24000000
    pixel_hz: 50000000
`)
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, renamed, 0o644))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool {
		ps := r.Profiles()
		return len(ps) == 1 && ps[0].Name == "other-panel"
	}, 5*time.Second, 10*time.Millisecond)

	_, err := r.RunOnce(s.ID)
	assert.ErrorIs(t, err, panel.ErrNotFound)
}

func TestWatchProfilesRejectsBadFile(t *testing.T) {
	r := quietRunner(t, openTestDB(t))
	path := filepath.Join(t.TempDir(), "panels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("panels: []\n"), 0o644))
	assert.ErrorIs(t, r.WatchProfiles(path), panel.ErrInvalidProfile)
}
