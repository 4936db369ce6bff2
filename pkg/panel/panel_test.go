package panel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/duallink"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/pixmap"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/pll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSingle(t *testing.T) {
	p, err := Get(WSVGASingle)
	require.NoError(t, err)

	cfg, err := p.Config(false)
	require.NoError(t, err)
	assert.Nil(t, cfg.Ports)
	assert.Equal(t, pixmap.VESA24, cfg.Format)
	assert.Equal(t, uint64(51200000), cfg.Clock.PixelHz)
	assert.True(t, cfg.Polarity.HSyncLow)
	assert.False(t, cfg.Polarity.DELow)
}

func TestConfigDualCopiesPorts(t *testing.T) {
	p, err := Get(FHDDual)
	require.NoError(t, err)

	cfg, err := p.Config(false)
	require.NoError(t, err)
	require.NotNil(t, cfg.Ports)
	require.Len(t, cfg.Ports.Tags, 2)

	cfg.Ports.Tags[0].OddPixels = true
	again, _ := Get(FHDDual)
	assert.False(t, again.Ports[0].OddPixels)
}

func TestConfigFormat(t *testing.T) {
	p := testProfile("x")
	p.DataMapping = "spwg-18"

	_, err := p.Config(false)
	assert.ErrorIs(t, err, pixmap.ErrUnsupportedFormat)

	cfg, err := p.Config(true)
	require.NoError(t, err)
	assert.Equal(t, pixmap.VESA24, cfg.Format)
	assert.True(t, cfg.LenientFormat)
}

func TestPlan(t *testing.T) {
	p, _ := Get(FHDDual)
	plan, err := p.Plan(false)
	require.NoError(t, err)

	assert.Equal(t, duallink.Topology{Dual: true, Order: duallink.EvenOdd}, plan.Topology)
	assert.Equal(t, pixmap.JEIDA24, plan.Format)
	assert.Equal(t, uint32(519750), plan.TargetKHz)
	assert.True(t, plan.Dividers.Valid())
	assert.Equal(t, plan.Dividers.RateKHz(24000), plan.AchievedKHz)
}

func TestPlanErrors(t *testing.T) {
	bad := testProfile("bad-ports")
	bad.Ports = []duallink.PortTag{{EvenPixels: true}, {EvenPixels: true}}
	_, err := bad.Plan(false)
	assert.ErrorIs(t, err, duallink.ErrInconsistentPixelOrder)

	fast := testProfile("too-fast")
	fast.PixelHz = 2000000000
	_, err = fast.Plan(false)
	assert.ErrorIs(t, err, pll.ErrNoSolution)

	missing := testProfile("no-clock")
	missing.ReferenceHz = 0
	_, err = missing.Plan(false)
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

const yamlPanels = `panels:
  - name: bench-a
    data_mapping: jeida-24
    reference_hz: 24000000
    pixel_hz: 71000000
    de_low: true
  - name: bench-b
    data_mapping: vesa-24
    reference_hz: 24000000
    pixel_hz: 148500000
    ports:
      - odd_pixels: true
      - even_pixels: true
`

const tomlPanels = `[[panel]]
name = "bench-c"
data_mapping = "vesa-24"
reference_hz = 24000000
pixel_hz = 65000000
vsync_low = true

[[panel.ports]]
even_pixels = true

[[panel.ports]]
odd_pixels = true
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	profiles, err := LoadFile(writeFile(t, "panels.yaml", yamlPanels))
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	assert.Equal(t, "bench-a", profiles[0].Name)
	assert.True(t, profiles[0].DELow)
	assert.Empty(t, profiles[0].Ports)

	b, err := Select(profiles, "bench-b")
	require.NoError(t, err)
	plan, err := b.Plan(false)
	require.NoError(t, err)
	assert.Equal(t, duallink.OddEven, plan.Topology.Order)
}

func TestLoadTOML(t *testing.T) {
	profiles, err := LoadFile(writeFile(t, "panels.toml", tomlPanels))
	require.NoError(t, err)
	require.Len(t, profiles, 1)

	p, err := Select(profiles, "")
	require.NoError(t, err)
	assert.Equal(t, "bench-c", p.Name)
	assert.True(t, p.VSyncLow)
	assert.Equal(t, []duallink.PortTag{{EvenPixels: true}, {OddPixels: true}}, p.Ports)
}

func TestLoadErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read panel file")

	_, err = LoadFile(writeFile(t, "panels.json", "{}"))
	assert.ErrorContains(t, err, "unsupported panel file extension")

	_, err = LoadFile(writeFile(t, "unknown.yaml", "panels:\n  - name: a\n    colour: red\n"))
	assert.Error(t, err)

	_, err = LoadFile(writeFile(t, "unknown.toml", "[[panel]]\nname = \"a\"\ncolour = \"red\"\n"))
	assert.ErrorContains(t, err, "unknown key")

	_, err = LoadFile(writeFile(t, "empty.yaml", "panels: []\n"))
	assert.ErrorIs(t, err, ErrInvalidProfile)

	dup := "panels:\n" +
		"  - {name: a, data_mapping: vesa-24, reference_hz: 1, pixel_hz: 1}\n" +
		"  - {name: a, data_mapping: vesa-24, reference_hz: 1, pixel_hz: 1}\n"
	_, err = LoadFile(writeFile(t, "dup.yml", dup))
	assert.ErrorContains(t, err, "duplicate panel")
}

func TestSelect(t *testing.T) {
	profiles := []Profile{testProfile("a"), testProfile("b")}

	_, err := Select(profiles, "")
	assert.ErrorContains(t, err, "pick one by name")

	_, err = Select(profiles, "c")
	assert.ErrorIs(t, err, ErrNotFound)
}
