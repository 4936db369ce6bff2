// Package bench runs one bring-up on a backend and turns the report into
// metrics.
package bench

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/4ms/u-boot-stm32mp25/pkg/backend"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/phy"
)

// Params describe one bench run.
type Params struct {
	Panel   string          `json:"panel"`
	Backend string          `json:"backend"`
	Options backend.Options `json:"options"`
	Config  lvds.Config     `json:"config"`

	// PollInterval and LockTimeout override the lock wait when non-zero.
	PollInterval time.Duration `json:"poll_interval,omitempty"`
	LockTimeout  time.Duration `json:"lock_timeout,omitempty"`

	Logger   *log.Logger  `json:"-"`
	Observer phy.Observer `json:"-"`
}

// Result is the outcome of one bench run.
type Result struct {
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`

	Success bool               `json:"success"`
	Error   string             `json:"error,omitempty"`
	Metrics map[string]float64 `json:"metrics"`
	Report  *lvds.Report       `json:"report,omitempty"`
}

// MetricType represents the type of a metric
type MetricType string

const (
	MetricTypeGauge   MetricType = "gauge"
	MetricTypeCounter MetricType = "counter"
	MetricTypeLatency MetricType = "latency"
)

// MetricInfo describes a metric
type MetricInfo struct {
	Name        string     `json:"name"`
	Type        MetricType `json:"type"`
	Unit        string     `json:"unit"`
	Description string     `json:"description"`
}

// Metrics lists what Run reports. Per-PHY metrics carry the PHY name in place
// of <phy>.
var Metrics = []MetricInfo{
	{Name: "links", Type: MetricTypeGauge, Unit: "count", Description: "Links driven"},
	{Name: "enabled", Type: MetricTypeGauge, Unit: "bool", Description: "Output enabled"},
	{Name: "transitions", Type: MetricTypeCounter, Unit: "count", Description: "PHY state transitions"},
	{Name: "<phy>.lock_polls", Type: MetricTypeCounter, Unit: "count", Description: "PLL status reads until lock"},
	{Name: "<phy>.lock_time_ms", Type: MetricTypeLatency, Unit: "ms", Description: "Time from reset to committed"},
	{Name: "<phy>.target_khz", Type: MetricTypeGauge, Unit: "kHz", Description: "Requested PLL rate"},
	{Name: "<phy>.achieved_khz", Type: MetricTypeGauge, Unit: "kHz", Description: "Programmed PLL rate"},
	{Name: "<phy>.deviation_khz", Type: MetricTypeGauge, Unit: "kHz", Description: "Distance from the requested rate"},
}

// Run opens the backend and brings the transmitter up once. The bring-up
// itself cannot be interrupted, so ctx is only checked before it starts.
func Run(ctx context.Context, p Params) (Result, error) {
	result := Result{
		StartTime: time.Now(),
		Metrics:   make(map[string]float64),
	}

	fail := func(err error) (Result, error) {
		result.Error = err.Error()
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		return result, err
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	b, err := backend.Get(p.Backend)
	if err != nil {
		return fail(err)
	}
	session, err := b.Open(p.Options)
	if err != nil {
		return fail(fmt.Errorf("failed to open backend %s: %w", p.Backend, err))
	}
	defer session.Close()

	opts := []lvds.Option{lvds.WithClock(session.Clock())}
	if p.Logger != nil {
		opts = append(opts, lvds.WithLogger(p.Logger))
	}
	if p.Observer != nil {
		opts = append(opts, lvds.WithObserver(p.Observer))
	}
	if p.PollInterval > 0 || p.LockTimeout > 0 {
		interval, timeout := p.PollInterval, p.LockTimeout
		if interval <= 0 {
			interval = phy.DefaultPollInterval
		}
		if timeout <= 0 {
			timeout = phy.DefaultLockTimeout
		}
		opts = append(opts, lvds.WithPolling(interval, timeout))
	}

	report, err := lvds.New(session.Bus(), opts...).BringUp(p.Config)
	result.Report = report
	collect(result.Metrics, report)
	if err != nil {
		return fail(err)
	}

	result.Success = true
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	return result, nil
}

func collect(m map[string]float64, r *lvds.Report) {
	if r == nil {
		return
	}
	m["links"] = float64(r.Topology.Multiplier())
	m["transitions"] = float64(len(r.Transitions))
	if r.Enabled {
		m["enabled"] = 1
	} else {
		m["enabled"] = 0
	}
	for _, rec := range r.PHYs {
		prefix := rec.PHY.String() + "."
		m[prefix+"lock_polls"] = float64(rec.Polls)
		m[prefix+"lock_time_ms"] = float64(rec.LockTime) / float64(time.Millisecond)
		m[prefix+"target_khz"] = float64(rec.TargetKHz)
		m[prefix+"achieved_khz"] = float64(rec.AchievedKHz)
		m[prefix+"deviation_khz"] = float64(rec.DeviationKHz())
	}
}
