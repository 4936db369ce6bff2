package bench

import (
	"fmt"
	"strings"

	"github.com/4ms/u-boot-stm32mp25/pkg/db"
)

// Unit returns the unit of a reported metric name.
func Unit(metric string) string {
	for _, m := range Metrics {
		name := m.Name
		if strings.HasPrefix(name, "<phy>.") {
			if i := strings.IndexByte(metric, '.'); i >= 0 && metric[i:] == name[len("<phy>"):] {
				return m.Unit
			}
			continue
		}
		if name == metric {
			return m.Unit
		}
	}
	return ""
}

// Begin creates the run record for p.
func Begin(database *db.DB, p Params) (*db.Run, error) {
	params, err := db.ToJSONData(p)
	if err != nil {
		return nil, err
	}
	return database.CreateRun(p.Panel, p.Backend, params)
}

// Save completes run with the outcome of a bench run: PHY records, metrics
// and the pass/fail verdict.
func Save(database *db.DB, run *db.Run, result Result, host string) error {
	end := result.EndTime
	run.StartTime = result.StartTime
	run.EndTime = &end
	run.Success = result.Success
	run.Error = result.Error
	run.Host = host

	if r := result.Report; r != nil {
		run.Topology = r.Topology.String()
		run.Format = r.Format.String()

		phys := make([]db.PHY, 0, len(r.PHYs))
		for _, rec := range r.PHYs {
			phys = append(phys, db.PHY{
				PHY:         rec.PHY.String(),
				NDiv:        rec.Dividers.NDiv,
				BDiv:        rec.Dividers.BDiv,
				MDiv:        rec.Dividers.MDiv,
				TargetKHz:   rec.TargetKHz,
				AchievedKHz: rec.AchievedKHz,
				State:       rec.State.String(),
				Polls:       rec.Polls,
				LockTime:    rec.LockTime,
				Error:       rec.Error,
			})
		}
		if err := database.CreatePHYs(run.ID, phys); err != nil {
			return err
		}
	}

	if err := database.UpdateRun(run); err != nil {
		return err
	}

	if len(result.Metrics) > 0 {
		units := make(map[string]string, len(result.Metrics))
		for name := range result.Metrics {
			units[name] = Unit(name)
		}
		if err := database.CreateResults(run.ID, result.Metrics, units); err != nil {
			return fmt.Errorf("failed to save metrics: %w", err)
		}
	}
	return nil
}
