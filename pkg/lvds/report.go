package lvds

import (
	"time"

	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/duallink"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/phy"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/pixmap"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/pll"
)

// Report is the outcome of one bring-up attempt.
type Report struct {
	Topology    duallink.Topology `json:"topology"`
	Format      pixmap.DataFormat `json:"format"`
	PHYs        []PHYRecord       `json:"phys"`
	Transitions []phy.Transition  `json:"transitions"`
	Enabled     bool              `json:"enabled"`
	Start       time.Time         `json:"start"`
	End         time.Time         `json:"end"`
}

// PHYRecord is the pass/fail record of one PHY.
type PHYRecord struct {
	PHY         phy.ID        `json:"phy"`
	Dividers    pll.Dividers  `json:"dividers"`
	TargetKHz   uint32        `json:"target_khz"`
	AchievedKHz uint32        `json:"achieved_khz"`
	State       phy.State     `json:"state"`
	Polls       int           `json:"polls"`
	LockTime    time.Duration `json:"lock_time"`
	Error       string        `json:"error,omitempty"`
}

// DeviationKHz is the distance between the achieved and requested PLL rate.
func (r PHYRecord) DeviationKHz() uint32 {
	if r.AchievedKHz > r.TargetKHz {
		return r.AchievedKHz - r.TargetKHz
	}
	return r.TargetKHz - r.AchievedKHz
}

// PHY returns the record of id, if that PHY was attempted.
func (r *Report) PHY(id phy.ID) (PHYRecord, bool) {
	for _, rec := range r.PHYs {
		if rec.PHY == id {
			return rec, true
		}
	}
	return PHYRecord{}, false
}

// Transition returns the first transition of id into state to.
func (r *Report) Transition(id phy.ID, to phy.State) (phy.Transition, bool) {
	for _, t := range r.Transitions {
		if t.PHY == id && t.To == to {
			return t, true
		}
	}
	return phy.Transition{}, false
}

// Duration is the wall time of the attempt.
func (r *Report) Duration() time.Duration {
	return r.End.Sub(r.Start)
}
