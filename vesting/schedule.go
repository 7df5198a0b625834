package vesting

import (
	"math/big"

	"vesting-project/models"
)

// VestedAmount returns the cumulative amount vested at now under
// period-bucketed linear vesting:
//
//	elapsed       = min(now - releaseDate, duration)
//	periodCount   = duration / periodLength
//	currentPeriod = elapsed / periodLength
//	vested        = (allocation / periodCount) * currentPeriod
//
// The per-period unit is truncated before the multiplication, so the
// remainder allocation % periodCount never vests.
func VestedAmount(allocation *big.Int, releaseDate, duration, periodLength, now uint64) *big.Int {
	if now < releaseDate || periodLength == 0 {
		return new(big.Int)
	}

	elapsed := now - releaseDate
	if elapsed > duration {
		elapsed = duration
	}

	periodCount := duration / periodLength
	if periodCount == 0 {
		return new(big.Int)
	}
	currentPeriod := elapsed / periodLength

	unit := new(big.Int).Quo(allocation, new(big.Int).SetUint64(periodCount))
	return unit.Mul(unit, new(big.Int).SetUint64(currentPeriod))
}

// PhaseAt derives where a recipient stands at now
func PhaseAt(cfg *models.ScheduleConfig, rec *models.RecipientRecord, now uint64) models.Phase {
	switch {
	case now < cfg.ReleaseDate:
		return models.PhasePreCliff
	case now >= cfg.EndDate || rec.Claimed.Cmp(rec.Allocation) == 0:
		return models.PhaseFullyVested
	default:
		return models.PhaseVesting
	}
}
