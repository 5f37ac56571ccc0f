package summary

import "github.com/Tiliavir/nanny-time-tracker/internal/model"

// MileageTotals sums miles and reimbursement.
type MileageTotals struct {
	Miles         float64 `json:"miles"`
	Reimbursement float64 `json:"reimbursement"`
	Trips         int     `json:"trips"`
}

// Mileage totals entries. Entries without a rate use the IRS standard rate.
func Mileage(entries []model.MileageEntry) MileageTotals {
	var t MileageTotals
	for _, e := range entries {
		if e.Miles <= 0 {
			continue
		}
		if e.RatePerMile <= 0 {
			e.RatePerMile = model.IRSRatePerMile
		}
		t.Miles += e.Miles
		t.Reimbursement += e.Reimbursement()
		t.Trips++
	}
	return t
}
