package model

import "time"

// IRSRatePerMile is the reimbursement rate applied when none is given.
const IRSRatePerMile = 0.67

// MileageEntry is one logged trip.
type MileageEntry struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id" validate:"required"`
	Date          string    `json:"date" validate:"required,datetime=2006-01-02"`
	Miles         float64   `json:"miles" validate:"gt=0,lte=2000"`
	StartLocation string    `json:"start_location" validate:"max=200"`
	EndLocation   string    `json:"end_location" validate:"max=200"`
	Purpose       string    `json:"purpose" validate:"max=500"`
	RatePerMile   float64   `json:"rate_per_mile" validate:"gte=0"`
	CreatedAt     time.Time `json:"created_at"`
}

// Reimbursement is miles times the entry's rate.
func (m MileageEntry) Reimbursement() float64 {
	return m.Miles * m.RatePerMile
}
