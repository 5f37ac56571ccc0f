package model

import "time"

// Shift is one clock-in/clock-out record (a row of time_entries).
// An open shift has a nil ClockOut.
type Shift struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id" validate:"required"`
	ClockIn      time.Time  `json:"clock_in" validate:"required"`
	ClockOut     *time.Time `json:"clock_out"`
	BreakMinutes int        `json:"break_duration" validate:"gte=0,lte=1440"`
	ManualEntry  bool       `json:"manual_entry"`
	ExternalID   string     `json:"external_id,omitempty"`
	Notes        *string    `json:"notes"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Open reports whether the shift has not been clocked out yet.
func (s Shift) Open() bool {
	return s.ClockOut == nil
}

// Profile holds the per-user settings the tracker needs.
type Profile struct {
	UserID             string    `json:"id" validate:"required"`
	FirstName          string    `json:"first_name" validate:"max=100"`
	LastName           string    `json:"last_name" validate:"max=100"`
	HourlyRate         *float64  `json:"hourly_rate" validate:"omitempty,gte=0"`
	Timezone           string    `json:"timezone" validate:"omitempty,timezone"`
	PTOBalanceVacation float64   `json:"pto_balance_vacation" validate:"gte=0"`
	PTOBalanceSick     float64   `json:"pto_balance_sick" validate:"gte=0"`
	PTOBalancePersonal float64   `json:"pto_balance_personal" validate:"gte=0"`
	PicturePath        *string   `json:"profile_picture_url"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DisplayName returns "First Last", falling back to the user id.
func (p Profile) DisplayName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	case p.LastName != "":
		return p.LastName
	}
	return p.UserID
}
