package model

import "time"

// UpdateType categorises a daily update.
type UpdateType string

const (
	UpdateGeneral   UpdateType = "general"
	UpdateMeal      UpdateType = "meal"
	UpdateNap       UpdateType = "nap"
	UpdateActivity  UpdateType = "activity"
	UpdateMilestone UpdateType = "milestone"
	UpdateConcern   UpdateType = "concern"
)

// UpdateTypeInfo is the display data for an UpdateType.
type UpdateTypeInfo struct {
	Type  UpdateType
	Label string
	Emoji string
}

// UpdateTypes lists every update type in display order.
var UpdateTypes = []UpdateTypeInfo{
	{UpdateGeneral, "General Update", "📝"},
	{UpdateMeal, "Meal Time", "🍽️"},
	{UpdateNap, "Nap Time", "😴"},
	{UpdateActivity, "Activity", "🎨"},
	{UpdateMilestone, "Milestone", "🌟"},
	{UpdateConcern, "Concern", "⚠️"},
}

// Info returns the display data for t, or the general entry if t is unknown.
func (t UpdateType) Info() UpdateTypeInfo {
	for _, info := range UpdateTypes {
		if info.Type == t {
			return info
		}
	}
	return UpdateTypes[0]
}

// DailyUpdate is a note (and optional photo) shared with the family.
type DailyUpdate struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id" validate:"required"`
	Message   *string    `json:"message" validate:"required_without=PhotoPath,omitempty,max=2000"`
	PhotoPath *string    `json:"photo_url" validate:"required_without=Message"`
	Type      UpdateType `json:"update_type" validate:"required,oneof=general meal nap activity milestone concern"`
	Date      string     `json:"date" validate:"required,datetime=2006-01-02"`
	CreatedAt time.Time  `json:"created_at"`
}
