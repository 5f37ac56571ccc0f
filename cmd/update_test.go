package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Tiliavir/nanny-time-tracker/internal/model"
	"github.com/Tiliavir/nanny-time-tracker/internal/tzformat"
	"github.com/Tiliavir/nanny-time-tracker/internal/zone"
)

func TestPrintUpdates(t *testing.T) {
	msg := "Ate all the peas\nAsked for more"
	photo := "/home/n/.ntt/photos/me/x.jpg"
	updates := []model.DailyUpdate{
		{Type: model.UpdateMeal, Message: &msg, CreatedAt: time.Date(2024, 3, 6, 18, 5, 0, 0, time.UTC)},
		{Type: model.UpdateNap, PhotoPath: &photo, CreatedAt: time.Date(2024, 3, 6, 19, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	printUpdates(&buf, tzformat.New(zone.NewResolver("UTC")), updates, "America/Chicago")
	assert.Equal(t,
		"🍽️ Meal Time  Mar 6, 2024, 12:05 PM\n"+
			"  Ate all the peas\n"+
			"  Asked for more\n"+
			"😴 Nap Time  Mar 6, 2024, 01:00 PM\n"+
			"  📷 /home/n/.ntt/photos/me/x.jpg\n",
		buf.String())
}

func TestFilterUpdates(t *testing.T) {
	updates := []model.DailyUpdate{
		{ID: "1", Type: model.UpdateMeal},
		{ID: "2", Type: model.UpdateNap},
		{ID: "3", Type: model.UpdateMeal},
	}
	assert.Len(t, filterUpdates(updates, ""), 3)

	meals := filterUpdates(updates, model.UpdateMeal)
	if assert.Len(t, meals, 2) {
		assert.Equal(t, "1", meals[0].ID)
		assert.Equal(t, "3", meals[1].ID)
	}
	assert.Empty(t, filterUpdates(updates, model.UpdateConcern))
}

func TestUpdateTypeNames(t *testing.T) {
	assert.Equal(t, "general, meal, nap, activity, milestone, concern", updateTypeNames())
}
