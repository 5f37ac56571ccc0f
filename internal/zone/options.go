package zone

import (
	"fmt"
	"strings"
	"time"
)

// Option is a zone offered for selection.
type Option struct {
	Value  string `json:"value"`
	Label  string `json:"label"`
	Region string `json:"region"`
}

var options = []Option{
	{"America/New_York", "Eastern Time (ET)", "US"},
	{"America/Chicago", "Central Time (CT)", "US"},
	{"America/Denver", "Mountain Time (MT)", "US"},
	{"America/Los_Angeles", "Pacific Time (PT)", "US"},
	{"America/Anchorage", "Alaska Time (AKT)", "US"},
	{"Pacific/Honolulu", "Hawaii Time (HST)", "US"},

	{"Europe/London", "London (GMT/BST)", "Europe"},
	{"Europe/Paris", "Paris (CET/CEST)", "Europe"},
	{"Europe/Berlin", "Berlin (CET/CEST)", "Europe"},
	{"Asia/Tokyo", "Tokyo (JST)", "Asia"},
	{"Asia/Shanghai", "Shanghai (CST)", "Asia"},
	{"Australia/Sydney", "Sydney (AEST/AEDT)", "Australia"},
	{"America/Toronto", "Toronto (ET)", "Canada"},
	{"America/Vancouver", "Vancouver (PT)", "Canada"},
}

// Options returns the curated zone list.
func Options() []Option {
	out := make([]Option, len(options))
	copy(out, options)
	return out
}

// Info describes id for display. Curated zones use their label; any other
// loadable zone gets "<id> (<abbreviation at now>)" in region "Other".
func Info(id string, now time.Time) Option {
	for _, o := range options {
		if o.Value == id {
			return o
		}
	}
	loc, err := time.LoadLocation(id)
	if err != nil || id == "" {
		return Option{Value: id, Label: id, Region: "Other"}
	}
	abbr, _ := now.In(loc).Zone()
	return Option{
		Value:  id,
		Label:  fmt.Sprintf("%s (%s)", strings.ReplaceAll(id, "_", " "), abbr),
		Region: "Other",
	}
}
