package services

import (
	"time"

	"timeclock_backend/internal/models"
)

// DefaultWorkloadHours is used when an employee has no positive workload.
const DefaultWorkloadHours = 8.0

// Settings carries the configuration shared by the time services.
type Settings struct {
	Location        *time.Location
	DefaultWorkload float64
}

func (s Settings) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// workload returns w, or the configured default when w is not positive.
func (s Settings) workload(w float64) float64 {
	if w > 0 {
		return w
	}
	if s.DefaultWorkload > 0 {
		return s.DefaultWorkload
	}
	return DefaultWorkloadHours
}

// WorkDate returns the calendar date of t in the configured location.
func (s Settings) WorkDate(t time.Time) string {
	return t.In(s.location()).Format(models.DateLayout)
}

// Recompute derives the day's metrics from its punches and the daily workload in hours.
// A workload that is not positive falls back to DefaultWorkloadHours.
func Recompute(record *models.DailyPunchRecord, workloadHours float64) models.Balance {
	if workloadHours <= 0 {
		workloadHours = DefaultWorkloadHours
	}

	if record.EntryTime == nil || record.ExitTime == nil {
		return models.Balance{Missing: workloadHours, Balance: -workloadHours}
	}

	worked := record.ExitTime.Sub(*record.EntryTime)
	if record.LunchExitTime != nil && record.LunchReturnTime != nil {
		worked -= record.LunchReturnTime.Sub(*record.LunchExitTime)
	}
	hours := worked.Hours()

	b := models.Balance{Worked: hours, Balance: hours - workloadHours}
	if hours > workloadHours {
		b.Extra = hours - workloadHours
	} else {
		b.Missing = workloadHours - hours
	}
	return b
}
