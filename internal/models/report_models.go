package models

import "time"

// ExportRow is one day of a timesheet export.
type ExportRow struct {
	Date            string     `json:"date"`
	EntryTime       *time.Time `json:"entry_time"`
	LunchExitTime   *time.Time `json:"lunch_exit_time"`
	LunchReturnTime *time.Time `json:"lunch_return_time"`
	ExitTime        *time.Time `json:"exit_time"`
	ExtraHours      float64    `json:"extra_hours"`
	MissingHours    float64    `json:"missing_hours"`
	BalanceHours    float64    `json:"balance_hours"`
	Edited          bool       `json:"edited"`
	EditedBy        string     `json:"edited_by,omitempty"`
	EditedAt        *time.Time `json:"edited_at,omitempty"`
	EditReason      string     `json:"edit_reason,omitempty"`
}

// Record rebuilds the punch part of a record from the row.
func (r ExportRow) Record() *DailyPunchRecord {
	return &DailyPunchRecord{
		WorkDate:        r.Date,
		EntryTime:       r.EntryTime,
		LunchExitTime:   r.LunchExitTime,
		LunchReturnTime: r.LunchReturnTime,
		ExitTime:        r.ExitTime,
	}
}

// Timesheet is the export of one employee over a date range.
type Timesheet struct {
	EmployeeEmail string      `json:"employee_email"`
	EmployeeName  string      `json:"employee_name"`
	WorkloadHours float64     `json:"workload_hours"`
	Range         DateRange   `json:"range"`
	Rows          []ExportRow `json:"rows"`
	TotalBalance  float64     `json:"total_balance_hours"`
}
