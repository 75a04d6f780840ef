package models

import (
	"strings"
	"time"
)

// RequestStatus is the lifecycle state of a correction request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// ParseDecision maps a manager decision onto the terminal status it produces.
func ParseDecision(decision string) (RequestStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(decision)) {
	case "approve", "approved", "aprovado":
		return StatusApproved, true
	case "reject", "rejected", "rejeitado":
		return StatusRejected, true
	}
	return "", false
}

// Suggestion holds the corrected HH:MM values an employee proposes.
type Suggestion struct {
	Entry       *string `json:"suggested_entry,omitempty"`
	LunchExit   *string `json:"suggested_lunch_exit,omitempty"`
	LunchReturn *string `json:"suggested_lunch_return,omitempty"`
	Exit        *string `json:"suggested_exit,omitempty"`
}

// Field returns a pointer to the value for slot s.
func (s *Suggestion) Field(slot Slot) **string {
	switch slot {
	case SlotEntry:
		return &s.Entry
	case SlotLunchExit:
		return &s.LunchExit
	case SlotLunchReturn:
		return &s.LunchReturn
	default:
		return &s.Exit
	}
}

// IsEmpty reports whether no value is suggested.
func (s *Suggestion) IsEmpty() bool {
	if s == nil {
		return true
	}
	return s.Entry == nil && s.LunchExit == nil && s.LunchReturn == nil && s.Exit == nil
}

// CorrectionRequest is an employee's ask to fix the punches of a day.
type CorrectionRequest struct {
	ID             string        `json:"id" db:"id"`
	EmployeeID     int64         `json:"employee_id" db:"employee_id"`
	EmployeeName   string        `json:"employee_name,omitempty"`
	EmployeeEmail  string        `json:"employee_email,omitempty"`
	CompanyID      string        `json:"-"`
	TargetDate     string        `json:"date" db:"target_date"`
	Reason         string        `json:"reason" db:"reason"`
	Suggestion     *Suggestion   `json:"suggestion,omitempty"`
	Status         RequestStatus `json:"status" db:"status"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	ProcessedBy    *string       `json:"processed_by,omitempty" db:"processed_by"`
	ManagerComment *string       `json:"manager_comment,omitempty" db:"manager_comment"`
	ProcessedAt    *time.Time    `json:"processed_at,omitempty" db:"processed_at"`
}

// ChangeRequestInput is the payload of an employee correction request.
type ChangeRequestInput struct {
	Date       string      `json:"date"`
	Reason     string      `json:"reason"`
	Suggestion *Suggestion `json:"suggestion"`
}

// ProcessRequestInput is the payload of a manager decision.
type ProcessRequestInput struct {
	Decision string `json:"decision"`
	Comment  string `json:"comment"`
}

// ManagerRequests splits a manager's inbox by state.
type ManagerRequests struct {
	Pending   []CorrectionRequest `json:"pending"`
	Processed []CorrectionRequest `json:"processed"`
}
