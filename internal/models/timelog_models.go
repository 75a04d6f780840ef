package models

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of a work date.
const DateLayout = "2006-01-02"

// ErrSlotOrder is returned when present punch times are not strictly increasing.
var ErrSlotOrder = errors.New("punch times must be strictly increasing")

// Slot is one of the four daily punch positions.
type Slot int

const (
	SlotEntry Slot = iota
	SlotLunchExit
	SlotLunchReturn
	SlotExit
)

// NumSlots is the number of punches in a complete day.
const NumSlots = 4

// AllSlots lists the slots in punch order.
var AllSlots = [NumSlots]Slot{SlotEntry, SlotLunchExit, SlotLunchReturn, SlotExit}

var slotNames = [NumSlots]string{"entry", "lunch_exit", "lunch_return", "exit"}

func (s Slot) String() string {
	if s < 0 || int(s) >= NumSlots {
		return fmt.Sprintf("slot(%d)", int(s))
	}
	return slotNames[s]
}

// MarshalText encodes the slot by name.
func (s Slot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// EditAudit records the last manual edit of a record.
type EditAudit struct {
	EditedBy     string    `json:"edited_by"`
	EditedByName string    `json:"edited_by_name"`
	EditedAt     time.Time `json:"edited_at"`
	Reason       string    `json:"edit_reason"`
}

// DailyPunchRecord is one employee's punches for one calendar day.
type DailyPunchRecord struct {
	ID              int64      `json:"id" db:"id"`
	EmployeeID      int64      `json:"employee_id" db:"employee_id"`
	WorkDate        string     `json:"work_date" db:"work_date"`
	EntryTime       *time.Time `json:"entry_time" db:"entry_time"`
	LunchExitTime   *time.Time `json:"lunch_exit_time" db:"lunch_exit_time"`
	LunchReturnTime *time.Time `json:"lunch_return_time" db:"lunch_return_time"`
	ExitTime        *time.Time `json:"exit_time" db:"exit_time"`
	ExtraHours      float64    `json:"extra_hours" db:"extra_hours"`
	MissingHours    float64    `json:"missing_hours" db:"missing_hours"`
	BalanceHours    float64    `json:"balance_hours" db:"balance_hours"`
	Edit            *EditAudit `json:"edit,omitempty"`
	Version         int64      `json:"version" db:"version"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

func (r *DailyPunchRecord) slotPtr(s Slot) **time.Time {
	switch s {
	case SlotEntry:
		return &r.EntryTime
	case SlotLunchExit:
		return &r.LunchExitTime
	case SlotLunchReturn:
		return &r.LunchReturnTime
	case SlotExit:
		return &r.ExitTime
	}
	panic(fmt.Sprintf("unknown slot %d", int(s)))
}

// Get returns the time in slot s, or nil.
func (r *DailyPunchRecord) Get(s Slot) *time.Time {
	return *r.slotPtr(s)
}

// Set stores t in slot s. A nil t clears the slot.
func (r *DailyPunchRecord) Set(s Slot, t *time.Time) {
	if t != nil {
		v := *t
		t = &v
	}
	*r.slotPtr(s) = t
}

// NextSlot returns the lowest unset slot. ok is false when the day is complete.
func (r *DailyPunchRecord) NextSlot() (Slot, bool) {
	for _, s := range AllSlots {
		if r.Get(s) == nil {
			return s, true
		}
	}
	return 0, false
}

// IsComplete reports whether all four punches are recorded.
func (r *DailyPunchRecord) IsComplete() bool {
	_, ok := r.NextSlot()
	return !ok
}

// ValidateOrdering checks that the present timestamps strictly increase.
func (r *DailyPunchRecord) ValidateOrdering() error {
	var prev *time.Time
	var prevSlot Slot
	for _, s := range AllSlots {
		t := r.Get(s)
		if t == nil {
			continue
		}
		if prev != nil && !t.After(*prev) {
			return fmt.Errorf("%w: %s must be after %s", ErrSlotOrder, s, prevSlot)
		}
		prev, prevSlot = t, s
	}
	return nil
}

// Clone returns a deep copy of the record.
func (r *DailyPunchRecord) Clone() *DailyPunchRecord {
	c := *r
	for _, s := range AllSlots {
		c.Set(s, r.Get(s))
	}
	if r.Edit != nil {
		e := *r.Edit
		c.Edit = &e
	}
	return &c
}

// In converts every timestamp of the record to loc.
func (r *DailyPunchRecord) In(loc *time.Location) *DailyPunchRecord {
	for _, s := range AllSlots {
		if t := r.Get(s); t != nil {
			v := t.In(loc)
			r.Set(s, &v)
		}
	}
	r.CreatedAt = r.CreatedAt.In(loc)
	r.UpdatedAt = r.UpdatedAt.In(loc)
	if r.Edit != nil {
		r.Edit.EditedAt = r.Edit.EditedAt.In(loc)
	}
	return r
}

// Balance is the derived metrics of a day, in hours.
type Balance struct {
	Worked  float64 `json:"worked_hours"`
	Extra   float64 `json:"extra_hours"`
	Missing float64 `json:"missing_hours"`
	Balance float64 `json:"balance_hours"`
}

// Apply copies the derived metrics onto the record.
func (b Balance) Apply(r *DailyPunchRecord) {
	r.ExtraHours = b.Extra
	r.MissingHours = b.Missing
	r.BalanceHours = b.Balance
}

// SlotChangeKind says what a manual edit does to one slot.
type SlotChangeKind int

const (
	SlotUntouched SlotChangeKind = iota
	SlotCleared
	SlotAssigned
)

// SlotChange is the edit of a single slot.
type SlotChange struct {
	Kind  SlotChangeKind
	Value time.Time
}

// PunchEdit is a manager's requested change to the four slots.
type PunchEdit struct {
	Changes [NumSlots]SlotChange
}

// Assign sets slot s to t.
func (e *PunchEdit) Assign(s Slot, t time.Time) {
	e.Changes[s] = SlotChange{Kind: SlotAssigned, Value: t}
}

// Clear empties slot s.
func (e *PunchEdit) Clear(s Slot) {
	e.Changes[s] = SlotChange{Kind: SlotCleared}
}

// ApplyTo writes the edit onto r.
func (e PunchEdit) ApplyTo(r *DailyPunchRecord) {
	for _, s := range AllSlots {
		switch c := e.Changes[s]; c.Kind {
		case SlotCleared:
			r.Set(s, nil)
		case SlotAssigned:
			v := c.Value
			r.Set(s, &v)
		}
	}
}

// ManualEditRequest is the HTTP payload of a manager edit.
// A missing field leaves the slot untouched, an empty string clears it.
type ManualEditRequest struct {
	EntryTime       *string `json:"entry_time"`
	LunchExitTime   *string `json:"lunch_exit_time"`
	LunchReturnTime *string `json:"lunch_return_time"`
	ExitTime        *string `json:"exit_time"`
	Reason          string  `json:"reason"`
}

// Field returns the raw value for slot s.
func (m *ManualEditRequest) Field(s Slot) *string {
	switch s {
	case SlotEntry:
		return m.EntryTime
	case SlotLunchExit:
		return m.LunchExitTime
	case SlotLunchReturn:
		return m.LunchReturnTime
	default:
		return m.ExitTime
	}
}

// DateRange is an inclusive range of work dates. Empty bounds are open.
type DateRange struct {
	Start string `json:"start" form:"start"`
	End   string `json:"end" form:"end"`
}

// Validate checks the date formats and bound order.
func (d DateRange) Validate() error {
	var start, end time.Time
	var err error
	if d.Start != "" {
		if start, err = time.Parse(DateLayout, d.Start); err != nil {
			return fmt.Errorf("invalid start date %q", d.Start)
		}
	}
	if d.End != "" {
		if end, err = time.Parse(DateLayout, d.End); err != nil {
			return fmt.Errorf("invalid end date %q", d.End)
		}
	}
	if d.Start != "" && d.End != "" && end.Before(start) {
		return errors.New("end date is before start date")
	}
	return nil
}

// PunchResponse is returned by the punch endpoint.
type PunchResponse struct {
	Record *DailyPunchRecord `json:"record"`
	Slot   Slot              `json:"slot"`
}

// RecalculateRequest asks for balances of a range to be recomputed.
type RecalculateRequest struct {
	EmployeeEmail string `json:"employee_email"`
	Start         string `json:"start"`
	End           string `json:"end"`
}

// RecalculateResult reports how many records were refreshed.
type RecalculateResult struct {
	Updated int `json:"updated"`
}
