package models

import "time"

// Role is the access level of an employee.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// CanManage reports whether the role may edit other employees' records.
func (r Role) CanManage() bool {
	return r == RoleManager || r == RoleAdmin
}

// Employee represents a person who punches the clock.
type Employee struct {
	ID            int64     `json:"id" db:"id"`
	Email         string    `json:"email" db:"email"`
	Name          string    `json:"name" db:"name"`
	PasswordHash  string    `json:"-" db:"password_hash"` // never sent in JSON
	Role          Role      `json:"role" db:"role"`
	CompanyID     string    `json:"company_id" db:"company_id"`
	ManagerID     *int64    `json:"manager_id,omitempty" db:"manager_id"`
	WorkloadHours float64   `json:"workload_hours" db:"workload_hours"` // contracted hours per day
	Active        bool      `json:"active" db:"active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Identity returns the authenticated view of the employee.
func (e *Employee) Identity() Identity {
	return Identity{
		EmployeeID:    e.ID,
		Email:         e.Email,
		Name:          e.Name,
		Role:          e.Role,
		CompanyID:     e.CompanyID,
		WorkloadHours: e.WorkloadHours,
	}
}

// Identity is who is calling, as re-read from the database on each request.
type Identity struct {
	EmployeeID    int64   `json:"employee_id"`
	Email         string  `json:"email"`
	Name          string  `json:"name"`
	Role          Role    `json:"role"`
	CompanyID     string  `json:"company_id"`
	WorkloadHours float64 `json:"workload_hours"`
}

// CreateEmployeeRequest is the payload for registering an employee.
type CreateEmployeeRequest struct {
	Email         string  `json:"email" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Password      string  `json:"password" binding:"required"`
	Role          Role    `json:"role"`
	CompanyID     string  `json:"company_id"`
	ManagerID     *int64  `json:"manager_id"`
	WorkloadHours float64 `json:"workload_hours"`
}

// UpdateEmployeeRequest changes an employee. Nil fields are left as they are.
type UpdateEmployeeRequest struct {
	Name          *string  `json:"name"`
	WorkloadHours *float64 `json:"workload_hours"`
	Active        *bool    `json:"active"`
}

// SetPasswordRequest sets a password. CurrentPassword is required when changing one's own.
type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"required"`
}
