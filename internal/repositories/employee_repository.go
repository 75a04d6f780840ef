package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"timeclock_backend/internal/database"
	"timeclock_backend/internal/models"
)

// EmployeeRepository defines the interface for employee database operations.
type EmployeeRepository interface {
	Create(ctx context.Context, executor SQLExecutor, employee *models.Employee) (*models.Employee, error)
	GetByID(ctx context.Context, id int64) (*models.Employee, error)
	GetByEmail(ctx context.Context, email string) (*models.Employee, error)
	List(ctx context.Context, companyID string, active *bool) ([]models.Employee, error)
	SetActive(ctx context.Context, executor SQLExecutor, id int64, active bool, now time.Time) error
	Update(ctx context.Context, executor SQLExecutor, employee *models.Employee) error
	SetPassword(ctx context.Context, executor SQLExecutor, id int64, passwordHash string, now time.Time) error
}

type employeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new instance of EmployeeRepository.
func NewEmployeeRepository(db *database.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

const employeeColumns = `id, email, name, password_hash, role, company_id, manager_id, workload_hours, active, created_at, updated_at`

func scanEmployee(row scanner) (*models.Employee, error) {
	var e models.Employee
	var managerID sql.NullInt64
	var createdAt, updatedAt int64
	err := row.Scan(&e.ID, &e.Email, &e.Name, &e.PasswordHash, &e.Role, &e.CompanyID,
		&managerID, &e.WorkloadHours, &e.Active, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning employee: %v", ErrDatabaseError, err)
	}
	if managerID.Valid {
		e.ManagerID = &managerID.Int64
	}
	e.CreatedAt = fromMillis(createdAt)
	e.UpdatedAt = fromMillis(updatedAt)
	return &e, nil
}

func (r *employeeRepository) Create(ctx context.Context, executor SQLExecutor, employee *models.Employee) (*models.Employee, error) {
	query := r.db.Dialect.Rebind(`INSERT INTO employees (email, name, password_hash, role, company_id, manager_id, workload_hours, active, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	          RETURNING id`)

	var managerID sql.NullInt64
	if employee.ManagerID != nil {
		managerID = sql.NullInt64{Int64: *employee.ManagerID, Valid: true}
	}

	err := executor.QueryRowContext(ctx, query,
		employee.Email, employee.Name, employee.PasswordHash, string(employee.Role), employee.CompanyID,
		managerID, employee.WorkloadHours, employee.Active,
		toMillis(employee.CreatedAt), toMillis(employee.UpdatedAt),
	).Scan(&employee.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email %s is already registered", ErrDuplicateKey, employee.Email)
		}
		return nil, fmt.Errorf("%w: creating employee: %v", ErrDatabaseError, err)
	}
	return employee, nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id int64) (*models.Employee, error) {
	query := r.db.Dialect.Rebind(`SELECT ` + employeeColumns + ` FROM employees WHERE id = ?`)
	return scanEmployee(r.db.QueryRowContext(ctx, query, id))
}

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (*models.Employee, error) {
	query := r.db.Dialect.Rebind(`SELECT ` + employeeColumns + ` FROM employees WHERE email = ?`)
	return scanEmployee(r.db.QueryRowContext(ctx, query, email))
}

func (r *employeeRepository) List(ctx context.Context, companyID string, active *bool) ([]models.Employee, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + employeeColumns + ` FROM employees`)

	var conditions []string
	var args []interface{}
	if companyID != "" {
		conditions = append(conditions, "company_id = ?")
		args = append(args, companyID)
	}
	if active != nil {
		conditions = append(conditions, "active = ?")
		args = append(args, *active)
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY name ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, r.db.Dialect.Rebind(queryBuilder.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying employees: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	employees := []models.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating employees: %v", ErrDatabaseError, err)
	}
	return employees, nil
}

func (r *employeeRepository) SetActive(ctx context.Context, executor SQLExecutor, id int64, active bool, now time.Time) error {
	query := r.db.Dialect.Rebind(`UPDATE employees SET active = ?, updated_at = ? WHERE id = ?`)
	result, err := executor.ExecContext(ctx, query, active, toMillis(now), id)
	if err != nil {
		return fmt.Errorf("%w: updating employee %d: %v", ErrDatabaseError, id, err)
	}
	return expectOneRow(result, id)
}

func (r *employeeRepository) Update(ctx context.Context, executor SQLExecutor, employee *models.Employee) error {
	query := r.db.Dialect.Rebind(`UPDATE employees SET name = ?, workload_hours = ?, active = ?, updated_at = ? WHERE id = ?`)
	result, err := executor.ExecContext(ctx, query,
		employee.Name, employee.WorkloadHours, employee.Active, toMillis(employee.UpdatedAt), employee.ID)
	if err != nil {
		return fmt.Errorf("%w: updating employee %d: %v", ErrDatabaseError, employee.ID, err)
	}
	return expectOneRow(result, employee.ID)
}

func (r *employeeRepository) SetPassword(ctx context.Context, executor SQLExecutor, id int64, passwordHash string, now time.Time) error {
	query := r.db.Dialect.Rebind(`UPDATE employees SET password_hash = ?, updated_at = ? WHERE id = ?`)
	result, err := executor.ExecContext(ctx, query, passwordHash, toMillis(now), id)
	if err != nil {
		return fmt.Errorf("%w: updating password of employee %d: %v", ErrDatabaseError, id, err)
	}
	return expectOneRow(result, id)
}

func expectOneRow(result sql.Result, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected for employee %d: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
