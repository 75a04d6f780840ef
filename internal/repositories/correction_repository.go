package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"timeclock_backend/internal/database"
	"timeclock_backend/internal/models"
)

// CorrectionRepository defines the interface for correction request operations.
type CorrectionRepository interface {
	Create(ctx context.Context, executor SQLExecutor, request *models.CorrectionRequest) error
	GetByID(ctx context.Context, id string) (*models.CorrectionRequest, error)
	ListByCompany(ctx context.Context, companyID string) ([]models.CorrectionRequest, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]models.CorrectionRequest, error)
	// Transition moves a pending request to status. ErrStaleRecord means it was not pending.
	Transition(ctx context.Context, executor SQLExecutor, id string, status models.RequestStatus, processedBy, comment string, at time.Time) error
}

type correctionRepository struct {
	db *database.DB
}

// NewCorrectionRepository creates a new instance of CorrectionRepository.
func NewCorrectionRepository(db *database.DB) CorrectionRepository {
	return &correctionRepository{db: db}
}

const correctionSelect = `SELECT cr.id, cr.employee_id, e.name, e.email, e.company_id, cr.target_date, cr.reason,
	cr.suggested_entry, cr.suggested_lunch_exit, cr.suggested_lunch_return, cr.suggested_exit,
	cr.status, cr.created_at, cr.processed_by, cr.manager_comment, cr.processed_at
	FROM correction_requests cr
	JOIN employees e ON e.id = cr.employee_id`

func scanCorrection(row scanner) (*models.CorrectionRequest, error) {
	var req models.CorrectionRequest
	var s models.Suggestion
	var entry, lunchExit, lunchReturn, exit sql.NullString
	var processedBy, comment sql.NullString
	var processedAt sql.NullInt64
	var createdAt int64

	err := row.Scan(&req.ID, &req.EmployeeID, &req.EmployeeName, &req.EmployeeEmail, &req.CompanyID,
		&req.TargetDate, &req.Reason,
		&entry, &lunchExit, &lunchReturn, &exit,
		&req.Status, &createdAt, &processedBy, &comment, &processedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning correction request: %v", ErrDatabaseError, err)
	}

	s.Entry = fromNullString(entry)
	s.LunchExit = fromNullString(lunchExit)
	s.LunchReturn = fromNullString(lunchReturn)
	s.Exit = fromNullString(exit)
	if !s.IsEmpty() {
		req.Suggestion = &s
	}
	req.CreatedAt = fromMillis(createdAt)
	req.ProcessedBy = fromNullString(processedBy)
	req.ManagerComment = fromNullString(comment)
	req.ProcessedAt = fromNullMillis(processedAt)
	return &req, nil
}

func (r *correctionRepository) Create(ctx context.Context, executor SQLExecutor, request *models.CorrectionRequest) error {
	query := r.db.Dialect.Rebind(`INSERT INTO correction_requests
	            (id, employee_id, target_date, reason, suggested_entry, suggested_lunch_exit, suggested_lunch_return, suggested_exit, status, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	s := request.Suggestion
	if s == nil {
		s = &models.Suggestion{}
	}
	_, err := executor.ExecContext(ctx, query,
		request.ID, request.EmployeeID, request.TargetDate, request.Reason,
		nullString(s.Entry), nullString(s.LunchExit), nullString(s.LunchReturn), nullString(s.Exit),
		string(request.Status), toMillis(request.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: correction request %s", ErrDuplicateKey, request.ID)
		}
		return fmt.Errorf("%w: creating correction request: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *correctionRepository) GetByID(ctx context.Context, id string) (*models.CorrectionRequest, error) {
	query := r.db.Dialect.Rebind(correctionSelect + ` WHERE cr.id = ?`)
	return scanCorrection(r.db.QueryRowContext(ctx, query, id))
}

func (r *correctionRepository) ListByCompany(ctx context.Context, companyID string) ([]models.CorrectionRequest, error) {
	query := r.db.Dialect.Rebind(correctionSelect + ` WHERE e.company_id = ? ORDER BY cr.created_at DESC, cr.id DESC`)
	return r.list(ctx, query, companyID)
}

func (r *correctionRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]models.CorrectionRequest, error) {
	query := r.db.Dialect.Rebind(correctionSelect + ` WHERE cr.employee_id = ? ORDER BY cr.created_at DESC, cr.id DESC`)
	return r.list(ctx, query, employeeID)
}

func (r *correctionRepository) list(ctx context.Context, query string, arg interface{}) ([]models.CorrectionRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("%w: querying correction requests: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	requests := []models.CorrectionRequest{}
	for rows.Next() {
		req, err := scanCorrection(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating correction requests: %v", ErrDatabaseError, err)
	}
	return requests, nil
}

func (r *correctionRepository) Transition(ctx context.Context, executor SQLExecutor, id string, status models.RequestStatus, processedBy, comment string, at time.Time) error {
	query := r.db.Dialect.Rebind(`UPDATE correction_requests
	          SET status = ?, processed_by = ?, manager_comment = ?, processed_at = ?
	          WHERE id = ? AND status = ?`)
	result, err := executor.ExecContext(ctx, query, string(status), processedBy, comment, toMillis(at), id, string(models.StatusPending))
	if err != nil {
		return fmt.Errorf("%w: updating correction request %s: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected for correction request %s: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: correction request %s is not pending", ErrStaleRecord, id)
	}
	return nil
}
