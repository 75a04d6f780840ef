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

// TimeLogRepository defines the interface for daily punch record operations.
// Methods ending in ForUpdate must run inside a transaction; on Postgres they lock the row.
type TimeLogRepository interface {
	GetOrCreateForUpdate(ctx context.Context, tx SQLExecutor, employeeID int64, workDate string, now time.Time) (*models.DailyPunchRecord, error)
	GetByIDForUpdate(ctx context.Context, tx SQLExecutor, id int64) (*models.DailyPunchRecord, error)
	GetByID(ctx context.Context, id int64) (*models.DailyPunchRecord, error)
	GetByEmployeeDate(ctx context.Context, employeeID int64, workDate string) (*models.DailyPunchRecord, error)
	ListByEmployee(ctx context.Context, executor SQLExecutor, employeeID int64, dateRange models.DateRange) ([]models.DailyPunchRecord, error)
	Update(ctx context.Context, tx SQLExecutor, record *models.DailyPunchRecord) error
}

type timeLogRepository struct {
	db *database.DB
}

// NewTimeLogRepository creates a new instance of TimeLogRepository.
func NewTimeLogRepository(db *database.DB) TimeLogRepository {
	return &timeLogRepository{db: db}
}

const timeLogColumns = `id, employee_id, work_date, entry_time, lunch_exit_time, lunch_return_time, exit_time,
	extra_hours, missing_hours, balance_hours, edited_by, edited_by_name, edited_at, edit_reason,
	version, created_at, updated_at`

func scanTimeLog(row scanner) (*models.DailyPunchRecord, error) {
	var rec models.DailyPunchRecord
	var entry, lunchExit, lunchReturn, exit, editedAt sql.NullInt64
	var editedBy, editedByName, editReason sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.WorkDate,
		&entry, &lunchExit, &lunchReturn, &exit,
		&rec.ExtraHours, &rec.MissingHours, &rec.BalanceHours,
		&editedBy, &editedByName, &editedAt, &editReason,
		&rec.Version, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning time log: %v", ErrDatabaseError, err)
	}

	rec.EntryTime = fromNullMillis(entry)
	rec.LunchExitTime = fromNullMillis(lunchExit)
	rec.LunchReturnTime = fromNullMillis(lunchReturn)
	rec.ExitTime = fromNullMillis(exit)
	if editedBy.Valid && editedAt.Valid {
		rec.Edit = &models.EditAudit{
			EditedBy:     editedBy.String,
			EditedByName: editedByName.String,
			EditedAt:     fromMillis(editedAt.Int64),
			Reason:       editReason.String,
		}
	}
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return &rec, nil
}

func (r *timeLogRepository) GetOrCreateForUpdate(ctx context.Context, tx SQLExecutor, employeeID int64, workDate string, now time.Time) (*models.DailyPunchRecord, error) {
	insert := r.db.Dialect.Rebind(`INSERT INTO time_logs (employee_id, work_date, version, created_at, updated_at)
	          VALUES (?, ?, 0, ?, ?)
	          ON CONFLICT (employee_id, work_date) DO NOTHING`)
	if _, err := tx.ExecContext(ctx, insert, employeeID, workDate, toMillis(now), toMillis(now)); err != nil {
		return nil, fmt.Errorf("%w: creating time log for employee %d on %s: %v", ErrDatabaseError, employeeID, workDate, err)
	}

	query := r.db.Dialect.Rebind(`SELECT `+timeLogColumns+` FROM time_logs WHERE employee_id = ? AND work_date = ?`) + r.db.Dialect.ForUpdate()
	return scanTimeLog(tx.QueryRowContext(ctx, query, employeeID, workDate))
}

func (r *timeLogRepository) GetByIDForUpdate(ctx context.Context, tx SQLExecutor, id int64) (*models.DailyPunchRecord, error) {
	query := r.db.Dialect.Rebind(`SELECT `+timeLogColumns+` FROM time_logs WHERE id = ?`) + r.db.Dialect.ForUpdate()
	return scanTimeLog(tx.QueryRowContext(ctx, query, id))
}

func (r *timeLogRepository) GetByID(ctx context.Context, id int64) (*models.DailyPunchRecord, error) {
	query := r.db.Dialect.Rebind(`SELECT ` + timeLogColumns + ` FROM time_logs WHERE id = ?`)
	return scanTimeLog(r.db.QueryRowContext(ctx, query, id))
}

func (r *timeLogRepository) GetByEmployeeDate(ctx context.Context, employeeID int64, workDate string) (*models.DailyPunchRecord, error) {
	query := r.db.Dialect.Rebind(`SELECT ` + timeLogColumns + ` FROM time_logs WHERE employee_id = ? AND work_date = ?`)
	return scanTimeLog(r.db.QueryRowContext(ctx, query, employeeID, workDate))
}

func (r *timeLogRepository) ListByEmployee(ctx context.Context, executor SQLExecutor, employeeID int64, dateRange models.DateRange) ([]models.DailyPunchRecord, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + timeLogColumns + ` FROM time_logs WHERE employee_id = ?`)
	args := []interface{}{employeeID}

	// work_date is ISO formatted, so text comparison orders by date.
	if dateRange.Start != "" {
		queryBuilder.WriteString(" AND work_date >= ?")
		args = append(args, dateRange.Start)
	}
	if dateRange.End != "" {
		queryBuilder.WriteString(" AND work_date <= ?")
		args = append(args, dateRange.End)
	}
	queryBuilder.WriteString(" ORDER BY work_date ASC")

	rows, err := executor.QueryContext(ctx, r.db.Dialect.Rebind(queryBuilder.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying time logs: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	records := []models.DailyPunchRecord{}
	for rows.Next() {
		rec, err := scanTimeLog(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating time logs: %v", ErrDatabaseError, err)
	}
	return records, nil
}

// Update writes the record if its version is unchanged and bumps the version.
func (r *timeLogRepository) Update(ctx context.Context, tx SQLExecutor, record *models.DailyPunchRecord) error {
	query := r.db.Dialect.Rebind(`UPDATE time_logs SET
	            entry_time = ?, lunch_exit_time = ?, lunch_return_time = ?, exit_time = ?,
	            extra_hours = ?, missing_hours = ?, balance_hours = ?,
	            edited_by = ?, edited_by_name = ?, edited_at = ?, edit_reason = ?,
	            version = version + 1, updated_at = ?
	          WHERE id = ? AND version = ?`)

	var editedBy, editedByName, editReason sql.NullString
	var editedAt sql.NullInt64
	if record.Edit != nil {
		editedBy = sql.NullString{String: record.Edit.EditedBy, Valid: true}
		editedByName = sql.NullString{String: record.Edit.EditedByName, Valid: true}
		editReason = sql.NullString{String: record.Edit.Reason, Valid: true}
		editedAt = sql.NullInt64{Int64: toMillis(record.Edit.EditedAt), Valid: true}
	}

	result, err := tx.ExecContext(ctx, query,
		nullMillis(record.EntryTime), nullMillis(record.LunchExitTime),
		nullMillis(record.LunchReturnTime), nullMillis(record.ExitTime),
		record.ExtraHours, record.MissingHours, record.BalanceHours,
		editedBy, editedByName, editedAt, editReason,
		toMillis(record.UpdatedAt),
		record.ID, record.Version,
	)
	if err != nil {
		return fmt.Errorf("%w: updating time log %d: %v", ErrDatabaseError, record.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected for time log %d: %v", ErrDatabaseError, record.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: time log %d at version %d", ErrStaleRecord, record.ID, record.Version)
	}
	record.Version++
	return nil
}
