package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"timeclock_backend/internal/database"
	"timeclock_backend/internal/models"
	"timeclock_backend/internal/repositories"
)

type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type testEnv struct {
	db          *database.DB
	clock       *fixedClock
	settings    Settings
	employees   repositories.EmployeeRepository
	timeLogs    repositories.TimeLogRepository
	corrections repositories.CorrectionRepository

	employeeSvc   EmployeeService
	punchSvc      PunchService
	editSvc       ManualEditService
	correctionSvc CorrectionService
	reportSvc     ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenMemory(context.Background())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{
		db:          db,
		clock:       &fixedClock{t: time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC)},
		settings:    Settings{Location: time.UTC, DefaultWorkload: 8},
		employees:   repositories.NewEmployeeRepository(db),
		timeLogs:    repositories.NewTimeLogRepository(db),
		corrections: repositories.NewCorrectionRepository(db),
	}
	env.employeeSvc = NewEmployeeService(db, env.employees, env.clock, env.settings)
	env.punchSvc = NewPunchService(db, env.employees, env.timeLogs, env.settings)
	env.editSvc = NewManualEditService(db, env.timeLogs, env.employeeSvc, env.clock, env.settings)
	env.correctionSvc = NewCorrectionService(db, env.corrections, env.clock, NewULIDGen(), env.settings)
	env.reportSvc = NewReportService(env.employees, env.timeLogs, db, env.settings)
	return env
}

func (e *testEnv) addEmployee(t *testing.T, email string, role models.Role, company string, workload float64) *models.Employee {
	t.Helper()
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	now := e.clock.Now()
	emp := &models.Employee{
		Email:         email,
		Name:          "Name " + email,
		PasswordHash:  hash,
		Role:          role,
		CompanyID:     company,
		WorkloadHours: workload,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	created, err := e.employees.Create(context.Background(), e.db, emp)
	if err != nil {
		t.Fatalf("create employee %s: %v", email, err)
	}
	return created
}

func (e *testEnv) identity(emp *models.Employee) models.Identity {
	return emp.Identity()
}

func day(h, m int) time.Time {
	return time.Date(2024, 3, 4, h, m, 0, 0, time.UTC)
}

func (e *testEnv) punchDay(t *testing.T, employeeID int64, times ...time.Time) *models.DailyPunchRecord {
	t.Helper()
	var rec *models.DailyPunchRecord
	for _, at := range times {
		var err error
		rec, _, err = e.punchSvc.RegisterPunch(context.Background(), employeeID, at)
		if err != nil {
			t.Fatalf("punch at %s: %v", at.Format(time.Kitchen), err)
		}
	}
	return rec
}
