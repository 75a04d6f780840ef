package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"timeclock_backend/internal/models"
)

func TestSubmit_Validation(t *testing.T) {
	env := newTestEnv(t)
	emp := env.addEmployee(t, "ana@example.com", models.RoleEmployee, "c1", 8)
	ctx := context.Background()

	cases := []struct {
		name  string
		input models.ChangeRequestInput
	}{
		{"missing date", models.ChangeRequestInput{Reason: "esqueci de bater"}},
		{"malformed date", models.ChangeRequestInput{Date: "2024/03/04", Reason: "esqueci de bater"}},
		{"blank reason", models.ChangeRequestInput{Date: "2024-03-04", Reason: "    "}},
		{"bad suggestion", models.ChangeRequestInput{Date: "2024-03-04", Reason: "esqueci de bater", Suggestion: &models.Suggestion{Entry: strp("8am")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.correctionSvc.Submit(ctx, env.identity(emp), tc.input)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestSubmit_AcceptsShortReason(t *testing.T) {
	env := newTestEnv(t)
	emp := env.addEmployee(t, "ana@example.com", models.RoleEmployee, "c1", 8)

	req, err := env.correctionSvc.Submit(context.Background(), env.identity(emp), models.ChangeRequestInput{
		Date:   "2024-03-04",
		Reason: " late ",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if req.Reason != "late" || req.Status != models.StatusPending {
		t.Fatalf("request = %+v", req)
	}
}

func TestSubmit_ParsesSuggestionFromReason(t *testing.T) {
	env := newTestEnv(t)
	emp := env.addEmployee(t, "ana@example.com", models.RoleEmployee, "c1", 8)

	req, err := env.correctionSvc.Submit(context.Background(), env.identity(emp), models.ChangeRequestInput{
		Date:   "2024-03-04",
		Reason: "Esqueci a saída. saida: 17:45",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if req.Status != models.StatusPending || req.ID == "" {
		t.Fatalf("request = %+v", req)
	}
	if req.Suggestion == nil || deref(req.Suggestion.Exit) != "17:45" {
		t.Fatalf("suggestion = %+v", req.Suggestion)
	}

	stored, err := env.corrections.GetByID(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.Suggestion == nil || deref(stored.Suggestion.Exit) != "17:45" || stored.Suggestion.Entry != nil {
		t.Fatalf("stored suggestion = %+v", stored.Suggestion)
	}
}

func TestSubmit_DoesNotTouchPunchRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	emp := env.addEmployee(t, "ana@example.com", models.RoleEmployee, "c1", 8)
	rec := env.punchDay(t, emp.ID, day(8, 0))
	mgr := env.addEmployee(t, "boss@example.com", models.RoleManager, "c1", 8)

	req, err := env.correctionSvc.Submit(ctx, env.identity(emp), models.ChangeRequestInput{Date: "2024-03-04", Reason: "entrada 07:30 na verdade"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := env.correctionSvc.Process(ctx, req.ID, "approve", env.identity(mgr), "ok, vou ajustar"); err != nil {
		t.Fatalf("process: %v", err)
	}

	after, _ := env.timeLogs.GetByID(ctx, rec.ID)
	if !after.EntryTime.Equal(day(8, 0)) || after.Version != 1 || after.Edit != nil {
		t.Fatalf("punch record changed: %+v", after)
	}
}

func TestProcess_TransitionsExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	emp := env.addEmployee(t, "ana@example.com", models.RoleEmployee, "c1", 8)
	mgr := env.addEmployee(t, "boss@example.com", models.RoleManager, "c1", 8)

	req, err := env.correctionSvc.Submit(ctx, env.identity(emp), models.ChangeRequestInput{Date: "2024-03-04", Reason: "esqueci de bater"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	env.clock.Set(day(19, 0))
	done, err := env.correctionSvc.Process(ctx, req.ID, "reject", env.identity(mgr), "sem comprovante")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if done.Status != models.StatusRejected || deref(done.ProcessedBy) != mgr.Email || deref(done.ManagerComment) != "sem comprovante" {
		t.Fatalf("processed = %+v", done)
	}
	if done.ProcessedAt == nil || !done.ProcessedAt.Equal(day(19, 0)) {
		t.Fatalf("processed_at = %v", done.ProcessedAt)
	}

	for _, decision := range []string{"approve", "reject"} {
		_, err := env.correctionSvc.Process(ctx, req.ID, decision, env.identity(mgr), "mudei de ideia")
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s after processing: err = %v, want ErrInvalidTransition", decision, err)
		}
	}
}

func TestProcess_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	emp := env.addEmployee(t, "ana@example.com", models.RoleEmployee, "c1", 8)
	mgr := env.addEmployee(t, "boss@example.com", models.RoleManager, "c1", 8)
	outsider := env.addEmployee(t, "other@example.com", models.RoleManager, "c2", 8)
	req, err := env.correctionSvc.Submit(ctx, env.identity(emp), models.ChangeRequestInput{Date: "2024-03-04", Reason: "esqueci de bater"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	cases := []struct {
		name     string
		id       string
		decision string
		actor    models.Identity
		comment  string
		want     error
	}{
		{"unknown decision", req.ID, "maybe", env.identity(mgr), "comentario", ErrValidation},
		{"short comment", req.ID, "approve", env.identity(mgr), "ok", ErrValidation},
		{"missing request", "01HZZZZZZZZZZZZZZZZZZZZZZZ", "approve", env.identity(mgr), "comentario", ErrNotFound},
		{"other company", req.ID, "approve", env.identity(outsider), "comentario", ErrUnauthorized},
		{"employee cannot decide", req.ID, "approve", env.identity(emp), "comentario", ErrUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.correctionSvc.Process(ctx, tc.id, tc.decision, tc.actor, tc.comment)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	stored, _ := env.corrections.GetByID(ctx, req.ID)
	if stored.Status != models.StatusPending {
		t.Fatalf("failed attempts changed status to %s", stored.Status)
	}
}

func TestProcess_ConcurrentDecisionsOneWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	emp := env.addEmployee(t, "ana@example.com", models.RoleEmployee, "c1", 8)
	mgr := env.addEmployee(t, "boss@example.com", models.RoleManager, "c1", 8)
	req, err := env.correctionSvc.Submit(ctx, env.identity(emp), models.ChangeRequestInput{Date: "2024-03-04", Reason: "esqueci de bater"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	const workers = 6
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, losses := 0, 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			decision := "approve"
			if i%2 == 1 {
				decision = "reject"
			}
			_, err := env.correctionSvc.Process(ctx, req.ID, decision, env.identity(mgr), "decisao final")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrInvalidTransition):
				losses++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 || losses != workers-1 {
		t.Fatalf("wins = %d losses = %d, want 1 and %d", wins, losses, workers-1)
	}
}

func TestListForManager_SplitsAndOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	emp := env.addEmployee(t, "ana@example.com", models.RoleEmployee, "c1", 8)
	other := env.addEmployee(t, "zoe@example.com", models.RoleEmployee, "c2", 8)
	mgr := env.addEmployee(t, "boss@example.com", models.RoleManager, "c1", 8)

	var ids []string
	for i := 0; i < 3; i++ {
		env.clock.Set(day(9, 0).Add(time.Duration(i) * time.Minute))
		req, err := env.correctionSvc.Submit(ctx, env.identity(emp), models.ChangeRequestInput{Date: "2024-03-0" + string(rune('1'+i)), Reason: "esqueci de bater"})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		ids = append(ids, req.ID)
	}
	if _, err := env.correctionSvc.Submit(ctx, env.identity(other), models.ChangeRequestInput{Date: "2024-03-01", Reason: "outra empresa"}); err != nil {
		t.Fatalf("submit other: %v", err)
	}
	if _, err := env.correctionSvc.Process(ctx, ids[0], "approve", env.identity(mgr), "aprovado ok"); err != nil {
		t.Fatalf("process: %v", err)
	}

	inbox, err := env.correctionSvc.ListForManager(ctx, env.identity(mgr))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(inbox.Pending) != 2 || len(inbox.Processed) != 1 {
		t.Fatalf("pending = %d processed = %d, want 2 and 1", len(inbox.Pending), len(inbox.Processed))
	}
	if inbox.Pending[0].ID != ids[2] || inbox.Pending[1].ID != ids[1] {
		t.Fatalf("pending not newest first: %s, %s", inbox.Pending[0].ID, inbox.Pending[1].ID)
	}
	if inbox.Processed[0].ID != ids[0] {
		t.Fatalf("processed = %s, want %s", inbox.Processed[0].ID, ids[0])
	}
	if inbox.Pending[0].EmployeeName != emp.Name || inbox.Pending[0].EmployeeEmail != emp.Email {
		t.Fatalf("missing employee details: %+v", inbox.Pending[0])
	}

	if _, err := env.correctionSvc.ListForManager(ctx, env.identity(emp)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("employee inbox err = %v, want ErrUnauthorized", err)
	}

	own, err := env.correctionSvc.ListForEmployee(ctx, env.identity(emp))
	if err != nil || len(own) != 3 {
		t.Fatalf("own requests = %d, %v; want 3", len(own), err)
	}
}
