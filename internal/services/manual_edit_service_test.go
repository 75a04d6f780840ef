package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"timeclock_backend/internal/models"
)

func TestApplyManagerEdit_ShortReasonLeavesRecordUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	emp := env.addEmployee(t, "ana@example.com", models.RoleEmployee, "c1", 8)
	mgr := env.addEmployee(t, "boss@example.com", models.RoleManager, "c1", 8)
	rec := env.punchDay(t, emp.ID, day(8, 0), day(12, 0))

	before, err := env.timeLogs.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	var edit models.PunchEdit
	edit.Assign(models.SlotExit, day(17, 0))
	for _, reason := range []string{"", "   ", "ok", " abcd "} {
		_, err := env.editSvc.ApplyManagerEdit(ctx, rec.ID, edit, env.identity(mgr), reason)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("reason %q: err = %v, want ErrValidation", reason, err)
		}
	}

	after, err := env.timeLogs.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("record changed:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestApplyManagerEdit_RejectsOutOfOrderTimes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	emp := env.addEmployee(t, "ana@example.com", models.RoleEmployee, "c1", 8)
	mgr := env.addEmployee(t, "boss@example.com", models.RoleManager, "c1", 8)
	rec := env.punchDay(t, emp.ID, day(8, 0), day(12, 0), day(13, 0))

	before, _ := env.timeLogs.GetByID(ctx, rec.ID)

	var edit models.PunchEdit
	edit.Assign(models.SlotExit, day(12, 30))
	_, err := env.editSvc.ApplyManagerEdit(ctx, rec.ID, edit, env.identity(mgr), "ajuste de saida")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}

	after, _ := env.timeLogs.GetByID(ctx, rec.ID)
	if !reflect.DeepEqual(before, after) {
		t.Fatal("rejected edit modified the record")
	}
}

func TestApplyManagerEdit_KeepsPunchesNearWorkDate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	emp := env.addEmployee(t, "ana@example.com", models.RoleEmployee, "c1", 8)
	mgr := env.addEmployee(t, "boss@example.com", models.RoleManager, "c1", 8)
	rec := env.punchDay(t, emp.ID, day(8, 0))
	before, _ := env.timeLogs.GetByID(ctx, rec.ID)

	cases := []struct {
		name string
		slot models.Slot
		at   time.Time
	}{
		{"two days later", models.SlotExit, time.Date(2024, 3, 6, 17, 0, 0, 0, time.UTC)},
		{"day before", models.SlotEntry, time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var edit models.PunchEdit
			edit.Assign(tc.slot, tc.at)
			_, err := env.editSvc.ApplyManagerEdit(ctx, rec.ID, edit, env.identity(mgr), "ajuste de data")
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
	after, _ := env.timeLogs.GetByID(ctx, rec.ID)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("record changed:\nbefore %+v\nafter  %+v", before, after)
	}

	// Overnight shifts may end on the following day.
	var overnight models.PunchEdit
	overnight.Assign(models.SlotExit, time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC))
	got, err := env.editSvc.ApplyManagerEdit(ctx, rec.ID, overnight, env.identity(mgr), "turno noturno")
	if err != nil {
		t.Fatalf("overnight exit: %v", err)
	}
	if got.WorkDate != "2024-03-04" || got.ExitTime == nil {
		t.Fatalf("record = %+v", got)
	}
}

func TestApplyManagerEdit_StampsAuditAndRecomputes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	emp := env.addEmployee(t, "ana@example.com", models.RoleEmployee, "c1", 8)
	mgr := env.addEmployee(t, "boss@example.com", models.RoleManager, "c1", 8)
	rec := env.punchDay(t, emp.ID, day(8, 0), day(12, 0), day(13, 0))

	editTime := day(19, 15)
	env.clock.Set(editTime)

	var edit models.PunchEdit
	edit.Assign(models.SlotExit, day(18, 0))
	got, err := env.editSvc.ApplyManagerEdit(ctx, rec.ID, edit, env.identity(mgr), "  esqueceu a saida  ")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got.ExtraHours != 1 || got.BalanceHours != 1 {
		t.Fatalf("metrics = %v/%v, want extra 1 balance 1", got.ExtraHours, got.BalanceHours)
	}
	if got.Edit == nil {
		t.Fatal("missing audit stamp")
	}
	if got.Edit.EditedBy != mgr.Email || got.Edit.EditedByName != mgr.Name || got.Edit.Reason != "esqueceu a saida" {
		t.Fatalf("audit = %+v", got.Edit)
	}
	if !got.Edit.EditedAt.Equal(editTime) {
		t.Fatalf("edited_at = %v, want %v", got.Edit.EditedAt, editTime)
	}

	// A second edit replaces the stamp.
	var clear models.PunchEdit
	clear.Clear(models.SlotExit)
	got, err = env.editSvc.ApplyManagerEdit(ctx, rec.ID, clear, env.identity(mgr), "saida registrada errada")
	if err != nil {
		t.Fatalf("second edit: %v", err)
	}
	if got.ExitTime != nil || got.BalanceHours != -8 {
		t.Fatalf("exit = %v balance = %v, want cleared and -8", got.ExitTime, got.BalanceHours)
	}
	if got.Edit.Reason != "saida registrada errada" {
		t.Fatalf("reason = %q", got.Edit.Reason)
	}
}

func TestApplyManagerEdit_OtherCompanyUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	emp := env.addEmployee(t, "ana@example.com", models.RoleEmployee, "c1", 8)
	outsider := env.addEmployee(t, "other@example.com", models.RoleManager, "c2", 8)
	rec := env.punchDay(t, emp.ID, day(8, 0))

	var edit models.PunchEdit
	edit.Assign(models.SlotExit, day(17, 0))
	_, err := env.editSvc.ApplyManagerEdit(context.Background(), rec.ID, edit, env.identity(outsider), "ajuste qualquer")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestApplyManagerEdit_EmployeeCannotEdit(t *testing.T) {
	env := newTestEnv(t)
	emp := env.addEmployee(t, "ana@example.com", models.RoleEmployee, "c1", 8)
	rec := env.punchDay(t, emp.ID, day(8, 0))

	var edit models.PunchEdit
	edit.Assign(models.SlotExit, day(17, 0))
	_, err := env.editSvc.ApplyManagerEdit(context.Background(), rec.ID, edit, env.identity(emp), "quero sair cedo")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestApplyManagerEdit_UnknownRecord(t *testing.T) {
	env := newTestEnv(t)
	mgr := env.addEmployee(t, "boss@example.com", models.RoleManager, "c1", 8)
	_, err := env.editSvc.ApplyManagerEdit(context.Background(), 42, models.PunchEdit{}, env.identity(mgr), "registro inexistente")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestApplyManagerEditForDate_CreatesMissingRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	emp := env.addEmployee(t, "ana@example.com", models.RoleEmployee, "c1", 8)
	mgr := env.addEmployee(t, "boss@example.com", models.RoleManager, "c1", 8)

	date := "2024-03-01"
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var edit models.PunchEdit
	edit.Assign(models.SlotEntry, base.Add(8*time.Hour))
	edit.Assign(models.SlotLunchExit, base.Add(12*time.Hour))
	edit.Assign(models.SlotLunchReturn, base.Add(13*time.Hour))
	edit.Assign(models.SlotExit, base.Add(17*time.Hour))

	got, err := env.editSvc.ApplyManagerEditForDate(ctx, emp.ID, date, edit, env.identity(mgr), "atestado aprovado")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got.WorkDate != date || !got.IsComplete() || got.BalanceHours != 0 {
		t.Fatalf("record = %+v", got)
	}

	stored, err := env.timeLogs.GetByEmployeeDate(ctx, emp.ID, date)
	if err != nil {
		t.Fatalf("load stored: %v", err)
	}
	if stored.Edit == nil || stored.Edit.EditedBy != mgr.Email {
		t.Fatalf("audit not stored: %+v", stored.Edit)
	}
}

func TestApplyManagerEditForDate_InvalidEditCreatesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	emp := env.addEmployee(t, "ana@example.com", models.RoleEmployee, "c1", 8)
	mgr := env.addEmployee(t, "boss@example.com", models.RoleManager, "c1", 8)

	var edit models.PunchEdit
	edit.Assign(models.SlotEntry, day(17, 0))
	edit.Assign(models.SlotExit, day(8, 0))
	_, err := env.editSvc.ApplyManagerEditForDate(ctx, emp.ID, "2024-03-04", edit, env.identity(mgr), "ajuste invertido")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if _, err := env.timeLogs.GetByEmployeeDate(ctx, emp.ID, "2024-03-04"); err == nil {
		t.Fatal("rejected edit created a record")
	}

	if _, err := env.editSvc.ApplyManagerEditForDate(ctx, emp.ID, "04/03/2024", edit, env.identity(mgr), "data invalida"); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad date err = %v, want ErrValidation", err)
	}
}

func TestParseEdit(t *testing.T) {
	env := newTestEnv(t)
	empty := ""
	hhmm := "08:30"
	local := "2024-03-04T12:00"
	seconds := "2024-03-04T13:00:30"
	rfc := "2024-03-04T20:00:00Z"

	req := models.ManualEditRequest{EntryTime: &hhmm, LunchExitTime: &local, LunchReturnTime: &seconds, ExitTime: &rfc}
	edit, err := env.editSvc.ParseEdit(req, "2024-03-04")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []time.Time{day(8, 30), day(12, 0), day(13, 0).Add(30 * time.Second), day(20, 0)}
	for i, s := range models.AllSlots {
		c := edit.Changes[s]
		if c.Kind != models.SlotAssigned || !c.Value.Equal(want[i]) {
			t.Fatalf("%s = %+v, want %v", s, c, want[i])
		}
	}

	edit, err = env.editSvc.ParseEdit(models.ManualEditRequest{ExitTime: &empty}, "2024-03-04")
	if err != nil {
		t.Fatalf("parse clear: %v", err)
	}
	if edit.Changes[models.SlotExit].Kind != models.SlotCleared || edit.Changes[models.SlotEntry].Kind != models.SlotUntouched {
		t.Fatalf("changes = %+v", edit.Changes)
	}

	bad := "tomorrow"
	if _, err := env.editSvc.ParseEdit(models.ManualEditRequest{EntryTime: &bad}, "2024-03-04"); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestRecalculate_AfterWorkloadChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	emp := env.addEmployee(t, "ana@example.com", models.RoleEmployee, "c1", 8)
	mgr := env.addEmployee(t, "boss@example.com", models.RoleManager, "c1", 8)
	env.punchDay(t, emp.ID, day(8, 0), day(12, 0), day(13, 0), day(17, 0))

	workload := 6.0
	if _, err := env.employeeSvc.Update(ctx, env.identity(mgr), emp.ID, models.UpdateEmployeeRequest{WorkloadHours: &workload}); err != nil {
		t.Fatalf("update workload: %v", err)
	}

	n, err := env.editSvc.Recalculate(ctx, emp.ID, models.DateRange{Start: "2024-03-01", End: "2024-03-31"}, env.identity(mgr))
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if n != 1 {
		t.Fatalf("updated = %d, want 1", n)
	}
	rec, _ := env.timeLogs.GetByEmployeeDate(ctx, emp.ID, "2024-03-04")
	if rec.ExtraHours != 2 || rec.BalanceHours != 2 {
		t.Fatalf("metrics = %v/%v, want 2/2", rec.ExtraHours, rec.BalanceHours)
	}

	n, err = env.editSvc.Recalculate(ctx, emp.ID, models.DateRange{}, env.identity(mgr))
	if err != nil || n != 0 {
		t.Fatalf("second recalculate = %d, %v; want 0, nil", n, err)
	}
}
