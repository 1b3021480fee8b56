package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"taskboard/app"
	"taskboard/model"
	"taskboard/store"
	"taskboard/validate"
)

var testNow = time.Date(2026, 2, 19, 15, 30, 0, 0, time.UTC)

func newTestModel(t *testing.T) (*Model, *app.Service) {
	t.Helper()
	svc := app.NewService(store.NewMemoryStore(), app.WithClock(func() time.Time { return testNow }))
	m := NewModel(svc, "")
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, svc
}

func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd = m.Update(msg)
	}
	return cmd
}

func mustCreate(t *testing.T, svc *app.Service, title string, p model.Priority) model.Task {
	t.Helper()
	task, err := svc.Create(model.TaskInput{
		Title:    title,
		Priority: p,
		DueDate:  "2026-03-01",
		Status:   model.StatusNew,
		Budget:   1500,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return task
}

func TestEmptyStoreShowsOnboardingStatus(t *testing.T) {
	m, _ := newTestModel(t)
	if !strings.Contains(m.status, "No tasks yet") {
		t.Fatalf("expected empty-state status, got %q", m.status)
	}
	if !strings.Contains(m.View(), "No tasks yet. Add your first task to get started!") {
		t.Fatalf("expected empty-state message in view")
	}
}

func TestStartupNoticeIsShownAsError(t *testing.T) {
	svc := app.NewService(store.NewMemoryStore())
	m := NewModel(svc, "Stored tasks were unreadable and have been reset")
	if !m.statusErr || !strings.Contains(m.status, "unreadable") {
		t.Fatalf("expected startup notice as error status, got %q (err=%v)", m.status, m.statusErr)
	}
}

func TestSaveShowsAllFieldErrorsAtOnce(t *testing.T) {
	m, svc := newTestModel(t)
	press(m, "n")
	m.inputs[fieldBudget].SetValue("abc")
	press(m, "enter")

	if svc.Len() != 0 {
		t.Fatalf("expected nothing saved, got %d tasks", svc.Len())
	}
	want := map[string]string{
		validate.FieldTitle:   "Title is required",
		validate.FieldDueDate: "Due date is required",
		validate.FieldBudget:  "Budget must be a valid number",
	}
	for field, msg := range want {
		if got := m.formErrs.Message(field); got != msg {
			t.Fatalf("field %s: expected %q, got %q", field, msg, got)
		}
	}
	if m.focus != focusForm || !m.statusErr {
		t.Fatalf("expected form to stay focused with an error status")
	}
	if !strings.Contains(m.View(), "Title is required") {
		t.Fatalf("expected field error rendered in form panel")
	}
}

func TestSaveCreatesTaskAndResetsForm(t *testing.T) {
	m, svc := newTestModel(t)
	press(m, "n", "buy milk", "tab", "tab", "tab", "2026-03-01")
	cmd := press(m, "enter")

	if svc.Len() != 1 {
		t.Fatalf("expected 1 task, got %d", svc.Len())
	}
	task := svc.List()[0]
	if task.Title != "Buy milk" || task.Priority != model.PriorityMedium || task.Status != model.StatusNew {
		t.Fatalf("unexpected task: %+v", task)
	}
	if m.editingID != "" || m.focus != focusList {
		t.Fatalf("expected form reset and list focus, editing=%q focus=%v", m.editingID, m.focus)
	}
	if m.status != "Task created successfully!" || cmd == nil {
		t.Fatalf("expected success banner with expiry, got %q", m.status)
	}
	if m.inputs[fieldTitle].Value() != "" {
		t.Fatalf("expected title field cleared")
	}
}

func TestEditLoadsTaskAndSaveUpdates(t *testing.T) {
	m, svc := newTestModel(t)
	task := mustCreate(t, svc, "Write report", model.PriorityLow)

	press(m, "e")
	if m.editingID != task.ID {
		t.Fatalf("expected editingID %q, got %q", task.ID, m.editingID)
	}
	if m.inputs[fieldBudget].Value() != "1500" || m.inputs[fieldPriority].Value() != "low" {
		t.Fatalf("expected form pre-filled, got budget=%q priority=%q",
			m.inputs[fieldBudget].Value(), m.inputs[fieldPriority].Value())
	}

	press(m, "tab", "tab", "right", "enter")

	got, err := svc.Get(task.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Priority != model.PriorityMedium || got.Color != model.PriorityMedium.Color() {
		t.Fatalf("expected priority cycled to medium, got %+v", got)
	}
	if svc.Len() != 1 || m.editingID != "" {
		t.Fatalf("expected in-place update and cleared editing state")
	}
	if m.status != "Task updated successfully!" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestDeletingEditedTaskResetsForm(t *testing.T) {
	m, svc := newTestModel(t)
	mustCreate(t, svc, "Write report", model.PriorityLow)

	press(m, "e", "esc", "d")
	if m.mode != modeConfirmDelete {
		t.Fatalf("expected delete confirmation")
	}
	press(m, "y")

	if svc.Len() != 0 {
		t.Fatalf("expected task deleted")
	}
	if m.editingID != "" || m.inputs[fieldTitle].Value() != "" {
		t.Fatalf("expected form reset after deleting edited task")
	}
}

func TestDeleteCancelledKeepsTask(t *testing.T) {
	m, svc := newTestModel(t)
	mustCreate(t, svc, "Write report", model.PriorityLow)

	press(m, "d", "n")
	if svc.Len() != 1 || m.mode != modeNormal {
		t.Fatalf("expected cancel to keep task, len=%d mode=%v", svc.Len(), m.mode)
	}
}

func TestClearAllResetsEditing(t *testing.T) {
	m, svc := newTestModel(t)
	mustCreate(t, svc, "Write report", model.PriorityLow)
	mustCreate(t, svc, "Pay bills", model.PriorityHigh)

	press(m, "e", "esc", "D")
	if !strings.Contains(m.View(), "Delete ALL 2 tasks?") {
		t.Fatalf("expected clear-all prompt in view")
	}
	press(m, "y")

	if svc.Len() != 0 || m.editingID != "" {
		t.Fatalf("expected empty store and reset form, len=%d editing=%q", svc.Len(), m.editingID)
	}
	if m.status != "All tasks cleared successfully!" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestQuickCompleteAndUndo(t *testing.T) {
	m, svc := newTestModel(t)
	task := mustCreate(t, svc, "Write report", model.PriorityLow)

	press(m, "x")
	got, _ := svc.Get(task.ID)
	if got.Status != model.StatusCompleted || got.PreviousStatus != model.StatusNew {
		t.Fatalf("expected completed with previous New, got %+v", got)
	}

	press(m, "x")
	if m.status != "Task is already completed!" {
		t.Fatalf("expected already-completed notice, got %q", m.status)
	}

	press(m, "u")
	got, _ = svc.Get(task.ID)
	if got.Status != model.StatusNew {
		t.Fatalf("expected status restored to New, got %q", got.Status)
	}
}

func TestRescheduleUnchangedIsNoop(t *testing.T) {
	m, svc := newTestModel(t)
	task := mustCreate(t, svc, "Write report", model.PriorityLow)

	press(m, "r")
	if m.mode != modeReschedule || m.reschedule.Value() != task.DueDate {
		t.Fatalf("expected prompt pre-filled with %q, got %q", task.DueDate, m.reschedule.Value())
	}
	status := m.status
	press(m, "enter")

	if m.mode != modeNormal || m.status != status {
		t.Fatalf("expected silent no-op, mode=%v status=%q", m.mode, m.status)
	}
}

func TestReschedulePastDateKeepsPromptOpen(t *testing.T) {
	m, svc := newTestModel(t)
	task := mustCreate(t, svc, "Write report", model.PriorityLow)

	press(m, "r")
	m.reschedule.SetValue("2020-01-01")
	press(m, "enter")

	if m.mode != modeReschedule || !m.statusErr {
		t.Fatalf("expected prompt to stay open with an error")
	}
	if m.status != "Due date cannot be in the past" {
		t.Fatalf("unexpected status %q", m.status)
	}
	got, _ := svc.Get(task.ID)
	if got.DueDate != task.DueDate {
		t.Fatalf("expected due date unchanged, got %q", got.DueDate)
	}

	m.reschedule.SetValue("2026-04-15")
	press(m, "enter")
	got, _ = svc.Get(task.ID)
	if got.DueDate != "2026-04-15" || m.mode != modeNormal {
		t.Fatalf("expected rescheduled task, got %q", got.DueDate)
	}
}

func TestBannerClearsOnlyForLatestStatus(t *testing.T) {
	m, _ := newTestModel(t)
	m.flash("first")
	stale := m.statusSeq
	m.flash("second")

	m.Update(clearStatusMsg{seq: stale})
	if m.status != "second" {
		t.Fatalf("stale tick should not clear newer banner, got %q", m.status)
	}
	m.Update(clearStatusMsg{seq: m.statusSeq})
	if m.status != "" {
		t.Fatalf("expected banner cleared, got %q", m.status)
	}
}

func TestErrorStatusSurvivesBannerTick(t *testing.T) {
	m, _ := newTestModel(t)
	m.setStatus("boom", true)
	m.Update(clearStatusMsg{seq: m.statusSeq})
	if m.status != "boom" {
		t.Fatalf("expected error status to stay, got %q", m.status)
	}
}

func TestTitleCapitalizedWhileTyping(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, "n", "d")
	if got := m.inputs[fieldTitle].Value(); got != "D" {
		t.Fatalf("expected capitalized title, got %q", got)
	}
	press(m, "raft")
	if got := m.inputs[fieldTitle].Value(); got != "Draft" {
		t.Fatalf("expected %q, got %q", "Draft", got)
	}
}

func TestViewRendersTaskDetails(t *testing.T) {
	m, svc := newTestModel(t)
	mustCreate(t, svc, "Ship release", model.PriorityHigh)

	view := m.View()
	for _, want := range []string{"Ship release", "High Priority", "$1,500.00", "Mar 1, 2026", "[New]", appVersion} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q\n%s", want, view)
		}
	}
}

func TestFilterHidesCompletedTasks(t *testing.T) {
	m, svc := newTestModel(t)
	done := mustCreate(t, svc, "Old chore", model.PriorityLow)
	mustCreate(t, svc, "New chore", model.PriorityLow)
	if _, err := svc.CompleteQuick(done.ID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	press(m, "f")
	tasks := m.visibleTasks()
	if m.filter != filterOpen || len(tasks) != 1 || tasks[0].Title != "New chore" {
		t.Fatalf("expected only open task, got %+v", tasks)
	}
}

func TestFormatUSD(t *testing.T) {
	cases := map[float64]string{
		1500:      "$1,500.00",
		99.5:      "$99.50",
		1_000_000: "$1,000,000.00",
	}
	for in, want := range cases {
		if got := formatUSD(in); got != want {
			t.Fatalf("formatUSD(%v) = %q, want %q", in, got, want)
		}
	}
}
