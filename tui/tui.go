package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskboard/app"
	"taskboard/model"
	"taskboard/validate"
)

const (
	appVersion    = "Task Manager v1.2"
	bannerTimeout = 3 * time.Second
)

type focusPane int

const (
	focusList focusPane = iota
	focusForm
)

func (f focusPane) String() string {
	if f == focusForm {
		return "form"
	}
	return "tasks"
}

type uiMode int

const (
	modeNormal uiMode = iota
	modeReschedule
	modeConfirmDelete
	modeConfirmClearAll
)

type filter int

const (
	filterAll filter = iota
	filterOpen
	filterCompleted
)

func (f filter) String() string {
	switch f {
	case filterOpen:
		return "open"
	case filterCompleted:
		return "completed"
	default:
		return "all"
	}
}

// Form field order, also the tab order.
const (
	fieldTitle = iota
	fieldNotes
	fieldPriority
	fieldDueDate
	fieldStatus
	fieldBudget
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Notes", "Priority", "Due date", "Status", "Budget"}

var fieldNames = [fieldCount]string{
	validate.FieldTitle,
	validate.FieldNotes,
	validate.FieldPriority,
	validate.FieldDueDate,
	validate.FieldStatus,
	validate.FieldBudget,
}

// clearStatusMsg hides the banner it was scheduled for, unless a newer
// banner replaced it in the meantime.
type clearStatusMsg struct{ seq int }

type Model struct {
	svc *app.Service

	focus  focusPane
	mode   uiMode
	filter filter
	cursor int

	inputs     []textinput.Model
	fieldFocus int
	formErrs   validate.Errors
	editingID  string

	reschedule  textinput.Model
	confirmID   string
	confirmName string

	showHelp bool

	status    string
	statusErr bool
	statusSeq int

	width  int
	height int
}

func NewModel(svc *app.Service, startupStatus string) *Model {
	m := &Model{
		svc:        svc,
		inputs:     newFormInputs(),
		reschedule: newInput("YYYY-MM-DD or YYYY-MM-DDTHH:MM", 25),
	}
	m.resetForm()

	if status := strings.TrimSpace(startupStatus); status != "" {
		m.setStatus(status, true)
	} else if svc.Len() == 0 {
		m.setStatus("No tasks yet. Press n to create your first task.", false)
	}
	return m
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Prompt = "> "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	return ti
}

func newFormInputs() []textinput.Model {
	inputs := make([]textinput.Model, fieldCount)
	inputs[fieldTitle] = newInput("What needs doing?", validate.TitleMax+10)
	inputs[fieldNotes] = newInput("Optional, 10-500 characters", validate.NotesMax+10)
	inputs[fieldPriority] = newInput("low / medium / high / urgent (←/→)", 10)
	inputs[fieldDueDate] = newInput("YYYY-MM-DD", 25)
	inputs[fieldStatus] = newInput("New / In Progress / Completed / Cancelled (←/→)", 15)
	inputs[fieldBudget] = newInput("Optional, e.g. 1500", 15)
	return inputs
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeInputs()
	case clearStatusMsg:
		if msg.seq == m.statusSeq && !m.statusErr {
			m.status = ""
		}
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeReschedule:
			return m, m.updateRescheduleMode(msg)
		case modeConfirmDelete, modeConfirmClearAll:
			return m, m.updateConfirmMode(msg)
		}
		if m.focus == focusForm {
			return m, m.updateFormMode(msg)
		}
		quit, cmd := m.updateListMode(msg)
		if quit {
			return m, tea.Quit
		}
		return m, cmd
	default:
		// Cursor blink and similar messages belong to the active input.
		var cmd tea.Cmd
		if m.mode == modeReschedule {
			m.reschedule, cmd = m.reschedule.Update(msg)
		} else if m.focus == focusForm {
			m.inputs[m.fieldFocus], cmd = m.inputs[m.fieldFocus].Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateListMode(msg tea.KeyMsg) (bool, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.String() {
	case "q":
		return true, nil
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "tab":
		cmd = m.focusFormField(m.fieldFocus)
	case "n", "a":
		m.resetForm()
		cmd = m.focusFormField(fieldTitle)
	case "e", "enter":
		cmd = m.startEdit()
	case "x":
		cmd = m.completeSelected()
	case "u":
		cmd = m.undoSelected()
	case "r":
		cmd = m.startReschedule()
	case "d":
		m.startDeleteConfirm()
	case "D":
		m.startClearAllConfirm()
	case "f":
		m.filter = (m.filter + 1) % 3
		m.cursor = 0
		cmd = m.flash(fmt.Sprintf("Showing %s tasks", m.filter))
	case "?":
		m.showHelp = !m.showHelp
	case "esc":
		m.showHelp = false
	}
	m.ensureSelection()
	return false, cmd
}

func (m *Model) updateFormMode(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.blurForm()
		return nil
	case "tab", "down":
		return m.focusFormField((m.fieldFocus + 1) % fieldCount)
	case "shift+tab", "up":
		return m.focusFormField((m.fieldFocus + fieldCount - 1) % fieldCount)
	case "enter", "ctrl+s":
		return m.saveForm()
	case "ctrl+r":
		m.resetForm()
		m.setStatus("Form cleared", false)
		return m.focusFormField(fieldTitle)
	case "left", "right":
		if m.fieldFocus == fieldPriority || m.fieldFocus == fieldStatus {
			step := 1
			if msg.String() == "left" {
				step = -1
			}
			m.cycleChoice(step)
			return nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.fieldFocus], cmd = m.inputs[m.fieldFocus].Update(msg)
	if m.fieldFocus == fieldTitle {
		m.capitalizeTitle()
	}
	return cmd
}

func (m *Model) updateRescheduleMode(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.reschedule.Blur()
		m.setStatus("Cancelled", false)
		return nil
	case "enter":
		return m.applyReschedule()
	}
	var cmd tea.Cmd
	m.reschedule, cmd = m.reschedule.Update(msg)
	return cmd
}

func (m *Model) updateConfirmMode(msg tea.KeyMsg) tea.Cmd {
	switch strings.ToLower(msg.String()) {
	case "y":
		if m.mode == modeConfirmClearAll {
			return m.confirmClearAll()
		}
		return m.confirmDelete()
	case "n", "esc", "enter":
		m.mode = modeNormal
		m.confirmID = ""
		m.confirmName = ""
		m.setStatus("Cancelled", false)
	}
	return nil
}

func (m *Model) fields() model.Fields {
	return model.Fields{
		Title:    m.inputs[fieldTitle].Value(),
		Notes:    m.inputs[fieldNotes].Value(),
		Priority: m.inputs[fieldPriority].Value(),
		DueDate:  m.inputs[fieldDueDate].Value(),
		Status:   m.inputs[fieldStatus].Value(),
		Budget:   m.inputs[fieldBudget].Value(),
	}
}

func (m *Model) setFields(f model.Fields) {
	m.inputs[fieldTitle].SetValue(f.Title)
	m.inputs[fieldNotes].SetValue(f.Notes)
	m.inputs[fieldPriority].SetValue(f.Priority)
	m.inputs[fieldDueDate].SetValue(f.DueDate)
	m.inputs[fieldStatus].SetValue(f.Status)
	m.inputs[fieldBudget].SetValue(f.Budget)
}

func (m *Model) saveForm() tea.Cmd {
	editing := m.editingID
	task, err := m.svc.Save(editing, m.fields())

	var fieldErrs validate.Errors
	switch {
	case errors.As(err, &fieldErrs):
		m.formErrs = fieldErrs
		m.setStatus(fmt.Sprintf("Please fix %d field(s)", len(fieldErrs)), true)
		return nil
	case errors.Is(err, app.ErrTaskNotFound):
		m.resetForm()
		m.setStatus("The task being edited no longer exists", true)
		return nil
	case errors.Is(err, app.ErrPersist):
		m.resetForm()
		m.blurForm()
		m.selectTask(task.ID)
		m.setStatus("Saved, but writing to storage failed: "+err.Error(), true)
		return nil
	case err != nil:
		m.setStatus("Error saving task: "+err.Error(), true)
		return nil
	}

	m.resetForm()
	m.blurForm()
	m.selectTask(task.ID)
	if editing == "" {
		return m.flash("Task created successfully!")
	}
	return m.flash("Task updated successfully!")
}

func (m *Model) startEdit() tea.Cmd {
	task, ok := m.selectedTask()
	if !ok {
		m.setStatus("No task selected", true)
		return nil
	}
	m.resetForm()
	m.editingID = task.ID
	m.setFields(model.FieldsOf(task))
	cmd := m.focusFormField(fieldTitle)
	return tea.Batch(cmd, m.flash("Task loaded for editing"))
}

func (m *Model) completeSelected() tea.Cmd {
	task, ok := m.selectedTask()
	if !ok {
		m.setStatus("No task selected", true)
		return nil
	}
	updated, err := m.svc.CompleteQuick(task.ID)
	if errors.Is(err, app.ErrAlreadyComplete) {
		return m.flash("Task is already completed!")
	}
	if err != nil {
		m.setStatus("Error completing task: "+err.Error(), true)
		return nil
	}
	m.selectTask(updated.ID)
	return m.flash(fmt.Sprintf("%q marked as completed!", updated.Title))
}

func (m *Model) undoSelected() tea.Cmd {
	task, ok := m.selectedTask()
	if !ok {
		m.setStatus("No task selected", true)
		return nil
	}
	updated, err := m.svc.UndoComplete(task.ID)
	if errors.Is(err, app.ErrNotCompleted) {
		return m.flash("Task is not completed!")
	}
	if err != nil {
		m.setStatus("Error restoring task: "+err.Error(), true)
		return nil
	}
	m.selectTask(updated.ID)
	return m.flash(fmt.Sprintf("%q status restored!", updated.Title))
}

func (m *Model) startReschedule() tea.Cmd {
	task, ok := m.selectedTask()
	if !ok {
		m.setStatus("No task selected", true)
		return nil
	}
	m.mode = modeReschedule
	m.confirmID = task.ID
	m.confirmName = task.Title
	m.reschedule.SetValue(task.DueDate)
	m.reschedule.CursorEnd()
	return m.reschedule.Focus()
}

func (m *Model) applyReschedule() tea.Cmd {
	due := strings.TrimSpace(m.reschedule.Value())
	task, err := m.svc.Get(m.confirmID)
	if err != nil {
		m.mode = modeNormal
		m.setStatus("The task no longer exists", true)
		return nil
	}
	if due == "" || due == task.DueDate {
		m.mode = modeNormal
		m.reschedule.Blur()
		return nil
	}

	updated, err := m.svc.Reschedule(task.ID, due)
	if errors.Is(err, app.ErrInvalidDate) {
		m.setStatus(strings.TrimPrefix(err.Error(), app.ErrInvalidDate.Error()+": "), true)
		return nil
	}
	m.mode = modeNormal
	m.reschedule.Blur()
	if err != nil {
		m.setStatus("Error changing due date: "+err.Error(), true)
		return nil
	}
	m.selectTask(updated.ID)
	return m.flash(fmt.Sprintf("Due date updated for %q", updated.Title))
}

func (m *Model) startDeleteConfirm() {
	task, ok := m.selectedTask()
	if !ok {
		m.setStatus("No task selected", true)
		return
	}
	m.mode = modeConfirmDelete
	m.confirmID = task.ID
	m.confirmName = task.Title
}

func (m *Model) startClearAllConfirm() {
	if m.svc.Len() == 0 {
		m.setStatus("There are no tasks to clear", false)
		return
	}
	m.mode = modeConfirmClearAll
}

func (m *Model) confirmDelete() tea.Cmd {
	id := m.confirmID
	m.mode = modeNormal
	m.confirmID = ""
	m.confirmName = ""

	_, err := m.svc.Delete(id)
	if id == m.editingID {
		m.resetForm()
	}
	m.ensureSelection()
	if err != nil {
		m.setStatus("Error deleting task: "+err.Error(), true)
		return nil
	}
	return m.flash("Task deleted successfully!")
}

func (m *Model) confirmClearAll() tea.Cmd {
	m.mode = modeNormal
	err := m.svc.ClearAll()
	if m.editingID != "" {
		m.resetForm()
	}
	m.cursor = 0
	if err != nil {
		m.setStatus("Error clearing tasks: "+err.Error(), true)
		return nil
	}
	return m.flash("All tasks cleared successfully!")
}

func (m *Model) resetForm() {
	for i := range m.inputs {
		m.inputs[i].SetValue("")
	}
	m.inputs[fieldPriority].SetValue(string(model.PriorityMedium))
	m.inputs[fieldStatus].SetValue(string(model.StatusNew))
	m.formErrs = nil
	m.editingID = ""
	m.fieldFocus = fieldTitle
}

func (m *Model) focusFormField(i int) tea.Cmd {
	m.focus = focusForm
	for j := range m.inputs {
		m.inputs[j].Blur()
	}
	m.fieldFocus = i
	return m.inputs[i].Focus()
}

func (m *Model) blurForm() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.focus = focusList
}

func (m *Model) cycleChoice(step int) {
	var choices []string
	if m.fieldFocus == fieldPriority {
		for _, p := range model.Priorities {
			choices = append(choices, string(p))
		}
	} else {
		for _, s := range model.Statuses {
			choices = append(choices, string(s))
		}
	}
	current := strings.TrimSpace(m.inputs[m.fieldFocus].Value())
	idx := -1
	for i, c := range choices {
		if c == current {
			idx = i
			break
		}
	}
	next := 0
	if idx >= 0 {
		next = (idx + step + len(choices)) % len(choices)
	}
	m.inputs[m.fieldFocus].SetValue(choices[next])
}

func (m *Model) capitalizeTitle() {
	in := &m.inputs[fieldTitle]
	value := in.Value()
	capitalized := validate.Capitalize(value)
	if capitalized != value {
		pos := in.Position()
		in.SetValue(capitalized)
		in.SetCursor(pos)
	}
}

func (m *Model) resizeInputs() {
	_, left, _, _, _ := m.layout()
	w := left - 6
	if w < 10 {
		w = 10
	}
	for i := range m.inputs {
		m.inputs[i].Width = w
	}
	m.reschedule.Width = 30
}

// flash shows a success banner that disappears after bannerTimeout.
func (m *Model) flash(text string) tea.Cmd {
	m.setStatus(text, false)
	seq := m.statusSeq
	return tea.Tick(bannerTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

func (m *Model) setStatus(text string, isErr bool) {
	m.statusSeq++
	m.status = text
	m.statusErr = isErr
}

func (m *Model) moveCursor(delta int) {
	tasks := m.visibleTasks()
	if len(tasks) == 0 {
		return
	}
	m.cursor = clamp(m.cursor+delta, 0, len(tasks)-1)
}

func (m *Model) ensureSelection() {
	tasks := m.visibleTasks()
	if len(tasks) == 0 {
		m.cursor = 0
		return
	}
	m.cursor = clamp(m.cursor, 0, len(tasks)-1)
}

func (m *Model) visibleTasks() []model.Task {
	all := m.svc.List()
	if m.filter == filterAll {
		return all
	}
	out := make([]model.Task, 0, len(all))
	for _, t := range all {
		if t.Completed() == (m.filter == filterCompleted) {
			out = append(out, t)
		}
	}
	return out
}

func (m *Model) selectedTask() (model.Task, bool) {
	tasks := m.visibleTasks()
	if m.cursor < 0 || m.cursor >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[m.cursor], true
}

// selectTask moves the cursor to the task with id, which may have moved
// after a re-sort.
func (m *Model) selectTask(id string) {
	for i, t := range m.visibleTasks() {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
	m.ensureSelection()
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}
