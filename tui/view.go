package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"taskboard/model"
	"taskboard/validate"
)

var usd = message.NewPrinter(language.AmericanEnglish)

const (
	paneGap    = 1
	rightInset = 6
)

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	title := lipgloss.NewStyle().Bold(true).Render("Task Manager")
	summary := fmt.Sprintf("focus: %s • filter: %s • %d task(s)", m.focus.String(), m.filter, m.svc.Len())
	if m.editingID != "" {
		summary += " • editing"
	}
	header := lipgloss.JoinHorizontal(lipgloss.Left,
		title,
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("  "+summary),
	)

	viewW := m.viewportWidth()
	outerPaneW, leftW, rightW, panelH, innerPaneH := m.layout()

	split := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderFormPanel(leftW, innerPaneH),
		lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("│"),
		m.renderTasksPanel(rightW, innerPaneH),
	)

	frameColor := lipgloss.Color("240")
	if m.mode == modeNormal {
		frameColor = lipgloss.Color("39")
	}
	panes := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(frameColor).
		Width(outerPaneW).
		Height(panelH).
		Render(split)

	if outerPaneW < viewW {
		panes = lipgloss.JoinHorizontal(lipgloss.Top, panes, strings.Repeat(" ", viewW-outerPaneW))
	}

	statusText := m.status
	if statusText == "" {
		statusText = "Ready"
	}
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	if m.statusErr {
		statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	}

	rightHint := "? shortcuts • " + appVersion
	if m.showHelp {
		rightHint = "Esc/? close shortcuts"
	}
	footerLine := m.renderFooter(statusText, statusStyle, rightHint)

	promptLine := ""
	switch m.mode {
	case modeReschedule:
		promptLine = fmt.Sprintf("New due date for %q: %s  (Enter confirm, Esc cancel)", m.confirmName, m.reschedule.View())
	case modeConfirmDelete:
		promptLine = fmt.Sprintf("Delete task %q? [y/N]", m.confirmName)
	case modeConfirmClearAll:
		promptLine = fmt.Sprintf("Delete ALL %d tasks? This cannot be undone. [y/N]", m.svc.Len())
	}
	if promptLine != "" {
		promptLine = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Width(viewW).Render(promptLine)
	}

	if m.showHelp {
		popupW := viewW - 8
		if popupW > 96 {
			popupW = 96
		}
		if popupW < 56 {
			popupW = viewW - 2
		}
		if popupW < 40 {
			popupW = 40
		}
		panes = lipgloss.Place(viewW, panelH, lipgloss.Center, lipgloss.Center, m.renderHelpOverlay(popupW))
	}

	parts := []string{header, panes, footerLine}
	if promptLine != "" && !m.showHelp {
		parts = append(parts, promptLine)
	} else {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(m.contextualHelp()))
	}
	return strings.Join(parts, "\n")
}

// layout returns the outer pane width, the inner form and task pane widths
// and the outer and inner pane heights for the current window size.
func (m *Model) layout() (outerW, leftW, rightW, panelH, innerH int) {
	viewW := m.viewportWidth()
	outerW = viewW - rightInset
	if outerW < 40 {
		outerW = viewW
	}
	innerW := outerW - 2
	if innerW < 20 {
		innerW = outerW
	}

	panelH = m.height - 6
	if panelH < 8 {
		panelH = 8
	}
	innerH = panelH - 2
	if innerH < 6 {
		innerH = 6
	}

	leftW, rightW = m.paneWidths(innerW, paneGap)
	return outerW, leftW, rightW, panelH, innerH
}

func (m *Model) viewportWidth() int {
	if m.width <= 0 {
		return 1
	}
	// One spare column keeps some terminals from wrapping the right border.
	if m.width > 1 {
		return m.width - 1
	}
	return m.width
}

// paneWidths splits total between the form (left) and the task list (right).
func (m *Model) paneWidths(total, gap int) (int, int) {
	if total <= 0 {
		return 30, 30
	}
	if gap < 0 {
		gap = 0
	}

	minLeft := 30
	minRight := 30
	if total < minLeft+minRight+gap {
		left := total / 2
		if left < 12 {
			left = 12
		}
		right := total - left - gap
		if right < 12 {
			right = 12
			left = total - right - gap
			if left < 10 {
				left = 10
			}
		}
		return left, right
	}

	left := total * 2 / 5
	if left < 36 {
		left = 36
	}
	if left > 56 {
		left = 56
	}

	right := total - left - gap
	if right < minRight {
		right = minRight
		left = total - right - gap
	}
	if left < minLeft {
		left = minLeft
		right = total - left - gap
	}

	return left, right
}

func (m *Model) renderFooter(statusText string, statusStyle lipgloss.Style, rightHint string) string {
	left := strings.TrimSpace(statusText)
	right := strings.TrimSpace(rightHint)
	if left == "" {
		left = "Ready"
	}
	if right == "" {
		right = appVersion
	}

	leftW := utf8.RuneCountInString(left)
	rightW := utf8.RuneCountInString(right)
	width := m.viewportWidth()
	if width <= 0 {
		width = leftW + rightW + 2
	}

	if leftW+rightW+1 > width {
		maxLeft := width - rightW - 1
		if maxLeft < 8 {
			maxLeft = 8
		}
		left = truncateRunes(left, maxLeft)
		leftW = utf8.RuneCountInString(left)
	}

	padding := width - leftW - rightW
	if padding < 1 {
		padding = 1
	}

	rightStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	line := statusStyle.Render(left) + strings.Repeat(" ", padding) + rightStyle.Render(right)
	return lipgloss.NewStyle().Width(width).Render(line)
}

func (m *Model) renderHelpOverlay(width int) string {
	title := lipgloss.NewStyle().Bold(true).Render("Shortcuts")
	section := lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Bold(true)
	line := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	rows := []string{
		title,
		"",
		section.Render("Global"),
		line.Render("  Tab switch focus • j/k move • q quit • ? shortcuts"),
		"",
		section.Render("Tasks"),
		line.Render("  n new • e/Enter edit • x complete • u undo complete"),
		line.Render("  r change due date • d delete • D clear all • f filter"),
		"",
		section.Render("Form"),
		line.Render("  Tab/Shift+Tab next/previous field • ←/→ cycle priority and status"),
		line.Render("  Enter or Ctrl+S save • Ctrl+R clear form • Esc back to tasks"),
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("244")).
		Padding(1, 2)

	return style.Width(width).Render(strings.Join(rows, "\n"))
}

func (m *Model) contextualHelp() string {
	switch m.mode {
	case modeReschedule:
		return "Type a date • Enter confirm • Esc cancel"
	case modeConfirmDelete, modeConfirmClearAll:
		return "Confirm • y confirm • n/Esc cancel"
	}
	if m.focus == focusForm {
		return "Form • Tab next field • ←/→ choose • Enter save • Ctrl+R clear • Esc tasks"
	}
	return "Tasks • n new • e edit • x complete • u undo • r due date • d delete • D clear all • f filter • q quit"
}

func (m *Model) renderFormPanel(width, height int) string {
	heading := "Add New Task"
	if m.editingID != "" {
		heading = "Edit Task"
	}
	lines := []string{panelTitleStyled(heading, m.focus == focusForm), ""}

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeLabel := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	for i := 0; i < fieldCount; i++ {
		label := labelStyle
		if m.focus == focusForm && m.fieldFocus == i {
			label = activeLabel
		}
		lines = append(lines, label.Render(fieldLabels[i]))
		lines = append(lines, m.inputs[i].View())
		if msg := m.formErrs.Message(fieldNames[i]); msg != "" {
			lines = append(lines, errStyle.Render("  "+truncateRunes(msg, width-2)))
		}
	}

	hint := "Enter: create task"
	if m.editingID != "" {
		hint = "Enter: update task • Ctrl+R: cancel edit"
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(hint))

	return lipgloss.NewStyle().Width(width).Height(height).Padding(0, 1).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderTasksPanel(width, height int) string {
	tasks := m.visibleTasks()
	lines := []string{panelTitleStyled(fmt.Sprintf("Tasks (%d)", len(tasks)), m.focus == focusList), ""}

	if len(tasks) == 0 {
		empty := "No tasks yet. Add your first task to get started!"
		if m.filter != filterAll && m.svc.Len() > 0 {
			empty = fmt.Sprintf("No %s tasks.", m.filter)
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true).Render(empty))
		return lipgloss.NewStyle().Width(width).Height(height).Padding(0, 1).Render(strings.Join(lines, "\n"))
	}

	const rowsPerTask = 3
	capacity := (height - 2) / rowsPerTask
	if capacity < 1 {
		capacity = 1
	}
	start := 0
	if m.cursor >= capacity {
		start = m.cursor - capacity + 1
	}
	end := start + capacity
	if end > len(tasks) {
		end = len(tasks)
	}

	textW := width - 4
	for i := start; i < end; i++ {
		lines = append(lines, m.renderTaskRow(tasks[i], i == m.cursor, textW)...)
	}
	return lipgloss.NewStyle().Width(width).Height(height).Padding(0, 1).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderTaskRow(t model.Task, selected bool, width int) []string {
	cursor := "  "
	if selected {
		cursor = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true).Render("› ")
	}

	titleStyle := lipgloss.NewStyle()
	if selected {
		titleStyle = titleStyle.Bold(true)
	}
	if t.Completed() {
		titleStyle = titleStyle.Strikethrough(true).Foreground(lipgloss.Color("245"))
	}
	badge := statusBadge(t.Status)
	titleW := width - utf8.RuneCountInString(string(t.Status)) - 5
	first := cursor + priorityIndicator(t) + " " + titleStyle.Render(truncateRunes(t.Title, titleW)) + "  " + badge

	meta := []string{priorityLabel(t.Priority), "Due " + formatDueDate(t.DueDate)}
	if t.Budget > 0 {
		meta = append(meta, formatUSD(t.Budget))
	}
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	second := "    " + dim.Render(truncateRunes(strings.Join(meta, " • "), width-2))

	third := ""
	if t.Notes != "" {
		third = "    " + dim.Italic(true).Render(truncateRunes(t.Notes, width-2))
	}
	return []string{first, second, third}
}

func panelTitleStyled(title string, active bool) string {
	base := lipgloss.NewStyle().Bold(true)
	if !active {
		return base.Render(title)
	}
	text := base.Foreground(lipgloss.Color("229")).Render(title)
	marker := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")).Render("*")
	return lipgloss.JoinHorizontal(lipgloss.Left, text, " ", marker)
}

func priorityIndicator(t model.Task) string {
	color := t.Color
	if color == "" {
		color = t.Priority.Color()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("●")
}

func priorityLabel(p model.Priority) string {
	if !p.Valid() {
		return "No Priority"
	}
	s := string(p)
	return strings.ToUpper(s[:1]) + s[1:] + " Priority"
}

func statusBadge(s model.Status) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	switch s {
	case model.StatusNew:
		style = style.Foreground(lipgloss.Color("39"))
	case model.StatusInProgress:
		style = style.Foreground(lipgloss.Color("220"))
	case model.StatusCompleted:
		style = style.Foreground(lipgloss.Color("70"))
	case model.StatusCancelled:
		style = style.Foreground(lipgloss.Color("245"))
	}
	return style.Render("[" + string(s) + "]")
}

func formatDueDate(due string) string {
	t, err := validate.ParseDate(due, time.Local)
	if err != nil {
		return due
	}
	if strings.Contains(due, "T") {
		return t.Format("Jan 2, 2006 15:04")
	}
	return t.Format("Jan 2, 2006")
}

func formatUSD(amount float64) string {
	return usd.Sprintf("$%.2f", amount)
}
