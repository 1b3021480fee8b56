package model

import (
	"strconv"
	"time"
)

// Priority is the task urgency as entered in the form.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists the accepted priorities from least to most urgent.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Status is the lifecycle state of a task.
type Status string

const (
	StatusNew        Status = "New"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
)

// Statuses lists the accepted statuses in form order.
var Statuses = []Status{StatusNew, StatusInProgress, StatusCompleted, StatusCancelled}

// DefaultColor is used for tasks whose priority is not recognized.
const DefaultColor = "#6c757d"

// UnrankedPriority sorts after every known priority.
const UnrankedPriority = 4

var priorityColors = map[Priority]string{
	PriorityLow:    "#28a745",
	PriorityMedium: "#ffc107",
	PriorityHigh:   "#fd7e14",
	PriorityUrgent: "#dc3545",
}

var priorityRanks = map[Priority]int{
	PriorityUrgent: 0,
	PriorityHigh:   1,
	PriorityMedium: 2,
	PriorityLow:    3,
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	_, ok := priorityRanks[p]
	return ok
}

// Color returns the display color for p.
func (p Priority) Color() string {
	if c, ok := priorityColors[p]; ok {
		return c
	}
	return DefaultColor
}

// Rank orders priorities for display: urgent=0 ... low=3, unknown=4.
func (p Priority) Rank() int {
	if r, ok := priorityRanks[p]; ok {
		return r
	}
	return UnrankedPriority
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Task is a single unit of work.
type Task struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Notes          string    `json:"notes"`
	Priority       Priority  `json:"priority"`
	Color          string    `json:"color"`
	DueDate        string    `json:"dueDate"`
	Status         Status    `json:"status"`
	Budget         float64   `json:"budget"`
	CreatedAt      time.Time `json:"createdAt"`
	PreviousStatus Status    `json:"previousStatus,omitempty"`
}

// Completed reports whether the task is in the Completed status.
func (t Task) Completed() bool {
	return t.Status == StatusCompleted
}

// Fields is the raw form input, one string per field, exactly as typed.
type Fields struct {
	Title    string
	Notes    string
	Priority string
	DueDate  string
	Status   string
	Budget   string
}

// TaskInput is validated, normalized input for creating or updating a task.
type TaskInput struct {
	Title    string
	Notes    string
	Priority Priority
	DueDate  string
	Status   Status
	Budget   float64
}

// FieldsOf returns the form representation of t, used to pre-fill an edit.
// A zero budget is shown as an empty field.
func FieldsOf(t Task) Fields {
	f := Fields{
		Title:    t.Title,
		Notes:    t.Notes,
		Priority: string(t.Priority),
		DueDate:  t.DueDate,
		Status:   string(t.Status),
	}
	if t.Budget > 0 {
		f.Budget = FormatBudget(t.Budget)
	}
	return f
}

// FormatBudget renders a budget without trailing zeros ("1500", "99.5").
func FormatBudget(b float64) string {
	return strconv.FormatFloat(b, 'f', -1, 64)
}
