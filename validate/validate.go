// Package validate checks raw task form fields.
//
// Every validator is pure: it sees only its own field (and, for dates, the
// current time) and returns nil or a FieldError carrying a message suitable
// for showing next to the field.
package validate

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"taskboard/model"
)

const (
	TitleMin  = 3
	TitleMax  = 50
	NotesMin  = 10
	NotesMax  = 500
	BudgetMax = 1_000_000
)

// Field names as reported in FieldError.
const (
	FieldTitle    = "title"
	FieldNotes    = "notes"
	FieldDueDate  = "dueDate"
	FieldPriority = "priority"
	FieldStatus   = "status"
	FieldBudget   = "budget"
)

// FieldError is a validation failure for one form field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors collects every field failure of one form.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// Message returns the message for field, or "" if the field passed.
func (e Errors) Message(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Title requires 3..50 characters after trimming.
func Title(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	switch {
	case n == 0:
		return fail(FieldTitle, "Title is required")
	case n < TitleMin:
		return fail(FieldTitle, fmt.Sprintf("Title must be at least %d characters", TitleMin))
	case n > TitleMax:
		return fail(FieldTitle, fmt.Sprintf("Title must be at most %d characters", TitleMax))
	}
	return nil
}

// Notes are optional; when present they need 10..500 characters.
func Notes(notes string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(notes))
	switch {
	case n == 0:
		return nil
	case n < NotesMin:
		return fail(FieldNotes, fmt.Sprintf("Notes must be at least %d characters", NotesMin))
	case n > NotesMax:
		return fail(FieldNotes, fmt.Sprintf("Notes must be at most %d characters", NotesMax))
	}
	return nil
}

// DueDate requires a parseable date that is not before the start of today.
func DueDate(due string, now time.Time) error {
	due = strings.TrimSpace(due)
	if due == "" {
		return fail(FieldDueDate, "Due date is required")
	}
	at, err := ParseDate(due, now.Location())
	if err != nil {
		return fail(FieldDueDate, "Due date must be a valid date")
	}
	if at.Before(StartOfDay(now)) {
		return fail(FieldDueDate, "Due date cannot be in the past")
	}
	return nil
}

// Priority must be one of low, medium, high or urgent.
func Priority(priority string) error {
	if !model.Priority(strings.TrimSpace(priority)).Valid() {
		return fail(FieldPriority, "Please select a valid priority")
	}
	return nil
}

// Status must be one of New, In Progress, Completed or Cancelled.
func Status(status string) error {
	if !model.Status(strings.TrimSpace(status)).Valid() {
		return fail(FieldStatus, "Please select a valid status")
	}
	return nil
}

// Budget is optional; when present it must be a number in (0, 1,000,000].
func Budget(budget string) error {
	budget = strings.TrimSpace(budget)
	if budget == "" {
		return nil
	}
	v, err := strconv.ParseFloat(budget, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fail(FieldBudget, "Budget must be a valid number")
	}
	if v <= 0 {
		return fail(FieldBudget, "Budget must be greater than 0")
	}
	if v > BudgetMax {
		return fail(FieldBudget, "Budget must not exceed $1,000,000")
	}
	return nil
}

// All runs every validator, without stopping at the first failure, and
// returns the collected errors or nil when the form is valid.
func All(f model.Fields, now time.Time) Errors {
	var errs Errors
	for _, err := range []error{
		Title(f.Title),
		Notes(f.Notes),
		Priority(f.Priority),
		DueDate(f.DueDate, now),
		Status(f.Status),
		Budget(f.Budget),
	} {
		var fe FieldError
		if errors.As(err, &fe) {
			errs = append(errs, fe)
		}
	}
	return errs
}

// Valid reports whether every field of f passes.
func Valid(f model.Fields, now time.Time) bool {
	return len(All(f, now)) == 0
}

// Parse validates f and converts it into normalized task input: trimmed
// strings, a capitalized title and a numeric budget (0 when empty).
func Parse(f model.Fields, now time.Time) (model.TaskInput, error) {
	if errs := All(f, now); len(errs) > 0 {
		return model.TaskInput{}, errs
	}

	var budget float64
	if b := strings.TrimSpace(f.Budget); b != "" {
		budget, _ = strconv.ParseFloat(b, 64)
	}

	return model.TaskInput{
		Title:    Capitalize(strings.TrimSpace(f.Title)),
		Notes:    strings.TrimSpace(f.Notes),
		Priority: model.Priority(strings.TrimSpace(f.Priority)),
		DueDate:  strings.TrimSpace(f.DueDate),
		Status:   model.Status(strings.TrimSpace(f.Status)),
		Budget:   budget,
	}, nil
}

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func fail(field, msg string) error {
	return FieldError{Field: field, Message: msg}
}
