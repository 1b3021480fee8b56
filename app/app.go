package app

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"taskboard/model"
	"taskboard/store"
	"taskboard/validate"
)

// DefaultKey is the slot key the task collection is stored under.
const DefaultKey = "taskManagerTasks"

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrAlreadyComplete = errors.New("task is already completed")
	ErrNotCompleted    = errors.New("task is not completed")
	ErrInvalidDate     = errors.New("invalid due date")
	ErrPersist         = errors.New("saving tasks failed")
)

// Service owns the task collection and keeps its slot in sync.
//
// Tasks are held in insertion order; display order is computed by List.
// Every mutation writes the whole collection back to the slot.
type Service struct {
	tasks  []model.Task
	slot   store.Slot
	key    string
	now    func() time.Time
	logger *log.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger mutations and recoveries are reported to.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *Service) { s.key = key }
}

// NewService creates an empty service backed by slot. Call Restore to load
// previously saved tasks.
func NewService(slot store.Slot, opts ...Option) *Service {
	s := &Service{
		tasks: []model.Task{},
		slot:  slot,
		key:   DefaultKey,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	return s
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// Len returns the number of tasks.
func (s *Service) Len() int {
	return len(s.tasks)
}

// List returns a copy of the tasks in display order: open tasks before
// completed ones, then by priority rank, then by insertion order.
func (s *Service) List() []model.Task {
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	sortTasks(out)
	return out
}

// Get returns a task by id.
func (s *Service) Get(id string) (model.Task, error) {
	i := s.indexOf(id)
	if i == -1 {
		return model.Task{}, ErrTaskNotFound
	}
	return s.tasks[i], nil
}

// Save is the validated form submission. With an empty editingID it creates a
// task, otherwise it updates the task being edited. Invalid fields are
// reported together as validate.Errors and nothing is changed.
func (s *Service) Save(editingID string, fields model.Fields) (model.Task, error) {
	in, err := validate.Parse(fields, s.now())
	if err != nil {
		s.logger.Debug("form rejected", "editing", editingID, "err", err)
		return model.Task{}, err
	}
	if editingID == "" {
		return s.Create(in)
	}
	return s.Update(editingID, in)
}

// Create appends a new task built from already validated input.
func (s *Service) Create(in model.TaskInput) (model.Task, error) {
	task := model.Task{
		ID:        newID(),
		Title:     in.Title,
		Notes:     in.Notes,
		Priority:  in.Priority,
		Color:     in.Priority.Color(),
		DueDate:   in.DueDate,
		Status:    in.Status,
		Budget:    in.Budget,
		CreatedAt: s.now().UTC(),
	}
	s.tasks = append(s.tasks, task)
	return task, s.commit("task created", task)
}

// Update replaces the editable fields of a task, keeping its id and creation
// time. Moving a quick-completed task to another status drops its saved
// previous status.
func (s *Service) Update(id string, in model.TaskInput) (model.Task, error) {
	i := s.indexOf(id)
	if i == -1 {
		return model.Task{}, ErrTaskNotFound
	}
	t := &s.tasks[i]
	t.Title = in.Title
	t.Notes = in.Notes
	t.Priority = in.Priority
	t.Color = in.Priority.Color()
	t.DueDate = in.DueDate
	t.Status = in.Status
	t.Budget = in.Budget
	if t.Status != model.StatusCompleted {
		t.PreviousStatus = ""
	}
	return *t, s.commit("task updated", *t)
}

// Delete removes a task and returns it.
func (s *Service) Delete(id string) (model.Task, error) {
	i := s.indexOf(id)
	if i == -1 {
		return model.Task{}, ErrTaskNotFound
	}
	task := s.tasks[i]
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return task, s.commit("task deleted", task)
}

// ClearAll removes every task.
func (s *Service) ClearAll() error {
	n := len(s.tasks)
	s.tasks = []model.Task{}
	if err := s.persist(); err != nil {
		return err
	}
	s.logger.Info("tasks cleared", "count", n)
	return nil
}

// CompleteQuick marks a task Completed and remembers its status for
// UndoComplete. An already completed task is returned unchanged together
// with ErrAlreadyComplete.
func (s *Service) CompleteQuick(id string) (model.Task, error) {
	i := s.indexOf(id)
	if i == -1 {
		return model.Task{}, ErrTaskNotFound
	}
	t := &s.tasks[i]
	if t.Status == model.StatusCompleted {
		return *t, ErrAlreadyComplete
	}
	t.PreviousStatus = t.Status
	t.Status = model.StatusCompleted
	return *t, s.commit("task completed", *t)
}

// UndoComplete restores the status saved by CompleteQuick, or In Progress
// when none was saved. A task that is not completed is returned unchanged
// together with ErrNotCompleted.
func (s *Service) UndoComplete(id string) (model.Task, error) {
	i := s.indexOf(id)
	if i == -1 {
		return model.Task{}, ErrTaskNotFound
	}
	t := &s.tasks[i]
	if t.Status != model.StatusCompleted {
		return *t, ErrNotCompleted
	}
	t.Status = t.PreviousStatus
	if t.Status == "" {
		t.Status = model.StatusInProgress
	}
	t.PreviousStatus = ""
	return *t, s.commit("task completion undone", *t)
}

// Reschedule changes a task's due date, ignoring surrounding whitespace.
// Dates before today fail with ErrInvalidDate and leave the task untouched.
func (s *Service) Reschedule(id, due string) (model.Task, error) {
	i := s.indexOf(id)
	if i == -1 {
		return model.Task{}, ErrTaskNotFound
	}
	due = strings.TrimSpace(due)
	if err := validate.DueDate(due, s.now()); err != nil {
		var fe validate.FieldError
		if errors.As(err, &fe) {
			return s.tasks[i], fmt.Errorf("%w: %s", ErrInvalidDate, fe.Message)
		}
		return s.tasks[i], fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	t := &s.tasks[i]
	if t.DueDate == due {
		return *t, nil
	}
	t.DueDate = due
	return *t, s.commit("task rescheduled", *t)
}

func (s *Service) commit(msg string, t model.Task) error {
	if err := s.persist(); err != nil {
		return err
	}
	s.logger.Info(msg, "id", t.ID, "title", t.Title, "status", t.Status, "priority", t.Priority)
	return nil
}

func (s *Service) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func sortTasks(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Completed() != b.Completed() {
			return !a.Completed()
		}
		return a.Priority.Rank() < b.Priority.Rank()
	})
}

func newID() string {
	return uuid.NewString()
}
