package app

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"taskboard/model"
	"taskboard/store"
)

//go:embed snapshot.schema.json
var snapshotSchemaJSON string

var snapshotSchema = jsonschema.MustCompileString("snapshot.schema.json", snapshotSchemaJSON)

// Persist writes the whole collection to the slot as a JSON array.
func (s *Service) Persist() error {
	return s.persist()
}

func (s *Service) persist() error {
	data, err := json.Marshal(s.tasks)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := s.slot.Set(s.key, data); err != nil {
		s.logger.Error("persist failed", "key", s.key, "err", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// Restore replaces the collection with the one saved in the slot. A missing
// slot yields an empty collection. Unreadable or malformed data also yields an
// empty collection; in that case the returned notice explains what happened
// and the bad value is quarantined when the slot supports it. Restore never
// fails.
func (s *Service) Restore() string {
	s.tasks = []model.Task{}

	data, ok, err := s.slot.Get(s.key)
	if err != nil {
		s.logger.Warn("reading saved tasks failed; starting empty", "key", s.key, "err", err)
		return "Saved tasks could not be read; starting with an empty list"
	}
	if !ok {
		s.logger.Debug("no saved tasks", "key", s.key)
		return ""
	}

	tasks, err := decodeSnapshot(data)
	if err != nil {
		s.logger.Warn("saved tasks are malformed; starting empty", "key", s.key, "err", err)
		msg := "Saved tasks were corrupt; starting with an empty list"
		if q, ok := s.slot.(store.Quarantiner); ok {
			moved, qerr := q.Quarantine(s.key)
			switch {
			case qerr != nil:
				s.logger.Error("quarantine failed", "key", s.key, "err", qerr)
			case moved != "":
				s.logger.Info("corrupt tasks moved aside", "path", moved)
				msg += fmt.Sprintf(" (bad data moved to %s)", moved)
			}
		}
		return msg
	}

	s.tasks = tasks
	s.logger.Info("tasks restored", "count", len(tasks))
	return ""
}

func decodeSnapshot(data []byte) ([]model.Task, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if err := snapshotSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("validate snapshot: %w", err)
	}

	var tasks []model.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	seen := make(map[string]struct{}, len(tasks))
	for i := range tasks {
		if _, dup := seen[tasks[i].ID]; dup {
			return nil, fmt.Errorf("decode snapshot: duplicate id %q", tasks[i].ID)
		}
		seen[tasks[i].ID] = struct{}{}
		tasks[i].Color = tasks[i].Priority.Color()
		if tasks[i].Status != model.StatusCompleted {
			tasks[i].PreviousStatus = ""
		}
	}
	return tasks, nil
}
