// Package export writes task lists in machine-readable formats.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	yaml "gopkg.in/yaml.v3"

	"taskboard/model"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// record is the export shape of a task. Every format uses the same field
// names as the persisted snapshot.
type record struct {
	ID             string  `json:"id" yaml:"id" toml:"id"`
	Title          string  `json:"title" yaml:"title" toml:"title"`
	Notes          string  `json:"notes,omitempty" yaml:"notes,omitempty" toml:"notes,omitempty"`
	Priority       string  `json:"priority" yaml:"priority" toml:"priority"`
	Color          string  `json:"color" yaml:"color" toml:"color"`
	DueDate        string  `json:"dueDate" yaml:"dueDate" toml:"dueDate"`
	Status         string  `json:"status" yaml:"status" toml:"status"`
	Budget         float64 `json:"budget" yaml:"budget" toml:"budget"`
	CreatedAt      string  `json:"createdAt" yaml:"createdAt" toml:"createdAt"`
	PreviousStatus string  `json:"previousStatus,omitempty" yaml:"previousStatus,omitempty" toml:"previousStatus,omitempty"`
}

// TOML has no top-level arrays, so tasks go under a [[tasks]] table.
type tomlDoc struct {
	Tasks []record `toml:"tasks"`
}

// Write encodes tasks to w in the named format, keeping their order.
func Write(w io.Writer, format string, tasks []model.Task) error {
	records := make([]record, len(tasks))
	for i, t := range tasks {
		records[i] = record{
			ID:             t.ID,
			Title:          t.Title,
			Notes:          t.Notes,
			Priority:       string(t.Priority),
			Color:          t.Color,
			DueDate:        t.DueDate,
			Status:         string(t.Status),
			Budget:         t.Budget,
			CreatedAt:      t.CreatedAt.UTC().Format(time.RFC3339),
			PreviousStatus: string(t.PreviousStatus),
		}
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(tomlDoc{Tasks: records})
	default:
		return fmt.Errorf("unsupported export format %q (want json, yaml or toml)", format)
	}
}
