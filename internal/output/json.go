package output

import (
	"encoding/json"

	"trigmap/internal/diff"
	"trigmap/internal/migration"
)

type jsonFormatter struct{}

type diffSummary struct {
	MissingInDB      int  `json:"missingInDb"`
	MissingInMapping int  `json:"missingInMapping"`
	Mismatches       int  `json:"mismatches"`
	InSync           bool `json:"inSync"`
}

type diffPayload struct {
	Format           string                                 `json:"format"`
	Summary          diffSummary                            `json:"summary"`
	MissingInDB      []string                               `json:"missingInDb"`
	MissingInMapping []string                               `json:"missingInMapping"`
	Mismatches       map[string]map[string]diff.FieldChange `json:"mismatches"`
}

type migrationSummary struct {
	Triggers           int `json:"triggers"`
	Warnings           int `json:"warnings"`
	Notes              int `json:"notes"`
	SQLStatements      int `json:"sqlStatements"`
	RollbackStatements int `json:"rollbackStatements"`
}

type migrationPayload struct {
	Format   string           `json:"format"`
	Summary  migrationSummary `json:"summary"`
	Triggers []string         `json:"triggers,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
	Notes    []string         `json:"notes,omitempty"`
	SQL      []string         `json:"sql,omitempty"`
	Rollback []string         `json:"rollback,omitempty"`
}

type Payload interface {
	diffPayload | migrationPayload
}

func (jsonFormatter) FormatDiff(d *diff.TriggerDiff) (string, error) {
	payload := diffPayload{
		Format:           string(FormatJSON),
		MissingInDB:      []string{},
		MissingInMapping: []string{},
		Mismatches:       map[string]map[string]diff.FieldChange{},
	}
	if d != nil {
		payload.MissingInDB = append(payload.MissingInDB, d.MissingInDB...)
		payload.MissingInMapping = append(payload.MissingInMapping, d.MissingInMapping...)
		for name, fields := range d.Mismatches {
			payload.Mismatches[name] = fields
		}
	}
	payload.Summary = diffSummary{
		MissingInDB:      len(payload.MissingInDB),
		MissingInMapping: len(payload.MissingInMapping),
		Mismatches:       len(payload.Mismatches),
		InSync:           d == nil || d.IsEmpty(),
	}
	return marshalJSON(payload)
}

func (jsonFormatter) FormatMigration(m *migration.Migration) (string, error) {
	payload := migrationPayload{Format: string(FormatJSON)}
	if m != nil {
		payload.Triggers = m.Triggers()
		payload.Warnings = m.Warnings()
		payload.Notes = m.Notes()
		payload.SQL = normalizeStatements(m.SQLStatements())
		payload.Rollback = normalizeStatements(m.RollbackStatements())
		payload.Summary = migrationSummary{
			Triggers:           len(payload.Triggers),
			Warnings:           len(payload.Warnings),
			Notes:              len(payload.Notes),
			SQLStatements:      len(payload.SQL),
			RollbackStatements: len(payload.Rollback),
		}
	}
	return marshalJSON(payload)
}

func marshalJSON[T Payload](payload T) (string, error) {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
