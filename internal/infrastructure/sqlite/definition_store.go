package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/svcreg/internal/replication"
	"github.com/zjrosen/svcreg/internal/service"
)

// definitionColumns is the list of columns to select for definition queries.
const definitionColumns = `id, name, pattern, description, evaluation_order`

// DefinitionStore implements replication.Store using SQLite.
type DefinitionStore struct {
	db *sql.DB
}

func newDefinitionStore(db *sql.DB) *DefinitionStore {
	return &DefinitionStore{db: db}
}

// Ensure DefinitionStore implements replication.Store.
var _ replication.Store = (*DefinitionStore)(nil)

// scanDefinition scans a row into a RegexDefinition.
func scanDefinition(scanner interface{ Scan(...any) error }) (*service.RegexDefinition, error) {
	var def service.RegexDefinition
	err := scanner.Scan(
		&def.DefinitionID, &def.ServiceName, &def.Pattern,
		&def.Description, &def.EvaluationOrder,
	)
	return &def, err
}

// Put upserts a definition keyed by id.
func (s *DefinitionStore) Put(def service.Definition) error {
	concrete, ok := def.(*service.RegexDefinition)
	if !ok {
		return fmt.Errorf("replica store only persists regex definitions, got %T", def)
	}

	_, err := s.db.Exec(
		`INSERT INTO definitions (id, name, pattern, description, evaluation_order, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			pattern = excluded.pattern,
			description = excluded.description,
			evaluation_order = excluded.evaluation_order,
			updated_at = excluded.updated_at`,
		concrete.DefinitionID, concrete.ServiceName, concrete.Pattern,
		concrete.Description, concrete.EvaluationOrder, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert definition: %w", err)
	}
	return nil
}

// Get retrieves a definition by id.
func (s *DefinitionStore) Get(id int64) (service.Definition, bool, error) {
	row := s.db.QueryRow(
		`SELECT `+definitionColumns+` FROM definitions WHERE id = ?`, id,
	)
	def, err := scanDefinition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to find definition by id: %w", err)
	}
	return def, true, nil
}

// GetByName retrieves a definition by exact name. When several rows
// share a name, the lowest id wins.
func (s *DefinitionStore) GetByName(name string) (service.Definition, bool, error) {
	row := s.db.QueryRow(
		`SELECT `+definitionColumns+` FROM definitions WHERE name = ? ORDER BY id LIMIT 1`, name,
	)
	def, err := scanDefinition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to find definition by name: %w", err)
	}
	return def, true, nil
}

// All returns every replicated definition ordered by id.
func (s *DefinitionStore) All() ([]service.Definition, error) {
	rows, err := s.db.Query(
		`SELECT ` + definitionColumns + ` FROM definitions ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var defs []service.Definition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan definition row: %w", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating definition rows: %w", err)
	}
	return defs, nil
}

// Remove deletes a definition by id. Removing an absent id is not an error.
func (s *DefinitionStore) Remove(id int64) error {
	_, err := s.db.Exec(`DELETE FROM definitions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove definition: %w", err)
	}
	return nil
}
