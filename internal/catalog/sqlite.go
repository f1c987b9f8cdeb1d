package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/moyam/chatbot/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteCatalog implements Catalog backed by a SQLite database. Choices
// and variable writes are stored as JSON columns on each step row.
type SQLiteCatalog struct {
	db *sql.DB
}

// NewSQLite opens (and if necessary creates) a SQLite-backed catalog.
func NewSQLite(dbPath string) (*SQLiteCatalog, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for concurrent readers across connection goroutines.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	c := &SQLiteCatalog{db: db}
	if err := c.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return c, nil
}

func (c *SQLiteCatalog) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS scenarios (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		start_step_id INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scenario_steps (
		scenario_id INTEGER NOT NULL,
		id INTEGER NOT NULL,
		content TEXT NOT NULL,
		choices_json TEXT,
		writes_json TEXT,
		default_next_step_id INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (scenario_id, id)
	);
	`
	if _, err := c.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (c *SQLiteCatalog) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database connection.
func (c *SQLiteCatalog) Close() error {
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// Step retrieves one step of a scenario.
func (c *SQLiteCatalog) Step(ctx context.Context, scenarioID, stepID int64) (domain.Step, error) {
	query := `
		SELECT scenario_id, id, content, choices_json, writes_json, default_next_step_id
		FROM scenario_steps WHERE scenario_id = ? AND id = ?`

	return c.scanStep(c.db.QueryRowContext(ctx, query, scenarioID, stepID), scenarioID, stepID)
}

// StartStep retrieves the declared start step of a scenario.
func (c *SQLiteCatalog) StartStep(ctx context.Context, scenarioID int64) (domain.Step, error) {
	query := `
		SELECT st.scenario_id, st.id, st.content, st.choices_json, st.writes_json, st.default_next_step_id
		FROM scenarios s
		JOIN scenario_steps st ON st.scenario_id = s.id AND st.id = s.start_step_id
		WHERE s.id = ?`

	step, err := c.scanStep(c.db.QueryRowContext(ctx, query, scenarioID), scenarioID, 0)
	if errors.Is(err, domain.ErrStepNotFound) {
		// Unknown scenario and scenario-without-steps both surface as
		// scenario-not-found to the engine.
		return domain.Step{}, fmt.Errorf("scenario %d: %w", scenarioID, domain.ErrScenarioNotFound)
	}
	return step, err
}

func (c *SQLiteCatalog) scanStep(row *sql.Row, scenarioID, stepID int64) (domain.Step, error) {
	var step domain.Step
	var choicesJSON, writesJSON sql.NullString

	err := row.Scan(
		&step.ScenarioID, &step.ID, &step.Content,
		&choicesJSON, &writesJSON, &step.DefaultNextStepID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Step{}, fmt.Errorf("scenario %d step %d: %w", scenarioID, stepID, domain.ErrStepNotFound)
	}
	if err != nil {
		return domain.Step{}, fmt.Errorf("scan step row: %w", err)
	}

	if choicesJSON.Valid && choicesJSON.String != "" {
		if err := json.Unmarshal([]byte(choicesJSON.String), &step.Choices); err != nil {
			return domain.Step{}, fmt.Errorf("decode choices for step %d: %w", step.ID, err)
		}
	}
	if writesJSON.Valid && writesJSON.String != "" {
		if err := json.Unmarshal([]byte(writesJSON.String), &step.Writes); err != nil {
			return domain.Step{}, fmt.Errorf("decode variable writes for step %d: %w", step.ID, err)
		}
	}

	return step, nil
}

// Scenarios lists all scenarios, ordered by id.
func (c *SQLiteCatalog) Scenarios(ctx context.Context) ([]domain.Scenario, error) {
	query := `SELECT id, name, description, start_step_id FROM scenarios ORDER BY id`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query scenarios: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var scenarios []domain.Scenario
	for rows.Next() {
		var sc domain.Scenario
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.Description, &sc.StartStepID); err != nil {
			return nil, fmt.Errorf("scan scenario row: %w", err)
		}
		scenarios = append(scenarios, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenarios: %w", err)
	}

	return scenarios, nil
}

// Seed installs the demo scenario if the catalog is empty. Runs once at
// startup; the catalog is never written after that.
func (c *SQLiteCatalog) Seed(ctx context.Context) error {
	var count int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scenarios`).Scan(&count); err != nil {
		return fmt.Errorf("count scenarios: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, sc := range seedScenarios() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO scenarios (id, name, description, start_step_id) VALUES (?, ?, ?, ?)`,
			sc.ID, sc.Name, sc.Description, sc.StartStepID,
		)
		if err != nil {
			return fmt.Errorf("insert scenario %d: %w", sc.ID, err)
		}
	}

	for _, step := range seedSteps() {
		choicesJSON, err := marshalOrNil(step.Choices)
		if err != nil {
			return fmt.Errorf("encode choices for step %d: %w", step.ID, err)
		}
		writesJSON, err := marshalOrNil(step.Writes)
		if err != nil {
			return fmt.Errorf("encode variable writes for step %d: %w", step.ID, err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO scenario_steps (scenario_id, id, content, choices_json, writes_json, default_next_step_id)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			step.ScenarioID, step.ID, step.Content, choicesJSON, writesJSON, step.DefaultNextStepID,
		)
		if err != nil {
			return fmt.Errorf("insert step %d: %w", step.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}
	return nil
}

func marshalOrNil(v any) (any, error) {
	switch x := v.(type) {
	case []domain.Choice:
		if len(x) == 0 {
			return nil, nil
		}
	case []domain.VarWrite:
		if len(x) == 0 {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
