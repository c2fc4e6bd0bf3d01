package store

import (
	"context"
	"fmt"
	"time"
)

const runColumns = `id, program_hash, program, engine_version, ir_version, status, error, model_count`

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE id = ?
	`, id)
	return scanRun(row)
}

// ListRuns returns every run ordered by id. Run ids are UUIDv7, so this is
// creation order.
//
// Returns an empty slice (not nil) if there are no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRunsByProgram returns the runs of the program with the given hash,
// ordered by id.
func (s *Store) ReadRunsByProgram(ctx context.Context, programHash string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE program_hash = ?
		ORDER BY id COLLATE BINARY ASC
	`, programHash)
	if err != nil {
		return nil, fmt.Errorf("query runs by program: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadComponentEvals returns the component evaluations of a run ordered
// by seq.
//
// Returns an empty slice (not nil) if none exist.
func (s *Store) ReadComponentEvals(ctx context.Context, runID string) ([]ComponentEval, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, subgraph, component, kind, inputs, outputs, duration_us
		FROM component_evals
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query component evals: %w", err)
	}
	defer rows.Close()

	evals := []ComponentEval{}
	for rows.Next() {
		var (
			ev ComponentEval
			us int64
		)
		if err := rows.Scan(&ev.RunID, &ev.Seq, &ev.Subgraph, &ev.Component, &ev.Kind, &ev.Inputs, &ev.Outputs, &us); err != nil {
			return nil, fmt.Errorf("scan component eval: %w", err)
		}
		ev.Duration = time.Duration(us) * time.Microsecond
		evals = append(evals, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate component evals: %w", err)
	}
	return evals, nil
}

// ReadAnswerSets returns the answer sets of a run ordered by index, then
// id.
//
// Returns an empty slice (not nil) if none exist.
func (s *Store) ReadAnswerSets(ctx context.Context, runID string) ([]AnswerSet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, idx, atoms
		FROM answer_sets
		WHERE run_id = ?
		ORDER BY idx ASC, id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query answer sets: %w", err)
	}
	defer rows.Close()

	sets := []AnswerSet{}
	for rows.Next() {
		var (
			as    AnswerSet
			atoms string
		)
		if err := rows.Scan(&as.ID, &as.RunID, &as.Index, &atoms); err != nil {
			return nil, fmt.Errorf("scan answer set: %w", err)
		}
		if as.Model, err = unmarshalModel(atoms); err != nil {
			return nil, err
		}
		sets = append(sets, as)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answer sets: %w", err)
	}
	return sets, nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run    Run
		status string
	)
	if err := row.Scan(
		&run.ID, &run.ProgramHash, &run.Program, &run.EngineVersion, &run.IRVersion,
		&status, &run.Error, &run.ModelCount,
	); err != nil {
		return Run{}, err
	}
	run.Status = RunStatus(status)
	return run, nil
}
