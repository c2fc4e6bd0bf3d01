package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/hexeval/internal/ir"
)

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	status := run.Status
	if status == "" {
		status = StatusRunning
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, program_hash, program, engine_version, ir_version, status, error, model_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.ProgramHash,
		run.Program,
		run.EngineVersion,
		run.IRVersion,
		string(status),
		run.Error,
		run.ModelCount,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a run. Returns an error wrapping
// sql.ErrNoRows if the run does not exist.
func (s *Store) FinishRun(ctx context.Context, id string, status RunStatus, modelCount int, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, model_count = ?, error = ?
		WHERE id = ?
	`, string(status), modelCount, msg, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// WriteComponentEval inserts a component evaluation record.
// Uses ON CONFLICT(run_id, seq) DO NOTHING for idempotency.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteComponentEval(ctx context.Context, ev ComponentEval) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO component_evals
		(run_id, seq, subgraph, component, kind, inputs, outputs, duration_us)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		ev.RunID,
		ev.Seq,
		ev.Subgraph,
		ev.Component,
		ev.Kind,
		ev.Inputs,
		ev.Outputs,
		ev.Duration.Microseconds(),
	)
	if err != nil {
		return fmt.Errorf("write component eval: %w", err)
	}
	return nil
}

// WriteAnswerSet inserts model m as answer set index of a run.
// Returns the content-addressed ID and whether a new record was inserted.
//
// The ID is ir.AnswerSetID(runID, m), so writing the same model twice for
// a run is a no-op and returns inserted=false.
//
// Note: The run referenced by runID must exist (foreign key constraint).
func (s *Store) WriteAnswerSet(ctx context.Context, runID string, index int, m ir.Interpretation) (id string, inserted bool, err error) {
	id, err = ir.AnswerSetID(runID, m)
	if err != nil {
		return "", false, fmt.Errorf("write answer set: %w", err)
	}
	atoms, err := marshalModel(m)
	if err != nil {
		return "", false, fmt.Errorf("write answer set: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO answer_sets (id, run_id, idx, atoms)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, id, runID, index, atoms)
	if err != nil {
		return "", false, fmt.Errorf("write answer set: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("write answer set: %w", err)
	}
	return id, n > 0, nil
}

// RecordRun stores a finished run with its component evaluations and
// models in one transaction. The run row is written first so the foreign
// keys of the other rows hold. An existing run with the same id is left
// as it is.
func (s *Store) RecordRun(ctx context.Context, run Run, evals []ComponentEval, models []ir.Interpretation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if run.Status == "" {
		run.Status = StatusRunning
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, program_hash, program, engine_version, ir_version, status, error, model_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.ProgramHash, run.Program, run.EngineVersion, run.IRVersion,
		string(run.Status), run.Error, run.ModelCount); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	for _, ev := range evals {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO component_evals
			(run_id, seq, subgraph, component, kind, inputs, outputs, duration_us)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, seq) DO NOTHING
		`, run.ID, ev.Seq, ev.Subgraph, ev.Component, ev.Kind, ev.Inputs, ev.Outputs,
			ev.Duration.Microseconds()); err != nil {
			return fmt.Errorf("record run: component eval %d: %w", ev.Seq, err)
		}
	}

	for i, m := range models {
		var id, atoms string
		if id, err = ir.AnswerSetID(run.ID, m); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		if atoms, err = marshalModel(m); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO answer_sets (id, run_id, idx, atoms)
			VALUES (?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, id, run.ID, i, atoms); err != nil {
			return fmt.Errorf("record run: answer set %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("record run: commit: %w", err)
	}
	return nil
}
