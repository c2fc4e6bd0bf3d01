package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/roach88/hexeval/internal/ir"
)

func TestWriteRun_Basic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run := createTestRun(t, "run-1")

	if err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	var status, program string
	err := s.db.QueryRow("SELECT status, program FROM runs WHERE id = ?", run.ID).Scan(&status, &program)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if status != string(StatusRunning) {
		t.Errorf("status = %q, want %q", status, StatusRunning)
	}
	if program != "d(1).\na v b :- d(1).\n" {
		t.Errorf("program = %q", program)
	}
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run := createTestRun(t, "run-1")

	for i := 0; i < 2; i++ {
		if err := s.WriteRun(ctx, run); err != nil {
			t.Fatalf("WriteRun() #%d failed: %v", i, err)
		}
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("runs = %d, want 1", count)
	}
}

func TestFinishRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run := createTestRun(t, "run-1")
	if err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	if err := s.FinishRun(ctx, run.ID, StatusFailed, 0, errors.New("boom")); err != nil {
		t.Fatalf("FinishRun() failed: %v", err)
	}
	got, err := s.ReadRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if got.Status != StatusFailed || got.Error != "boom" {
		t.Errorf("run = %+v, want failed with error boom", got)
	}

	err = s.FinishRun(ctx, "missing", StatusSolved, 1, nil)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("FinishRun(missing) = %v, want sql.ErrNoRows", err)
	}
}

func TestWriteComponentEval_RequiresRun(t *testing.T) {
	s := createTestStore(t)
	err := s.WriteComponentEval(context.Background(), ComponentEval{RunID: "nope", Seq: 1, Component: "c0"})
	if err == nil {
		t.Fatal("WriteComponentEval() should fail without a run (foreign key)")
	}
}

func TestWriteComponentEval_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run := createTestRun(t, "run-1")
	if err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	ev := ComponentEval{
		RunID: run.ID, Seq: 1, Subgraph: "wcc0", Component: "c0", Kind: "ordinary",
		Inputs: 1, Outputs: 2, Duration: 1500 * time.Microsecond,
	}
	for i := 0; i < 2; i++ {
		if err := s.WriteComponentEval(ctx, ev); err != nil {
			t.Fatalf("WriteComponentEval() #%d failed: %v", i, err)
		}
	}

	evals, err := s.ReadComponentEvals(ctx, run.ID)
	if err != nil {
		t.Fatalf("ReadComponentEvals() failed: %v", err)
	}
	if len(evals) != 1 {
		t.Fatalf("evals = %d, want 1", len(evals))
	}
	if evals[0] != ev {
		t.Errorf("eval = %+v, want %+v", evals[0], ev)
	}
}

func TestWriteAnswerSet_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run := createTestRun(t, "run-1")
	if err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	m := model(t, "d(1)", "a")

	id1, inserted, err := s.WriteAnswerSet(ctx, run.ID, 0, m)
	if err != nil {
		t.Fatalf("WriteAnswerSet() failed: %v", err)
	}
	if !inserted {
		t.Error("first write should insert")
	}
	want, _ := ir.AnswerSetID(run.ID, m)
	if id1 != want {
		t.Errorf("id = %s, want %s", id1, want)
	}

	id2, inserted, err := s.WriteAnswerSet(ctx, run.ID, 0, m)
	if err != nil {
		t.Fatalf("second WriteAnswerSet() failed: %v", err)
	}
	if inserted {
		t.Error("duplicate write should not insert")
	}
	if id2 != id1 {
		t.Errorf("duplicate id = %s, want %s", id2, id1)
	}
}

func TestRecordRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run := createTestRun(t, "run-1")
	run.Status = StatusSolved
	run.ModelCount = 2

	evals := []ComponentEval{
		{Seq: 1, Subgraph: "wcc0", Component: "c0", Kind: "ordinary", Inputs: 1, Outputs: 2},
	}
	models := []ir.Interpretation{model(t, "a", "d(1)"), model(t, "b", "d(1)")}

	if err := s.RecordRun(ctx, run, evals, models); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}
	// recording again is a no-op
	if err := s.RecordRun(ctx, run, evals, models); err != nil {
		t.Fatalf("second RecordRun() failed: %v", err)
	}

	got, err := s.ReadRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if got != run {
		t.Errorf("run = %+v, want %+v", got, run)
	}

	stored, err := s.ReadComponentEvals(ctx, run.ID)
	if err != nil {
		t.Fatalf("ReadComponentEvals() failed: %v", err)
	}
	if len(stored) != 1 || stored[0].RunID != run.ID {
		t.Errorf("evals = %+v, want one eval of %s", stored, run.ID)
	}

	sets, err := s.ReadAnswerSets(ctx, run.ID)
	if err != nil {
		t.Fatalf("ReadAnswerSets() failed: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("answer sets = %d, want 2", len(sets))
	}
	if !sets[1].Model.Contains(ir.NewAtom("b")) {
		t.Errorf("answer set 1 = %v, want it to contain b", sets[1].Model.Strings())
	}
}
