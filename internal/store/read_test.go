package store

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"testing"
)

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadRun(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("ReadRun() = %v, want sql.ErrNoRows", err)
	}
}

func TestListRuns_OrderedByID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// insert out of order
	for _, id := range []string{"0192-c", "0192-a", "0192-b"} {
		if err := s.WriteRun(ctx, createTestRun(t, id)); err != nil {
			t.Fatalf("WriteRun(%s) failed: %v", id, err)
		}
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	if !slices.Equal(ids, []string{"0192-a", "0192-b", "0192-c"}) {
		t.Errorf("ids = %v", ids)
	}

	byProgram, err := s.ReadRunsByProgram(ctx, runs[0].ProgramHash)
	if err != nil {
		t.Fatalf("ReadRunsByProgram() failed: %v", err)
	}
	if len(byProgram) != 3 {
		t.Errorf("runs by program = %d, want 3", len(byProgram))
	}
}

func TestReads_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runs, err := s.ListRuns(ctx)
	if err != nil || runs == nil {
		t.Errorf("ListRuns() = %v, %v; want empty slice", runs, err)
	}
	evals, err := s.ReadComponentEvals(ctx, "x")
	if err != nil || evals == nil {
		t.Errorf("ReadComponentEvals() = %v, %v; want empty slice", evals, err)
	}
	sets, err := s.ReadAnswerSets(ctx, "x")
	if err != nil || sets == nil {
		t.Errorf("ReadAnswerSets() = %v, %v; want empty slice", sets, err)
	}
	byProgram, err := s.ReadRunsByProgram(ctx, "x")
	if err != nil || byProgram == nil {
		t.Errorf("ReadRunsByProgram() = %v, %v; want empty slice", byProgram, err)
	}
}

func TestReadAnswerSets_OrderedByIndex(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run := createTestRun(t, "run-1")
	if err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	// written in reverse
	if _, _, err := s.WriteAnswerSet(ctx, run.ID, 1, model(t, "b", "d(1)")); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.WriteAnswerSet(ctx, run.ID, 0, model(t, "a", "d(1)")); err != nil {
		t.Fatal(err)
	}

	sets, err := s.ReadAnswerSets(ctx, run.ID)
	if err != nil {
		t.Fatalf("ReadAnswerSets() failed: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("answer sets = %d, want 2", len(sets))
	}
	for i, want := range [][]string{{"a", "d(1)"}, {"b", "d(1)"}} {
		if sets[i].Index != i {
			t.Errorf("sets[%d].Index = %d", i, sets[i].Index)
		}
		if got := sets[i].Model.Strings(); !slices.Equal(got, want) {
			t.Errorf("sets[%d] = %v, want %v", i, got, want)
		}
	}
}

func TestModelRoundTrip(t *testing.T) {
	m := model(t, `q("b c")`, "p(a,-1)", "-r(x)")
	text, err := marshalModel(m)
	if err != nil {
		t.Fatalf("marshalModel() failed: %v", err)
	}
	back, err := unmarshalModel(text)
	if err != nil {
		t.Fatalf("unmarshalModel() failed: %v", err)
	}
	if !slices.Equal(back.Strings(), m.Strings()) {
		t.Errorf("round trip = %v, want %v", back.Strings(), m.Strings())
	}

	if _, err := unmarshalModel("{"); err == nil {
		t.Error("unmarshalModel() should reject malformed JSON")
	}
}
