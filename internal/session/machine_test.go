package session

import (
	"errors"
	"testing"

	"github.com/fekuna/omnipos-voice-intake/internal/model"
)

func batchOf(n int) model.DraftBatch {
	return make(model.DraftBatch, n)
}

func TestAttach_SupersedesPreviousBatch(t *testing.T) {
	m, superseded := Attach(model.Idle{}, batchOf(2))
	if superseded != 0 || m.Kind() != model.ModeConfirming {
		t.Fatalf("Attach from idle = %v, %d", m, superseded)
	}

	m, superseded = Attach(m, batchOf(3))
	if superseded != 2 {
		t.Fatalf("superseded = %d, want 2", superseded)
	}
	if got := len(PendingBatch(m)); got != 3 {
		t.Fatalf("live batch size = %d, want 3", got)
	}
}

func TestClearBatch_TwiceReportsNothingToDo(t *testing.T) {
	m, _ := Attach(model.Idle{}, batchOf(1))

	m, err := ClearBatch(m)
	if err != nil || m.Kind() != model.ModeIdle {
		t.Fatalf("first ClearBatch = %v, %v", m, err)
	}
	m, err = ClearBatch(m)
	if !errors.Is(err, ErrNothingToDo) || m.Kind() != model.ModeIdle {
		t.Fatalf("second ClearBatch = %v, %v", m, err)
	}
}

func TestEditing_FieldMustBeSelectedBeforeValue(t *testing.T) {
	m := BeginEdit(model.Idle{}, 7)

	id, _, err := EditTarget(m)
	if !errors.Is(err, ErrFieldNotSelected) || id != 7 {
		t.Fatalf("EditTarget without field = %d, %v", id, err)
	}

	m, err = SelectField(m, model.FieldQuantity)
	if err != nil {
		t.Fatalf("SelectField: %v", err)
	}
	id, f, err := EditTarget(m)
	if err != nil || id != 7 || f != model.FieldQuantity {
		t.Fatalf("EditTarget = %d, %s, %v", id, f, err)
	}

	if m := Finish(m); m.Kind() != model.ModeIdle {
		t.Fatalf("Finish = %v, want idle", m)
	}
}

func TestSelectField_RequiresEditing(t *testing.T) {
	if _, err := SelectField(model.Searching{}, model.FieldName); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("err = %v, want ErrNotEditing", err)
	}
}

func TestSearch_ParksAndRestoresBatch(t *testing.T) {
	m, _ := Attach(model.Idle{}, batchOf(2))

	m = BeginSearch(m)
	if m.Kind() != model.ModeSearching || len(PendingBatch(m)) != 2 {
		t.Fatalf("BeginSearch = %#v", m)
	}

	m = Finish(m)
	if m.Kind() != model.ModeConfirming || len(PendingBatch(m)) != 2 {
		t.Fatalf("Finish must restore the parked batch, got %#v", m)
	}

	if m := Finish(BeginSearch(model.Idle{})); m.Kind() != model.ModeIdle {
		t.Fatalf("Finish without parked batch = %v, want idle", m)
	}
}

func TestClearBatch_WhileEditingKeepsEditTarget(t *testing.T) {
	m, _ := Attach(model.Idle{}, batchOf(1))
	m = BeginEdit(m, 9)

	m, err := ClearBatch(m)
	if err != nil {
		t.Fatalf("ClearBatch: %v", err)
	}
	e, ok := m.(model.Editing)
	if !ok || e.ProductID != 9 || len(e.Parked) != 0 {
		t.Fatalf("ClearBatch while editing = %#v", m)
	}
}
