package session

import (
	"errors"

	"github.com/fekuna/omnipos-voice-intake/internal/model"
)

var (
	ErrNothingToDo      = errors.New("no batch awaiting confirmation")
	ErrNotEditing       = errors.New("no product selected for editing")
	ErrFieldNotSelected = errors.New("no field selected")
)

// Attach makes batch the live batch. Any previous batch, live or parked, is
// replaced; superseded reports how many drafts were dropped that way.
func Attach(m model.Mode, batch model.DraftBatch) (next model.Mode, superseded int) {
	return model.Confirming{Batch: batch}, len(PendingBatch(m))
}

// PendingBatch returns the batch awaiting confirmation, whether live or
// parked behind an edit or search.
func PendingBatch(m model.Mode) model.DraftBatch {
	switch m := m.(type) {
	case model.Confirming:
		return m.Batch
	case model.Editing:
		return m.Parked
	case model.Searching:
		return m.Parked
	}
	return nil
}

// ClearBatch drops the pending batch after accept or cancel.
func ClearBatch(m model.Mode) (model.Mode, error) {
	if len(PendingBatch(m)) == 0 {
		if _, ok := m.(model.Confirming); ok {
			return model.Idle{}, ErrNothingToDo
		}
		return m, ErrNothingToDo
	}
	switch m := m.(type) {
	case model.Editing:
		m.Parked = nil
		return m, nil
	case model.Searching:
		return model.Searching{}, nil
	}
	return model.Idle{}, nil
}

func BeginEdit(m model.Mode, productID int64) model.Mode {
	return model.Editing{ProductID: productID, Parked: PendingBatch(m)}
}

func SelectField(m model.Mode, f model.Field) (model.Mode, error) {
	e, ok := m.(model.Editing)
	if !ok {
		return m, ErrNotEditing
	}
	e.Field = &f
	return e, nil
}

// EditTarget returns the product and field a free-text value would be
// applied to.
func EditTarget(m model.Mode) (productID int64, field model.Field, err error) {
	e, ok := m.(model.Editing)
	if !ok {
		return 0, "", ErrNotEditing
	}
	if e.Field == nil {
		return e.ProductID, "", ErrFieldNotSelected
	}
	return e.ProductID, *e.Field, nil
}

func BeginSearch(m model.Mode) model.Mode {
	return model.Searching{Parked: PendingBatch(m)}
}

// Finish leaves an edit or search. A parked batch becomes live again,
// otherwise the actor is idle.
func Finish(m model.Mode) model.Mode {
	var parked model.DraftBatch
	switch m := m.(type) {
	case model.Editing:
		parked = m.Parked
	case model.Searching:
		parked = m.Parked
	default:
		return m
	}
	if len(parked) > 0 {
		return model.Confirming{Batch: parked}
	}
	return model.Idle{}
}
