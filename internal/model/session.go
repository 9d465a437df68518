package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Mode is the single activity an actor is engaged in. Only the variants
// declared in this package implement it.
type Mode interface {
	Kind() ModeKind
	mode()
}

type ModeKind string

const (
	ModeIdle       ModeKind = "idle"
	ModeConfirming ModeKind = "confirming"
	ModeEditing    ModeKind = "editing"
	ModeSearching  ModeKind = "searching"
)

type Idle struct{}

// Confirming holds the live batch awaiting accept or cancel.
type Confirming struct {
	Batch DraftBatch
}

// Editing targets one stored product. Field stays nil until the actor
// picks which field to change. Parked holds a batch that was awaiting
// confirmation when editing started.
type Editing struct {
	ProductID int64
	Field     *Field
	Parked    DraftBatch
}

// Searching consumes the next free text as a query.
type Searching struct {
	Parked DraftBatch
}

func (Idle) Kind() ModeKind       { return ModeIdle }
func (Confirming) Kind() ModeKind { return ModeConfirming }
func (Editing) Kind() ModeKind    { return ModeEditing }
func (Searching) Kind() ModeKind  { return ModeSearching }

func (Idle) mode()       {}
func (Confirming) mode() {}
func (Editing) mode()    {}
func (Searching) mode()  {}

// Session is the per-actor conversation state.
type Session struct {
	ActorID   int64
	Mode      Mode
	Language  string
	UpdatedAt time.Time
}

func NewSession(actorID int64) *Session {
	return &Session{ActorID: actorID, Mode: Idle{}}
}

// Clone returns a copy that shares no mutable state with s.
func (s *Session) Clone() *Session {
	c := *s
	switch m := s.Mode.(type) {
	case Confirming:
		c.Mode = Confirming{Batch: append(DraftBatch(nil), m.Batch...)}
	case Editing:
		if m.Field != nil {
			f := *m.Field
			m.Field = &f
		}
		m.Parked = append(DraftBatch(nil), m.Parked...)
		c.Mode = m
	case Searching:
		c.Mode = Searching{Parked: append(DraftBatch(nil), m.Parked...)}
	case nil:
		c.Mode = Idle{}
	}
	return &c
}

type sessionJSON struct {
	ActorID   int64      `json:"actor_id"`
	Kind      ModeKind   `json:"kind"`
	Batch     DraftBatch `json:"batch,omitempty"`
	ProductID int64      `json:"product_id,omitempty"`
	Field     *Field     `json:"field,omitempty"`
	Parked    DraftBatch `json:"parked,omitempty"`
	Language  string     `json:"language,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (s Session) MarshalJSON() ([]byte, error) {
	out := sessionJSON{
		ActorID:   s.ActorID,
		Kind:      ModeIdle,
		Language:  s.Language,
		UpdatedAt: s.UpdatedAt,
	}
	switch m := s.Mode.(type) {
	case Confirming:
		out.Kind = ModeConfirming
		out.Batch = m.Batch
	case Editing:
		out.Kind = ModeEditing
		out.ProductID = m.ProductID
		out.Field = m.Field
		out.Parked = m.Parked
	case Searching:
		out.Kind = ModeSearching
		out.Parked = m.Parked
	}
	return json.Marshal(out)
}

func (s *Session) UnmarshalJSON(data []byte) error {
	var in sessionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.ActorID = in.ActorID
	s.Language = in.Language
	s.UpdatedAt = in.UpdatedAt
	switch in.Kind {
	case ModeIdle, "":
		s.Mode = Idle{}
	case ModeConfirming:
		s.Mode = Confirming{Batch: in.Batch}
	case ModeEditing:
		s.Mode = Editing{ProductID: in.ProductID, Field: in.Field, Parked: in.Parked}
	case ModeSearching:
		s.Mode = Searching{Parked: in.Parked}
	default:
		return fmt.Errorf("unknown session mode %q", in.Kind)
	}
	return nil
}
