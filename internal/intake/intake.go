// Package intake receives actor events, drives the draft lifecycle and
// answers each event with exactly one reply.
package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-voice-intake/internal/model"
)

type EventKind string

const (
	EventBatch      EventKind = "batch"
	EventVoice      EventKind = "voice"
	EventAccept     EventKind = "accept"
	EventCancel     EventKind = "cancel"
	EventEditSelect EventKind = "edit_select"
	EventEditField  EventKind = "edit_field"
	EventEditLast   EventKind = "edit_last"
	EventBack       EventKind = "back"
	EventSearch     EventKind = "search"
	EventText       EventKind = "text"
	EventReport     EventKind = "report"
	EventPrint      EventKind = "print"
	EventDeleteLast EventKind = "delete_last"
	EventCategories EventKind = "categories"
	EventLanguage   EventKind = "language"
	EventStart      EventKind = "start"
	EventHelp       EventKind = "help"
)

// Event is one inbound trigger from an actor.
type Event struct {
	ID        string               `json:"id"`
	Kind      EventKind            `json:"kind" validate:"required,oneof=batch voice accept cancel edit_select edit_field edit_last back search text report print delete_last categories language start help"`
	ActorID   int64                `json:"actor_id" validate:"required,gt=0"`
	Drafts    []model.ProductDraft `json:"drafts,omitempty"`
	FileURL   string               `json:"file_url,omitempty" validate:"required_if=Kind voice"`
	MimeType  string               `json:"mime_type,omitempty"`
	ProductID int64                `json:"product_id,omitempty" validate:"required_if=Kind edit_select"`
	Field     string               `json:"field,omitempty" validate:"required_if=Kind edit_field"`
	Text      string               `json:"text,omitempty"`
	Language  string               `json:"language,omitempty" validate:"required_if=Kind language"`
}

type ReplyKind string

const (
	ReplyInfo     ReplyKind = "info"
	ReplyPreview  ReplyKind = "preview"
	ReplySuccess  ReplyKind = "success"
	ReplyWarning  ReplyKind = "warning"
	ReplyEmpty    ReplyKind = "empty"
	ReplyError    ReplyKind = "error"
	ReplyDocument ReplyKind = "document"
)

// Choice is an action offered to the actor. Selecting it sends an event
// of Kind carrying the given product id or field.
type Choice struct {
	Label     string    `json:"label"`
	Kind      EventKind `json:"kind"`
	ProductID int64     `json:"product_id,omitempty"`
	Field     string    `json:"field,omitempty"`
}

type Reply struct {
	EventID      string    `json:"event_id,omitempty"`
	ActorID      int64     `json:"actor_id"`
	Kind         ReplyKind `json:"kind"`
	Text         string    `json:"text"`
	DocumentPath string    `json:"document_path,omitempty"`
	Choices      []Choice  `json:"choices,omitempty"`
}

// Controller handles one event at a time per actor. Handle never fails:
// every failure becomes a reply.
type Controller interface {
	Handle(ctx context.Context, ev *Event) *Reply
}

// ClipFetcher downloads a voice clip.
type ClipFetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// ClipTranscoder converts a clip into a format the extractor accepts.
type ClipTranscoder interface {
	ToMP3(ctx context.Context, ogg []byte) ([]byte, string, error)
}

var (
	// ErrExtraction: the extractor failed or its clip could not be obtained.
	ErrExtraction = errors.New("extraction failed")
	// ErrPersistence: a repository call failed. The session keeps its mode.
	ErrPersistence = errors.New("persistence failed")
	// ErrMirror is a soft failure; the primary outcome stands.
	ErrMirror = errors.New("mirror failed")
)

// ValidationError is an event or value the controller refuses to act on.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
