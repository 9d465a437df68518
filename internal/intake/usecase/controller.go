package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-voice-intake/internal/extractor"
	"github.com/fekuna/omnipos-voice-intake/internal/i18n"
	"github.com/fekuna/omnipos-voice-intake/internal/intake"
	"github.com/fekuna/omnipos-voice-intake/internal/logger"
	"github.com/fekuna/omnipos-voice-intake/internal/mirror"
	"github.com/fekuna/omnipos-voice-intake/internal/model"
	"github.com/fekuna/omnipos-voice-intake/internal/product"
	"github.com/fekuna/omnipos-voice-intake/internal/product/dto"
	"github.com/fekuna/omnipos-voice-intake/internal/report"
	"github.com/fekuna/omnipos-voice-intake/internal/session"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Deps are the collaborators of the controller. Mirror may be nil.
type Deps struct {
	Products   product.UseCase
	Sessions   session.Store
	Locker     session.Locker
	Extractor  extractor.Extractor
	Fetcher    intake.ClipFetcher
	Transcoder intake.ClipTranscoder
	Mirror     mirror.Mirror
	Catalog    *i18n.Catalog
	ReportDir  string
	Now        func() time.Time
}

// Controller drives the draft lifecycle. Each event runs under the
// actor's lock and the session is written back only when the event
// succeeded, so a failed event leaves the previous mode in place.
type Controller struct {
	products   product.UseCase
	sessions   session.Store
	locker     session.Locker
	extractor  extractor.Extractor
	fetcher    intake.ClipFetcher
	transcoder intake.ClipTranscoder
	mirror     mirror.Mirror
	catalog    *i18n.Catalog
	validate   *validator.Validate
	reportDir  string
	now        func() time.Time
	logger     logger.ZapLogger
}

func NewController(d Deps, log logger.ZapLogger) *Controller {
	c := &Controller{
		products:   d.Products,
		sessions:   d.Sessions,
		locker:     d.Locker,
		extractor:  d.Extractor,
		fetcher:    d.Fetcher,
		transcoder: d.Transcoder,
		mirror:     d.Mirror,
		catalog:    d.Catalog,
		validate:   validator.New(),
		reportDir:  d.ReportDir,
		now:        d.Now,
		logger:     log,
	}
	if c.mirror == nil {
		c.mirror = mirror.Noop{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

type handlerFunc func(ctx context.Context, sess *model.Session, ev *intake.Event) (*intake.Reply, error)

func (c *Controller) route(kind intake.EventKind) handlerFunc {
	switch kind {
	case intake.EventBatch:
		return c.handleBatch
	case intake.EventVoice:
		return c.handleVoice
	case intake.EventAccept:
		return c.handleAccept
	case intake.EventCancel:
		return c.handleCancel
	case intake.EventEditSelect:
		return c.handleEditSelect
	case intake.EventEditLast:
		return c.handleEditLast
	case intake.EventEditField:
		return c.handleEditField
	case intake.EventBack:
		return c.handleBack
	case intake.EventSearch:
		return c.handleSearch
	case intake.EventText:
		return c.handleText
	case intake.EventReport:
		return c.handleReport
	case intake.EventPrint:
		return c.handlePrint
	case intake.EventDeleteLast:
		return c.handleDeleteLast
	case intake.EventCategories:
		return c.handleCategories
	case intake.EventLanguage:
		return c.handleLanguage
	case intake.EventStart:
		return c.static("welcome")
	case intake.EventHelp:
		return c.static("help")
	}
	return nil
}

func (c *Controller) Handle(ctx context.Context, ev *intake.Event) *intake.Reply {
	lang := c.catalog.Default()

	if err := c.validate.Struct(ev); err != nil {
		verr := &intake.ValidationError{Field: "event", Err: err}
		c.logger.Warn("Rejected event", zap.String("event_id", ev.ID), zap.Error(verr))
		return c.finish(ev, &intake.Reply{
			Kind: intake.ReplyError,
			Text: c.catalog.T(lang, "invalid_event", map[string]any{"Reason": reason(err)}),
		})
	}

	unlock, err := c.locker.Lock(ctx, ev.ActorID)
	if err != nil {
		c.logger.Warn("Could not lock actor", zap.Int64("actor_id", ev.ActorID), zap.Error(err))
		return c.finish(ev, c.textReply(lang, intake.ReplyError, "busy", nil))
	}
	defer unlock()

	sess, err := c.sessions.Get(ctx, ev.ActorID)
	if err != nil {
		c.logger.Error("Failed to load session", zap.Int64("actor_id", ev.ActorID), zap.Error(err))
		return c.finish(ev, c.textReply(lang, intake.ReplyError, "internal_error", nil))
	}

	reply, err := c.route(ev.Kind)(ctx, sess, ev)
	if err != nil {
		c.logger.Error("Event failed",
			zap.Int64("actor_id", ev.ActorID),
			zap.String("kind", string(ev.Kind)),
			zap.String("mode", string(sess.Mode.Kind())),
			zap.Error(err),
		)
		return c.finish(ev, c.failure(c.lang(sess), ev.Kind, err))
	}

	sess.UpdatedAt = c.now()
	if err := c.sessions.Save(ctx, sess); err != nil {
		c.logger.Error("Failed to save session", zap.Int64("actor_id", ev.ActorID), zap.Error(err))
		return c.finish(ev, c.textReply(c.lang(sess), intake.ReplyError, "internal_error", nil))
	}
	return c.finish(ev, reply)
}

// PresentBatch renders every draft with placeholders for missing fields.
func (c *Controller) PresentBatch(batch model.DraftBatch, lang string) string {
	return report.Preview(batch, c.catalog.Labels(lang))
}

// AcceptBatch persists the pending batch in order. On failure the batch is
// kept for a retry and drafts saved before the failure stay saved.
func (c *Controller) AcceptBatch(ctx context.Context, sess *model.Session) ([]model.Product, error) {
	batch := session.PendingBatch(sess.Mode)
	if len(batch) == 0 {
		next, err := session.ClearBatch(sess.Mode)
		sess.Mode = next
		return nil, err
	}

	saved := make([]model.Product, 0, len(batch))
	for i, d := range batch {
		p, err := c.products.CreateProduct(ctx, &dto.CreateProductInput{OwnerID: sess.ActorID, Draft: d})
		if err != nil {
			return saved, fmt.Errorf("%w: draft %d of %d: %w", intake.ErrPersistence, i+1, len(batch), err)
		}
		saved = append(saved, *p)
	}

	next, _ := session.ClearBatch(sess.Mode)
	sess.Mode = next
	return saved, nil
}

func (c *Controller) CancelBatch(sess *model.Session) error {
	next, err := session.ClearBatch(sess.Mode)
	sess.Mode = next
	return err
}

// SelectFieldForEdit attaches the field to an edit in progress.
func (c *Controller) SelectFieldForEdit(sess *model.Session, raw string) (model.Field, error) {
	f, err := model.ParseField(raw)
	if err != nil {
		return "", &intake.ValidationError{Field: "field", Value: raw, Err: err}
	}
	next, err := session.SelectField(sess.Mode, f)
	if err != nil {
		return "", err
	}
	sess.Mode = next
	return f, nil
}

// ApplyEdit stores raw as the new value of the selected field. A value
// that does not fit the field leaves both the record and the edit as
// they were.
func (c *Controller) ApplyEdit(ctx context.Context, sess *model.Session, raw string) (*model.Product, error) {
	id, f, err := session.EditTarget(sess.Mode)
	if err != nil {
		return nil, err
	}

	v, err := f.Coerce(raw)
	if err != nil {
		return nil, &intake.ValidationError{Field: string(f), Value: raw, Err: err}
	}

	p, err := c.products.UpdateField(ctx, &dto.UpdateFieldInput{
		OwnerID:   sess.ActorID,
		ProductID: id,
		Field:     f,
		Value:     v,
	})
	if errors.Is(err, product.ErrNotFound) {
		sess.Mode = session.Finish(sess.Mode)
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: updating %s of %d: %w", intake.ErrPersistence, f, id, err)
	}

	sess.Mode = session.Finish(sess.Mode)
	return p, nil
}

// Search consumes query and leaves searching mode whatever the outcome.
func (c *Controller) Search(ctx context.Context, sess *model.Session, query string) ([]model.Product, error) {
	sess.Mode = session.Finish(sess.Mode)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	found, err := c.products.SearchProducts(ctx, sess.ActorID, query)
	if err != nil {
		return nil, fmt.Errorf("%w: searching %q: %w", intake.ErrPersistence, query, err)
	}
	return found, nil
}

func (c *Controller) failure(lang string, kind intake.EventKind, err error) *intake.Reply {
	id := "internal_error"
	switch {
	case errors.Is(err, intake.ErrExtraction):
		id = "extraction_failed"
	case errors.Is(err, intake.ErrPersistence) && kind == intake.EventAccept:
		id = "save_failed"
	case errors.Is(err, intake.ErrPersistence):
		id = "storage_failed"
	case kind == intake.EventReport:
		id = "report_failed"
	}
	return c.textReply(lang, intake.ReplyError, id, nil)
}

func (c *Controller) finish(ev *intake.Event, r *intake.Reply) *intake.Reply {
	r.EventID = ev.ID
	r.ActorID = ev.ActorID
	return r
}

func (c *Controller) lang(sess *model.Session) string {
	if sess.Language == "" {
		return c.catalog.Default()
	}
	return sess.Language
}

func (c *Controller) msg(sess *model.Session, id string, data map[string]any) string {
	return c.catalog.T(c.lang(sess), id, data)
}

func (c *Controller) textReply(lang string, kind intake.ReplyKind, id string, data map[string]any) *intake.Reply {
	return &intake.Reply{Kind: kind, Text: c.catalog.T(lang, id, data)}
}

func reason(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
