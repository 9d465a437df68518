package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-voice-intake/internal/intake"
	"github.com/fekuna/omnipos-voice-intake/internal/model"
	"github.com/fekuna/omnipos-voice-intake/internal/product"
	"github.com/fekuna/omnipos-voice-intake/internal/report"
	"github.com/fekuna/omnipos-voice-intake/internal/session"
	"go.uber.org/zap"
)

func (c *Controller) handleBatch(_ context.Context, sess *model.Session, ev *intake.Event) (*intake.Reply, error) {
	return c.presentDrafts(sess, ev.Drafts), nil
}

func (c *Controller) handleVoice(ctx context.Context, sess *model.Session, ev *intake.Event) (*intake.Reply, error) {
	clip, err := c.fetcher.Fetch(ctx, ev.FileURL)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching clip: %w", intake.ErrExtraction, err)
	}

	mimeType := ev.MimeType
	if mimeType == "" || strings.Contains(mimeType, "ogg") {
		clip, mimeType, err = c.transcoder.ToMP3(ctx, clip)
		if err != nil {
			return nil, fmt.Errorf("%w: transcoding clip: %w", intake.ErrExtraction, err)
		}
	}

	drafts, err := c.extractor.Extract(ctx, clip, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", intake.ErrExtraction, err)
	}
	c.logger.Info("Extracted drafts", zap.Int64("actor_id", sess.ActorID), zap.Int("count", len(drafts)))

	return c.presentDrafts(sess, drafts), nil
}

// presentDrafts makes drafts the live batch, superseding any batch that was
// still pending.
func (c *Controller) presentDrafts(sess *model.Session, drafts model.DraftBatch) *intake.Reply {
	lang := c.lang(sess)
	if len(drafts) == 0 {
		return c.textReply(lang, intake.ReplyEmpty, "nothing_extracted", nil)
	}

	next, superseded := session.Attach(sess.Mode, drafts)
	sess.Mode = next

	parts := make([]string, 0, 4)
	if superseded > 0 {
		c.logger.Info("Superseded pending batch", zap.Int64("actor_id", sess.ActorID), zap.Int("drafts", superseded))
		parts = append(parts, c.msg(sess, "batch_superseded", map[string]any{"Count": superseded}))
	}
	parts = append(parts,
		c.msg(sess, "batch_preview", nil),
		c.PresentBatch(drafts, lang),
		c.msg(sess, "confirm_hint", nil),
	)

	return &intake.Reply{
		Kind:    intake.ReplyPreview,
		Text:    strings.Join(parts, "\n\n"),
		Choices: c.confirmChoices(sess),
	}
}

func (c *Controller) handleAccept(ctx context.Context, sess *model.Session, _ *intake.Event) (*intake.Reply, error) {
	saved, err := c.AcceptBatch(ctx, sess)
	if errors.Is(err, session.ErrNothingToDo) {
		return c.textReply(c.lang(sess), intake.ReplyInfo, "nothing_to_save", nil), nil
	}
	if err != nil {
		return nil, err
	}

	reply := &intake.Reply{
		Kind: intake.ReplySuccess,
		Text: c.msg(sess, "saved", map[string]any{"Count": len(saved)}),
	}
	for _, p := range saved {
		reply.Choices = append(reply.Choices, intake.Choice{
			Label:     "✏️ " + p.Name,
			Kind:      intake.EventEditSelect,
			ProductID: p.ID,
		})
	}

	if err := c.mirrorSaved(ctx, saved); err != nil {
		c.logger.Warn("Spreadsheet mirror failed", zap.Int64("actor_id", sess.ActorID), zap.Error(err))
		reply.Kind = intake.ReplyWarning
		reply.Text += "\n" + c.msg(sess, "mirror_warning", nil)
	}
	return reply, nil
}

func (c *Controller) mirrorSaved(ctx context.Context, saved []model.Product) error {
	if err := c.mirror.Append(ctx, saved); err != nil {
		return fmt.Errorf("%w: %w", intake.ErrMirror, err)
	}
	return nil
}

func (c *Controller) handleCancel(_ context.Context, sess *model.Session, _ *intake.Event) (*intake.Reply, error) {
	if err := c.CancelBatch(sess); errors.Is(err, session.ErrNothingToDo) {
		return c.textReply(c.lang(sess), intake.ReplyInfo, "nothing_to_cancel", nil), nil
	}
	return c.textReply(c.lang(sess), intake.ReplySuccess, "cancelled", nil), nil
}

func (c *Controller) handleEditSelect(ctx context.Context, sess *model.Session, ev *intake.Event) (*intake.Reply, error) {
	p, err := c.products.GetProduct(ctx, sess.ActorID, ev.ProductID)
	if errors.Is(err, product.ErrNotFound) {
		return c.textReply(c.lang(sess), intake.ReplyError, "not_found", nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", intake.ErrPersistence, err)
	}
	return c.beginEdit(sess, p), nil
}

func (c *Controller) handleEditLast(ctx context.Context, sess *model.Session, _ *intake.Event) (*intake.Reply, error) {
	p, err := c.products.GetLastProduct(ctx, sess.ActorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", intake.ErrPersistence, err)
	}
	if p == nil {
		return c.textReply(c.lang(sess), intake.ReplyEmpty, "no_recent", nil), nil
	}
	return c.beginEdit(sess, p), nil
}

func (c *Controller) beginEdit(sess *model.Session, p *model.Product) *intake.Reply {
	sess.Mode = session.BeginEdit(sess.Mode, p.ID)
	return &intake.Reply{
		Kind:    intake.ReplyInfo,
		Text:    c.msg(sess, "choose_field", map[string]any{"Name": p.Name}),
		Choices: c.fieldChoices(sess),
	}
}

func (c *Controller) handleEditField(_ context.Context, sess *model.Session, ev *intake.Event) (*intake.Reply, error) {
	f, err := c.SelectFieldForEdit(sess, ev.Field)
	var verr *intake.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.textReply(c.lang(sess), intake.ReplyError, "unknown_field", nil), nil
	case errors.Is(err, session.ErrNotEditing):
		return c.textReply(c.lang(sess), intake.ReplyError, "not_editing", nil), nil
	case err != nil:
		return nil, err
	}

	return &intake.Reply{
		Kind:    intake.ReplyInfo,
		Text:    c.msg(sess, "send_value", map[string]any{"Field": fieldLabel(c.catalog.Labels(c.lang(sess)), f)}),
		Choices: []intake.Choice{c.backChoice(sess)},
	}, nil
}

// handleBack leaves an edit or search, bringing back a parked batch.
func (c *Controller) handleBack(_ context.Context, sess *model.Session, _ *intake.Event) (*intake.Reply, error) {
	var id string
	switch sess.Mode.(type) {
	case model.Editing:
		id = "edit_done"
	case model.Searching:
		id = "search_done"
	default:
		return c.textReply(c.lang(sess), intake.ReplyInfo, "nothing_to_cancel", nil), nil
	}

	sess.Mode = session.Finish(sess.Mode)
	reply := c.textReply(c.lang(sess), intake.ReplyInfo, id, nil)
	c.remindPending(sess, reply)
	return reply, nil
}

func (c *Controller) handleSearch(_ context.Context, sess *model.Session, _ *intake.Event) (*intake.Reply, error) {
	sess.Mode = session.BeginSearch(sess.Mode)
	return &intake.Reply{
		Kind:    intake.ReplyInfo,
		Text:    c.msg(sess, "search_prompt", nil),
		Choices: []intake.Choice{c.backChoice(sess)},
	}, nil
}

// handleText interprets free text according to the current mode.
func (c *Controller) handleText(ctx context.Context, sess *model.Session, ev *intake.Event) (*intake.Reply, error) {
	lang := c.lang(sess)

	switch mode := sess.Mode.(type) {
	case model.Searching:
		found, err := c.Search(ctx, sess, ev.Text)
		var reply *intake.Reply
		switch {
		case err != nil:
			// the search is over either way, so the reset mode is kept
			c.logger.Error("Search failed", zap.Int64("actor_id", sess.ActorID), zap.Error(err))
			reply = c.textReply(lang, intake.ReplyError, "storage_failed", nil)
		case len(found) == 0:
			reply = c.textReply(lang, intake.ReplyEmpty, "search_empty", map[string]any{"Query": strings.TrimSpace(ev.Text)})
		default:
			reply = &intake.Reply{Kind: intake.ReplyInfo, Text: report.SearchListing(found, c.catalog.Labels(lang))}
		}
		c.remindPending(sess, reply)
		return reply, nil

	case model.Editing:
		p, err := c.ApplyEdit(ctx, sess, ev.Text)
		var verr *intake.ValidationError
		switch {
		case errors.As(err, &verr):
			label := fieldLabel(c.catalog.Labels(lang), model.Field(verr.Field))
			return &intake.Reply{
				Kind:    intake.ReplyError,
				Text:    c.msg(sess, "invalid_value", map[string]any{"Value": verr.Value, "Field": label}),
				Choices: []intake.Choice{c.backChoice(sess)},
			}, nil
		case errors.Is(err, session.ErrFieldNotSelected):
			return &intake.Reply{
				Kind:    intake.ReplyInfo,
				Text:    c.msg(sess, "select_field_first", nil),
				Choices: c.fieldChoices(sess),
			}, nil
		case errors.Is(err, product.ErrNotFound):
			return c.textReply(lang, intake.ReplyError, "not_found", nil), nil
		case err != nil:
			return nil, err
		}

		c.logger.Info("Product updated",
			zap.Int64("actor_id", sess.ActorID),
			zap.Int64("product_id", p.ID),
			zap.String("field", string(*mode.Field)),
		)
		reply := &intake.Reply{
			Kind: intake.ReplySuccess,
			Text: c.msg(sess, "field_updated", map[string]any{"Field": fieldLabel(c.catalog.Labels(lang), *mode.Field)}),
		}
		c.remindPending(sess, reply)
		return reply, nil

	case model.Confirming:
		return &intake.Reply{
			Kind:    intake.ReplyInfo,
			Text:    c.msg(sess, "confirm_hint", nil),
			Choices: c.confirmChoices(sess),
		}, nil
	}

	return c.textReply(lang, intake.ReplyInfo, "unknown_input", nil), nil
}

func (c *Controller) handleReport(ctx context.Context, sess *model.Session, _ *intake.Event) (*intake.Reply, error) {
	products, err := c.products.ListProducts(ctx, sess.ActorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", intake.ErrPersistence, err)
	}
	if len(products) == 0 {
		return c.textReply(c.lang(sess), intake.ReplyEmpty, "report_empty", nil), nil
	}

	path, err := report.ExportXLSX(products, c.reportDir, sess.ActorID, c.now())
	if err != nil {
		return nil, err
	}
	c.logger.Info("Report exported", zap.Int64("actor_id", sess.ActorID), zap.String("path", path), zap.Int("rows", len(products)))

	reply := c.textReply(c.lang(sess), intake.ReplyDocument, "report_ready", nil)
	reply.DocumentPath = path
	return reply, nil
}

func (c *Controller) handlePrint(ctx context.Context, sess *model.Session, _ *intake.Event) (*intake.Reply, error) {
	products, err := c.products.ListProducts(ctx, sess.ActorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", intake.ErrPersistence, err)
	}
	if len(products) == 0 {
		return c.textReply(c.lang(sess), intake.ReplyEmpty, "print_empty", nil), nil
	}
	return &intake.Reply{Kind: intake.ReplyInfo, Text: report.PrintView(products, c.catalog.Labels(c.lang(sess)))}, nil
}

func (c *Controller) handleDeleteLast(ctx context.Context, sess *model.Session, _ *intake.Event) (*intake.Reply, error) {
	p, err := c.products.DeleteLastProduct(ctx, sess.ActorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", intake.ErrPersistence, err)
	}
	if p == nil {
		return c.textReply(c.lang(sess), intake.ReplyEmpty, "no_recent", nil), nil
	}

	if e, ok := sess.Mode.(model.Editing); ok && e.ProductID == p.ID {
		sess.Mode = session.Finish(sess.Mode)
	}
	return c.textReply(c.lang(sess), intake.ReplySuccess, "deleted_last", map[string]any{"Name": p.Name}), nil
}

func (c *Controller) handleCategories(ctx context.Context, sess *model.Session, _ *intake.Event) (*intake.Reply, error) {
	cats, err := c.products.ListCategories(ctx, sess.ActorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", intake.ErrPersistence, err)
	}
	if len(cats) == 0 {
		return c.textReply(c.lang(sess), intake.ReplyEmpty, "categories_empty", nil), nil
	}

	var b strings.Builder
	b.WriteString(c.msg(sess, "categories", nil))
	for _, cat := range cats {
		b.WriteString("\n• ")
		b.WriteString(cat)
	}
	return &intake.Reply{Kind: intake.ReplyInfo, Text: b.String()}, nil
}

func (c *Controller) handleLanguage(_ context.Context, sess *model.Session, ev *intake.Event) (*intake.Reply, error) {
	code, ok := c.catalog.Match(ev.Language)
	if !ok {
		return c.textReply(c.lang(sess), intake.ReplyError, "language_unsupported", nil), nil
	}
	sess.Language = code
	return c.textReply(code, intake.ReplySuccess, "language_set", nil), nil
}

func (c *Controller) static(id string) handlerFunc {
	return func(_ context.Context, sess *model.Session, _ *intake.Event) (*intake.Reply, error) {
		return c.textReply(c.lang(sess), intake.ReplyInfo, id, nil), nil
	}
}

// remindPending appends the confirmation prompt when a batch became live
// again after an edit or search.
func (c *Controller) remindPending(sess *model.Session, reply *intake.Reply) {
	if _, ok := sess.Mode.(model.Confirming); !ok {
		return
	}
	reply.Text += "\n\n" + c.msg(sess, "confirm_hint", nil)
	reply.Choices = append(reply.Choices, c.confirmChoices(sess)...)
}

func (c *Controller) confirmChoices(sess *model.Session) []intake.Choice {
	return []intake.Choice{
		{Label: c.msg(sess, "choice_accept", nil), Kind: intake.EventAccept},
		{Label: c.msg(sess, "choice_cancel", nil), Kind: intake.EventCancel},
	}
}

func (c *Controller) fieldChoices(sess *model.Session) []intake.Choice {
	labels := c.catalog.Labels(c.lang(sess))
	out := make([]intake.Choice, 0, len(model.EditableFields)+1)
	for _, f := range model.EditableFields {
		out = append(out, intake.Choice{Label: fieldLabel(labels, f), Kind: intake.EventEditField, Field: string(f)})
	}
	return append(out, c.backChoice(sess))
}

func (c *Controller) backChoice(sess *model.Session) intake.Choice {
	return intake.Choice{Label: c.msg(sess, "choice_back", nil), Kind: intake.EventBack}
}

func fieldLabel(l report.Labels, f model.Field) string {
	switch f {
	case model.FieldName:
		return l.Name
	case model.FieldCategory:
		return l.Category
	case model.FieldFirma:
		return l.Firma
	case model.FieldCode:
		return l.Code
	case model.FieldQuantity:
		return l.Quantity
	case model.FieldCostPrice:
		return l.Cost
	case model.FieldSalePrice:
		return l.Sale
	}
	return string(f)
}
