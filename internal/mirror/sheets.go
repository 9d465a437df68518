package mirror

import (
	"context"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-voice-intake/internal/logger"
	"github.com/fekuna/omnipos-voice-intake/internal/model"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type SheetsConfig struct {
	SpreadsheetID   string
	CredentialsFile string
	SheetName       string
}

// SheetsMirror appends one row per product to a Google spreadsheet.
type SheetsMirror struct {
	svc    *sheets.Service
	id     string
	rng    string
	logger logger.ZapLogger
}

// NewSheetsMirror builds the mirror from a service account file. Extra
// client options are appended after the credentials.
func NewSheetsMirror(ctx context.Context, cfg SheetsConfig, log logger.ZapLogger, opts ...option.ClientOption) (*SheetsMirror, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("spreadsheet id is empty")
	}
	if cfg.CredentialsFile != "" {
		opts = append([]option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}, opts...)
	}
	opts = append(opts, option.WithScopes(sheets.SpreadsheetsScope))

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	sheet := cfg.SheetName
	if sheet == "" {
		sheet = "Sheet1"
	}
	return &SheetsMirror{svc: svc, id: cfg.SpreadsheetID, rng: sheet + "!A1", logger: log}, nil
}

func (m *SheetsMirror) Append(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(products))
	for _, p := range products {
		rows = append(rows, Row(p))
	}

	_, err := m.svc.Spreadsheets.Values.
		Append(m.id, m.rng, &sheets.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("appending %d rows: %w", len(rows), err)
	}

	m.logger.Debug("mirrored products", zap.Int("rows", len(rows)))
	return nil
}

// Row is the spreadsheet layout: name, firma, code, category, quantity,
// cost, sale, currency, date.
func Row(p model.Product) []any {
	return []any{
		p.Name,
		str(p.Firma),
		str(p.Code),
		str(p.Category),
		p.Quantity,
		num(p.CostPrice),
		num(p.SalePrice),
		string(p.Currency.OrDefault()),
		p.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func num(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
