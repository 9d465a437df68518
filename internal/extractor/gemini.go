package extractor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fekuna/omnipos-voice-intake/internal/logger"
	"github.com/fekuna/omnipos-voice-intake/internal/model"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const instruction = `You are a data entry assistant for an auto parts store in Uzbekistan.
The speaker mixes Uzbek, Russian and English and rarely names the fields.
Infer each field from context and return a JSON array of objects with keys:
name (product name exactly as spoken, without the car model),
category (car model, e.g. Spark, Cobalt, Lacetti, Nexia 2, Spark 1.25),
firma (brand or manufacturer; car models are never a firma),
code (part number), quantity (integer count, null when not said),
cost_price (purchase price), sale_price (selling price),
currency ("USD" or "UZS").
Decimals may be spoken as "10 u 4" or "10 butun 4" meaning 10.4.
Return only the JSON array.`

type GeminiConfig struct {
	APIKey          string
	Model           string
	BaseURL         string
	Timeout         time.Duration
	RatePerMinute   int
	DefaultCurrency model.Currency // applied when the model names none
}

// GeminiClient calls the generateContent endpoint with the clip inlined.
type GeminiClient struct {
	cfg     GeminiConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  logger.ZapLogger
}

func NewGeminiClient(cfg GeminiConfig, log logger.ZapLogger) *GeminiClient {
	limit := rate.Inf
	if cfg.RatePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RatePerMinute))
	}
	return &GeminiClient{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		logger:  log,
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) Extract(ctx context.Context, audio []byte, mimeType string) ([]model.ProductDraft, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{
			{Text: instruction},
			{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(audio)}},
		}}},
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
	})
	if err != nil {
		return nil, fmt.Errorf("creating request body: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	var text strings.Builder
	if len(gr.Candidates) > 0 {
		for _, p := range gr.Candidates[0].Content.Parts {
			text.WriteString(p.Text)
		}
	}
	c.logger.Debug("extractor response", zap.String("text", text.String()))

	drafts, err := ParseDrafts(text.String())
	if err != nil {
		return nil, err
	}
	for i := range drafts {
		if drafts[i].Currency == nil && c.cfg.DefaultCurrency != "" {
			cur := c.cfg.DefaultCurrency
			drafts[i].Currency = &cur
		}
	}
	return drafts, nil
}

// looseDraft accepts the shapes the model actually produces: numbers as
// strings, nulls, a single object instead of an array.
type looseDraft struct {
	Name      looseString `json:"name"`
	Category  looseString `json:"category"`
	Firma     looseString `json:"firma"`
	Code      looseString `json:"code"`
	Quantity  looseNumber `json:"quantity"`
	CostPrice looseNumber `json:"cost_price"`
	SalePrice looseNumber `json:"sale_price"`
	Currency  looseString `json:"currency"`
}

type looseString struct{ v *string }

func (s *looseString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		if str = strings.TrimSpace(str); str != "" {
			s.v = &str
		}
		return nil
	}
	// codes are often emitted as bare numbers
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	str = n.String()
	s.v = &str
	return nil
}

type looseNumber struct{ v *float64 }

func (n *looseNumber) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		n.v = &f
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	str = strings.ReplaceAll(strings.TrimSpace(str), ",", ".")
	if str == "" {
		return nil
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		// unusable numbers are dropped, not fatal
		return nil
	}
	n.v = &f
	return nil
}

var ErrMalformed = errors.New("extractor returned malformed drafts")

// ParseDrafts decodes the model's text answer, tolerating markdown fences.
func ParseDrafts(text string) ([]model.ProductDraft, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return []model.ProductDraft{}, nil
	}

	var raw []looseDraft
	if strings.HasPrefix(cleaned, "{") {
		var one looseDraft
		if err := json.Unmarshal([]byte(cleaned), &one); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		raw = []looseDraft{one}
	} else if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	drafts := make([]model.ProductDraft, 0, len(raw))
	for _, r := range raw {
		d := model.ProductDraft{
			Name:      r.Name.v,
			Category:  r.Category.v,
			Firma:     r.Firma.v,
			Code:      r.Code.v,
			CostPrice: r.CostPrice.v,
			SalePrice: r.SalePrice.v,
		}
		if r.Quantity.v != nil {
			q := int64(math.Round(*r.Quantity.v))
			d.Quantity = &q
		}
		if r.Currency.v != nil {
			if cur, ok := parseCurrency(*r.Currency.v); ok {
				d.Currency = &cur
			}
		}
		drafts = append(drafts, normalize(d))
	}
	return drafts, nil
}

func parseCurrency(s string) (model.Currency, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "USD", "$", "DOLLAR":
		return model.CurrencyUSD, true
	case "UZS", "SUM", "SO'M", "SOM":
		return model.CurrencyUZS, true
	}
	return "", false
}
