package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fekuna/omnipos-voice-intake/internal/logger"
	"github.com/fekuna/omnipos-voice-intake/internal/model"
)

func TestParseDrafts_LooseShapes(t *testing.T) {
	text := "```json\n" + `[
		{"name": "kollektor prokladka", "category": "neksiya 2", "code": 5499, "quantity": "10", "cost_price": "10,4", "sale_price": 13, "currency": "usd"},
		{"name": null, "quantity": null, "cost_price": "abc"}
	]` + "\n```"

	drafts, err := ParseDrafts(text)
	if err != nil {
		t.Fatalf("ParseDrafts: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("got %d drafts, want 2", len(drafts))
	}

	d := drafts[0]
	if *d.Name != "Kallektor prokladka" {
		t.Errorf("name = %q", *d.Name)
	}
	if *d.Category != "Nexia 2" {
		t.Errorf("category = %q", *d.Category)
	}
	if *d.Code != "5499" || *d.Quantity != 10 || *d.CostPrice != 10.4 || *d.SalePrice != 13 {
		t.Errorf("unexpected draft %+v", d)
	}
	if *d.Currency != model.CurrencyUSD {
		t.Errorf("currency = %q", *d.Currency)
	}

	empty := drafts[1]
	if empty.Name != nil || empty.Quantity != nil || empty.CostPrice != nil {
		t.Errorf("missing values must stay nil: %+v", empty)
	}
}

func TestParseDrafts_EmptyAndSingleObject(t *testing.T) {
	drafts, err := ParseDrafts("[]")
	if err != nil || len(drafts) != 0 {
		t.Fatalf("ParseDrafts([]) = %v, %v", drafts, err)
	}

	drafts, err = ParseDrafts(`{"name": "Amortizator", "category": "Kobalt"}`)
	if err != nil || len(drafts) != 1 || *drafts[0].Category != "Cobalt" {
		t.Fatalf("single object = %+v, %v", drafts, err)
	}

	if _, err := ParseDrafts("not json"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

type flaky struct {
	errs  []error
	calls int
}

func (f *flaky) Extract(context.Context, []byte, string) ([]model.ProductDraft, error) {
	f.calls++
	if f.calls <= len(f.errs) {
		return nil, f.errs[f.calls-1]
	}
	return []model.ProductDraft{{}}, nil
}

func TestWithRetry(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 3,
		Backoff:     func(int) time.Duration { return 0 },
		Retryable:   IsTransient,
	}
	unavailable := &StatusError{StatusCode: http.StatusServiceUnavailable}

	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{"succeeds after transient failures", []error{unavailable, unavailable}, 3, false},
		{"gives up after max attempts", []error{unavailable, unavailable, unavailable}, 3, true},
		{"does not retry client errors", []error{&StatusError{StatusCode: http.StatusBadRequest}}, 1, true},
		{"does not retry malformed output", []error{ErrMalformed}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &flaky{errs: tt.errs}
			_, err := WithRetry(f, policy, logger.NewNop()).Extract(context.Background(), nil, "audio/mp3")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if f.calls != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", f.calls, tt.wantCalls)
			}
		})
	}
}

func TestLinearBackoff(t *testing.T) {
	b := LinearBackoff(1500 * time.Millisecond)
	if b(1) != 1500*time.Millisecond || b(2) != 3*time.Second {
		t.Fatalf("unexpected backoff %s %s", b(1), b(2))
	}
}

func TestGeminiClient_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/test-model:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "secret" {
			t.Errorf("missing api key header")
		}
		var req generateRequest
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if got := req.Contents[0].Parts[1].InlineData.MimeType; got != "audio/mp3" {
			t.Errorf("mime type = %q", got)
		}

		resp := `{"candidates":[{"content":{"parts":[{"text":"[{\"name\":\"Kallektor\",\"quantity\":10}]"}]}}]}`
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, resp)
	}))
	defer srv.Close()

	c := NewGeminiClient(GeminiConfig{
		APIKey:          "secret",
		Model:           "test-model",
		BaseURL:         srv.URL,
		Timeout:         5 * time.Second,
		DefaultCurrency: model.CurrencyUSD,
	}, logger.NewNop())

	drafts, err := c.Extract(context.Background(), []byte("ogg"), "audio/mp3")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(drafts) != 1 || *drafts[0].Name != "Kallektor" || *drafts[0].Quantity != 10 || *drafts[0].Currency != model.CurrencyUSD {
		t.Fatalf("unexpected drafts %+v", drafts)
	}
}

func TestGeminiClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewGeminiClient(GeminiConfig{Model: "m", BaseURL: srv.URL, Timeout: time.Second}, logger.NewNop())
	_, err := c.Extract(context.Background(), nil, "audio/mp3")

	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusServiceUnavailable || !IsTransient(err) {
		t.Fatalf("err = %v, want transient StatusError", err)
	}
}
