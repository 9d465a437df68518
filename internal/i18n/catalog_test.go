package i18n

import (
	"strings"
	"testing"
)

func TestCatalog_T(t *testing.T) {
	c, err := New("uz")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := c.T("en", "saved", map[string]any{"Count": 3}); got != "Saved 3 products." {
		t.Fatalf("en saved = %q", got)
	}
	if got := c.T("uz", "saved", map[string]any{"Count": 3}); !strings.HasPrefix(got, "3 ta") {
		t.Fatalf("uz saved = %q", got)
	}
	// unsupported languages fall back to the default
	if got, want := c.T("fr", "cancelled", nil), c.T("uz", "cancelled", nil); got != want {
		t.Fatalf("fallback = %q, want %q", got, want)
	}
	if got := c.T("en", "no_such_message", nil); got != "no_such_message" {
		t.Fatalf("unknown id = %q", got)
	}
}

func TestCatalog_Match(t *testing.T) {
	c, err := New("uz")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"en", "en", true},
		{"en-US", "en", true},
		{" uz ", "uz", true},
		{"ru", "uz", false},
		{"???", "uz", false},
	}
	for _, tt := range tests {
		got, ok := c.Match(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Match(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCatalog_Labels(t *testing.T) {
	c, err := New("en")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	en := c.Labels("en")
	if en.Totals != "Totals (%s)" || en.Draft != "Product %d" || en.Quantity != "Qty" {
		t.Fatalf("en labels = %+v", en)
	}
	if uz := c.Labels("uz"); uz.Name != "Nomi" || uz.QtyUnit != "dona" {
		t.Fatalf("uz labels = %+v", uz)
	}
}

func TestNew_RejectsUnsupportedDefault(t *testing.T) {
	if _, err := New("de"); err == nil {
		t.Fatal("expected error")
	}
}
