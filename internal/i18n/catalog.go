// Package i18n holds the reply texts in every supported language.
package i18n

import (
	"embed"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-voice-intake/internal/report"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var locales embed.FS

// Supported languages, default first.
var Supported = []language.Tag{language.Uzbek, language.English}

type Catalog struct {
	bundle   *goi18n.Bundle
	fallback language.Tag
	labels   map[string]report.Labels
}

// New loads the embedded message files. defaultLang is used whenever a
// session has no language or asks for an unsupported one.
func New(defaultLang string) (*Catalog, error) {
	fallback, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("default language %q: %w", defaultLang, err)
	}
	if !isSupported(fallback) {
		return nil, fmt.Errorf("default language %q is not supported", defaultLang)
	}

	bundle := goi18n.NewBundle(fallback)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	entries, err := locales.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if _, err := bundle.LoadMessageFileFS(locales, "locales/"+e.Name()); err != nil {
			return nil, fmt.Errorf("loading %s: %w", e.Name(), err)
		}
	}

	c := &Catalog{bundle: bundle, fallback: fallback, labels: make(map[string]report.Labels)}
	for _, tag := range Supported {
		c.labels[tag.String()] = c.buildLabels(tag.String())
	}
	return c, nil
}

// Match returns the supported language code for lang and whether it was
// recognised at all.
func (c *Catalog) Match(lang string) (string, bool) {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return c.fallback.String(), false
	}
	base, _ := tag.Base()
	for _, s := range Supported {
		if sb, _ := s.Base(); sb == base {
			return s.String(), true
		}
	}
	return c.fallback.String(), false
}

func (c *Catalog) Default() string { return c.fallback.String() }

// T renders message id in lang. Unknown ids render as the id itself.
func (c *Catalog) T(lang, id string, data map[string]any) string {
	loc := goi18n.NewLocalizer(c.bundle, lang, c.fallback.String())
	msg, err := loc.Localize(&goi18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil {
		return id
	}
	return msg
}

func (c *Catalog) Labels(lang string) report.Labels {
	code, _ := c.Match(lang)
	return c.labels[code]
}

func (c *Catalog) buildLabels(lang string) report.Labels {
	t := func(id string) string { return c.T(lang, id, nil) }
	return report.Labels{
		Draft:       t("label_draft"),
		Name:        t("label_name"),
		Category:    t("label_category"),
		Firma:       t("label_firma"),
		Code:        t("label_code"),
		Quantity:    t("label_quantity"),
		Cost:        t("label_cost"),
		Sale:        t("label_sale"),
		Currency:    t("label_currency"),
		Totals:      t("label_totals"),
		Revenue:     t("label_revenue"),
		Profit:      t("label_profit"),
		ProductList: t("label_product_list"),
		Found:       t("label_found"),
		QtyUnit:     t("label_qty_unit"),
		Truncated:   t("label_truncated"),
	}
}

func isSupported(tag language.Tag) bool {
	for _, s := range Supported {
		if s.String() == tag.String() {
			return true
		}
	}
	return false
}
