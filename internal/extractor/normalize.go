package extractor

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fekuna/omnipos-voice-intake/internal/model"
)

// The model tends to "correct" shop slang into dictionary spelling; these
// rewrites force the spelling the shop uses.
var nameRewrites = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)kollektor|kollekter|kallekter`), "kallektor"},
	{regexp.MustCompile(`(?i)robochiy|rabochey`), "rabochiy"},
}

// carModels maps spoken variants to the canonical model name. Only the
// first matching model is rewritten; trims like "Nexia 2" keep their suffix.
var carModels = []struct {
	canonical string
	re        *regexp.Regexp
}{
	{"Nexia", regexp.MustCompile(`(?i)nexia|neksiya|neksya`)},
	{"Cobalt", regexp.MustCompile(`(?i)cobalt|kobalt`)},
	{"Lacetti", regexp.MustCompile(`(?i)lacetti|lasetti|lacetty`)},
	{"Gentra", regexp.MustCompile(`(?i)gentra|jentra`)},
	{"Spark", regexp.MustCompile(`(?i)spark`)},
	{"Damas", regexp.MustCompile(`(?i)damas`)},
	{"Matiz", regexp.MustCompile(`(?i)matiz`)},
	{"Tico", regexp.MustCompile(`(?i)tico|tiko`)},
}

func normalize(d model.ProductDraft) model.ProductDraft {
	if d.Name != nil {
		name := strings.TrimSpace(*d.Name)
		for _, rw := range nameRewrites {
			name = rw.re.ReplaceAllString(name, rw.repl)
		}
		name = capitalize(name)
		d.Name = &name
	}

	if d.Category != nil {
		cat := strings.TrimSpace(*d.Category)
		for _, m := range carModels {
			if loc := m.re.FindStringIndex(cat); loc != nil {
				cat = cat[:loc[0]] + m.canonical + cat[loc[1]:]
				break
			}
		}
		d.Category = &cat
	}
	return d
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
