// Package langdetect implements §4.4.1 language resolution: normalizing
// zotero-reported language tags to ISO 639-3 codes, and detecting a
// record's language from its title/abstract when the journal configures
// that. golang.org/x/text/language (already pulled in transitively via
// the teacher's charset-detection dependency) does the normalization; no
// repo in the pack ships a language-identification library, so the
// detection fallback is a small closed-vocabulary classifier (see
// classifier.go) built on the standard library — justified in DESIGN.md.
package langdetect

import (
	"strings"

	"golang.org/x/text/language"
)

// Normalize converts a zotero-reported language string (which may be a
// BCP-47 tag, the English name of English, German, French, Spanish,
// Italian, Portuguese or Dutch, or already an ISO 639 code) into a
// 3-letter ISO 639-3 code. ok is false for empty or unrecognized input,
// per spec step 1: "drop unrecognized".
func Normalize(raw string) (code string, ok bool) {
	if raw == "" {
		return "", false
	}
	englishNames := map[string]string{
		"english": "eng", "german": "deu", "french": "fra", "spanish": "spa",
		"italian": "ita", "portuguese": "por", "dutch": "nld",
	}
	if code, ok := englishNames[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return code, true
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return "", false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", false
	}
	iso3, err := base.ISO3()
	if err != nil || iso3 == "" {
		return "", false
	}
	return iso3, true
}

// NormalizeAll normalizes each entry of raws, dropping unrecognized ones
// and de-duplicating while preserving first-seen order.
func NormalizeAll(raws []string) []string {
	seen := make(map[string]bool, len(raws))
	var out []string
	for _, raw := range raws {
		code, ok := Normalize(raw)
		if !ok || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}
