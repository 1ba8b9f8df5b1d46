package langdetect

import (
	"context"

	"zoterharvest/internal/domain"
)

// ExternalDetector is the optional external language-detection service
// consulted before falling back to the trigram classifier (spec §4.4.1
// step 5). nil disables it, so every call falls straight through to
// Classify.
type ExternalDetector interface {
	Detect(ctx context.Context, text string, candidates []string) (string, error)
}

// Resolver implements the full §4.4.1 algorithm.
type Resolver struct {
	External ExternalDetector
}

func NewResolver(external ExternalDetector) *Resolver {
	return &Resolver{External: external}
}

// SourceText returns the text used for detection, per the journal's
// source_text_fields_ setting.
func SourceText(field domain.SourceTextField, title, abstract string) string {
	switch field {
	case domain.SourceAbstract:
		return abstract
	case domain.SourceTitleAbstract:
		if abstract == "" {
			return title
		}
		return title + " " + abstract
	default:
		return title
	}
}

// Resolve returns the language set a MetadataRecord should carry, given
// the zotero-reported language, the journal's configured mode and
// expected languages, and the text to run detection against if needed.
func (r *Resolver) Resolve(ctx context.Context, zoteroLanguage string, journal *domain.JournalParams, sourceText string) []string {
	reported := NormalizeAll([]string{zoteroLanguage})

	if journal.LanguageMode == domain.LanguageForceLanguages {
		return append([]string(nil), journal.ExpectedLanguages...)
	}

	if len(journal.ExpectedLanguages) == 0 {
		return reported
	}

	var detected string
	if len(journal.ExpectedLanguages) == 1 {
		detected = journal.ExpectedLanguages[0]
	} else {
		detected = r.detect(ctx, sourceText, journal.ExpectedLanguages)
	}

	if journal.LanguageMode == domain.LanguageForceDetection {
		if detected != "" && contains(journal.ExpectedLanguages, detected) {
			return []string{detected}
		}
		return nil
	}

	switch len(reported) {
	case 0:
		if detected == "" {
			return nil
		}
		return []string{detected}
	case 1:
		if reported[0] == detected || detected == "" {
			return reported
		}
		return nil // conflict
	default:
		return nil // conflict: more than one reported language is ambiguous
	}
}

func (r *Resolver) detect(ctx context.Context, text string, candidates []string) string {
	if r.External != nil {
		if lang, err := r.External.Detect(ctx, text, candidates); err == nil && lang != "" {
			return lang
		}
	}
	return Classify(text, candidates)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
