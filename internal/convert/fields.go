package convert

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"zoterharvest/internal/domain"
	"zoterharvest/internal/translate"
)

var htmlStripper = bluemonday.StrictPolicy()

func stripHTML(s string) string {
	return strings.TrimSpace(htmlStripper.Sanitize(s))
}

func str(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return stripHTML(v)
	}
	return ""
}

// extractCreators reads the zotero creators array ([]map[string]any with
// firstName/lastName/creatorType) into domain.Creator values, not yet
// normalized (stage 5 does that).
func extractCreators(fields map[string]any) []domain.Creator {
	raw, ok := fields["creators"].([]any)
	if !ok {
		return nil
	}
	creators := make([]domain.Creator, 0, len(raw))
	for _, e := range raw {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		c := domain.Creator{
			First: stripHTML(toString(m["firstName"])),
			Last:  stripHTML(toString(m["lastName"])),
			Type:  toString(m["creatorType"]),
		}
		if c.Type == "" {
			c.Type = "author"
		}
		if c.Last == "" {
			// single-field name, e.g. institutional creator
			c.Last = stripHTML(toString(m["name"]))
		}
		creators = append(creators, c)
	}
	return creators
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

// extractTags reads the zotero tags array ([]map[string]any{"tag":...})
// into a flat keyword list.
func extractTags(fields map[string]any) []string {
	raw, ok := fields["tags"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if m, ok := e.(map[string]any); ok {
			if tag := stripHTML(toString(m["tag"])); tag != "" {
				out = append(out, tag)
			}
		}
	}
	return out
}

// ExtractFields implements §4.4 stage 3: populate a MetadataRecord from
// the zotero fields, stripping HTML from every string value.
func ExtractFields(item *translate.Item) domain.MetadataRecord {
	f := item.Fields
	record := domain.MetadataRecord{
		ItemType:         str(f, "itemType"),
		Title:            str(f, "title"),
		ShortTitle:       str(f, "shortTitle"),
		Creators:         extractCreators(f),
		Abstract:         str(f, "abstractNote"),
		PublicationTitle: str(f, "publicationTitle"),
		Volume:           str(f, "volume"),
		Issue:            str(f, "issue"),
		Pages:            str(f, "pages"),
		Date:             str(f, "date"),
		DOI:              str(f, "DOI"),
		URL:              str(f, "url"),
		ISSN:             str(f, "ISSN"),
		Keywords:         extractTags(f),
	}
	if lang := str(f, "language"); lang != "" {
		record.Languages = []string{lang}
	}
	for _, note := range item.Notes {
		record.Notes = append(record.Notes, domain.NoteEntry{Note: stripHTML(note)})
	}
	return record
}
