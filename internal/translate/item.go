package translate

import "encoding/json"

// Item is one entry of the translation service's JSON array: a zotero
// field bag plus the notes folded into it from any following note-only
// entries. Fields are kept generic (map[string]any) because the zotero
// schema varies by item type and this layer only needs to transform
// leaf strings and read a handful of well-known keys.
type Item struct {
	Fields map[string]any
	Notes  []string
}

func (i *Item) itemType() string {
	s, _ := i.Fields["itemType"].(string)
	return s
}

func (i *Item) noteContent() string {
	s, _ := i.Fields["note"].(string)
	return s
}

// ParseItems decodes the translation service's JSON array into raw field
// bags. Stage 1 of §4.4: "fail with ConversionError(bad json) on parse
// errors" is the caller's responsibility (PostProcess wraps this).
func ParseItems(body []byte) ([]Item, error) {
	var raw []map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	items := make([]Item, len(raw))
	for i, fields := range raw {
		items[i] = Item{Fields: fields}
	}
	return items, nil
}

// FoldNotes merges every note-only item (itemType == "note") into the
// Notes slice of the preceding non-note item, then drops the note-only
// entries from the returned slice, per spec §4.3: "folding note-only
// entries into the preceding item's notes array".
func FoldNotes(items []Item) []Item {
	var out []Item
	for _, item := range items {
		if item.itemType() == "note" {
			if len(out) > 0 {
				if content := item.noteContent(); content != "" {
					out[len(out)-1].Notes = append(out[len(out)-1].Notes, content)
				}
			}
			continue
		}
		out = append(out, item)
	}
	return out
}
