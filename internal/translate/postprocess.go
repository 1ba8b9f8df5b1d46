package translate

import (
	"fmt"

	"zoterharvest/internal/domain"
)

// PostProcess implements the full §4.3 pipeline: parse, fold notes, then
// apply the merged zotero-layer metadata filters to each surviving item.
func PostProcess(body []byte, params domain.MetadataParams) ([]Item, error) {
	items, err := ParseItems(body)
	if err != nil {
		return nil, fmt.Errorf("translate: bad json: %w", err)
	}

	items = FoldNotes(items)

	for i := range items {
		ApplySuppressOverride(&items[i], params)
	}
	return items, nil
}
