package convert

import (
	"strings"

	"zoterharvest/internal/domain"
)

var articleLikeTypes = map[string]bool{
	"journalarticle": true,
	"magazinearticle": true,
	"newspaperarticle": true,
}

func isArticleLike(itemType string) bool {
	return articleLikeTypes[strings.ToLower(itemType)]
}

// earlyViewOrOnlineFirst implements §4.4 stage 6: for article-like item
// types, an empty issue+volume pair is either an online-first skip
// (unconditionally, or whenever no DOI is present) or passed through
// un-skipped so a later run can pick it up once paginated; the literal
// "n/a" sentinel always means skip as early-view.
func earlyViewOrOnlineFirst(record domain.MetadataRecord, global *domain.GlobalParams, deps Deps) error {
	if !isArticleLike(record.ItemType) {
		return nil
	}

	if strings.EqualFold(record.Issue, "n/a") || strings.EqualFold(record.Volume, "n/a") {
		return skip(deps, "skipped_since_early_view_")
	}

	if record.Issue == "" && record.Volume == "" {
		if global.OnlineFirstUnconditional || record.DOI == "" {
			return skip(deps, "skipped_since_online_first_")
		}
	}

	return nil
}
