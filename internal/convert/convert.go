package convert

import (
	"context"
	"fmt"

	"zoterharvest/internal/domain"
	"zoterharvest/internal/langdetect"
	"zoterharvest/internal/translate"
)

// ConvertItem runs the full §4.4 pipeline (stages 2-10; stage 1 parsing
// plus note-folding and suppress/override happen upstream in
// internal/translate.PostProcess) over one already-parsed item, returning
// the assembled CatalogRecord or a *SkipError/ConversionError.
func ConvertItem(ctx context.Context, item *translate.Item, cctx Context, lang *langdetect.Resolver, deps Deps) (*domain.CatalogRecord, error) {
	zoteroFilters := domain.MergeMetadataParams(cctx.Global.Metadata, cctx.Group.Metadata, cctx.Journal.ZoteroMetadata)

	if translate.MatchesExclude(item, zoteroFilters.ExcludeFilters) {
		return nil, skip(deps, "skipped_since_exclusion_filters_")
	}

	record := ExtractFields(item)

	if isUndesiredItemType(record.ItemType) {
		return nil, skip(deps, "skipped_since_undesired_item_type_")
	}

	if err := Augment(ctx, &record, cctx, lang, deps); err != nil {
		return nil, fmt.Errorf("convert: augmentation failed: %w", err)
	}

	if err := earlyViewOrOnlineFirst(record, cctx.Global, deps); err != nil {
		return nil, err
	}

	catalog := Assemble(record, cctx)

	catalogFilters := domain.MergeMetadataParams(cctx.Global.Metadata, cctx.Group.Metadata, cctx.Journal.CatalogMetadata)
	if catalogExclusionMatch(&catalog, catalogFilters.ExcludeFilters) {
		return nil, skip(deps, "skipped_since_exclusion_filters_")
	}

	HashAndIdentify(&catalog, cctx.Group.Name, deps.now())

	if err := CheckAlreadyDelivered(ctx, catalog, deps.Delivery, deps); err != nil {
		return nil, err
	}

	return &catalog, nil
}
