package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"zoterharvest/internal/domain"
	"zoterharvest/internal/harvesterrors"
)

// Loaded is the fully-resolved configuration tree produced by one INI
// file (plus any --config-overrides snippet merged in first).
type Loaded struct {
	Global   *domain.GlobalParams
	Groups   map[string]*domain.GroupParams
	Journals []*domain.JournalParams
}

// LoadFile parses path, applying overridesSnippet (an INI-formatted
// string) on top first if non-empty, per spec §6's
// "--config-overrides=<ini-snippet> — override keys in all journal
// sections with the snippet's global section".
func LoadFile(path, overridesSnippet string) (*Loaded, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, harvesterrors.NewConfig("loader", "LoadFile", "failed to parse config file", err)
	}

	if strings.TrimSpace(overridesSnippet) != "" {
		if err := applyOverrides(cfg, overridesSnippet); err != nil {
			return nil, err
		}
	}

	global := parseGlobal(cfg.Section("global"))

	groups := make(map[string]*domain.GroupParams)
	var journalSections []*ini.Section
	for _, sec := range cfg.Sections() {
		name := sec.Name()
		if name == "global" || name == ini.DefaultSection {
			continue
		}
		if sec.HasKey("harvester_operation") {
			journalSections = append(journalSections, sec)
			continue
		}
		groups[name] = parseGroup(sec)
	}

	journals := make([]*domain.JournalParams, 0, len(journalSections))
	for _, sec := range journalSections {
		j, err := parseJournal(sec)
		if err != nil {
			return nil, err
		}
		if _, ok := groups[j.Group]; !ok {
			return nil, harvesterrors.NewConfig("loader", "LoadFile",
				fmt.Sprintf("journal %q references unknown group %q", j.Name, j.Group), nil)
		}
		if j.Subgroup != "" {
			if _, ok := groups[j.Subgroup]; !ok {
				return nil, harvesterrors.NewConfig("loader", "LoadFile",
					fmt.Sprintf("journal %q references unknown subgroup %q", j.Name, j.Subgroup), nil)
			}
		}
		if err := j.Validate(); err != nil {
			return nil, harvesterrors.NewConfig("loader", "LoadFile", err.Error(), err)
		}
		journals = append(journals, j)
	}

	return &Loaded{Global: global, Groups: groups, Journals: journals}, nil
}

// applyOverrides merges overridesSnippet's [global] section keys into
// every non-global, non-group section (i.e. every journal section) of
// cfg, shadowing any value already present there.
func applyOverrides(cfg *ini.File, snippet string) error {
	overrideCfg, err := ini.Load([]byte(snippet))
	if err != nil {
		return harvesterrors.NewConfig("loader", "applyOverrides", "failed to parse --config-overrides snippet", err)
	}
	overrideGlobal := overrideCfg.Section("global")
	if overrideGlobal == nil {
		return nil
	}

	for _, sec := range cfg.Sections() {
		if sec.Name() == "global" || sec.Name() == ini.DefaultSection {
			continue
		}
		if !sec.HasKey("harvester_operation") {
			continue // groups/subgroups are untouched by journal-targeted overrides
		}
		for _, key := range overrideGlobal.Keys() {
			sec.Key(key.Name()).SetValue(key.Value())
		}
	}
	return nil
}

func parseGlobal(sec *ini.Section) *domain.GlobalParams {
	get := sec.Key
	return &domain.GlobalParams{
		TranslationServerURL: get("translation_server_url").String(),
		Delay: domain.DownloadDelayParams{
			DefaultDelay: get("delay_default").MustDuration(2 * time.Second),
			MaxDelay:     get("delay_max").MustDuration(30 * time.Second),
		},
		TimeoutCrawl:             get("timeout_crawl").MustDuration(30 * time.Second),
		TimeoutDownload:          get("timeout_download").MustDuration(30 * time.Second),
		Metadata:                 parseMetadataParams(func(k string) string { return get(k).String() }),
		ReviewRegex:              get("review_regex").String(),
		NotesRegex:               get("notes_regex").String(),
		MailboxPaths:             splitSpecs(get("mailbox_paths").String()),
		EnhancementMapsDir:       get("enhancement_maps_directory").String(),
		OnlineFirstUnconditional: get("online_first_unconditional").MustBool(false),
	}
}

func parseGroup(sec *ini.Section) *domain.GroupParams {
	get := sec.Key
	return &domain.GroupParams{
		Name:            sec.Name(),
		UserAgent:       get("user_agent").String(),
		ISIL:            get("isil").String(),
		OutputSubdir:    get("output_subdir").String(),
		AuthorLookupURL: get("author_lookup_url").String(),
		Metadata:        parseMetadataParams(func(k string) string { return get(k).String() }),
	}
}

func parseJournal(sec *ini.Section) (*domain.JournalParams, error) {
	get := sec.Key

	j := &domain.JournalParams{
		ZederID:            get("zeder_id").String(),
		Name:               sec.Name(),
		Group:              get("group").String(),
		Subgroup:           get("subgroup").String(),
		EntryURL:           get("entry_url").String(),
		HarvesterOperation: domain.HarvesterOperation(strings.ToUpper(get("harvester_operation").String())),
		UploadOperation:    domain.UploadOperation(strings.ToUpper(get("upload_operation").MustString("NONE"))),
		Online:             domain.IssnPpn{ISSN: get("online_issn").String(), PPN: get("online_ppn").String()},
		Print:              domain.IssnPpn{ISSN: get("print_issn").String(), PPN: get("print_ppn").String()},
		StrptimeFormat:     get("strptime_format").String(),
		UpdateWindow:       get("update_window").MustDuration(24 * time.Hour),
		ReviewRegex:        get("review_regex").String(),
		NotesRegex:         get("notes_regex").String(),
		LanguageMode:       domain.LanguageMode(strings.ToUpper(get("language_mode").MustString(string(domain.LanguageDefault)))),
		ExpectedLanguages:  splitSpecs(get("expected_languages").String()),
		SourceTextFields:   domain.SourceTextField(get("source_text_fields").MustString(string(domain.SourceTitle))),
		Crawl: domain.CrawlParams{
			MaxDepth:        parseIntOr(get("crawl_max_depth").String(), 1),
			ExtractionRegex: get("crawl_extraction_regex").String(),
			URLRegex:        get("crawl_url_regex").String(),
		},
		Personalize: get("personalize").MustBool(false),
		ZoteroMetadata: parseMetadataParams(func(k string) string {
			return get("zotero_" + k).String()
		}),
		CatalogMetadata: parseMetadataParams(func(k string) string {
			return get("catalog_" + k).String()
		}),
		SSGTag:              get("ssg_tag").String(),
		LicenseTag:          get("license_tag").String(),
		SelectiveEvaluation: get("selective_evaluation").MustBool(false),
		EmailSubjectRegex:   get("email_subject_regex").String(),
		PagedFeed: domain.PagedFeedParams{
			Enabled:       get("paged_feed_enabled").MustBool(false),
			PageSize:      parseIntOr(get("paged_feed_page_size").String(), 50),
			TotalPagesURL: get("paged_feed_total_pages_url").String(),
		},
	}

	if j.ZederID == "" {
		return nil, harvesterrors.NewConfig("loader", "parseJournal", fmt.Sprintf("journal %q missing zeder_id", j.Name), nil)
	}

	return j, nil
}
