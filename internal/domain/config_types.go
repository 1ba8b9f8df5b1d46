package domain

import (
	"fmt"
	"time"
)

// HarvesterOperation selects which download-manager operator services a
// journal. The authoritative dispatch set is these five values uniformly
// (see DESIGN.md open-question decision #1).
type HarvesterOperation string

const (
	OpDirect   HarvesterOperation = "DIRECT"
	OpRSS      HarvesterOperation = "RSS"
	OpCrawl    HarvesterOperation = "CRAWL"
	OpAPIQuery HarvesterOperation = "APIQUERY"
	OpEmail    HarvesterOperation = "EMAIL"
)

// UploadOperation controls whether a journal's records are ever written out.
type UploadOperation string

const (
	UploadNone UploadOperation = "NONE"
	UploadTest UploadOperation = "TEST"
	UploadLive UploadOperation = "LIVE"
)

// SuperiorType records whether a journal's linkage is to its online or
// print instance.
type SuperiorType string

const (
	SuperiorOnline SuperiorType = "ONLINE"
	SuperiorPrint  SuperiorType = "PRINT"
)

// LanguageMode controls how §4.4.1 resolves a record's language set.
type LanguageMode string

const (
	LanguageDefault           LanguageMode = "DEFAULT"
	LanguageForceLanguages    LanguageMode = "FORCE_LANGUAGES"
	LanguageForceDetection    LanguageMode = "FORCE_DETECTION"
	LanguageForceFromTranslator LanguageMode = "FORCE_FROM_TRANSLATOR"
)

// SourceTextField names which zotero fields feed language detection.
type SourceTextField string

const (
	SourceTitle         SourceTextField = "title"
	SourceAbstract      SourceTextField = "abstract"
	SourceTitleAbstract SourceTextField = "title+abstract"
)

// IssnPpn is one online/print identifier pair. A pair is "complete" when
// both fields are non-empty.
type IssnPpn struct {
	ISSN string
	PPN  string
}

func (p IssnPpn) Complete() bool { return p.ISSN != "" && p.PPN != "" }

// CrawlParams configures the CRAWL harvest operator for one journal.
type CrawlParams struct {
	MaxDepth        int
	ExtractionRegex string
	URLRegex        string
}

// PagedFeedParams configures the paged-RSS extension of the feed operator.
type PagedFeedParams struct {
	Enabled       bool
	PageSize      int
	TotalPagesURL string // endpoint queried for total_pages before iterating
}

// DownloadDelayParams controls per-domain request pacing.
type DownloadDelayParams struct {
	DefaultDelay time.Duration
	MaxDelay     time.Duration
	PerDomain    map[string]struct {
		DefaultDelay time.Duration
		MaxDelay     time.Duration
	}
}

// ForDomain returns the effective default/max delay pair for host.
func (d DownloadDelayParams) ForDomain(host string) (def, max time.Duration) {
	if override, ok := d.PerDomain[host]; ok {
		return override.DefaultDelay, override.MaxDelay
	}
	return d.DefaultDelay, d.MaxDelay
}

// JournalParams is the immutable per-journal configuration described in
// spec §3. Loaded once by internal/config and shared by reference across
// every component touching this journal.
type JournalParams struct {
	ZederID  string
	Name     string
	Group    string
	Subgroup string

	EntryURL           string
	HarvesterOperation HarvesterOperation
	UploadOperation    UploadOperation

	Online IssnPpn
	Print  IssnPpn

	StrptimeFormat string
	UpdateWindow   time.Duration

	ReviewRegex string
	NotesRegex  string

	LanguageMode      LanguageMode
	ExpectedLanguages []string
	SourceTextFields  SourceTextField

	Crawl CrawlParams

	Personalize bool

	ZoteroMetadata  MetadataParams
	CatalogMetadata MetadataParams

	SSGTag               string
	LicenseTag           string
	SelectiveEvaluation  bool

	EmailSubjectRegex string
	PagedFeed         PagedFeedParams
}

// Validate enforces the spec §3 JournalParams invariant: at least one of
// online/print ISSN must be present, and each ISSN that is set must be
// accompanied by the PPN of the same pair.
func (j *JournalParams) Validate() error {
	if j.Online.ISSN == "" && j.Print.ISSN == "" {
		return fmt.Errorf("journal %q has neither online nor print ISSN", j.Name)
	}
	if j.Online.ISSN != "" && j.Online.PPN == "" {
		return fmt.Errorf("journal %q has online ISSN without online PPN", j.Name)
	}
	if j.Print.ISSN != "" && j.Print.PPN == "" {
		return fmt.Errorf("journal %q has print ISSN without print PPN", j.Name)
	}
	return nil
}

// SuperiorIssnPpn selects the pair to use for superior-work linkage:
// online preferred, print as fallback.
func (j *JournalParams) SuperiorIssnPpn() (IssnPpn, SuperiorType, bool) {
	if j.Online.Complete() {
		return j.Online, SuperiorOnline, true
	}
	if j.Print.Complete() {
		return j.Print, SuperiorPrint, true
	}
	return IssnPpn{}, "", false
}

// GroupParams is the immutable per-group configuration described in spec §3.
type GroupParams struct {
	Name            string
	UserAgent       string
	ISIL            string
	OutputSubdir    string
	AuthorLookupURL string
	Metadata        MetadataParams
}

// EnhancementMaps are the side tables loaded from
// global_params.enhancement_maps_directory_: an author-name blocklist, an
// ISSN-to-license lookup, and a keyword-vocabulary-to-MARC-field table.
// Present in original_source but only glossary-mentioned by spec.md;
// see SPEC_FULL.md §3.
type EnhancementMaps struct {
	AuthorBlocklist   map[string]bool
	IssnLicense       map[string]string
	KeywordVocabulary map[string]string // vocabulary term -> MARC field tag
}

// GlobalParams is the immutable global configuration described in spec §3.
type GlobalParams struct {
	TranslationServerURL string
	Delay                DownloadDelayParams
	TimeoutCrawl         time.Duration
	TimeoutDownload      time.Duration
	Metadata             MetadataParams
	ReviewRegex          string
	NotesRegex           string
	MailboxPaths         []string
	EnhancementMapsDir   string
	Enhancement          EnhancementMaps
	OnlineFirstUnconditional bool
}
