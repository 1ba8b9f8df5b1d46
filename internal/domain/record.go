package domain

import "time"

// Creator is one contributor to a MetadataRecord, normalized from the
// zotero creators array.
type Creator struct {
	First string
	Last  string
	Affix string
	Title string
	Type  string // author, editor, contributor, ...
	PPN   string
	GND   string
}

// NoteEntry is a custom note attached to a record, either carried over
// from the translation service or folded in from a note-only item.
type NoteEntry struct {
	Note string
}

// MetadataRecord is the intermediate structure produced by field
// extraction and augmentation (spec §4.4 stages 3-6), before catalog
// assembly.
type MetadataRecord struct {
	ItemType      string
	Title         string
	ShortTitle    string
	Creators      []Creator
	Abstract      string
	PublicationTitle string
	Volume        string
	Issue         string
	Pages         string
	Date          string // normalized YYYY-MM-DD, or original if unparseable
	DOI           string
	Languages     []string
	URL           string
	ISSN          string
	LicenseTag    string
	SSGTag        string
	SuperiorPPN   string
	SuperiorType  SuperiorType
	Keywords      []string
	Notes         []NoteEntry
}

// DeliveryState is one of the states a DeliveredRecordEntry may occupy.
type DeliveryState string

const (
	StateAutomatic  DeliveryState = "AUTOMATIC"
	StateManual     DeliveryState = "MANUAL"
	StateError      DeliveryState = "ERROR"
	StateIgnore     DeliveryState = "IGNORE"
	StateReset      DeliveryState = "RESET"
	StateOnlineFirst DeliveryState = "ONLINE_FIRST"
)

// Retryable reports whether state is eligible for re-delivery (spec §3).
func (s DeliveryState) Retryable() bool {
	return s == StateError || s == StateReset
}

// DeliveredRecordEntry is the identity row tracked by the delivery-history
// store.
type DeliveredRecordEntry struct {
	ID             int64
	URLs           []string
	Hash           string
	MainTitle      string
	ZederJournalID string
	DeliveryState  DeliveryState
	ErrorMessage   string
	DeliveredAt    time.Time
}

// CatalogRecord is the emitted record, holding the subset of catalog-format
// fields the conversion engine is responsible for populating (the
// catalog-format reader/writer itself is out of scope; see SPEC_FULL.md
// Non-goals).
type CatalogRecord struct {
	ID             string // <group>#<yyyy-mm-dd>#<hash>
	GroupISIL      string
	ZederJournalID string
	JournalName    string
	Hash           string

	Leader string

	IsOnline bool // control field: online vs physical carrier

	Authors          []Creator
	Title            string
	Languages        []string
	Abstract         string
	Date             string
	URL              string
	LicenseCode      string
	DOI              string
	SuperiorISSN     string
	SuperiorPPN      string
	VolumeIssuePagesYear string
	Keywords         []string
	SSGTag           string

	CustomFields  map[string][]string // tag -> raw subfield-joined values, for generic add/remove/rewrite
}

// BookkeepingFields are excluded from the hash per spec §3/§8.
var BookkeepingFields = []string{"001", "URL", "ZID", "JOU"}
