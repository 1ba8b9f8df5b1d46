package convert

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"zoterharvest/internal/domain"
)

// hashableFields renders every field of catalog except the bookkeeping
// fields listed in domain.BookkeepingFields, in a stable order, for
// §4.4 stage 9's checksum.
func hashableFields(catalog domain.CatalogRecord) string {
	excluded := map[string]bool{}
	for _, f := range domain.BookkeepingFields {
		excluded[f] = true
	}

	var parts []string
	add := func(tag, value string) {
		if value == "" || excluded[tag] {
			return
		}
		parts = append(parts, tag+"="+value)
	}

	add("LDR", catalog.Leader)
	add("ISL", catalog.GroupISIL)
	if catalog.IsOnline {
		add("ONL", "1")
	}
	add("TIT", catalog.Title)
	add("LNG", strings.Join(catalog.Languages, ","))
	add("ABS", catalog.Abstract)
	add("DAT", catalog.Date)
	add("LIC", catalog.LicenseCode)
	add("DOI", catalog.DOI)
	add("ISS", catalog.SuperiorISSN)
	add("PPN", catalog.SuperiorPPN)
	add("VIP", catalog.VolumeIssuePagesYear)
	add("KWD", strings.Join(catalog.Keywords, ","))
	add("SSG", catalog.SSGTag)

	for _, a := range catalog.Authors {
		parts = append(parts, "AUT="+strings.Join([]string{a.Last, a.First, a.Title, a.Affix, a.Type, a.PPN, a.GND}, ";"))
	}

	var customTags []string
	for tag := range catalog.CustomFields {
		customTags = append(customTags, tag)
	}
	sort.Strings(customTags)
	for _, tag := range customTags {
		for _, v := range catalog.CustomFields[tag] {
			add(tag, v)
		}
	}

	return strings.Join(parts, "|")
}

// HashAndIdentify implements §4.4 stage 9: compute the record's checksum
// (excluding bookkeeping fields) and set its identifier to
// "<group>#<yyyy-mm-dd>#<hash>".
func HashAndIdentify(catalog *domain.CatalogRecord, groupName string, now time.Time) {
	sum := sha256.Sum256([]byte(hashableFields(*catalog)))
	catalog.Hash = hex.EncodeToString(sum[:])
	catalog.ID = fmt.Sprintf("%s#%s#%s", groupName, now.Format("2006-01-02"), catalog.Hash)
}
