package langdetect

import (
	"sort"
	"strings"
	"unicode"
)

// trigramProfiles holds, for each supported ISO 639-3 code, its most
// frequent character trigrams ranked most-to-least common. This is a
// small hand-built profile set (Cavnar & Trenkle-style "out-of-place"
// classification), not a trained model — it only needs to discriminate
// within a journal's small expected_languages_ set, never classify
// open-ended text.
var trigramProfiles = map[string][]string{
	"eng": {" th", "the", "he ", " of", "ing", "and", " to", "ion", "tio", "of ", "to ", "ati", "ent", " an", "is "},
	"deu": {"en ", "der", " de", "ich", "sch", "die", "und", "ung", " di", "che", "ein", "nde", "cht", " un", " ei"},
	"fra": {"es ", " de", "de ", "ent", "le ", " le", "ion", "les", " la", "ati", "que", " co", "tio", "res", "ons"},
	"spa": {"de ", " de", "ión", "os ", "que", " la", "ent", "es ", "la ", "ado", "ar ", "ien", " co", "ar ", "nte"},
	"ita": {" di", "di ", "one", "to ", "ent", "la ", " la", "zio", "che", " co", "per", "ion", "are", "azi", " pe"},
	"por": {" de", "de ", "ão ", "os ", "ent", "que", " co", "ção", "ado", "ar ", " pa", "ara", "ões", " a ", "res"},
	"nld": {"en ", " de", "de ", "van", " va", "het", " he", "ing", "aar", "sch", "ver", "een", " ee", " ge", "cht"},
}

// extractTrigrams returns text's trigrams ranked most-to-least frequent.
func extractTrigrams(text string) []string {
	normalized := strings.ToLower(strings.Join(strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r)
	}), " "))
	normalized = " " + normalized + " "

	counts := make(map[string]int)
	runes := []rune(normalized)
	for i := 0; i+3 <= len(runes); i++ {
		tri := string(runes[i : i+3])
		counts[tri]++
	}

	type scored struct {
		tri   string
		count int
	}
	var all []scored
	for tri, c := range counts {
		all = append(all, scored{tri, c})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].tri < all[j].tri
	})

	ranked := make([]string, len(all))
	for i, s := range all {
		ranked[i] = s.tri
	}
	return ranked
}

// outOfPlaceDistance scores how far sample's trigram ranking diverges
// from profile (lower is closer); unseen trigrams cost a fixed penalty.
func outOfPlaceDistance(sample, profile []string) int {
	const maxPenalty = 20
	profileRank := make(map[string]int, len(profile))
	for i, tri := range profile {
		profileRank[tri] = i
	}

	total := 0
	for sampleIdx, tri := range sample {
		if profIdx, ok := profileRank[tri]; ok {
			diff := sampleIdx - profIdx
			if diff < 0 {
				diff = -diff
			}
			total += diff
		} else {
			total += maxPenalty
		}
	}
	return total
}

// Classify picks the best-matching language among candidates for text,
// restricted to languages this package has a trigram profile for. It
// returns "" if none of candidates has a profile.
func Classify(text string, candidates []string) string {
	sample := extractTrigrams(text)
	if len(sample) > 300 {
		sample = sample[:300]
	}

	best := ""
	bestScore := -1
	for _, code := range candidates {
		profile, ok := trigramProfiles[code]
		if !ok {
			continue
		}
		score := outOfPlaceDistance(sample, profile)
		if bestScore == -1 || score < bestScore {
			bestScore = score
			best = code
		}
	}
	return best
}
