package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"zoterharvest/internal/domain"
	"zoterharvest/internal/harvesterrors"
)

// LoadEnhancementMaps reads the three side tables named by
// global_params.enhancement_maps_directory_: an author-name blocklist
// (one name per line), an ISSN-to-license lookup, and a
// keyword-vocabulary-to-MARC-field table (both "key = value" line
// files). A missing directory yields empty maps rather than an error,
// since enhancement maps are optional.
func LoadEnhancementMaps(dir string) (domain.EnhancementMaps, error) {
	maps := domain.EnhancementMaps{
		AuthorBlocklist:   make(map[string]bool),
		IssnLicense:       make(map[string]string),
		KeywordVocabulary: make(map[string]string),
	}
	if dir == "" {
		return maps, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return maps, nil
	}

	if err := loadLineSet(filepath.Join(dir, "author_blocklist.txt"), maps.AuthorBlocklist); err != nil {
		return maps, err
	}
	if err := loadKeyValue(filepath.Join(dir, "issn_license.txt"), maps.IssnLicense); err != nil {
		return maps, err
	}
	if err := loadKeyValue(filepath.Join(dir, "keyword_vocabulary.txt"), maps.KeywordVocabulary); err != nil {
		return maps, err
	}
	return maps, nil
}

func loadLineSet(path string, into map[string]bool) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return harvesterrors.NewConfig("loader", "loadLineSet", fmt.Sprintf("reading %s", path), err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		into[line] = true
	}
	return scanner.Err()
}

func loadKeyValue(path string, into map[string]string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return harvesterrors.NewConfig("loader", "loadKeyValue", fmt.Sprintf("reading %s", path), err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		into[key] = val
	}
	return scanner.Err()
}
