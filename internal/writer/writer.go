// Package writer implements the §4.6 output writer cache: one lazily
// opened, append-only file per group, flushed after every record.
// Grounded on job/feed_writer.go's write-to-configured-path shape,
// generalized from a single fixed path to a per-group cache.
package writer

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"zoterharvest/internal/domain"
	"zoterharvest/internal/logger"
)

// Config carries the CLI-level --output-directory/--output-filename
// overrides (spec §6).
type Config struct {
	OutputDir      string
	OutputFilename string
}

type groupFile struct {
	f *os.File
	w *bufio.Writer
}

// Cache lazily opens one output file per group (keyed by the group's
// name) and keeps it open for the life of the run.
type Cache struct {
	cfg Config

	mu    sync.Mutex
	files map[string]*groupFile
}

func NewCache(cfg Config) *Cache {
	return &Cache{cfg: cfg, files: make(map[string]*groupFile)}
}

func (c *Cache) open(group *domain.GroupParams) (*groupFile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gf, ok := c.files[group.Name]; ok {
		return gf, nil
	}

	dir := filepath.Join(c.cfg.OutputDir, group.OutputSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("writer: mkdir %s: %w", dir, err)
	}

	path := filepath.Join(dir, c.cfg.OutputFilename)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("writer: open %s: %w", path, err)
	}

	gf := &groupFile{f: f, w: bufio.NewWriter(f)}
	c.files[group.Name] = gf
	logger.Logger.Info("writer: opened output file", "group", group.Name, "path", path)
	return gf, nil
}

// WriteRecord serializes catalog and appends it to group's output file,
// flushing immediately so a crash mid-run loses at most the in-flight
// record.
func (c *Cache) WriteRecord(group *domain.GroupParams, catalog domain.CatalogRecord) error {
	gf, err := c.open(group)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := gf.w.WriteString(Serialize(catalog)); err != nil {
		return fmt.Errorf("writer: write record %s: %w", catalog.ID, err)
	}
	return gf.w.Flush()
}

// CloseAll flushes and closes every open output file. Call once at
// shutdown.
func (c *Cache) CloseAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for name, gf := range c.files {
		if err := gf.w.Flush(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("writer: flush %s: %w", name, err)
		}
		if err := gf.f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("writer: close %s: %w", name, err)
		}
	}
	return firstErr
}
