// Package skiplog writes rows the loader skipped to a CSV file so they can be
// inspected after a run. A nil *Log discards everything.
package skiplog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Header is the first row of every skip log.
var Header = []string{"phase", "reason", "line_number", "value"}

// Reasons recorded by the loader.
const (
	ReasonMissingField   = "missing_required_field"
	ReasonDuplicateKey   = "duplicate_business_key"
	ReasonNoCatalogRow   = "no_catalog_row"
	ReasonUnresolvedName = "unresolved_ingredient"
	ReasonBlankName      = "blank_ingredient"
)

// Log appends skipped rows to a CSV file and counts them per reason.
type Log struct {
	mu      sync.Mutex
	f       *os.File
	w       *csv.Writer
	reasons map[string]int
}

// Open creates path (and its parent directories) and writes the header.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("skiplog: create dir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("skiplog: create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("skiplog: write header: %w", err)
	}
	return &Log{f: f, w: w, reasons: make(map[string]int)}, nil
}

// Add records one skipped row.
func (l *Log) Add(phase, reason string, line int, value string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reasons[reason]++
	_ = l.w.Write([]string{phase, reason, strconv.Itoa(line), value})
}

// Count returns how many rows were recorded with reason.
func (l *Log) Count(reason string) int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reasons[reason]
}

// Close flushes buffered rows and closes the file.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		_ = l.f.Close()
		return fmt.Errorf("skiplog: flush: %w", err)
	}
	return l.f.Close()
}
