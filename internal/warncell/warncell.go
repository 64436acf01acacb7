// Package warncell loads the DWD Warncell reference table: a
// code -> {full_name, short_name} map used to render human-readable area
// labels. Loading it is a hard precondition at startup (spec.md §4.2) —
// there is no graceful degradation path, unlike the feed or enrichment
// components.
package warncell

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Entry is one row of the Warncell table.
type Entry struct {
	FullName  string
	ShortName string
}

// Table is the loaded, read-only code->Entry map.
type Table struct {
	entries map[string]Entry
}

// Lookup returns the entry for a warncell ID, if known.
func (t *Table) Lookup(warncellID string) (Entry, bool) {
	e, ok := t.entries[warncellID]
	return e, ok
}

// Len reports the number of loaded entries.
func (t *Table) Len() int {
	return len(t.entries)
}

const fieldCount = 5

// Load downloads and parses the semicolon-delimited Warncell CSV at url.
// The document's first record is a header row and is discarded.
func Load(ctx context.Context, url string) (*Table, error) {
	client := &http.Client{Timeout: 30 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building warncell request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching warncell table: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("warncell server returned status %d", resp.StatusCode)
	}

	return parse(resp.Body)
}

func parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing warncell CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("warncell document had no rows")
	}

	// First record is the header; discard it.
	records = records[1:]

	entries := make(map[string]Entry, len(records))
	for _, record := range records {
		if len(record) < fieldCount {
			continue
		}
		warncellID := strings.TrimSpace(record[0])
		if warncellID == "" {
			continue
		}
		entries[warncellID] = Entry{
			FullName:  strings.TrimSpace(record[1]),
			ShortName: strings.TrimSpace(record[3]),
		}
	}

	return &Table{entries: entries}, nil
}
