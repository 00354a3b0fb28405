// Package export writes the final segment table to flat files for
// downstream reporting and dashboard consumers.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/runger/rfmseg/internal/pipeline"
)

// Formats accepted by Write.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatBoth = "both"
)

// TimestampedFilename builds a collision-free output path like
// dir/segments_20260102_150405.csv.
func TimestampedFilename(dir, base, ext string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", base, now.Format("20060102_150405"), ext))
}

// WriteCSV writes the output table as CSV with a header row.
func WriteCSV(path string, rows []pipeline.Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"customer_id", "recency", "frequency", "monetary", "cluster", "persona"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.CustomerID,
			strconv.Itoa(r.Recency),
			strconv.Itoa(r.Frequency),
			strconv.FormatFloat(r.Monetary, 'f', 2, 64),
			strconv.Itoa(r.Cluster),
			string(r.Persona),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// WriteJSON writes the output table as an indented JSON array.
func WriteJSON(path string, rows []pipeline.Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// Write exports the rows in the requested format(s) and returns the paths
// written.
func Write(dir, format string, rows []pipeline.Row, now time.Time) ([]string, error) {
	var paths []string
	if format == FormatCSV || format == FormatBoth {
		path := TimestampedFilename(dir, "segments", "csv", now)
		if err := WriteCSV(path, rows); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	if format == FormatJSON || format == FormatBoth {
		path := TimestampedFilename(dir, "segments", "json", now)
		if err := WriteJSON(path, rows); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("unknown export format %q", format)
	}
	return paths, nil
}
